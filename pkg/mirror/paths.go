package mirror

import "strings"

// BaseName extracts the base file name from a URI, stripping any query
// or fragment component first.
func BaseName(uri string) string {
	uri, _, _ = strings.Cut(uri, "?")
	uri, _, _ = strings.Cut(uri, "#")
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}

// RemoteFileName builds the flat remote name for one mirrored image:
// "<breed>_<sub-breed>_<basename>", dropping the sub-breed segment when
// the breed has no variants.
func RemoteFileName(breed, subBreed, imageURL string) string {
	parts := []string{breed}
	if subBreed != "" {
		parts = append(parts, subBreed)
	}
	parts = append(parts, BaseName(imageURL))
	return strings.Join(parts, "_")
}

// RemotePath joins a remote base directory with a file name
func RemotePath(baseDir, fileName string) string {
	return strings.TrimSuffix(baseDir, "/") + "/" + fileName
}
