package mirror

import "context"

// CatalogClient enumerates breeds and their images
type CatalogClient interface {
	ListAllBreeds(ctx context.Context) (map[string][]string, error)
	BreedImages(ctx context.Context, breed, subBreed string) ([]string, error)
}

// StorageClient mirrors artifacts into remote cloud storage
type StorageClient interface {
	CreateDirectory(ctx context.Context, dirPath string, ignoreExisting bool) error
	UploadFromURL(ctx context.Context, filePath, sourceURL string) error
}
