package mirror

import (
	"context"
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breedmirror/pkg/config"
	"breedmirror/pkg/logger"
	"breedmirror/pkg/ui"
	"breedmirror/pkg/webapi"
)

// fakeCatalog serves breeds and images from in-memory maps
type fakeCatalog struct {
	breeds map[string][]string
	images map[string][]string
	errs   map[string]error
}

func (f *fakeCatalog) ListAllBreeds(ctx context.Context) (map[string][]string, error) {
	return f.breeds, nil
}

func (f *fakeCatalog) BreedImages(ctx context.Context, breed, subBreed string) ([]string, error) {
	key := breed
	if subBreed != "" {
		key = breed + "/" + subBreed
	}
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	return f.images[key], nil
}

// fakeStorage records uploads instead of talking to a backend
type fakeStorage struct {
	dirs      []string
	uploads   map[string]string
	order     []string
	uploadErr error
}

func (f *fakeStorage) CreateDirectory(ctx context.Context, dirPath string, ignoreExisting bool) error {
	f.dirs = append(f.dirs, dirPath)
	return nil
}

func (f *fakeStorage) UploadFromURL(ctx context.Context, filePath, sourceURL string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	if f.uploads == nil {
		f.uploads = make(map[string]string)
	}
	f.uploads[filePath] = sourceURL
	f.order = append(f.order, filePath)
	return nil
}

func testMirrorConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Mirror.RemoteBaseDir = "/dog_breeds"
	return cfg
}

func TestRunMirrorsEveryVariant(t *testing.T) {
	ui.SetQuietMode(true)
	defer ui.SetQuietMode(false)

	catalog := &fakeCatalog{
		breeds: map[string][]string{
			"hound": {"afghan", "basset"},
			"pug":   {},
		},
		images: map[string][]string{
			"hound/afghan": {"https://images.dog.ceo/breeds/hound-afghan/a1.jpg"},
			"hound/basset": {"https://images.dog.ceo/breeds/hound-basset/b1.jpg", "https://images.dog.ceo/breeds/hound-basset/b2.jpg"},
			"pug":          {"https://images.dog.ceo/breeds/pug/p1.jpg"},
		},
	}
	storage := &fakeStorage{}

	m := NewWithClients(testMirrorConfig(), catalog, storage, logger.NewTestLogger())
	rep, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"/dog_breeds"}, storage.dirs)
	assert.Equal(t, 4, rep.Len())

	// Breeds run alphabetically, sub-breeds in catalog order
	assert.Equal(t, []string{
		"/dog_breeds/hound_afghan_a1.jpg",
		"/dog_breeds/hound_basset_b1.jpg",
		"/dog_breeds/hound_basset_b2.jpg",
		"/dog_breeds/pug_p1.jpg",
	}, storage.order)

	assert.Equal(t, "https://images.dog.ceo/breeds/pug/p1.jpg",
		storage.uploads["/dog_breeds/pug_p1.jpg"])

	names := make([]string, 0, rep.Len())
	for _, e := range rep.Entries() {
		names = append(names, e.FileName)
	}
	assert.Equal(t, []string{
		"hound_afghan_a1.jpg",
		"hound_basset_b1.jpg",
		"hound_basset_b2.jpg",
		"pug_p1.jpg",
	}, names)
}

func TestRunSkipsVanishedVariant(t *testing.T) {
	ui.SetQuietMode(true)
	defer ui.SetQuietMode(false)

	log := logger.NewTestLogger()
	catalog := &fakeCatalog{
		breeds: map[string][]string{
			"hound": {"afghan"},
			"pug":   {},
		},
		images: map[string][]string{
			"pug": {"https://images.dog.ceo/breeds/pug/p1.jpg"},
		},
		errs: map[string]error{
			"hound/afghan": &webapi.StatusError{StatusCode: http.StatusNotFound, Status: "404 Not Found"},
		},
	}
	storage := &fakeStorage{}

	m := NewWithClients(testMirrorConfig(), catalog, storage, log)
	rep, err := m.Run(context.Background())
	require.NoError(t, err, "a vanished variant must not abort the run")

	assert.Equal(t, 1, rep.Len())
	assert.NotEmpty(t, log.MessagesAtLevel("WARN"))
}

func TestRunReturnsPartialReportOnFailure(t *testing.T) {
	ui.SetQuietMode(true)
	defer ui.SetQuietMode(false)

	boom := stderrors.New("storage exploded")
	catalog := &fakeCatalog{
		breeds: map[string][]string{
			"pug": {},
		},
		images: map[string][]string{
			"pug": {"https://images.dog.ceo/breeds/pug/p1.jpg"},
		},
	}
	storage := &fakeStorage{uploadErr: boom}

	m := NewWithClients(testMirrorConfig(), catalog, storage, logger.NewTestLogger())
	rep, err := m.Run(context.Background())
	require.ErrorIs(t, err, boom)
	require.NotNil(t, rep, "the partial report survives the failure")
	assert.Equal(t, 0, rep.Len())
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&webapi.StatusError{StatusCode: http.StatusNotFound}))
	assert.False(t, isNotFound(&webapi.StatusError{StatusCode: http.StatusLocked}))
	assert.False(t, isNotFound(stderrors.New("plain error")))
	assert.False(t, isNotFound(nil))
}
