package mirror

import (
	"context"
	stderrors "errors"
	"net/http"
	"sort"

	"breedmirror/pkg/config"
	"breedmirror/pkg/diskapi"
	"breedmirror/pkg/dogapi"
	"breedmirror/pkg/errors"
	"breedmirror/pkg/logger"
	"breedmirror/pkg/report"
	"breedmirror/pkg/ui"
	"breedmirror/pkg/webapi"
)

// Mirror drives one mirroring run: it enumerates every breed and
// sub-breed from the catalog, uploads each image into cloud storage by
// URL and collects the produced file names in a report. All requests
// are strictly sequential; the clients' rate-limit gates pace the run.
type Mirror struct {
	catalog  CatalogClient
	storage  StorageClient
	cfg      *config.Config
	logger   logger.Logger
	progress *ui.StagedProgress
}

// New creates a Mirror with real API clients built from configuration
func New(cfg *config.Config, log logger.Logger) *Mirror {
	if log == nil {
		log = logger.GetLogger()
	}
	catalog := dogapi.New(&cfg.Catalog, log)
	storage := diskapi.New(&cfg.Storage, log)
	return NewWithClients(cfg, catalog, storage, log)
}

// NewWithClients creates a Mirror around existing clients
func NewWithClients(cfg *config.Config, catalog CatalogClient, storage StorageClient, log logger.Logger) *Mirror {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Mirror{
		catalog:  catalog,
		storage:  storage,
		cfg:      cfg,
		logger:   log,
		progress: ui.NewStagedProgress("breeds", "images"),
	}
}

// Run performs the mirroring and returns the report collected so far.
// On error the report still holds every file mirrored before the
// failure, so the caller can persist partial results.
func (m *Mirror) Run(ctx context.Context) (*report.Report, error) {
	rep := report.New()
	baseDir := m.cfg.Mirror.RemoteBaseDir

	if err := m.storage.CreateDirectory(ctx, baseDir, true); err != nil {
		return rep, err
	}

	breeds, err := m.catalog.ListAllBreeds(ctx)
	if err != nil {
		return rep, err
	}

	// Deterministic order makes runs reproducible and reports diffable
	names := make([]string, 0, len(breeds))
	for breed := range breeds {
		names = append(names, breed)
	}
	sort.Strings(names)

	m.logger.InfoWithFields("starting mirror run", map[string]interface{}{
		"breeds":     len(names),
		"remote_dir": baseDir,
	})
	m.progress.ResetStages(len(names))

	for _, breed := range names {
		subBreeds := breeds[breed]
		if len(subBreeds) > 0 {
			for _, subBreed := range subBreeds {
				if err := m.mirrorVariant(ctx, rep, baseDir, breed, subBreed); err != nil {
					return rep, err
				}
			}
		} else {
			if err := m.mirrorVariant(ctx, rep, baseDir, breed, ""); err != nil {
				return rep, err
			}
		}
		m.progress.UpdateStage(1)
	}
	m.progress.Finish()

	m.logger.InfoWithFields("mirror run finished", map[string]interface{}{
		"files": rep.Len(),
	})
	return rep, nil
}

// mirrorVariant uploads every image of one breed variant. A variant the
// catalog no longer knows is skipped with a warning; any other failure
// aborts the run.
func (m *Mirror) mirrorVariant(ctx context.Context, rep *report.Report, baseDir, breed, subBreed string) error {
	log := m.logger.WithFields(map[string]interface{}{
		"breed":     breed,
		"sub_breed": subBreed,
	})

	images, err := m.catalog.BreedImages(ctx, breed, subBreed)
	if err != nil {
		if isNotFound(err) {
			log.Warn("variant disappeared from the catalog, skipping")
			return nil
		}
		return err
	}

	log.InfoWithFields("mirroring variant", map[string]interface{}{
		"images": len(images),
	})
	m.progress.ResetSubstages(len(images))

	for _, imageURL := range images {
		fileName := RemoteFileName(breed, subBreed, imageURL)
		if err := m.storage.UploadFromURL(ctx, RemotePath(baseDir, fileName), imageURL); err != nil {
			return err
		}
		rep.Append(fileName)
		m.progress.UpdateSubstage(1)
	}
	return nil
}

// isNotFound reports whether the error is a 404 from either API
func isNotFound(err error) bool {
	var statusErr *webapi.StatusError
	if stderrors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusNotFound
	}
	var apiErr *errors.Error
	if stderrors.As(err, &apiErr) {
		return apiErr.Type == errors.ErrorTypeNotFound
	}
	return false
}
