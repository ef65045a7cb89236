// Package archive retains the original documentation files of onboarded
// devices in object storage.
package archive

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iotplatform/device-onboarding/internal/models"
	"github.com/iotplatform/device-onboarding/pkg/objectstore"
)

// DocumentArchive stores onboarding documents under the device they belong
// to. It satisfies the run manager's Archiver interface.
type DocumentArchive struct {
	store  objectstore.ObjectStore
	logger zerolog.Logger
}

// NewDocumentArchive wraps an object store.
func NewDocumentArchive(store objectstore.ObjectStore, logger zerolog.Logger) *DocumentArchive {
	return &DocumentArchive{store: store, logger: logger}
}

// Archive writes the document as <deviceID>/<filename>.
func (a *DocumentArchive) Archive(ctx context.Context, doc models.DocumentUpload, deviceID string) error {
	objectName := fmt.Sprintf("%s/%s", deviceID, doc.Filename)
	if err := a.store.Put(ctx, objectName, doc.Data, models.PDFContentType); err != nil {
		return fmt.Errorf("failed to archive document for device %s: %w", deviceID, err)
	}

	a.logger.Info().
		Str("device_id", deviceID).
		Str("object", objectName).
		Msg("Archived onboarding document")
	return nil
}
