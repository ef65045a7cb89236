package models

import (
	"fmt"
	"strings"
)

// MaxDocumentSize is the upper bound on uploaded documentation files (10 MiB).
const MaxDocumentSize = 10 << 20

// PDFContentType is the only accepted media type for device documentation.
const PDFContentType = "application/pdf"

// DocumentUpload is the raw documentation artifact supplied by the caller.
type DocumentUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Validate enforces the accepted media type and size bound. Violations are
// rejected synchronously, before the upload stage begins.
func (d *DocumentUpload) Validate() error {
	if d.Filename == "" {
		return &ValidationError{Field: "filename", Reason: "document filename is required"}
	}
	if len(d.Data) == 0 {
		return &ValidationError{Field: "file", Reason: "document is empty"}
	}
	if len(d.Data) > MaxDocumentSize {
		return &ValidationError{
			Field:  "file",
			Reason: fmt.Sprintf("document is %d bytes, maximum is %d", len(d.Data), MaxDocumentSize),
		}
	}
	if d.ContentType != PDFContentType && !strings.HasSuffix(strings.ToLower(d.Filename), ".pdf") {
		return &ValidationError{
			Field:  "file",
			Reason: fmt.Sprintf("unsupported media type %q, only PDF documents are accepted", d.ContentType),
		}
	}
	return nil
}

// DocumentHandle is the opaque reference returned by the processing service
// after a successful upload. It correlates the rules-generation request with
// the stored document and is discarded once the workflow ends.
type DocumentHandle struct {
	// StoredName is the identifier assigned by the processing service.
	StoredName string `json:"filename"`

	// OriginalName is the filename as supplied by the caller.
	OriginalName string `json:"original_filename,omitempty"`

	// Size is the uploaded byte count.
	Size int64 `json:"size,omitempty"`

	// ContentType is the declared media type.
	ContentType string `json:"content_type,omitempty"`
}
