package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentUpload_Validate(t *testing.T) {
	valid := DocumentUpload{
		Filename:    "manual.pdf",
		ContentType: PDFContentType,
		Data:        make([]byte, 2<<20),
	}
	assert.NoError(t, valid.Validate())

	oversize := valid
	oversize.Data = make([]byte, MaxDocumentSize+1)
	err := oversize.Validate()
	require.Error(t, err)
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)

	atLimit := valid
	atLimit.Data = make([]byte, MaxDocumentSize)
	assert.NoError(t, atLimit.Validate(), "exactly 10 MiB is allowed")

	wrongType := valid
	wrongType.Filename = "manual.docx"
	wrongType.ContentType = "application/msword"
	assert.Error(t, wrongType.Validate())

	empty := valid
	empty.Data = nil
	assert.Error(t, empty.Validate())

	noName := valid
	noName.Filename = ""
	assert.Error(t, noName.Validate())

	// A .pdf extension is accepted even when the client sent a generic
	// content type.
	genericType := valid
	genericType.ContentType = "application/octet-stream"
	assert.NoError(t, genericType.Validate())
}
