package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/iotplatform/device-onboarding/internal/models"
)

// MockDocumentUploader is a mock implementation of the DocumentUploader interface
type MockDocumentUploader struct {
	mock.Mock
}

func (m *MockDocumentUploader) Upload(ctx context.Context, doc models.DocumentUpload) (*models.DocumentHandle, error) {
	args := m.Called(ctx, doc)
	if handle := args.Get(0); handle != nil {
		return handle.(*models.DocumentHandle), args.Error(1)
	}
	return nil, args.Error(1)
}
