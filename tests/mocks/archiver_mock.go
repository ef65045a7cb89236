package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/iotplatform/device-onboarding/internal/models"
)

// MockArchiver is a mock implementation of the run manager's Archiver interface
type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) Archive(ctx context.Context, doc models.DocumentUpload, deviceID string) error {
	args := m.Called(ctx, doc, deviceID)
	return args.Error(0)
}

// MockObjectStore is a mock implementation of the objectstore.ObjectStore interface
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Put(ctx context.Context, objectName string, data []byte, contentType string) error {
	args := m.Called(ctx, objectName, data, contentType)
	return args.Error(0)
}
