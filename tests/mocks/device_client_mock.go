package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/iotplatform/device-onboarding/internal/models"
)

// MockDeviceRegistrar is a mock implementation of the DeviceRegistrar interface
type MockDeviceRegistrar struct {
	mock.Mock
}

func (m *MockDeviceRegistrar) Register(ctx context.Context, draft models.DeviceDraft, documentRef string) (string, error) {
	args := m.Called(ctx, draft, documentRef)
	return args.String(0), args.Error(1)
}
