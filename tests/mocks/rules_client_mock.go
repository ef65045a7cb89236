package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/iotplatform/device-onboarding/internal/models"
)

// MockRuleGenerator is a mock implementation of the RuleGenerator interface
type MockRuleGenerator struct {
	mock.Mock
}

func (m *MockRuleGenerator) Generate(ctx context.Context, handle models.DocumentHandle, draft models.DeviceDraft) (*models.GeneratedArtifacts, error) {
	args := m.Called(ctx, handle, draft)
	if artifacts := args.Get(0); artifacts != nil {
		return artifacts.(*models.GeneratedArtifacts), args.Error(1)
	}
	return nil, args.Error(1)
}
