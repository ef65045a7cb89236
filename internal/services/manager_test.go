package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rs/zerolog"

	"github.com/iotplatform/device-onboarding/internal/models"
	"github.com/iotplatform/device-onboarding/internal/services"
	"github.com/iotplatform/device-onboarding/tests/mocks"
)

func newTestManager(t *testing.T, archiver services.Archiver) (*services.RunManager, *mocks.MockDocumentUploader, *mocks.MockDeviceRegistrar, *mocks.MockRuleGenerator) {
	t.Helper()

	uploader := new(mocks.MockDocumentUploader)
	registrar := new(mocks.MockDeviceRegistrar)
	rules := new(mocks.MockRuleGenerator)

	svc := newTestService(uploader, registrar, rules)
	manager := services.NewRunManager(svc, 2, time.Minute, archiver, nil, zerolog.Nop())
	t.Cleanup(manager.Shutdown)

	return manager, uploader, registrar, rules
}

func waitForState(t *testing.T, manager *services.RunManager, runID string, want services.RunState) services.RunSnapshot {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snapshot, err := manager.Snapshot(runID)
		require.NoError(t, err)
		if snapshot.State == want {
			return snapshot
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("run %s never reached state %s", runID, want)
	return services.RunSnapshot{}
}

func TestRunManager_ConcurrentRunsAreIsolated(t *testing.T) {
	manager, uploader, registrar, rules := newTestManager(t, nil)

	handle := &models.DocumentHandle{StoredName: "stored.pdf"}
	uploader.On("Upload", mock.Anything, mock.Anything).Return(handle, nil)
	registrar.On("Register", mock.Anything, mock.MatchedBy(func(d models.DeviceDraft) bool { return d.Name == "Temp Sensor 1" }), mock.Anything).Return("device-1", nil)
	registrar.On("Register", mock.Anything, mock.MatchedBy(func(d models.DeviceDraft) bool { return d.Name == "Temp Sensor 2" }), mock.Anything).Return("device-2", nil)
	rules.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(remoteArtifacts(), nil)

	draftA := testDraft()
	draftB := testDraft()
	draftB.Name = "Temp Sensor 2"

	runA, err := manager.Start(draftA, testDocument())
	require.NoError(t, err)
	runB, err := manager.Start(draftB, testDocument())
	require.NoError(t, err)
	assert.NotEqual(t, runA, runB)

	snapA := waitForState(t, manager, runA, services.RunStateCompleted)
	snapB := waitForState(t, manager, runB, services.RunStateCompleted)

	require.NotNil(t, snapA.Result)
	require.NotNil(t, snapB.Result)
	assert.Equal(t, "device-1", snapA.Result.DeviceID)
	assert.Equal(t, "device-2", snapB.Result.DeviceID)
	assert.Equal(t, "Temp Sensor 1", snapA.Result.DeviceName)
	assert.Equal(t, "Temp Sensor 2", snapB.Result.DeviceName)
}

func TestRunManager_SubscribeReplaysBufferedEvents(t *testing.T) {
	manager, uploader, registrar, rules := newTestManager(t, nil)

	handle := &models.DocumentHandle{StoredName: "stored.pdf"}
	uploader.On("Upload", mock.Anything, mock.Anything).Return(handle, nil)
	registrar.On("Register", mock.Anything, mock.Anything, mock.Anything).Return("device-1", nil)
	rules.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(remoteArtifacts(), nil)

	runID, err := manager.Start(testDraft(), testDocument())
	require.NoError(t, err)
	waitForState(t, manager, runID, services.RunStateCompleted)

	events, cancel, err := manager.Subscribe(runID)
	require.NoError(t, err)
	defer cancel()

	var received []models.ProgressEvent
	for event := range events {
		received = append(received, event)
	}

	require.NotEmpty(t, received)
	last := received[len(received)-1]
	assert.Equal(t, models.StageComplete, last.Stage)
	assert.Equal(t, 100.0, last.Progress)
}

func TestRunManager_FatalFailureRecorded(t *testing.T) {
	manager, uploader, _, _ := newTestManager(t, nil)

	uploader.On("Upload", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	runID, err := manager.Start(testDraft(), testDocument())
	require.NoError(t, err)

	snapshot := waitForState(t, manager, runID, services.RunStateFailed)
	assert.Nil(t, snapshot.Result)
	assert.Contains(t, snapshot.Error, "upload stage failed")
}

func TestRunManager_ValidationFailsSynchronously(t *testing.T) {
	manager, uploader, _, _ := newTestManager(t, nil)

	doc := testDocument()
	doc.Data = make([]byte, models.MaxDocumentSize+1)

	_, err := manager.Start(testDraft(), doc)
	require.Error(t, err)

	var validationErr *models.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestRunManager_ArchiveFailureDoesNotFailRun(t *testing.T) {
	archiver := new(mocks.MockArchiver)
	archiver.On("Archive", mock.Anything, mock.Anything, "device-1").
		Return(errors.New("bucket unavailable"))

	manager, uploader, registrar, rules := newTestManager(t, archiver)

	handle := &models.DocumentHandle{StoredName: "stored.pdf"}
	uploader.On("Upload", mock.Anything, mock.Anything).Return(handle, nil)
	registrar.On("Register", mock.Anything, mock.Anything, mock.Anything).Return("device-1", nil)
	rules.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(remoteArtifacts(), nil)

	runID, err := manager.Start(testDraft(), testDocument())
	require.NoError(t, err)

	snapshot := waitForState(t, manager, runID, services.RunStateCompleted)
	require.NotNil(t, snapshot.Result)
	archiver.AssertExpectations(t)
}

func TestRunManager_UnknownRun(t *testing.T) {
	manager, _, _, _ := newTestManager(t, nil)

	_, err := manager.Snapshot("no-such-run")
	assert.ErrorIs(t, err, services.ErrRunNotFound)

	_, _, err = manager.Subscribe("no-such-run")
	assert.ErrorIs(t, err, services.ErrRunNotFound)
}
