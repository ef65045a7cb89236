package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iotplatform/device-onboarding/internal/clients"
	"github.com/iotplatform/device-onboarding/internal/fallback"
	"github.com/iotplatform/device-onboarding/internal/models"
)

// StageError wraps a fatal failure with the stage it occurred in. Only the
// upload and device stages produce it; rules failures are absorbed by the
// fallback generator and never surface.
type StageError struct {
	Stage models.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// OnboardingService sequences the device onboarding workflow: document
// upload, device registration, rules generation (with local fallback), and
// result assembly. One call runs one workflow; concurrent calls share no
// state.
type OnboardingService struct {
	uploader  clients.DocumentUploader
	registrar clients.DeviceRegistrar
	rules     clients.RuleGenerator
	fallback  *fallback.Generator
	logger    zerolog.Logger

	now func() time.Time
}

// NewOnboardingService wires the three network adapters and the fallback
// generator into a workflow runner.
func NewOnboardingService(
	uploader clients.DocumentUploader,
	registrar clients.DeviceRegistrar,
	rules clients.RuleGenerator,
	fallbackGen *fallback.Generator,
	logger zerolog.Logger,
) *OnboardingService {
	return &OnboardingService{
		uploader:  uploader,
		registrar: registrar,
		rules:     rules,
		fallback:  fallbackGen,
		logger:    logger,
		now:       time.Now,
	}
}

// CompleteOnboarding runs the workflow to completion. Stages execute strictly
// forward: upload, device, rules, complete. onProgress receives an event
// after every transition; nil drops them. On fatal failure the progress
// stream stops and no partial result is returned.
func (s *OnboardingService) CompleteOnboarding(
	ctx context.Context,
	draft models.DeviceDraft,
	doc models.DocumentUpload,
	onProgress models.ProgressFunc,
) (*models.OnboardingResult, error) {
	// Pre-flight validation happens before any event is emitted or any
	// network call is attempted.
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	start := s.now()
	tracker := newProgressTracker(onProgress, s.now)

	s.logger.Info().
		Str("device_name", draft.Name).
		Str("document", doc.Filename).
		Msg("Starting onboarding workflow")

	// Stage 1: upload. Fatal on failure; without a stored document there is
	// nothing to analyze.
	tracker.advance("")
	tracker.advance(fmt.Sprintf("Uploading %s (%d bytes)", doc.Filename, len(doc.Data)))

	handle, err := s.uploader.Upload(ctx, doc)
	if err != nil {
		s.logger.Error().Err(err).Str("document", doc.Filename).Msg("Document upload failed")
		return nil, &StageError{Stage: models.StageUpload, Err: err}
	}
	tracker.advance(fmt.Sprintf("Stored as %s", handle.StoredName))

	// Stage 2: register the device against the stored document. Fatal on
	// failure, never retried.
	tracker.advance("")
	deviceID, err := s.registrar.Register(ctx, draft, handle.StoredName)
	if err != nil {
		s.logger.Error().Err(err).Str("device_name", draft.Name).Msg("Device registration failed")
		return nil, &StageError{Stage: models.StageDevice, Err: err}
	}
	tracker.advance(fmt.Sprintf("Device ID %s", deviceID))

	// Stage 3: rules generation. Any failure here is absorbed: the fallback
	// generator produces the full triple instead, and the caller observes a
	// successful stage either way.
	tracker.advance("")
	artifacts, err := s.rules.Generate(ctx, *handle, draft)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("device_id", deviceID).
			Msg("Rules generation failed, using fallback artifacts")
		artifacts = s.fallback.Generate(draft)
	}
	tracker.advance(fmt.Sprintf("%d rules generated", len(artifacts.Rules)))
	tracker.advance(fmt.Sprintf("%d maintenance tasks scheduled", len(artifacts.Maintenance)))
	tracker.advance(fmt.Sprintf("%d safety precautions recorded", len(artifacts.Safety)))

	// Stage 4: assemble the consolidated result.
	tracker.advance("")
	result := &models.OnboardingResult{
		DeviceID:          deviceID,
		DeviceName:        draft.Name,
		RulesGenerated:    len(artifacts.Rules),
		MaintenanceItems:  len(artifacts.Maintenance),
		SafetyPrecautions: len(artifacts.Safety),
		DocumentName:      doc.Filename,
		ArtifactSource:    artifacts.Source,
		ProcessingTime:    s.now().Sub(start),
	}
	tracker.advance(fmt.Sprintf("Device %s onboarded in %s", deviceID, result.ProcessingTime.Round(time.Millisecond)))

	s.logger.Info().
		Str("device_id", deviceID).
		Int("rules", result.RulesGenerated).
		Int("maintenance", result.MaintenanceItems).
		Int("safety", result.SafetyPrecautions).
		Str("artifact_source", string(result.ArtifactSource)).
		Dur("processing_time", result.ProcessingTime).
		Msg("Onboarding workflow completed")

	return result, nil
}
