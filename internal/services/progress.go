package services

import (
	"time"

	"github.com/iotplatform/device-onboarding/internal/models"
)

// Stage percentage bands. The maintenance and safety sub-phases report under
// the rules band; they are progress sub-divisions, not independent stages.
const (
	uploadBandStart   = 0.0
	deviceBandStart   = 15.0
	rulesBandStart    = 33.0
	completeBandStart = 66.0
	bandEnd           = 100.0
)

// planStep is one named sub-step of the workflow. band selects the percentage
// range the step's value is computed from; stage is what the emitted event
// reports, which differs from band only inside the rules range.
type planStep struct {
	stage      models.Stage
	band       models.Stage
	name       string
	message    string
	subMessage string
}

// onboardingPlan is the fixed sub-step list of a workflow run, in execution
// order. Progress values derive purely from position, never from wall clock,
// so a run's event sequence is reproducible.
var onboardingPlan = []planStep{
	{models.StageUpload, models.StageUpload, "Document Validation", "Validating documentation file", "Checking media type and size limits"},
	{models.StageUpload, models.StageUpload, "Document Upload", "Uploading documentation", "Transferring document to the processing service"},
	{models.StageUpload, models.StageUpload, "Document Stored", "Document uploaded successfully", "Processing service stored the document"},

	{models.StageDevice, models.StageDevice, "Device Registration", "Registering device", "Persisting the device record in the registry"},
	{models.StageDevice, models.StageDevice, "Device Registered", "Device registered successfully", "Registry assigned a durable device identifier"},

	{models.StageRules, models.StageRules, "Document Analysis", "Analyzing documentation", "Deriving device behavior from the stored document"},
	{models.StageRules, models.StageRules, "Rule Generation", "Generating monitoring rules", "Building monitoring and alert rules"},
	{models.StageMaintenance, models.StageRules, "Maintenance Schedule", "Building maintenance schedule", "Deriving maintenance tasks and cadences"},
	{models.StageSafety, models.StageRules, "Safety Precautions", "Extracting safety precautions", "Collecting safety instructions and recommended actions"},

	{models.StageComplete, models.StageComplete, "Result Assembly", "Assembling onboarding result", "Consolidating device record and generated artifacts"},
	{models.StageComplete, models.StageComplete, "Onboarding Complete", "Onboarding completed", "Device is ready for monitoring"},
}

func bandRange(band models.Stage) (start, width float64) {
	switch band {
	case models.StageUpload:
		return uploadBandStart, deviceBandStart - uploadBandStart
	case models.StageDevice:
		return deviceBandStart, rulesBandStart - deviceBandStart
	case models.StageRules:
		return rulesBandStart, completeBandStart - rulesBandStart
	default:
		return completeBandStart, bandEnd - completeBandStart
	}
}

// stepProgress computes the percentage for a plan index:
// bandStart + subIndex/(subCount-1) * bandWidth, with sub-steps counted within
// the step's band.
func stepProgress(index int) float64 {
	band := onboardingPlan[index].band
	start, width := bandRange(band)

	subIndex, subCount := 0, 0
	for i, step := range onboardingPlan {
		if step.band != band {
			continue
		}
		if i == index {
			subIndex = subCount
		}
		subCount++
	}
	if subCount <= 1 {
		return start
	}
	return start + float64(subIndex)/float64(subCount-1)*width
}

// progressTracker walks the plan forward and hands each event to the caller's
// sink. Events are owned by one run and discarded after delivery.
type progressTracker struct {
	onProgress models.ProgressFunc
	next       int
	now        func() time.Time
}

func newProgressTracker(onProgress models.ProgressFunc, now func() time.Time) *progressTracker {
	return &progressTracker{onProgress: onProgress, now: now}
}

// advance emits the next plan step. An optional subMessage overrides the
// plan's default, so steps can report run-specific detail.
func (t *progressTracker) advance(subMessage string) {
	if t.next >= len(onboardingPlan) {
		return
	}
	step := onboardingPlan[t.next]
	event := models.ProgressEvent{
		Stage:      step.stage,
		Progress:   stepProgress(t.next),
		Message:    step.message,
		SubMessage: step.subMessage,
		Details: &models.StepDetails{
			CurrentStep: t.next + 1,
			TotalSteps:  len(onboardingPlan),
			StepName:    step.name,
		},
		Timestamp: t.now(),
	}
	if subMessage != "" {
		event.SubMessage = subMessage
	}
	t.next++

	if t.onProgress != nil {
		t.onProgress(event)
	}
}
