package models

import "time"

// OnboardingResult is the consolidated outcome of a successful onboarding run.
// It is created once, when the workflow completes, and is immutable thereafter.
type OnboardingResult struct {
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`

	// Counts of the generated artifact collections.
	RulesGenerated    int `json:"rules_generated"`
	MaintenanceItems  int `json:"maintenance_items"`
	SafetyPrecautions int `json:"safety_precautions"`

	// DocumentName is the original filename of the uploaded documentation.
	DocumentName string `json:"document_name"`

	// ArtifactSource records whether the artifacts came from the remote
	// analysis service or the local fallback generator.
	ArtifactSource ArtifactSource `json:"artifact_source"`

	ProcessingTime time.Duration `json:"processing_time"`
}
