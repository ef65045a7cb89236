package models

import (
	"strings"
	"time"
)

// RuleCategory classifies a generated rule.
type RuleCategory string

const (
	RuleCategoryMonitoring  RuleCategory = "monitoring"
	RuleCategoryMaintenance RuleCategory = "maintenance"
	RuleCategoryAlert       RuleCategory = "alert"
)

// Priority levels for generated rules.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Severity levels for safety precautions.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ArtifactSource records which path produced a GeneratedArtifacts triple.
// Diagnostics only; it is not part of the stage outcome contract.
type ArtifactSource string

const (
	ArtifactSourceRemote   ArtifactSource = "remote"
	ArtifactSourceFallback ArtifactSource = "fallback"
)

// IoTRule is a single monitoring, maintenance or alert rule derived from the
// device documentation.
type IoTRule struct {
	Name      string       `json:"name"`
	Category  RuleCategory `json:"category"`
	Condition string       `json:"condition"`
	Action    string       `json:"action"`
	Priority  Priority     `json:"priority"`
	Cadence   string       `json:"cadence,omitempty"`
}

// MaintenanceItem is a single scheduled maintenance task.
type MaintenanceItem struct {
	Component       string    `json:"component"`
	MaintenanceType string    `json:"maintenance_type"`
	Cadence         string    `json:"cadence"`
	LastMaintenance time.Time `json:"last_maintenance"`
	NextMaintenance time.Time `json:"next_maintenance"`
	Description     string    `json:"description,omitempty"`
}

// SafetyPrecaution is a single safety instruction extracted from the
// documentation.
type SafetyPrecaution struct {
	Title             string   `json:"title"`
	Severity          Severity `json:"severity"`
	Category          string   `json:"category"`
	Description       string   `json:"description"`
	RecommendedAction string   `json:"recommended_action,omitempty"`
}

// GeneratedArtifacts is the triple produced by the rules stage. The triple is
// produced either entirely by the remote service or entirely by the fallback
// generator, never a mix.
type GeneratedArtifacts struct {
	Rules       []IoTRule          `json:"rules"`
	Maintenance []MaintenanceItem  `json:"maintenance"`
	Safety      []SafetyPrecaution `json:"safety"`
	Source      ArtifactSource     `json:"source"`
}

// Total returns the combined artifact count across the three collections.
func (a *GeneratedArtifacts) Total() int {
	return len(a.Rules) + len(a.Maintenance) + len(a.Safety)
}

// NextMaintenanceDate computes the follow-up date for a cadence label. Labels
// the platform does not recognize default to daily, matching the registry's
// own scheduling behavior.
func NextMaintenanceDate(last time.Time, cadence string) time.Time {
	switch strings.ToLower(strings.TrimSpace(cadence)) {
	case "weekly", "every week":
		return last.AddDate(0, 0, 7)
	case "monthly", "every month":
		return last.AddDate(0, 1, 0)
	case "quarterly", "every 3 months":
		return last.AddDate(0, 3, 0)
	case "semi-annual", "every 6 months":
		return last.AddDate(0, 6, 0)
	case "annual", "yearly", "every year":
		return last.AddDate(1, 0, 0)
	default:
		return last.AddDate(0, 0, 1)
	}
}
