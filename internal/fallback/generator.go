// Package fallback synthesizes device artifacts locally when the remote
// analysis service is unavailable, so onboarding always completes with a
// usable rules/maintenance/safety triple.
package fallback

import (
	"fmt"
	"time"

	"github.com/iotplatform/device-onboarding/internal/models"
)

// Generator derives a plausible artifact triple from the draft alone. It is
// pure and total: no network access, never fails, and produces structurally
// identical output for identical drafts and clock readings.
type Generator struct {
	// Now supplies the reference date for maintenance scheduling. Defaults
	// to time.Now.
	Now func() time.Time
}

// NewGenerator returns a Generator using the wall clock.
func NewGenerator() *Generator {
	return &Generator{Now: time.Now}
}

// Generate builds fallback artifacts for the draft. Sensor-class devices get
// an additional calibration rule on top of the generic set.
func (g *Generator) Generate(draft models.DeviceDraft) *models.GeneratedArtifacts {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	today := now().Truncate(24 * time.Hour)

	label := draft.Manufacturer
	if draft.Model != "" {
		label = fmt.Sprintf("%s %s", draft.Manufacturer, draft.Model)
	}

	artifacts := &models.GeneratedArtifacts{
		Source: models.ArtifactSourceFallback,
		Rules: []models.IoTRule{
			{
				Name:      fmt.Sprintf("%s connectivity watch", draft.Name),
				Category:  models.RuleCategoryMonitoring,
				Condition: "device has not reported within 3 consecutive heartbeat intervals",
				Action:    "mark device offline and notify the assigned user",
				Priority:  models.PriorityHigh,
				Cadence:   "continuous",
			},
			{
				Name:      fmt.Sprintf("%s operating range check", label),
				Category:  models.RuleCategoryAlert,
				Condition: "reported readings leave the operating range documented by the manufacturer",
				Action:    "raise an alert and record the out-of-range reading",
				Priority:  models.PriorityMedium,
				Cadence:   "continuous",
			},
			{
				Name:      fmt.Sprintf("%s maintenance window reminder", draft.Name),
				Category:  models.RuleCategoryMaintenance,
				Condition: "next scheduled maintenance is due within 7 days",
				Action:    "notify the assigned user of the upcoming maintenance window",
				Priority:  models.PriorityLow,
				Cadence:   "daily",
			},
		},
		Maintenance: []models.MaintenanceItem{
			{
				Component:       "enclosure and wiring",
				MaintenanceType: "inspection",
				Cadence:         "monthly",
				LastMaintenance: today,
				NextMaintenance: models.NextMaintenanceDate(today, "monthly"),
				Description:     fmt.Sprintf("Visual inspection of the %s enclosure, seals and wiring.", label),
			},
			{
				Component:       "firmware",
				MaintenanceType: "update check",
				Cadence:         "quarterly",
				LastMaintenance: today,
				NextMaintenance: models.NextMaintenanceDate(today, "quarterly"),
				Description:     fmt.Sprintf("Check %s for firmware updates and apply during a maintenance window.", label),
			},
		},
		Safety: []models.SafetyPrecaution{
			{
				Title:             "De-energize before servicing",
				Severity:          models.SeverityHigh,
				Category:          "electrical",
				Description:       "Disconnect the device from its power source before opening the enclosure.",
				RecommendedAction: "Follow lockout/tagout procedure before any physical maintenance.",
			},
			{
				Title:             "Observe environmental limits",
				Severity:          models.SeverityMedium,
				Category:          "environmental",
				Description:       fmt.Sprintf("Operate the %s only within the temperature and humidity limits in its datasheet.", label),
				RecommendedAction: "Relocate or shield the device if ambient conditions exceed documented limits.",
			},
		},
	}

	if draft.NormalizedType() == models.DeviceTypeSensor {
		artifacts.Rules = append(artifacts.Rules, models.IoTRule{
			Name:      fmt.Sprintf("%s calibration check", draft.Name),
			Category:  models.RuleCategoryMaintenance,
			Condition: "90 days have elapsed since the last recorded calibration",
			Action:    "schedule a sensor calibration task",
			Priority:  models.PriorityMedium,
			Cadence:   "quarterly",
		})
	}

	return artifacts
}
