package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextMaintenanceDate(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		cadence string
		want    time.Time
	}{
		{"daily", base.AddDate(0, 0, 1)},
		{"weekly", base.AddDate(0, 0, 7)},
		{"monthly", base.AddDate(0, 1, 0)},
		{"quarterly", base.AddDate(0, 3, 0)},
		{"semi-annual", base.AddDate(0, 6, 0)},
		{"annual", base.AddDate(1, 0, 0)},
		{"yearly", base.AddDate(1, 0, 0)},
		{"Every Week", base.AddDate(0, 0, 7)},
		{"", base.AddDate(0, 0, 1)},
		{"whenever", base.AddDate(0, 0, 1)},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, NextMaintenanceDate(base, tc.cadence), "cadence %q", tc.cadence)
	}
}

func TestGeneratedArtifacts_Total(t *testing.T) {
	artifacts := GeneratedArtifacts{
		Rules:       make([]IoTRule, 3),
		Maintenance: make([]MaintenanceItem, 2),
		Safety:      make([]SafetyPrecaution, 2),
	}
	assert.Equal(t, 7, artifacts.Total())

	var empty GeneratedArtifacts
	assert.Equal(t, 0, empty.Total())
}
