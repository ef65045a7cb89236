package fallback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotplatform/device-onboarding/internal/models"
)

func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
}

func sensorDraft() models.DeviceDraft {
	return models.DeviceDraft{
		Name:         "Temp Sensor 1",
		Type:         models.DeviceTypeSensor,
		Manufacturer: "Acme",
		Model:        "TS-100",
		Protocol:     models.ProtocolMQTT,
		MQTT:         models.MQTTParams{Broker: "tcp://broker:1883", Topic: "t"},
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	gen := &Generator{Now: fixedClock}
	draft := sensorDraft()

	first := gen.Generate(draft)
	second := gen.Generate(draft)

	assert.Equal(t, first, second, "identical drafts must yield structurally identical artifacts")
}

func TestGenerate_SensorGetsCalibrationRule(t *testing.T) {
	gen := &Generator{Now: fixedClock}

	sensor := gen.Generate(sensorDraft())
	assert.Len(t, sensor.Rules, 4, "sensor drafts get the generic rules plus a calibration rule")

	gateway := sensorDraft()
	gateway.Type = models.DeviceTypeGateway
	artifacts := gen.Generate(gateway)
	assert.Len(t, artifacts.Rules, 3)
}

func TestGenerate_AlwaysProducesArtifacts(t *testing.T) {
	gen := &Generator{Now: fixedClock}

	for _, deviceType := range []models.DeviceType{
		models.DeviceTypeSensor,
		models.DeviceTypeActuator,
		models.DeviceTypeGateway,
		models.DeviceTypeController,
	} {
		draft := sensorDraft()
		draft.Type = deviceType

		artifacts := gen.Generate(draft)
		assert.Greater(t, artifacts.Total(), 0, "type %s", deviceType)
		assert.Len(t, artifacts.Maintenance, 2)
		assert.Len(t, artifacts.Safety, 2)
		assert.Equal(t, models.ArtifactSourceFallback, artifacts.Source)
	}
}

func TestGenerate_MaintenanceDatesFromClock(t *testing.T) {
	gen := &Generator{Now: fixedClock}

	artifacts := gen.Generate(sensorDraft())
	require.Len(t, artifacts.Maintenance, 2)

	today := fixedClock().Truncate(24 * time.Hour)
	for _, item := range artifacts.Maintenance {
		assert.Equal(t, today, item.LastMaintenance)
		assert.True(t, item.NextMaintenance.After(item.LastMaintenance))
	}
}

func TestNewGenerator_UsesWallClock(t *testing.T) {
	gen := NewGenerator()
	artifacts := gen.Generate(sensorDraft())
	assert.Greater(t, artifacts.Total(), 0)
}
