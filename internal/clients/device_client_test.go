package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotplatform/device-onboarding/internal/models"
)

func mqttDraft() models.DeviceDraft {
	return models.DeviceDraft{
		Name:         "Temp Sensor 1",
		Type:         models.DeviceTypeSensor,
		Manufacturer: "Acme",
		Model:        "TS-100",
		Protocol:     models.ProtocolMQTT,
		MQTT: models.MQTTParams{
			Broker:   "tcp://broker:1883",
			Topic:    "sensors/temp",
			Username: "svc",
			Password: "hunter2",
		},
	}
}

func TestDeviceClient_RegisterSuccess(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/devices", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"deviceId":"dev-42"}`))
	}))
	defer server.Close()

	client := NewDeviceClient(server.URL, "registry-token", 5*time.Second, zerolog.Nop())
	deviceID, err := client.Register(context.Background(), mqttDraft(), "stored-abc.pdf")

	require.NoError(t, err)
	assert.Equal(t, "dev-42", deviceID)

	// The registry API expects a flattened payload with camelCase keys.
	assert.Equal(t, "Temp Sensor 1", gotBody["name"])
	assert.Equal(t, "SENSOR", gotBody["type"])
	assert.Equal(t, "stored-abc.pdf", gotBody["documentRef"])
	assert.Equal(t, "tcp://broker:1883", gotBody["mqttBroker"])
	assert.Equal(t, "sensors/temp", gotBody["mqttTopic"])
	assert.NotContains(t, gotBody, "httpEndpoint")
	assert.NotContains(t, gotBody, "coapHost")
}

func TestDeviceClient_FlattenOnlySelectedProtocol(t *testing.T) {
	draft := mqttDraft()
	draft.Protocol = models.ProtocolCOAP
	draft.COAP = models.COAPParams{Host: "device.local", Port: 5683, Path: "/state"}

	req := flattenDraft(draft, "doc.pdf")
	assert.Equal(t, "device.local", req.COAPHost)
	assert.Equal(t, 5683, req.COAPPort)
	assert.Empty(t, req.MQTTBroker, "unselected protocol params are not sent")
}

func TestDeviceClient_ConflictMapsToConflictError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"device name already registered"}`))
	}))
	defer server.Close()

	client := NewDeviceClient(server.URL, "", 5*time.Second, zerolog.Nop())
	_, err := client.Register(context.Background(), mqttDraft(), "")

	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, "device name already registered", conflictErr.Message)
}

func TestDeviceClient_RejectionMapsToValidationError(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnprocessableEntity} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":"type must be one of SENSOR, ACTUATOR, GATEWAY, CONTROLLER"}`))
		}))

		client := NewDeviceClient(server.URL, "", 5*time.Second, zerolog.Nop())
		_, err := client.Register(context.Background(), mqttDraft(), "")
		server.Close()

		var validationErr *RegistrationValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, status, validationErr.StatusCode)
		assert.Contains(t, validationErr.Message, "SENSOR")
	}
}

func TestDeviceClient_UnreachableRegistryIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	client := NewDeviceClient(server.URL, "", time.Second, zerolog.Nop())
	_, err := client.Register(context.Background(), mqttDraft(), "")

	var transportErr *TransportError
	assert.ErrorAs(t, err, &transportErr)
}

func TestDeviceClient_MissingDeviceIDIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"created"}`))
	}))
	defer server.Close()

	client := NewDeviceClient(server.URL, "", 5*time.Second, zerolog.Nop())
	_, err := client.Register(context.Background(), mqttDraft(), "")
	assert.Error(t, err)
}
