package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iotplatform/device-onboarding/internal/models"
)

// DeviceRegistrar persists a device record in the platform registry and
// returns its durable identifier. Registration is never retried: the registry
// either created the record or it did not.
type DeviceRegistrar interface {
	Register(ctx context.Context, draft models.DeviceDraft, documentRef string) (string, error)
}

// deviceCreateRequest is the flattened wire shape sent to POST /devices.
type deviceCreateRequest struct {
	Name           string            `json:"name"`
	Type           string            `json:"type"`
	Location       string            `json:"location,omitempty"`
	Manufacturer   string            `json:"manufacturer"`
	Model          string            `json:"model,omitempty"`
	Protocol       string            `json:"protocol"`
	AssignedUserID string            `json:"assignedUserId,omitempty"`
	DocumentRef    string            `json:"documentRef,omitempty"`
	MQTTBroker     string            `json:"mqttBroker,omitempty"`
	MQTTTopic      string            `json:"mqttTopic,omitempty"`
	MQTTUsername   string            `json:"mqttUsername,omitempty"`
	MQTTPassword   string            `json:"mqttPassword,omitempty"`
	HTTPEndpoint   string            `json:"httpEndpoint,omitempty"`
	HTTPMethod     string            `json:"httpMethod,omitempty"`
	HTTPHeaders    map[string]string `json:"httpHeaders,omitempty"`
	COAPHost       string            `json:"coapHost,omitempty"`
	COAPPort       int               `json:"coapPort,omitempty"`
	COAPPath       string            `json:"coapPath,omitempty"`
}

type deviceCreateResponse struct {
	DeviceID string `json:"deviceId"`
	Message  string `json:"message,omitempty"`
}

// DeviceClient implements DeviceRegistrar against the platform registry API.
type DeviceClient struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewDeviceClient creates a DeviceClient with a per-call timeout.
func NewDeviceClient(baseURL, authToken string, timeout time.Duration, logger zerolog.Logger) *DeviceClient {
	return &DeviceClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authToken:  authToken,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Register submits the draft. The registry write is atomic: afterwards the
// record either exists or it does not, so a failed call is safe to surface
// without compensation.
func (c *DeviceClient) Register(ctx context.Context, draft models.DeviceDraft, documentRef string) (string, error) {
	body, err := json.Marshal(flattenDraft(draft, documentRef))
	if err != nil {
		return "", fmt.Errorf("failed to encode device draft: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/devices", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build registration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	c.logger.Info().
		Str("device_name", draft.Name).
		Str("protocol", string(draft.Protocol)).
		Msg("Registering device")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Op: "register device", Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Op: "read registration response", Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusConflict:
		return "", &ConflictError{Message: remoteMessage(payload)}
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return "", &RegistrationValidationError{StatusCode: resp.StatusCode, Message: remoteMessage(payload)}
	case resp.StatusCode >= http.StatusBadRequest:
		return "", &RegistrationValidationError{StatusCode: resp.StatusCode, Message: remoteMessage(payload)}
	}

	var parsed deviceCreateResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("unparseable registration response: %w", err)
	}
	if parsed.DeviceID == "" {
		return "", fmt.Errorf("registry returned no device id")
	}

	c.logger.Info().
		Str("device_id", parsed.DeviceID).
		Str("device_name", draft.Name).
		Msg("Device registered")

	return parsed.DeviceID, nil
}

func flattenDraft(draft models.DeviceDraft, documentRef string) deviceCreateRequest {
	req := deviceCreateRequest{
		Name:           draft.Name,
		Type:           string(draft.NormalizedType()),
		Location:       draft.Location,
		Manufacturer:   draft.Manufacturer,
		Model:          draft.Model,
		Protocol:       string(draft.Protocol),
		AssignedUserID: draft.AssignedUserID,
		DocumentRef:    documentRef,
	}

	switch draft.Protocol {
	case models.ProtocolMQTT:
		req.MQTTBroker = draft.MQTT.Broker
		req.MQTTTopic = draft.MQTT.Topic
		req.MQTTUsername = draft.MQTT.Username
		req.MQTTPassword = draft.MQTT.Password
	case models.ProtocolHTTP:
		req.HTTPEndpoint = draft.HTTP.Endpoint
		req.HTTPMethod = draft.HTTP.Method
		req.HTTPHeaders = draft.HTTP.Headers
	case models.ProtocolCOAP:
		req.COAPHost = draft.COAP.Host
		req.COAPPort = draft.COAP.Port
		req.COAPPath = draft.COAP.Path
	}

	return req
}

func remoteMessage(payload []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return strings.TrimSpace(string(payload))
}
