package models

import "fmt"

// DeviceType categorizes the device being onboarded.
type DeviceType string

const (
	DeviceTypeSensor     DeviceType = "SENSOR"
	DeviceTypeActuator   DeviceType = "ACTUATOR"
	DeviceTypeGateway    DeviceType = "GATEWAY"
	DeviceTypeController DeviceType = "CONTROLLER"
)

// Protocol identifies how the platform talks to the device once it is registered.
// Exactly one protocol's parameter set is meaningful on a draft; the others are
// ignored.
type Protocol string

const (
	ProtocolMQTT Protocol = "MQTT"
	ProtocolHTTP Protocol = "HTTP"
	ProtocolCOAP Protocol = "COAP"
)

// MQTTParams holds the connection parameters for message-queue devices.
type MQTTParams struct {
	Broker   string `json:"broker,omitempty" yaml:"broker"`
	Topic    string `json:"topic,omitempty" yaml:"topic"`
	Username string `json:"username,omitempty" yaml:"username"`
	Password string `json:"password,omitempty" yaml:"password"`
}

// HTTPParams holds the connection parameters for request/response devices.
type HTTPParams struct {
	Endpoint string            `json:"endpoint,omitempty" yaml:"endpoint"`
	Method   string            `json:"method,omitempty" yaml:"method"`
	Headers  map[string]string `json:"headers,omitempty" yaml:"headers"`
}

// COAPParams holds the connection parameters for constrained-protocol devices.
type COAPParams struct {
	Host string `json:"host,omitempty" yaml:"host"`
	Port int    `json:"port,omitempty" yaml:"port"`
	Path string `json:"path,omitempty" yaml:"path"`
}

// DeviceDraft is the user-supplied device description consumed once by the
// onboarding workflow. It is never mutated after submission begins.
type DeviceDraft struct {
	// Name is the display name of the device.
	Name string `json:"name" yaml:"name"`

	// Type categorizes the device; defaults to SENSOR when empty.
	Type DeviceType `json:"type" yaml:"type"`

	// Location is the physical placement of the device.
	Location string `json:"location" yaml:"location"`

	// Manufacturer and Model describe the hardware.
	Manufacturer string `json:"manufacturer" yaml:"manufacturer"`
	Model        string `json:"model,omitempty" yaml:"model"`

	// AssignedUserID is the resolved owner of the device. Callers resolve it
	// up front; the workflow never consults ambient session state.
	AssignedUserID string `json:"assigned_user_id,omitempty" yaml:"assigned_user_id"`

	// Protocol selects which parameter set below is meaningful.
	Protocol Protocol `json:"protocol" yaml:"protocol"`

	MQTT MQTTParams `json:"mqtt,omitempty" yaml:"mqtt"`
	HTTP HTTPParams `json:"http,omitempty" yaml:"http"`
	COAP COAPParams `json:"coap,omitempty" yaml:"coap"`
}

// Validate checks the draft before the workflow touches the network. Only the
// selected protocol variant's parameters are inspected.
func (d *DeviceDraft) Validate() error {
	if d.Name == "" {
		return &ValidationError{Field: "name", Reason: "device name is required"}
	}
	if d.Manufacturer == "" {
		return &ValidationError{Field: "manufacturer", Reason: "manufacturer is required"}
	}

	switch d.Protocol {
	case ProtocolMQTT:
		if d.MQTT.Broker == "" {
			return &ValidationError{Field: "mqtt.broker", Reason: "broker address is required for MQTT devices"}
		}
		if d.MQTT.Topic == "" {
			return &ValidationError{Field: "mqtt.topic", Reason: "topic is required for MQTT devices"}
		}
	case ProtocolHTTP:
		if d.HTTP.Endpoint == "" {
			return &ValidationError{Field: "http.endpoint", Reason: "endpoint is required for HTTP devices"}
		}
	case ProtocolCOAP:
		if d.COAP.Host == "" {
			return &ValidationError{Field: "coap.host", Reason: "host is required for COAP devices"}
		}
		if d.COAP.Port <= 0 || d.COAP.Port > 65535 {
			return &ValidationError{Field: "coap.port", Reason: fmt.Sprintf("invalid port %d", d.COAP.Port)}
		}
	default:
		return &ValidationError{Field: "protocol", Reason: fmt.Sprintf("unknown protocol %q", d.Protocol)}
	}

	return nil
}

// NormalizedType returns the draft's device type, defaulting to SENSOR.
func (d *DeviceDraft) NormalizedType() DeviceType {
	if d.Type == "" {
		return DeviceTypeSensor
	}
	return d.Type
}
