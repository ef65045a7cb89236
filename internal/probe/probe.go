// Package probe checks whether a drafted device's connection parameters point
// at something reachable before registration is attempted. Best-effort: an
// unreachable target is a report, not an error.
package probe

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iotplatform/device-onboarding/internal/models"
)

// Result reports the outcome of one connectivity probe.
type Result struct {
	Protocol  models.Protocol `json:"protocol"`
	Target    string          `json:"target"`
	Reachable bool            `json:"reachable"`
	Latency   time.Duration   `json:"latency"`
	Detail    string          `json:"detail,omitempty"`
}

// Prober runs protocol-specific reachability checks.
type Prober struct {
	timeout time.Duration
	logger  zerolog.Logger
}

// New creates a Prober with a per-check timeout.
func New(timeout time.Duration, logger zerolog.Logger) *Prober {
	return &Prober{timeout: timeout, logger: logger}
}

// Probe checks the draft's selected protocol variant.
func (p *Prober) Probe(ctx context.Context, draft models.DeviceDraft) Result {
	start := time.Now()
	var result Result

	switch draft.Protocol {
	case models.ProtocolMQTT:
		result = p.probeMQTT(draft.MQTT)
	case models.ProtocolHTTP:
		result = p.probeHTTP(ctx, draft.HTTP)
	case models.ProtocolCOAP:
		result = p.probeCOAP(draft.COAP)
	default:
		result = Result{Protocol: draft.Protocol, Detail: fmt.Sprintf("unknown protocol %q", draft.Protocol)}
	}

	result.Latency = time.Since(start)
	p.logger.Info().
		Str("protocol", string(result.Protocol)).
		Str("target", result.Target).
		Bool("reachable", result.Reachable).
		Dur("latency", result.Latency).
		Msg("Connectivity probe finished")
	return result
}

func (p *Prober) probeMQTT(params models.MQTTParams) Result {
	result := Result{Protocol: models.ProtocolMQTT, Target: params.Broker}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(params.Broker)
	opts.SetClientID("onboard-probe-" + uuid.New().String())
	opts.SetConnectTimeout(p.timeout)
	opts.SetAutoReconnect(false)
	if params.Username != "" {
		opts.SetUsername(params.Username)
		opts.SetPassword(params.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(p.timeout) {
		result.Detail = "connect timed out"
		return result
	}
	if err := token.Error(); err != nil {
		result.Detail = err.Error()
		return result
	}

	client.Disconnect(250)
	result.Reachable = true
	return result
}

func (p *Prober) probeHTTP(ctx context.Context, params models.HTTPParams) Result {
	result := Result{Protocol: models.ProtocolHTTP, Target: params.Endpoint}

	method := params.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, params.Endpoint, nil)
	if err != nil {
		result.Detail = err.Error()
		return result
	}
	for key, value := range params.Headers {
		req.Header.Set(key, value)
	}

	client := &http.Client{Timeout: p.timeout}
	resp, err := client.Do(req)
	if err != nil {
		result.Detail = err.Error()
		return result
	}
	resp.Body.Close()

	// Any response means something answered at the endpoint.
	result.Reachable = true
	result.Detail = fmt.Sprintf("status %d", resp.StatusCode)
	return result
}

func (p *Prober) probeCOAP(params models.COAPParams) Result {
	target := net.JoinHostPort(params.Host, fmt.Sprintf("%d", params.Port))
	result := Result{Protocol: models.ProtocolCOAP, Target: target}

	// UDP gives no handshake; resolving and opening the socket is the best
	// reachability signal available without speaking CoAP.
	conn, err := net.DialTimeout("udp", target, p.timeout)
	if err != nil {
		result.Detail = err.Error()
		return result
	}
	conn.Close()

	result.Reachable = true
	result.Detail = "datagram socket opened"
	return result
}
