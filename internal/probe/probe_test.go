package probe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotplatform/device-onboarding/internal/models"
)

func TestProbe_HTTPReachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "probe", r.Header.Get("X-Source"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	prober := New(2*time.Second, zerolog.Nop())
	result := prober.Probe(context.Background(), models.DeviceDraft{
		Protocol: models.ProtocolHTTP,
		HTTP: models.HTTPParams{
			Endpoint: server.URL,
			Headers:  map[string]string{"X-Source": "probe"},
		},
	})

	assert.Equal(t, models.ProtocolHTTP, result.Protocol)
	assert.True(t, result.Reachable)
	assert.Contains(t, result.Detail, "status 200")
}

func TestProbe_HTTPErrorResponseStillReachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	prober := New(2*time.Second, zerolog.Nop())
	result := prober.Probe(context.Background(), models.DeviceDraft{
		Protocol: models.ProtocolHTTP,
		HTTP:     models.HTTPParams{Endpoint: server.URL},
	})

	assert.True(t, result.Reachable, "any response means the endpoint answered")
}

func TestProbe_HTTPUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	prober := New(500*time.Millisecond, zerolog.Nop())
	result := prober.Probe(context.Background(), models.DeviceDraft{
		Protocol: models.ProtocolHTTP,
		HTTP:     models.HTTPParams{Endpoint: server.URL},
	})

	assert.False(t, result.Reachable)
	assert.NotEmpty(t, result.Detail)
}

func TestProbe_COAPSocketOpens(t *testing.T) {
	listener, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	addr := listener.LocalAddr().(*net.UDPAddr)

	prober := New(time.Second, zerolog.Nop())
	result := prober.Probe(context.Background(), models.DeviceDraft{
		Protocol: models.ProtocolCOAP,
		COAP:     models.COAPParams{Host: "127.0.0.1", Port: addr.Port},
	})

	assert.Equal(t, models.ProtocolCOAP, result.Protocol)
	assert.True(t, result.Reachable)
}

func TestProbe_MQTTUnreachableBroker(t *testing.T) {
	prober := New(200*time.Millisecond, zerolog.Nop())
	result := prober.Probe(context.Background(), models.DeviceDraft{
		Protocol: models.ProtocolMQTT,
		MQTT:     models.MQTTParams{Broker: "tcp://127.0.0.1:1", Topic: "t"},
	})

	assert.Equal(t, models.ProtocolMQTT, result.Protocol)
	assert.False(t, result.Reachable)
	assert.NotEmpty(t, result.Detail)
}

func TestProbe_UnknownProtocol(t *testing.T) {
	prober := New(time.Second, zerolog.Nop())
	result := prober.Probe(context.Background(), models.DeviceDraft{Protocol: "ZIGBEE"})

	assert.False(t, result.Reachable)
	assert.Contains(t, result.Detail, "unknown protocol")
}
