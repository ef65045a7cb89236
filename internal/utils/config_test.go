package utils

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotplatform/device-onboarding/pkg/file"
)

const sampleConfig = `
logging:
  level: "debug"

processing_service:
  base_url: "http://processing:8000"
  timeout: 60
  chunk_size: 4000
  max_retries: 2
  base_delay: 1
  max_backoff: 30

device_registry:
  base_url: "http://registry:8080/api"
  timeout: 30

server:
  listen_address: ":9090"
  workers: 8
  run_timeout: 600

archive:
  enabled: true
  endpoint: "minio:9000"
  bucket: "device-docs"
  use_ssl: false

probe:
  timeout: 5
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	fileClient := file.NewFileService()
	require.NoError(t, fileClient.WriteFileRaw(path, []byte(sampleConfig)))

	config, err := LoadConfig(path, fileClient)
	require.NoError(t, err)

	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "http://processing:8000", config.ProcessingService.BaseURL)
	// Durations are plain second counts in the file; wiring multiplies them.
	assert.Equal(t, time.Duration(60), config.ProcessingService.Timeout)
	assert.Equal(t, 4000, config.ProcessingService.ChunkSize)
	assert.Equal(t, 2, config.ProcessingService.MaxRetries)
	assert.Equal(t, "http://registry:8080/api", config.DeviceRegistry.BaseURL)
	assert.Equal(t, ":9090", config.Server.ListenAddress)
	assert.Equal(t, 8, config.Server.Workers)
	assert.True(t, config.Archive.Enabled)
	assert.Equal(t, "device-docs", config.Archive.Bucket)
	assert.Equal(t, time.Duration(5), config.Probe.Timeout)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), file.NewFileService())
	assert.Error(t, err)
}
