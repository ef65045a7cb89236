package utils

import (
	"time"

	"github.com/iotplatform/device-onboarding/pkg/file"
)

// Config represents the structure of the configuration file. Durations are
// plain numbers of seconds in the file; wiring code converts them.
type Config struct {
	Logging struct {
		Level string `yaml:"level"` // zerolog level: debug, info, warn, error
	} `yaml:"logging"`

	ProcessingService struct {
		BaseURL    string        `yaml:"base_url"`    // Document-processing service base URL
		Timeout    time.Duration `yaml:"timeout"`     // Per-call timeout (seconds)
		ChunkSize  int           `yaml:"chunk_size"`  // Chunk size hint for rules generation
		MaxRetries int           `yaml:"max_retries"` // Additional rules-generation attempts
		BaseDelay  time.Duration `yaml:"base_delay"`  // Initial retry delay (seconds)
		MaxBackoff time.Duration `yaml:"max_backoff"` // Retry delay cap (seconds)
	} `yaml:"processing_service"`

	DeviceRegistry struct {
		BaseURL string        `yaml:"base_url"` // Device registry base URL
		Timeout time.Duration `yaml:"timeout"`  // Per-call timeout (seconds)
	} `yaml:"device_registry"`

	Server struct {
		ListenAddress string        `yaml:"listen_address"` // HTTP listen address
		Workers       int           `yaml:"workers"`        // Concurrent onboarding runs
		RunTimeout    time.Duration `yaml:"run_timeout"`    // Per-run deadline (seconds)
	} `yaml:"server"`

	Archive struct {
		Enabled  bool   `yaml:"enabled"`  // Enable document archiving
		Endpoint string `yaml:"endpoint"` // S3-compatible endpoint
		Bucket   string `yaml:"bucket"`   // Bucket for archived documents
		UseSSL   bool   `yaml:"use_ssl"`  // Use TLS for object storage
	} `yaml:"archive"`

	Probe struct {
		Timeout time.Duration `yaml:"timeout"` // Per-probe timeout (seconds)
	} `yaml:"probe"`
}

// LoadConfig loads the YAML configuration from the specified file.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	if err := fileClient.ReadYamlFile(filename, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
