package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"

	"github.com/iotplatform/device-onboarding/internal/models"
)

// RuleGenerator derives monitoring rules, maintenance schedules and safety
// precautions from an uploaded document. Failures here are recoverable; the
// workflow substitutes fallback artifacts.
type RuleGenerator interface {
	Generate(ctx context.Context, handle models.DocumentHandle, draft models.DeviceDraft) (*models.GeneratedArtifacts, error)
}

// SupportedServiceVersions is the semver range of document-processing service
// versions this adapter is known to work with.
const SupportedServiceVersions = ">= 1.0.0, < 3.0.0"

// generateRequest is the wire shape sent to POST /rules:generate.
type generateRequest struct {
	DocumentRef string   `json:"documentRef"`
	ChunkSize   int      `json:"chunkSize,omitempty"`
	RuleTypes   []string `json:"ruleTypes"`
}

// The remote service's response objects are loosely shaped; every field is
// optional on the wire. Defaulting happens once, here, so the orchestration
// logic only ever sees normalized artifacts.
type wireRule struct {
	Name      string `json:"name"`
	Category  string `json:"category,omitempty"`
	RuleType  string `json:"ruleType,omitempty"`
	Condition string `json:"condition,omitempty"`
	Action    string `json:"action,omitempty"`
	Priority  string `json:"priority,omitempty"`
	Cadence   string `json:"frequency,omitempty"`
}

type wireMaintenance struct {
	Component       string `json:"component"`
	TaskName        string `json:"taskName,omitempty"`
	MaintenanceType string `json:"maintenanceType,omitempty"`
	Cadence         string `json:"frequency,omitempty"`
	Description     string `json:"description,omitempty"`
}

type wireSafety struct {
	Title             string `json:"title"`
	Severity          string `json:"severity,omitempty"`
	Category          string `json:"category,omitempty"`
	Description       string `json:"description,omitempty"`
	RecommendedAction string `json:"recommendedAction,omitempty"`
}

type generateResponse struct {
	Rules            []wireRule        `json:"rules"`
	Maintenance      []wireMaintenance `json:"maintenance"`
	Safety           []wireSafety      `json:"safety"`
	TotalPages       int               `json:"totalPages,omitempty"`
	ProcessedChunks  int               `json:"processedChunks,omitempty"`
	ProcessingTimeMs int64             `json:"processingTimeMs,omitempty"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// RulesClient implements RuleGenerator against the document-processing
// service. Transport failures are retried with exponential backoff and jitter
// before the error is handed back to the workflow.
type RulesClient struct {
	baseURL    string
	authToken  string
	chunkSize  int
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	httpClient *http.Client
	logger     zerolog.Logger

	now func() time.Time
}

// NewRulesClient creates a RulesClient. maxRetries counts additional attempts
// after the first; zero disables retrying.
func NewRulesClient(
	baseURL string,
	authToken string,
	chunkSize int,
	maxRetries int,
	baseDelay time.Duration,
	maxDelay time.Duration,
	timeout time.Duration,
	logger zerolog.Logger,
) *RulesClient {
	return &RulesClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authToken:  authToken,
		chunkSize:  chunkSize,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		now:        time.Now,
	}
}

// Generate requests the three artifact collections for a stored document.
func (c *RulesClient) Generate(ctx context.Context, handle models.DocumentHandle, draft models.DeviceDraft) (*models.GeneratedArtifacts, error) {
	reqBody, err := json.Marshal(generateRequest{
		DocumentRef: handle.StoredName,
		ChunkSize:   c.chunkSize,
		RuleTypes:   []string{"monitoring", "maintenance", "alert"},
	})
	if err != nil {
		return nil, &RulesGenerationError{Op: "encode rules request", Err: err}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt)
			c.logger.Warn().
				Int("attempt", attempt).
				Dur("delay", delay).
				Str("document", handle.StoredName).
				Msg("Retrying rules generation")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, &RulesGenerationError{Op: "generate rules", Err: ctx.Err()}
			}
		}

		artifacts, retryable, err := c.generateOnce(ctx, reqBody)
		if err == nil {
			return artifacts, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}

	return nil, lastErr
}

func (c *RulesClient) generateOnce(ctx context.Context, reqBody []byte) (*models.GeneratedArtifacts, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rules:generate", bytes.NewReader(reqBody))
	if err != nil {
		return nil, false, &RulesGenerationError{Op: "build rules request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, &RulesGenerationError{Op: "generate rules", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, true, &RulesGenerationError{
			Op:  "generate rules",
			Err: fmt.Errorf("processing service returned status %d", resp.StatusCode),
		}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, false, &RulesGenerationError{
			Op:  "generate rules",
			Err: fmt.Errorf("processing service rejected request with status %d", resp.StatusCode),
		}
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, false, &RulesGenerationError{Op: "decode rules response", Err: err}
	}

	artifacts := c.normalize(parsed)
	if artifacts.Total() == 0 {
		return nil, false, &RulesGenerationError{
			Op:  "generate rules",
			Err: fmt.Errorf("processing service returned no artifacts"),
		}
	}

	c.logger.Info().
		Int("rules", len(artifacts.Rules)).
		Int("maintenance", len(artifacts.Maintenance)).
		Int("safety", len(artifacts.Safety)).
		Int("processed_chunks", parsed.ProcessedChunks).
		Msg("Rules generation completed")

	return artifacts, false, nil
}

// normalize applies the defaulting rules for the remote's loosely shaped
// payload in one place.
func (c *RulesClient) normalize(resp generateResponse) *models.GeneratedArtifacts {
	out := &models.GeneratedArtifacts{Source: models.ArtifactSourceRemote}
	today := c.now().Truncate(24 * time.Hour)

	for _, r := range resp.Rules {
		if r.Name == "" {
			continue
		}
		category := r.Category
		if category == "" {
			category = r.RuleType
		}
		out.Rules = append(out.Rules, models.IoTRule{
			Name:      r.Name,
			Category:  normalizeCategory(category),
			Condition: r.Condition,
			Action:    r.Action,
			Priority:  normalizePriority(r.Priority),
			Cadence:   r.Cadence,
		})
	}

	for _, m := range resp.Maintenance {
		component := m.Component
		if component == "" {
			component = m.TaskName
		}
		if component == "" {
			continue
		}
		cadence := m.Cadence
		if cadence == "" {
			cadence = "daily"
		}
		out.Maintenance = append(out.Maintenance, models.MaintenanceItem{
			Component:       component,
			MaintenanceType: defaultString(m.MaintenanceType, "preventive"),
			Cadence:         cadence,
			LastMaintenance: today,
			NextMaintenance: models.NextMaintenanceDate(today, cadence),
			Description:     defaultString(m.Description, "Maintenance task for device component"),
		})
	}

	for _, s := range resp.Safety {
		if s.Title == "" {
			continue
		}
		out.Safety = append(out.Safety, models.SafetyPrecaution{
			Title:             s.Title,
			Severity:          normalizeSeverity(s.Severity),
			Category:          defaultString(s.Category, "general"),
			Description:       s.Description,
			RecommendedAction: s.RecommendedAction,
		})
	}

	return out
}

// CheckCompatibility queries the processing service's health endpoint and
// verifies its reported version against SupportedServiceVersions. Advisory
// only: callers log a warning and proceed.
func (c *RulesClient) CheckCompatibility(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: "processing service health check", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("processing service health check returned status %d", resp.StatusCode)
	}

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("unparseable health response: %w", err)
	}
	if health.Version == "" {
		// Older deployments do not report a version.
		return nil
	}

	version, err := semver.NewVersion(health.Version)
	if err != nil {
		return fmt.Errorf("processing service reported invalid version %q: %w", health.Version, err)
	}
	constraint, err := semver.NewConstraint(SupportedServiceVersions)
	if err != nil {
		return fmt.Errorf("invalid version constraint %q: %w", SupportedServiceVersions, err)
	}
	if !constraint.Check(version) {
		return fmt.Errorf("processing service version %s is outside supported range %s", version, SupportedServiceVersions)
	}

	return nil
}

// backoff mirrors the platform's registration retry curve: exponential with
// jitter, capped at maxDelay.
func (c *RulesClient) backoff(attempt int) time.Duration {
	delay := c.baseDelay * time.Duration(1<<uint(attempt-1))
	if delay > c.maxDelay {
		delay = c.maxDelay
	}
	jitter := time.Duration(float64(delay) * (0.5 + rand.Float64()*0.5))
	return time.Duration(float64(delay)*0.5) + jitter/2
}

func normalizeCategory(raw string) models.RuleCategory {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "maintenance":
		return models.RuleCategoryMaintenance
	case "alert", "alerting":
		return models.RuleCategoryAlert
	default:
		return models.RuleCategoryMonitoring
	}
}

func normalizePriority(raw string) models.Priority {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return models.PriorityLow
	case "high", "critical":
		return models.PriorityHigh
	default:
		return models.PriorityMedium
	}
}

func normalizeSeverity(raw string) models.Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return models.SeverityLow
	case "high":
		return models.SeverityHigh
	case "critical":
		return models.SeverityCritical
	default:
		return models.SeverityMedium
	}
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
