package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"

	"github.com/iotplatform/device-onboarding/internal/models"
	"github.com/iotplatform/device-onboarding/internal/observability"
	"github.com/iotplatform/device-onboarding/internal/utils"
)

// RunState describes where a managed onboarding run is in its lifecycle.
type RunState string

const (
	RunStateQueued    RunState = "queued"
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
	RunStateFailed    RunState = "failed"
)

// ErrRunNotFound is returned for unknown run identifiers.
var ErrRunNotFound = errors.New("onboarding run not found")

// Archiver retains the original document after a successful run. Archiving is
// best-effort: failures are logged and never affect the run outcome.
type Archiver interface {
	Archive(ctx context.Context, doc models.DocumentUpload, deviceID string) error
}

// RunSnapshot is a point-in-time view of a managed run.
type RunSnapshot struct {
	ID        string                  `json:"run_id"`
	State     RunState                `json:"state"`
	Latest    *models.ProgressEvent   `json:"latest,omitempty"`
	Result    *models.OnboardingResult `json:"result,omitempty"`
	Error     string                  `json:"error,omitempty"`
	StartedAt time.Time               `json:"started_at"`
}

// run holds the mutable state of one workflow. Each run owns its own event
// buffer and subscriber set; runs never share state with each other.
type run struct {
	id        string
	startedAt time.Time

	mu          sync.Mutex
	state       RunState
	events      []models.ProgressEvent
	subscribers map[chan models.ProgressEvent]struct{}
	result      *models.OnboardingResult
	err         error
}

func (r *run) publish(event models.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
	for sub := range r.subscribers {
		select {
		case sub <- event:
		default:
			// Slow consumer; it will catch up from the buffer on resubscribe.
		}
	}
}

func (r *run) finish(result *models.OnboardingResult, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		r.state = RunStateFailed
		r.err = err
	} else {
		r.state = RunStateCompleted
		r.result = result
	}
	for sub := range r.subscribers {
		close(sub)
	}
	r.subscribers = nil
}

// subscribe returns a channel that replays the buffered events and then
// streams live ones. The channel closes when the run reaches a terminal
// state. The returned cancel func detaches the subscriber.
func (r *run) subscribe() (<-chan models.ProgressEvent, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan models.ProgressEvent, len(onboardingPlan)+len(r.events))
	for _, event := range r.events {
		ch <- event
	}

	if r.state == RunStateCompleted || r.state == RunStateFailed {
		close(ch)
		return ch, func() {}
	}

	if r.subscribers == nil {
		r.subscribers = make(map[chan models.ProgressEvent]struct{})
	}
	r.subscribers[ch] = struct{}{}

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.subscribers[ch]; ok {
			delete(r.subscribers, ch)
			close(ch)
		}
	}
	return ch, cancel
}

func (r *run) snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := RunSnapshot{
		ID:        r.id,
		State:     r.state,
		Result:    r.result,
		StartedAt: r.startedAt,
	}
	if len(r.events) > 0 {
		latest := r.events[len(r.events)-1]
		snap.Latest = &latest
	}
	if r.err != nil {
		snap.Error = r.err.Error()
	}
	return snap
}

// RunManager executes onboarding workflows on a bounded worker pool and
// tracks them by run ID so callers can poll or stream progress.
type RunManager struct {
	svc        *OnboardingService
	pool       *utils.WorkerPool
	runs       cmap.ConcurrentMap[string, *run]
	archiver   Archiver
	metrics    *observability.Metrics
	runTimeout time.Duration
	logger     zerolog.Logger
}

// NewRunManager creates a manager executing at most workers runs in parallel.
// archiver and metrics may be nil.
func NewRunManager(
	svc *OnboardingService,
	workers int,
	runTimeout time.Duration,
	archiver Archiver,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *RunManager {
	if workers <= 0 {
		workers = 4
	}
	return &RunManager{
		svc:        svc,
		pool:       utils.NewWorkerPool(workers, workers*4),
		runs:       cmap.New[*run](),
		archiver:   archiver,
		metrics:    metrics,
		runTimeout: runTimeout,
		logger:     logger,
	}
}

// Start validates the inputs synchronously, then queues the workflow and
// returns its run ID. Validation failures are returned directly so HTTP
// callers can map them to a 400 without consulting the run.
func (m *RunManager) Start(draft models.DeviceDraft, doc models.DocumentUpload) (string, error) {
	if err := draft.Validate(); err != nil {
		return "", err
	}
	if err := doc.Validate(); err != nil {
		return "", err
	}

	r := &run{
		id:        uuid.New().String(),
		startedAt: time.Now(),
		state:     RunStateQueued,
	}
	m.runs.Set(r.id, r)
	m.metrics.RunStarted()

	m.pool.Submit(func() {
		m.execute(r, draft, doc)
	})

	m.logger.Info().Str("run_id", r.id).Str("device_name", draft.Name).Msg("Onboarding run queued")
	return r.id, nil
}

func (m *RunManager) execute(r *run, draft models.DeviceDraft, doc models.DocumentUpload) {
	ctx := context.Background()
	if m.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.runTimeout)
		defer cancel()
	}

	r.mu.Lock()
	r.state = RunStateRunning
	r.mu.Unlock()

	result, err := m.svc.CompleteOnboarding(ctx, draft, doc, r.publish)
	if err != nil {
		r.finish(nil, err)

		var stageErr *StageError
		stage := "validation"
		if errors.As(err, &stageErr) {
			stage = string(stageErr.Stage)
		}
		m.metrics.RunFailed(stage)
		m.logger.Error().Err(err).Str("run_id", r.id).Msg("Onboarding run failed")
		return
	}

	m.metrics.RunCompleted(result.ProcessingTime, result.ArtifactSource == models.ArtifactSourceFallback)

	// Archive before marking the run terminal so a completed snapshot means
	// the whole wrap-up ran.
	if m.archiver != nil {
		if archiveErr := m.archiver.Archive(ctx, doc, result.DeviceID); archiveErr != nil {
			m.logger.Warn().
				Err(archiveErr).
				Str("run_id", r.id).
				Str("device_id", result.DeviceID).
				Msg("Failed to archive onboarding document")
		}
	}

	r.finish(result, nil)
}

// Snapshot returns the current view of a run.
func (m *RunManager) Snapshot(runID string) (RunSnapshot, error) {
	r, ok := m.runs.Get(runID)
	if !ok {
		return RunSnapshot{}, ErrRunNotFound
	}
	return r.snapshot(), nil
}

// Subscribe streams a run's progress events, replaying buffered ones first.
func (m *RunManager) Subscribe(runID string) (<-chan models.ProgressEvent, func(), error) {
	r, ok := m.runs.Get(runID)
	if !ok {
		return nil, nil, ErrRunNotFound
	}
	events, cancel := r.subscribe()
	return events, cancel, nil
}

// Shutdown drains the worker pool.
func (m *RunManager) Shutdown() {
	m.pool.Shutdown()
}
