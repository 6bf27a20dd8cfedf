package movie

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"moviegen/internal/domain"
	"moviegen/internal/events"
	"moviegen/internal/genai"
	"moviegen/internal/infra"
	"moviegen/internal/storyboard"
	"moviegen/internal/video"
)

// Status messages surfaced to the user. The quota message points at the key
// affordance because the fix is a different API key, not a retry.
const (
	msgStoryboarding = "Generating scene descriptions..."
	msgComplete      = "Your movie is ready!"
	msgQuota         = "API quota exceeded. Please provide a different API key and try again."
)

// Orchestrator sequences one generation run: storyboard once, then render
// each scene strictly in order, appending every finished clip to the display.
// Scenes are never rendered concurrently; later scenes are expected to keep a
// coherent throughline with earlier ones and the video backend is
// rate-limited.
type Orchestrator struct {
	storyboard  storyboard.Generator
	renderer    video.Renderer
	display     *Display
	broadcaster *events.Broadcaster
	logger      infra.Logger

	mu      sync.Mutex
	running bool
	run     Run
}

func NewOrchestrator(sb storyboard.Generator, r video.Renderer, display *Display, b *events.Broadcaster, logger infra.Logger) *Orchestrator {
	return &Orchestrator{
		storyboard:  sb,
		renderer:    r,
		display:     display,
		broadcaster: b,
		logger:      logger,
		run:         Run{State: StateIdle},
	}
}

// Run returns a snapshot of the current or most recent run.
func (o *Orchestrator) Run() Run {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.run
}

// Generate executes one full run synchronously. Only one run may be active at
// a time; a second call while running fails with domain.ErrRunInProgress,
// which is the service-side equivalent of the disabled generate button. The
// run gate and a terminal state are always restored, whatever the outcome.
func (o *Orchestrator) Generate(ctx context.Context, req Request) error {
	if err := o.begin(req); err != nil {
		return err
	}
	return o.work(ctx, req)
}

// Start acquires the run gate synchronously, so the caller learns immediately
// whether the run was accepted, then executes it on a new goroutine. Progress
// and the outcome are observed through the event stream and Run snapshots.
func (o *Orchestrator) Start(ctx context.Context, req Request) (string, error) {
	if err := o.begin(req); err != nil {
		return "", err
	}
	o.mu.Lock()
	runID := o.run.ID
	o.mu.Unlock()
	go func() {
		_ = o.work(ctx, req)
	}()
	return runID, nil
}

func (o *Orchestrator) work(ctx context.Context, req Request) error {
	var runErr error
	defer func() {
		o.finish(runErr)
	}()

	o.display.Reset()
	if o.broadcaster != nil {
		o.broadcaster.Reset()
	}
	o.setStatus(msgStoryboarding)

	scenes, err := o.storyboard.Storyboard(ctx, req.Idea)
	if err != nil {
		runErr = err
		return runErr
	}

	o.mu.Lock()
	o.run.SceneCount = len(scenes)
	o.mu.Unlock()

	for i, prompt := range scenes {
		o.setSceneStatus(i, len(scenes))
		clip, err := o.renderer.Render(ctx, video.RenderRequest{
			Prompt: prompt,
			Image:  req.Image,
			Scene:  i,
			Total:  len(scenes),
		})
		if err != nil {
			runErr = err
			return runErr
		}
		o.display.Append(*clip)
		o.publish(events.Event{
			Type:    events.TypeSceneReady,
			Scene:   i,
			Total:   len(scenes),
			Message: fmt.Sprintf("Scene %d of %d ready", i+1, len(scenes)),
		})
	}

	return nil
}

func (o *Orchestrator) begin(req Request) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return domain.ErrRunInProgress
	}
	o.running = true
	o.run = Run{
		ID:        uuid.NewString(),
		State:     StateRunning,
		StartedAt: time.Now().UTC(),
	}
	o.logger.Info().Str("run_id", o.run.ID).Msg("movie: run started")
	return nil
}

// finish records the terminal state and releases the run gate. It runs on
// every exit path of a run so the controls are never left disabled.
func (o *Orchestrator) finish(runErr error) {
	state := StateComplete
	status := msgComplete
	kind := ErrorKindNone
	eventType := events.TypeRunComplete

	if runErr != nil {
		state = StateFailed
		kind, status = classify(runErr)
		if kind == ErrorKindQuota {
			eventType = events.TypeQuotaExceeded
		} else {
			eventType = events.TypeRunFailed
		}
		o.logger.Error().Err(runErr).Str("kind", string(kind)).Msg("movie: run failed")
	} else {
		o.logger.Info().Msg("movie: run complete")
	}

	o.mu.Lock()
	o.run.State = state
	o.run.Status = status
	o.run.ErrorKind = kind
	o.run.FinishedAt = time.Now().UTC()
	runID := o.run.ID
	o.running = false
	o.mu.Unlock()

	o.publish(events.Event{Type: eventType, RunID: runID, Message: status})
}

// classify maps a run error to its UI treatment. Classification relies on the
// typed error produced at the network boundary; message text is never
// re-parsed.
func classify(err error) (ErrorKind, string) {
	if genai.IsQuotaExceeded(err) || errors.Is(err, domain.ErrQuotaExceeded) {
		return ErrorKindQuota, msgQuota
	}
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return ErrorKindAPI, apiErr.Message
	}
	return ErrorKindOther, err.Error()
}

func (o *Orchestrator) setStatus(msg string) {
	o.mu.Lock()
	o.run.Status = msg
	runID := o.run.ID
	o.mu.Unlock()
	o.publish(events.Event{Type: events.TypeStatus, RunID: runID, Message: msg})
}

func (o *Orchestrator) setSceneStatus(scene, total int) {
	msg := fmt.Sprintf("Generating scene %d of %d...", scene+1, total)
	o.mu.Lock()
	o.run.Status = msg
	runID := o.run.ID
	o.mu.Unlock()
	o.publish(events.Event{
		Type:    events.TypeStatus,
		RunID:   runID,
		Scene:   scene,
		Total:   total,
		Message: msg,
	})
}

func (o *Orchestrator) publish(e events.Event) {
	if o.broadcaster != nil {
		o.broadcaster.Publish(e)
	}
}
