package movie

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"moviegen/internal/domain"
	"moviegen/internal/events"
	"moviegen/internal/genai"
	"moviegen/internal/infra"
	"moviegen/internal/media"
	"moviegen/internal/video"
)

type fakeStoryboard struct {
	scenes []string
	err    error
}

func (f fakeStoryboard) Storyboard(ctx context.Context, idea string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.scenes, nil
}

type fakeRenderer struct {
	mu      sync.Mutex
	calls   []video.RenderRequest
	failAt  int // scene index that fails; -1 for none
	failErr error
}

func (f *fakeRenderer) Render(ctx context.Context, req video.RenderRequest) (*video.Clip, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if req.Scene == f.failAt {
		if f.failErr != nil {
			return nil, f.failErr
		}
		return nil, &video.RenderError{Scene: req.Scene}
	}
	return &video.Clip{
		Scene:  req.Scene,
		Prompt: req.Prompt,
		MIME:   "video/mp4",
		Data:   []byte(fmt.Sprintf("clip-%d", req.Scene)),
	}, nil
}

func (f *fakeRenderer) renderCalls() []video.RenderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]video.RenderRequest, len(f.calls))
	copy(out, f.calls)
	return out
}

func testLogger() infra.Logger {
	return zerolog.New(io.Discard)
}

func newTestOrchestrator(sb fakeStoryboard, r *fakeRenderer) (*Orchestrator, *Display, *events.Broadcaster) {
	display := NewDisplay()
	broadcaster := events.NewBroadcaster(64)
	o := NewOrchestrator(sb, r, display, broadcaster, testLogger())
	return o, display, broadcaster
}

func TestGenerateHappyPath(t *testing.T) {
	scenes := []string{"s1", "s2", "s3", "s4"}
	renderer := &fakeRenderer{failAt: -1}
	o, display, broadcaster := newTestOrchestrator(fakeStoryboard{scenes: scenes}, renderer)

	req, err := NewRequest("A robot explores a forest", nil)
	if err != nil {
		t.Fatalf("NewRequest returned error: %v", err)
	}
	if err := o.Generate(context.Background(), req); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	clips := display.Clips()
	if len(clips) != 4 {
		t.Fatalf("len(clips) = %d, want 4", len(clips))
	}
	for i, clip := range clips {
		if clip.Scene != i || clip.Prompt != scenes[i] {
			t.Fatalf("clips[%d] = {Scene:%d Prompt:%q}", i, clip.Scene, clip.Prompt)
		}
	}
	if !display.Visible() {
		t.Fatal("results area not visible after scene 0")
	}

	run := o.Run()
	if run.State != StateComplete {
		t.Fatalf("run.State = %q, want complete", run.State)
	}
	if run.Status != msgComplete {
		t.Fatalf("run.Status = %q, want %q", run.Status, msgComplete)
	}
	if run.ErrorKind != ErrorKindNone {
		t.Fatalf("run.ErrorKind = %q, want none", run.ErrorKind)
	}
	if run.SceneCount != 4 {
		t.Fatalf("run.SceneCount = %d, want 4", run.SceneCount)
	}

	// Gate released: a new run is accepted.
	if err := o.Generate(context.Background(), req); err != nil {
		t.Fatalf("second Generate returned error: %v", err)
	}

	recent := broadcaster.Recent()
	if len(recent) == 0 || recent[len(recent)-1].Type != events.TypeRunComplete {
		t.Fatalf("last event = %+v, want run_complete", recent)
	}
}

func TestGenerateStatusSequence(t *testing.T) {
	renderer := &fakeRenderer{failAt: -1}
	o, _, broadcaster := newTestOrchestrator(fakeStoryboard{scenes: []string{"a", "b"}}, renderer)

	sub := broadcaster.Subscribe()
	defer broadcaster.Unsubscribe(sub)

	req, _ := NewRequest("idea", nil)
	if err := o.Generate(context.Background(), req); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	var messages []string
	for _, e := range broadcaster.Recent() {
		if e.Type == events.TypeStatus {
			messages = append(messages, e.Message)
		}
	}
	want := []string{
		"Generating scene descriptions...",
		"Generating scene 1 of 2...",
		"Generating scene 2 of 2...",
	}
	if len(messages) != len(want) {
		t.Fatalf("status messages = %v, want %v", messages, want)
	}
	for i := range want {
		if messages[i] != want[i] {
			t.Fatalf("messages[%d] = %q, want %q", i, messages[i], want[i])
		}
	}
}

func TestGenerateSameImageForEveryScene(t *testing.T) {
	renderer := &fakeRenderer{failAt: -1}
	o, _, _ := newTestOrchestrator(fakeStoryboard{scenes: []string{"a", "b", "c"}}, renderer)

	req, err := NewRequest("idea", testPayload())
	if err != nil {
		t.Fatalf("NewRequest returned error: %v", err)
	}
	if err := o.Generate(context.Background(), req); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	for i, call := range renderer.renderCalls() {
		if call.Image != req.Image {
			t.Fatalf("scene %d rendered with a different image payload", i)
		}
		if call.Total != 3 {
			t.Fatalf("scene %d Total = %d, want 3", i, call.Total)
		}
	}
}

func TestGenerateQuotaExceeded(t *testing.T) {
	quotaErr := fmt.Errorf("storyboard request: %w", &genai.APIError{Code: 429, Message: "Resource has been exhausted"})
	renderer := &fakeRenderer{failAt: -1}
	o, display, broadcaster := newTestOrchestrator(fakeStoryboard{err: quotaErr}, renderer)

	req, _ := NewRequest("idea", nil)
	err := o.Generate(context.Background(), req)
	if err == nil {
		t.Fatal("expected error")
	}

	run := o.Run()
	if run.State != StateFailed {
		t.Fatalf("run.State = %q, want failed", run.State)
	}
	if run.ErrorKind != ErrorKindQuota {
		t.Fatalf("run.ErrorKind = %q, want quota", run.ErrorKind)
	}
	if !strings.Contains(run.Status, "API key") {
		t.Fatalf("run.Status = %q, want quota guidance", run.Status)
	}
	if len(renderer.renderCalls()) != 0 {
		t.Fatal("scenes rendered despite storyboard failure")
	}
	if display.Len() != 0 {
		t.Fatal("clips appended despite storyboard failure")
	}

	recent := broadcaster.Recent()
	if recent[len(recent)-1].Type != events.TypeQuotaExceeded {
		t.Fatalf("last event = %+v, want quota_exceeded", recent[len(recent)-1])
	}

	// Controls re-enabled even after failure.
	if err := o.Generate(context.Background(), req); err == nil {
		t.Log("second run accepted after failure")
	} else if errors.Is(err, domain.ErrRunInProgress) {
		t.Fatal("run gate not released after failure")
	}
}

func TestGenerateMidRunRenderFailureKeepsEarlierScenes(t *testing.T) {
	renderer := &fakeRenderer{failAt: 2}
	o, display, _ := newTestOrchestrator(fakeStoryboard{scenes: []string{"s1", "s2", "s3", "s4"}}, renderer)

	req, _ := NewRequest("idea", nil)
	err := o.Generate(context.Background(), req)
	var renderErr *video.RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("err = %v, want *RenderError", err)
	}

	if display.Len() != 2 {
		t.Fatalf("display.Len() = %d, want 2 (scenes before the failure)", display.Len())
	}
	if calls := renderer.renderCalls(); len(calls) != 3 {
		t.Fatalf("render calls = %d, want 3 (scene 4 never attempted)", len(calls))
	}

	run := o.Run()
	if run.State != StateFailed {
		t.Fatalf("run.State = %q, want failed", run.State)
	}
	if run.ErrorKind != ErrorKindOther {
		t.Fatalf("run.ErrorKind = %q, want other", run.ErrorKind)
	}
	if !strings.Contains(run.Status, "scene 3") {
		t.Fatalf("run.Status = %q, want render failure naming scene 3", run.Status)
	}
}

func TestGenerateAPIErrorShowsBackendMessage(t *testing.T) {
	renderer := &fakeRenderer{failAt: 0, failErr: &genai.APIError{Code: 400, Message: "invalid prompt"}}
	o, _, _ := newTestOrchestrator(fakeStoryboard{scenes: []string{"s1"}}, renderer)

	req, _ := NewRequest("idea", nil)
	if err := o.Generate(context.Background(), req); err == nil {
		t.Fatal("expected error")
	}

	run := o.Run()
	if run.ErrorKind != ErrorKindAPI {
		t.Fatalf("run.ErrorKind = %q, want api", run.ErrorKind)
	}
	if run.Status != "invalid prompt" {
		t.Fatalf("run.Status = %q, want backend message", run.Status)
	}
}

func TestGenerateRejectsBlankIdea(t *testing.T) {
	if _, err := NewRequest("   \t\n", nil); !errors.Is(err, domain.ErrInvalidIdea) {
		t.Fatalf("err = %v, want domain.ErrInvalidIdea", err)
	}
}

func TestGenerateSingleFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	renderer := &fakeRenderer{failAt: -1}
	sb := blockingStoryboard{started: started, release: release}
	o, _, _ := newTestOrchestrator(fakeStoryboard{}, renderer)
	o.storyboard = sb

	req, _ := NewRequest("idea", nil)
	runID, err := o.Start(context.Background(), req)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if runID == "" {
		t.Fatal("Start returned empty run id")
	}
	<-started

	if _, err := o.Start(context.Background(), req); !errors.Is(err, domain.ErrRunInProgress) {
		t.Fatalf("err = %v, want domain.ErrRunInProgress", err)
	}
	if err := o.Generate(context.Background(), req); !errors.Is(err, domain.ErrRunInProgress) {
		t.Fatalf("err = %v, want domain.ErrRunInProgress", err)
	}

	close(release)
	waitForState(t, o, StateComplete)
}

type blockingStoryboard struct {
	started chan struct{}
	release chan struct{}
}

func (b blockingStoryboard) Storyboard(ctx context.Context, idea string) ([]string, error) {
	close(b.started)
	<-b.release
	return []string{"s1"}, nil
}

func waitForState(t *testing.T, o *Orchestrator, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if o.Run().State == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("run state = %q, want %q", o.Run().State, want)
}

func testPayload() *media.Payload {
	return &media.Payload{MIME: "image/png", Data: "aGk="}
}
