package video

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"moviegen/internal/genai"
	"moviegen/internal/infra"
	"moviegen/internal/media"
)

// RenderRequest carries one scene to the video model. Scene is the zero-based
// index within a Total-scene run; the same reference image, when present, is
// attached to every scene of the run.
type RenderRequest struct {
	Prompt string
	Image  *media.Payload
	Scene  int
	Total  int
}

// Clip is one rendered scene, fetched and ready to play or write out.
type Clip struct {
	Scene     int
	Prompt    string
	Title     string
	MIME      string
	Data      []byte
	SourceURI string
}

// Renderer renders one scene prompt into a playable clip.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) (*Clip, error)
}

// RenderError signals a render job that completed without producing any
// media for the given scene.
type RenderError struct {
	Scene int
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("no video was generated for scene %d", e.Scene+1)
}

// VeoRenderer drives the Veo long-running operation: submit, poll at a fixed
// interval until done, then fetch the produced media.
type VeoRenderer struct {
	client *genai.Client
	logger *infra.Logger

	// PollInterval is the fixed delay between status queries.
	PollInterval time.Duration
	// MaxPolls bounds the polling loop; zero keeps polling until the job
	// finishes, the query fails, or ctx is cancelled.
	MaxPolls int
	// DurationSeconds and SampleCount are fixed per run configuration.
	DurationSeconds int
	SampleCount     int
}

type RendererOptions struct {
	PollInterval    time.Duration
	MaxPolls        int
	DurationSeconds int
	Logger          *infra.Logger
}

func NewVeoRenderer(client *genai.Client, opts RendererOptions) *VeoRenderer {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	secs := opts.DurationSeconds
	if secs <= 0 {
		secs = 5
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &VeoRenderer{
		client:          client,
		logger:          logger,
		PollInterval:    interval,
		MaxPolls:        opts.MaxPolls,
		DurationSeconds: secs,
		SampleCount:     1,
	}
}

// Render submits the scene, waits for the operation to finish, and downloads
// the first produced sample. A completed job with zero samples fails with a
// RenderError naming the scene.
func (r *VeoRenderer) Render(ctx context.Context, req RenderRequest) (*Clip, error) {
	op, err := r.client.GenerateVideos(ctx, genai.VideoRequest{
		Prompt:          req.Prompt,
		Image:           req.Image,
		DurationSeconds: r.DurationSeconds,
		SampleCount:     r.SampleCount,
	})
	if err != nil {
		return nil, fmt.Errorf("submit scene %d: %w", req.Scene+1, err)
	}

	op, err = r.awaitOperation(ctx, op, req.Scene)
	if err != nil {
		return nil, err
	}

	uris := op.Videos()
	if len(uris) == 0 {
		return nil, &RenderError{Scene: req.Scene}
	}

	data, mimeType, err := r.client.Download(ctx, uris[0])
	if err != nil {
		return nil, fmt.Errorf("fetch scene %d media: %w", req.Scene+1, err)
	}
	if mimeType == "" {
		mimeType = "video/mp4"
	}

	r.logger.Info().
		Int("scene", req.Scene+1).
		Int("total", req.Total).
		Int("bytes", len(data)).
		Msg("video: scene rendered")

	return &Clip{
		Scene:     req.Scene,
		Prompt:    req.Prompt,
		Title:     sceneTitle(req.Prompt),
		MIME:      mimeType,
		Data:      data,
		SourceURI: uris[0],
	}, nil
}

func (r *VeoRenderer) awaitOperation(ctx context.Context, op *genai.Operation, scene int) (*genai.Operation, error) {
	polls := 0
	for !op.Done {
		if r.MaxPolls > 0 && polls >= r.MaxPolls {
			return nil, fmt.Errorf("scene %d render did not finish after %d status checks", scene+1, polls)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.PollInterval):
		}

		refreshed, err := r.client.GetOperation(ctx, op.Name)
		if err != nil {
			return nil, fmt.Errorf("poll scene %d: %w", scene+1, err)
		}
		op = refreshed
		polls++

		r.logger.Debug().
			Int("scene", scene+1).
			Int("polls", polls).
			Bool("done", op.Done).
			Msg("video: polled render status")
	}
	return op, nil
}

// sceneTitle derives a short display title from the first words of the prompt.
func sceneTitle(prompt string) string {
	words := strings.Fields(prompt)
	if len(words) > 6 {
		words = words[:6]
	}
	title := strings.Join(words, " ")
	title = strings.TrimRight(title, ".,;:")
	return cases.Title(language.English).String(title)
}

var _ Renderer = (*VeoRenderer)(nil)
