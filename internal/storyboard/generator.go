package storyboard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"moviegen/internal/domain"
	"moviegen/internal/genai"
)

// Generator turns a movie idea into an ordered list of scene prompts.
type Generator interface {
	Storyboard(ctx context.Context, idea string) ([]string, error)
}

// GeminiGenerator asks the text model for the storyboard as a JSON array of
// strings, constrained by a declared response schema.
type GeminiGenerator struct {
	client     *genai.Client
	sceneCount int
	clipSecs   int
}

type Options struct {
	SceneCount  int
	ClipSeconds int
}

func NewGeminiGenerator(client *genai.Client, opts Options) *GeminiGenerator {
	count := opts.SceneCount
	if count <= 0 {
		count = 4
	}
	secs := opts.ClipSeconds
	if secs <= 0 {
		secs = 5
	}
	return &GeminiGenerator{client: client, sceneCount: count, clipSecs: secs}
}

// Storyboard returns the model-produced scene prompts in order. The result is
// guaranteed non-empty; any parse failure, non-array payload, or empty array
// fails with domain.ErrStoryboard.
func (g *GeminiGenerator) Storyboard(ctx context.Context, idea string) ([]string, error) {
	schema := &genai.Schema{
		Type: "ARRAY",
		Items: &genai.Schema{
			Type:        "STRING",
			Description: fmt.Sprintf("A detailed visual prompt for a %d-second clip", g.clipSecs),
		},
	}

	text, err := g.client.GenerateContent(ctx, g.buildPrompt(idea), schema)
	if err != nil {
		return nil, fmt.Errorf("storyboard request: %w", err)
	}

	scenes, err := parseScenes(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoryboard, err)
	}
	return scenes, nil
}

func (g *GeminiGenerator) buildPrompt(idea string) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "You are a film director. Break the following movie idea into exactly %d distinct scenes that together tell a short story. ", g.sceneCount)
	fmt.Fprintf(sb, "Each scene must be a single detailed visual prompt suitable for a %d-second video clip, keeping characters and setting consistent across scenes. ", g.clipSecs)
	fmt.Fprintf(sb, "Movie idea: %s", strings.TrimSpace(idea))
	return sb.String()
}

func parseScenes(raw string) ([]string, error) {
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("empty response")
	}
	var scenes []string
	if err := json.Unmarshal([]byte(cleaned), &scenes); err != nil {
		return nil, err
	}
	var out []string
	for _, scene := range scenes {
		if scene = strings.TrimSpace(scene); scene != "" {
			out = append(out, scene)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no scenes in response")
	}
	return out, nil
}

// extractJSONFragment strips markdown code fences and surrounding prose that
// models occasionally wrap around the JSON payload.
func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

var _ Generator = (*GeminiGenerator)(nil)
