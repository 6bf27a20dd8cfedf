package movie

import (
	"strings"

	"moviegen/internal/domain"
	"moviegen/internal/media"
)

// Request is the immutable input of one generation run, snapshotted from
// session state at the moment the run starts. It is passed by value through
// the orchestrator and down into each provider call.
type Request struct {
	Idea  string
	Image *media.Payload
}

// NewRequest validates and normalizes the inputs. A blank or whitespace-only
// idea is rejected before any provider is touched.
func NewRequest(idea string, image *media.Payload) (Request, error) {
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return Request{}, domain.ErrInvalidIdea
	}
	return Request{Idea: idea, Image: image}, nil
}
