package movie

import (
	"sync"

	"moviegen/internal/media"
)

// Session holds the two pieces of single-user session state: the encoded
// reference image and its original filename. The idea text travels with each
// generate call instead of being stored, so a run always sees the exact text
// the user submitted.
type Session struct {
	mu       sync.RWMutex
	image    *media.Payload
	filename string
}

func NewSession() *Session {
	return &Session{}
}

// SetImage stores the encoded reference image, replacing any previous one.
func (s *Session) SetImage(p *media.Payload, filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = p
	s.filename = filename
}

// ClearImage removes the stored reference image.
func (s *Session) ClearImage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = nil
	s.filename = ""
}

// Image returns the stored payload and filename, or nil when no file is
// selected.
func (s *Session) Image() (*media.Payload, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.image, s.filename
}
