package credentials

import (
	"errors"
	"strings"
	"sync"
)

const (
	ProviderGemini = "gemini"
)

// Store keeps provider API keys in memory. The tool is single-user and
// intentionally does not persist credentials; the key lives only for the
// lifetime of the process and can be swapped at any time through the key
// endpoint.
type Store struct {
	mu     sync.RWMutex
	tokens map[string]string
}

func NewStore() *Store {
	return &Store{tokens: make(map[string]string)}
}

func (s *Store) GeminiAPIKey() string {
	return s.Token(ProviderGemini)
}

func (s *Store) Token(provider string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[provider]
}

func (s *Store) SetGeminiAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("gemini api key is required")
	}
	s.set(ProviderGemini, key)
	return nil
}

func (s *Store) set(provider, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[provider] = token
}
