package session

import (
	"context"
	"sync"
)

// MemoryProvider is an in-process Provider for tests and local development.
type MemoryProvider struct {
	mu     sync.RWMutex
	tokens map[string]Tokens
}

var _ Provider = (*MemoryProvider)(nil)

// NewMemoryProvider returns an empty in-memory Provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{tokens: make(map[string]Tokens)}
}

func (p *MemoryProvider) GetToken(_ context.Context, sessionID string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	t, ok := p.tokens[sessionID]
	if !ok {
		return "", ErrNoSession
	}
	return t.Access, nil
}

func (p *MemoryProvider) SetTokens(_ context.Context, sessionID string, t Tokens) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tokens[sessionID] = t
	return nil
}

func (p *MemoryProvider) Clear(_ context.Context, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.tokens, sessionID)
	return nil
}
