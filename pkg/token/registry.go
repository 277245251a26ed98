// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package token

import (
	"sync"

	"github.com/platform-engineering-labs/kiln/pkg/model"
)

// Registry is the append-only token table of one synthesis session. Entries
// are never removed or replaced: a removed entry would invalidate marker
// strings already embedded in property trees. Lazy tokens may register
// further tokens while resolution is running, so access is guarded.
type Registry struct {
	mu     sync.RWMutex
	tokens map[string]model.Token
}

func NewRegistry() *Registry {
	return &Registry{tokens: make(map[string]model.Token)}
}

// Register adds a token and returns its id. Registering the same token
// twice is a no-op; tokens are immutable so the first entry stands.
func (r *Registry) Register(t model.Token) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tokens[t.ID()]; !exists {
		r.tokens[t.ID()] = t
	}
	return t.ID()
}

func (r *Registry) Lookup(id string) (model.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tokens[id]
	if !ok {
		return nil, &model.UnregisteredTokenError{ID: id}
	}
	return t, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tokens)
}
