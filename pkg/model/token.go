// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package model

// Referable is anything a reference token can point at. Resources implement
// it; the reference graph is keyed by these ids.
type Referable interface {
	LogicalID() string
}

// TokenSource looks tokens up by identifier. Lookup of an unknown id is a
// hard failure: it means a marker string was corrupted, truncated, or leaked
// in from another session's registry.
type TokenSource interface {
	Lookup(id string) (Token, error)
}

// Token is an opaque placeholder for a value computable only at synthesis
// time. Tokens are immutable once created.
//
// Resolve may return a value that itself contains tokens; the resolver
// re-resolves results until none remain. References reports every resource
// the token's eventual value depends on; intrinsic and lazy tokens answer by
// recursively querying their constituent values.
type Token interface {
	ID() string
	Resolve(ctx *ResolveContext) (Value, error)
	References(ctx *ResolveContext) ([]Referable, error)

	// String returns the encoded marker form, suitable for embedding the
	// token inside ordinary string concatenation.
	String() string
}

// ResolveContext is the ambient state of one resolve pass: the token source
// to scan embedded markers against, the chain of token ids currently being
// resolved (for cycle detection) and the property path (for diagnostics).
// A context is used by a single goroutine; parallel passes each get their own.
type ResolveContext struct {
	tokens  TokenSource
	chain   []string
	inChain map[string]struct{}
	path    []string
}

func NewResolveContext(tokens TokenSource) *ResolveContext {
	return &ResolveContext{
		tokens:  tokens,
		inChain: make(map[string]struct{}),
	}
}

func (c *ResolveContext) Tokens() TokenSource { return c.tokens }

// Push records a token id as in-flight. Pushing an id already on the chain
// means the token's resolution reaches itself; that fails with the full chain.
func (c *ResolveContext) Push(id string) error {
	if _, ok := c.inChain[id]; ok {
		chain := make([]string, len(c.chain), len(c.chain)+1)
		copy(chain, c.chain)
		return &ResolutionCycleError{Chain: append(chain, id)}
	}
	c.chain = append(c.chain, id)
	c.inChain[id] = struct{}{}
	return nil
}

func (c *ResolveContext) Pop() {
	if len(c.chain) == 0 {
		return
	}
	id := c.chain[len(c.chain)-1]
	c.chain = c.chain[:len(c.chain)-1]
	delete(c.inChain, id)
}

func (c *ResolveContext) Chain() []string {
	out := make([]string, len(c.chain))
	copy(out, c.chain)
	return out
}

func (c *ResolveContext) PushPath(segment string) {
	c.path = append(c.path, segment)
}

func (c *ResolveContext) PopPath() {
	if len(c.path) > 0 {
		c.path = c.path[:len(c.path)-1]
	}
}

// Path returns the dotted property path of the value currently being
// resolved, rooted at "$".
func (c *ResolveContext) Path() string {
	p := "$"
	for _, seg := range c.path {
		p += "." + seg
	}
	return p
}
