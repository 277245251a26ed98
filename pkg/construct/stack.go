// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package construct is the user-facing construct graph: a stack owns one
// synthesis session (its token registry and resource set), scopes nest
// beneath it, and resources hand out deferred attribute values as tokens.
package construct

import (
	"fmt"
	"sort"
	"strings"

	"github.com/platform-engineering-labs/kiln/internal/synthesis/emitter"
	"github.com/platform-engineering-labs/kiln/internal/synthesis/refgraph"
	"github.com/platform-engineering-labs/kiln/pkg/model"
	"github.com/platform-engineering-labs/kiln/pkg/token"
)

// Stack is one deployable unit and one synthesis session. The registry it
// owns is scoped to the stack, so independent stacks (and tests) never share
// token state.
type Stack struct {
	name      string
	registry  *token.Registry
	allocator LogicalIDAllocator
	resources []*Resource
	paths     map[string]struct{}
	pseudo    map[string]model.Value
}

type StackOption func(*Stack)

// WithLogicalIDAllocator replaces the default logical-id derivation.
func WithLogicalIDAllocator(fn LogicalIDAllocator) StackOption {
	return func(s *Stack) { s.allocator = fn }
}

func NewStack(name string, opts ...StackOption) *Stack {
	s := &Stack{
		name:      name,
		registry:  token.NewRegistry(),
		allocator: DefaultLogicalID,
		paths:     make(map[string]struct{}),
		pseudo:    make(map[string]model.Value),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Stack) Name() string { return s.name }

func (s *Stack) Registry() *token.Registry { return s.registry }

// Scope opens a nested naming scope; resources created beneath it carry the
// scope's segments in their construct path and thus in their logical id.
func (s *Stack) Scope(id string) *Scope {
	return &Scope{stack: s, path: []string{id}}
}

// NewResource creates a resource directly under the stack.
func (s *Stack) NewResource(id, resourceType string) (*Resource, error) {
	return s.newResource(nil, id, resourceType)
}

// Scope is an intermediate construct-tree node. It holds no template state
// of its own; it only contributes path segments.
type Scope struct {
	stack *Stack
	path  []string
}

func (sc *Scope) Scope(id string) *Scope {
	child := make([]string, len(sc.path), len(sc.path)+1)
	copy(child, sc.path)
	return &Scope{stack: sc.stack, path: append(child, id)}
}

func (sc *Scope) NewResource(id, resourceType string) (*Resource, error) {
	return sc.stack.newResource(sc.path, id, resourceType)
}

func (s *Stack) newResource(scopePath []string, id, resourceType string) (*Resource, error) {
	if id == "" {
		return nil, fmt.Errorf("resource id must not be empty")
	}
	if resourceType == "" {
		return nil, fmt.Errorf("resource %s: type must not be empty", id)
	}

	path := make([]string, 0, len(scopePath)+1)
	path = append(path, scopePath...)
	path = append(path, id)

	key := strings.Join(path, "/")
	if _, exists := s.paths[key]; exists {
		return nil, fmt.Errorf("construct path %s/%s already in use", s.name, key)
	}
	s.paths[key] = struct{}{}

	r := &Resource{
		stack:      s,
		path:       path,
		typ:        resourceType,
		properties: make(map[string]model.Value),
		metadata:   make(map[string]model.Value),
		attrs:      make(map[string]model.Value),
	}
	s.resources = append(s.resources, r)
	return r, nil
}

// Pseudo returns the deferred value of a reserved deploy-time parameter.
// One token per parameter per stack; repeated access reuses it.
func (s *Stack) Pseudo(name string) model.Value {
	if v, ok := s.pseudo[name]; ok {
		return v
	}
	v := model.TokenValue(token.NewPseudo(s.registry, name))
	s.pseudo[name] = v
	return v
}

func (s *Stack) Account() model.Value   { return s.Pseudo(model.PseudoAccountID) }
func (s *Stack) Region() model.Value    { return s.Pseudo(model.PseudoRegion) }
func (s *Stack) Partition() model.Value { return s.Pseudo(model.PseudoPartition) }
func (s *Stack) StackName() model.Value { return s.Pseudo(model.PseudoStackName) }
func (s *Stack) URLSuffix() model.Value { return s.Pseudo(model.PseudoURLSuffix) }

// Join returns a deferred string-join over the given parts.
func (s *Stack) Join(separator string, parts ...model.Value) model.Value {
	return model.TokenValue(token.Join(s.registry, separator, parts...))
}

// Lazy returns a deferred value backed by a caller-supplied producer invoked
// at resolution time. The producer must be pure.
func (s *Stack) Lazy(produce func(ctx *model.ResolveContext) (model.Value, error)) model.Value {
	return model.TokenValue(token.NewLazy(s.registry, produce))
}

// Synthesis is the outcome of one synth pass: the finished document plus the
// dependency information a deployment orchestrator needs for ordering.
type Synthesis struct {
	Template *model.Template
	Graph    *refgraph.Graph
	Order    []string
}

// Synth runs the full pass: logical-id allocation with collision detection,
// reference-graph construction, cycle detection, resolution, emission.
// Synthesis mutates nothing; running it twice over an unmodified stack
// produces byte-identical documents.
func (s *Stack) Synth() (*Synthesis, error) {
	byID := make(map[string]string, len(s.resources))
	records := make([]*model.Resource, 0, len(s.resources))

	for _, r := range s.resources {
		lid := r.LogicalID()
		if prev, exists := byID[lid]; exists {
			paths := []string{prev, r.Path()}
			sort.Strings(paths)
			return nil, &model.LogicalIDCollisionError{LogicalID: lid, Paths: paths}
		}
		byID[lid] = r.Path()
		records = append(records, r.record())
	}

	graph, err := refgraph.Build(records, s.registry)
	if err != nil {
		return nil, err
	}
	if err := graph.DetectCycle(); err != nil {
		return nil, err
	}

	tmpl, err := emitter.Emit(records, graph, s.registry)
	if err != nil {
		return nil, err
	}

	order, err := graph.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	return &Synthesis{Template: tmpl, Graph: graph, Order: order}, nil
}
