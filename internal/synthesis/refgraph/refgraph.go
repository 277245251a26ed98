// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package refgraph builds the directed dependency graph between resources
// from the tokens embedded in their property trees plus any explicit
// depends-on declarations, and rejects cycles before emission.
package refgraph

import (
	"fmt"
	"sort"

	"github.com/platform-engineering-labs/kiln/pkg/model"
	"github.com/platform-engineering-labs/kiln/pkg/token"
)

// Node is one resource in the graph. Upstream nodes are dependencies this
// resource waits on; Downstream nodes depend on it.
type Node struct {
	ID         string
	Resource   *model.Resource
	Upstream   []*Node
	Downstream []*Node
}

// LinkWith records that n depends on upstream. Duplicate links collapse.
func (n *Node) LinkWith(upstream *Node) {
	for _, existing := range n.Upstream {
		if existing.ID == upstream.ID {
			return
		}
	}
	n.Upstream = append(n.Upstream, upstream)
	upstream.Downstream = append(upstream.Downstream, n)
}

type Graph struct {
	nodes map[string]*Node

	// explicit holds the depends-on declarations by source id, kept apart
	// from token-derived edges so the emitter can materialize exactly these.
	explicit map[string]map[string]struct{}
}

// Build walks every resource's unresolved properties and metadata, unions
// the discovered reference targets into edges, and adds explicit depends-on
// edges unconditionally. Self-edges convey no ordering constraint and are
// dropped. References to targets outside the resource set carry no edge.
func Build(resources []*model.Resource, tokens model.TokenSource) (*Graph, error) {
	g := &Graph{
		nodes:    make(map[string]*Node, len(resources)),
		explicit: make(map[string]map[string]struct{}),
	}
	for _, r := range resources {
		g.nodes[r.LogicalID] = &Node{ID: r.LogicalID, Resource: r}
	}

	for _, r := range resources {
		node := g.nodes[r.LogicalID]

		ctx := model.NewResolveContext(tokens)
		refs, err := token.FindReferences(r.Properties, ctx)
		if err != nil {
			return nil, fmt.Errorf("collecting references of %s: %w", r.LogicalID, err)
		}
		if !r.Metadata.IsNull() {
			mdRefs, err := token.FindReferences(r.Metadata, ctx)
			if err != nil {
				return nil, fmt.Errorf("collecting metadata references of %s: %w", r.LogicalID, err)
			}
			refs = append(refs, mdRefs...)
		}

		for _, ref := range refs {
			targetID := ref.LogicalID()
			if targetID == r.LogicalID {
				continue
			}
			target, ok := g.nodes[targetID]
			if !ok {
				continue
			}
			node.LinkWith(target)
		}

		for _, dep := range r.DependsOn {
			target, ok := g.nodes[dep]
			if !ok {
				return nil, fmt.Errorf("resource %s declares DependsOn on unknown resource %s", r.LogicalID, dep)
			}
			if dep == r.LogicalID {
				continue
			}
			node.LinkWith(target)
			if g.explicit[r.LogicalID] == nil {
				g.explicit[r.LogicalID] = make(map[string]struct{})
			}
			g.explicit[r.LogicalID][dep] = struct{}{}
		}
	}

	return g, nil
}

// Node looks a resource up by logical id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

func (g *Graph) sortedIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DependenciesOf returns every resource the given one depends on, explicit
// and token-derived alike, sorted.
func (g *Graph) DependenciesOf(id string) []string {
	node, ok := g.nodes[id]
	if !ok {
		return nil
	}
	deps := make([]string, 0, len(node.Upstream))
	for _, up := range node.Upstream {
		deps = append(deps, up.ID)
	}
	sort.Strings(deps)
	return deps
}

// ExplicitDependsOn returns only the declared depends-on targets, sorted.
func (g *Graph) ExplicitDependsOn(id string) []string {
	set := g.explicit[id]
	if len(set) == 0 {
		return nil
	}
	deps := make([]string, 0, len(set))
	for dep := range set {
		deps = append(deps, dep)
	}
	sort.Strings(deps)
	return deps
}

// Edges returns every (source, target) pair, sorted.
func (g *Graph) Edges() [][2]string {
	var edges [][2]string
	for _, id := range g.sortedIDs() {
		for _, dep := range g.DependenciesOf(id) {
			edges = append(edges, [2]string{id, dep})
		}
	}
	return edges
}

// DetectCycle runs a depth-first search over the graph and returns a
// ReferenceCycleError naming the participating resources when one exists.
func (g *Graph) DetectCycle() error {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make(map[string]int, len(g.nodes))
	var stack []string

	var visit func(n *Node) error
	visit = func(n *Node) error {
		color[n.ID] = grey
		stack = append(stack, n.ID)

		ups := make([]*Node, len(n.Upstream))
		copy(ups, n.Upstream)
		sort.Slice(ups, func(i, j int) bool { return ups[i].ID < ups[j].ID })

		for _, up := range ups {
			switch color[up.ID] {
			case white:
				if err := visit(up); err != nil {
					return err
				}
			case grey:
				start := 0
				for i, id := range stack {
					if id == up.ID {
						start = i
						break
					}
				}
				cycle := append([]string{}, stack[start:]...)
				cycle = append(cycle, up.ID)
				return &model.ReferenceCycleError{Resources: cycle}
			}
		}

		stack = stack[:len(stack)-1]
		color[n.ID] = black
		return nil
	}

	for _, id := range g.sortedIDs() {
		if color[id] == white {
			if err := visit(g.nodes[id]); err != nil {
				return err
			}
		}
	}
	return nil
}

// TopologicalOrder returns the resource ids with every dependency before its
// dependents, lexicographic among peers so the order is reproducible.
func (g *Graph) TopologicalOrder() ([]string, error) {
	indegree := make(map[string]int, len(g.nodes))
	for id, node := range g.nodes {
		indegree[id] = len(node.Upstream)
	}

	var ready []string
	for _, id := range g.sortedIDs() {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	var order []string
	for len(ready) > 0 {
		sort.Strings(ready)
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		for _, down := range g.nodes[id].Downstream {
			indegree[down.ID]--
			if indegree[down.ID] == 0 {
				ready = append(ready, down.ID)
			}
		}
	}

	if len(order) != len(g.nodes) {
		var stuck []string
		for id, deg := range indegree {
			if deg > 0 {
				stuck = append(stuck, id)
			}
		}
		sort.Strings(stuck)
		return nil, &model.ReferenceCycleError{Resources: stuck}
	}
	return order, nil
}
