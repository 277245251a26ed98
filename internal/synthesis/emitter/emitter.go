// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package emitter assembles the final template document from the resolved
// resources and the acyclic reference graph.
package emitter

import (
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"github.com/platform-engineering-labs/kiln/internal/synthesis/refgraph"
	"github.com/platform-engineering-labs/kiln/internal/synthesis/resolver"
	"github.com/platform-engineering-labs/kiln/pkg/model"
	"github.com/platform-engineering-labs/kiln/pkg/token"
)

type resolvedResource struct {
	id    string
	entry *model.ResourceEntry
}

// Emit resolves every resource's properties and metadata and produces the
// keyed template document. Token registration is complete by the time Emit
// runs, so per-resource resolution fans out concurrently, each resource on
// its own resolution context; the output is keyed by logical id and sorted
// at serialization, so the fan-out never shows in the result.
func Emit(resources []*model.Resource, graph *refgraph.Graph, tokens model.TokenSource) (*model.Template, error) {
	p := pool.NewWithResults[resolvedResource]().WithErrors()

	for _, r := range resources {
		p.Go(func() (resolvedResource, error) {
			entry, err := emitResource(r, graph, tokens)
			if err != nil {
				return resolvedResource{}, err
			}
			return resolvedResource{id: r.LogicalID, entry: entry}, nil
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}

	tmpl := &model.Template{Resources: make(map[string]*model.ResourceEntry, len(results))}
	for _, res := range results {
		tmpl.Resources[res.id] = res.entry
	}
	return tmpl, nil
}

func emitResource(r *model.Resource, graph *refgraph.Graph, tokens model.TokenSource) (*model.ResourceEntry, error) {
	ctx := model.NewResolveContext(tokens)
	props, err := resolver.Resolve(r.Properties, ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving properties of %s: %w", r.LogicalID, err)
	}

	metadata := model.NullValue()
	if !r.Metadata.IsNull() {
		metadata, err = resolver.Resolve(r.Metadata, model.NewResolveContext(tokens))
		if err != nil {
			return nil, fmt.Errorf("resolving metadata of %s: %w", r.LogicalID, err)
		}
	}

	if err := verifyNoMarkers(props, r.LogicalID); err != nil {
		return nil, err
	}
	if err := verifyNoMarkers(metadata, r.LogicalID); err != nil {
		return nil, err
	}

	return &model.ResourceEntry{
		Type:                r.Type,
		Properties:          props,
		DependsOn:           graph.ExplicitDependsOn(r.LogicalID),
		DeletionPolicy:      r.DeletionPolicy,
		UpdateReplacePolicy: r.UpdateReplacePolicy,
		Metadata:            metadata,
	}, nil
}

// verifyNoMarkers is the last line of defense against a raw placeholder
// surviving into output.
func verifyNoMarkers(v model.Value, logicalID string) error {
	switch v.Kind() {
	case model.KindScalar:
		if s, ok := v.Scalar().(string); ok && token.ContainsMarker(s) {
			return fmt.Errorf("unresolved token marker leaked into resource %s: %q", logicalID, s)
		}
	case model.KindSequence:
		for _, e := range v.Sequence() {
			if err := verifyNoMarkers(e, logicalID); err != nil {
				return err
			}
		}
	case model.KindMapping:
		for _, k := range v.SortedKeys() {
			if err := verifyNoMarkers(v.Mapping()[k], logicalID); err != nil {
				return err
			}
		}
	case model.KindToken:
		return fmt.Errorf("unresolved token %s leaked into resource %s", v.Token().ID(), logicalID)
	}
	return nil
}
