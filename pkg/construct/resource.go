// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package construct

import (
	"sort"
	"strings"

	"github.com/platform-engineering-labs/kiln/pkg/model"
	"github.com/platform-engineering-labs/kiln/pkg/token"
)

// Resource is one construct-graph node that emits a template resource. Its
// property tree may hold deferred values; Ref and GetAtt mint them for other
// resources to consume.
type Resource struct {
	stack *Stack
	path  []string
	typ   string

	properties map[string]model.Value
	metadata   map[string]model.Value

	deletionPolicy      model.RemovalPolicy
	updateReplacePolicy model.RemovalPolicy
	dependsOn           []*Resource

	refToken *token.Reference
	attrs    map[string]model.Value

	logicalID string
}

func (r *Resource) Type() string { return r.typ }

// Path returns the construct path including the stack segment.
func (r *Resource) Path() string {
	return r.stack.name + "/" + strings.Join(r.path, "/")
}

// LogicalID derives the resource's stable template identifier from its
// construct path. The derivation runs once and is cached; ids never change
// across synthesis passes.
func (r *Resource) LogicalID() string {
	if r.logicalID == "" {
		r.logicalID = r.stack.allocator(r.path)
	}
	return r.logicalID
}

// SetProperty sets one top-level property. The value may be any supported
// Go shape, a model.Value, or a token-bearing deferred value.
func (r *Resource) SetProperty(name string, value any) error {
	v, err := model.FromGo(value)
	if err != nil {
		return err
	}
	r.properties[name] = v
	return nil
}

// SetProperties replaces the whole property mapping.
func (r *Resource) SetProperties(props map[string]any) error {
	m := make(map[string]model.Value, len(props))
	for k, raw := range props {
		v, err := model.FromGo(raw)
		if err != nil {
			return err
		}
		m[k] = v
	}
	r.properties = m
	return nil
}

// SetMetadata sets one metadata entry; metadata trees resolve like any
// property tree and may contain tokens.
func (r *Resource) SetMetadata(key string, value any) error {
	v, err := model.FromGo(value)
	if err != nil {
		return err
	}
	r.metadata[key] = v
	return nil
}

func (r *Resource) SetDeletionPolicy(p model.RemovalPolicy) {
	r.deletionPolicy = p
}

func (r *Resource) SetUpdateReplacePolicy(p model.RemovalPolicy) {
	r.updateReplacePolicy = p
}

// AddDependsOn declares an explicit ordering constraint on another resource,
// independent of any data reference.
func (r *Resource) AddDependsOn(other *Resource) {
	for _, existing := range r.dependsOn {
		if existing == other {
			return
		}
	}
	r.dependsOn = append(r.dependsOn, other)
}

// Ref returns the deferred plain reference to this resource. One token per
// resource; repeated access reuses it.
func (r *Resource) Ref() model.Value {
	return model.TokenValue(r.ref())
}

// RefString returns the reference in encoded marker form, for embedding
// inside larger strings.
func (r *Resource) RefString() string {
	return r.ref().String()
}

func (r *Resource) ref() *token.Reference {
	if r.refToken == nil {
		r.refToken = token.NewRef(r.stack.registry, r)
	}
	return r.refToken
}

// GetAtt returns the deferred value of one of this resource's attributes.
// One token per attribute; repeated access reuses it.
func (r *Resource) GetAtt(attribute string) model.Value {
	if v, ok := r.attrs[attribute]; ok {
		return v
	}
	v := model.TokenValue(token.NewGetAtt(r.stack.registry, r, attribute))
	r.attrs[attribute] = v
	return v
}

// GetAttString returns the attribute reference in encoded marker form.
func (r *Resource) GetAttString(attribute string) string {
	return r.GetAtt(attribute).Token().String()
}

// record snapshots the resource into its synthesis-time form.
func (r *Resource) record() *model.Resource {
	deps := make([]string, 0, len(r.dependsOn))
	for _, d := range r.dependsOn {
		deps = append(deps, d.LogicalID())
	}
	sort.Strings(deps)

	metadata := model.NullValue()
	if len(r.metadata) > 0 {
		metadata = model.MappingValue(r.metadata)
	}

	return &model.Resource{
		LogicalID:           r.LogicalID(),
		Path:                r.Path(),
		Type:                r.typ,
		Properties:          model.MappingValue(r.properties),
		Metadata:            metadata,
		DeletionPolicy:      r.deletionPolicy,
		UpdateReplacePolicy: r.updateReplacePolicy,
		DependsOn:           deps,
	}
}
