// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package token implements the deferred-value placeholders of a synthesis
// session: the session registry, the string marker encoding, and the token
// variants (resource reference, pseudo parameter, intrinsic application,
// lazy callback).
package token

import (
	"github.com/segmentio/ksuid"

	"github.com/platform-engineering-labs/kiln/pkg/model"
)

func newID() string {
	return ksuid.New().String()
}

// Reference defers "attribute Attribute of resource Target", or the plain
// resource reference when Attribute is empty.
type Reference struct {
	id        string
	target    model.Referable
	attribute string
}

// NewRef creates and registers a plain reference to a resource.
func NewRef(reg *Registry, target model.Referable) *Reference {
	t := &Reference{id: newID(), target: target}
	reg.Register(t)
	return t
}

// NewGetAtt creates and registers an attribute reference.
func NewGetAtt(reg *Registry, target model.Referable, attribute string) *Reference {
	t := &Reference{id: newID(), target: target, attribute: attribute}
	reg.Register(t)
	return t
}

func (t *Reference) ID() string { return t.id }

func (t *Reference) Target() model.Referable { return t.target }

func (t *Reference) Attribute() string { return t.attribute }

func (t *Reference) Resolve(_ *model.ResolveContext) (model.Value, error) {
	if t.attribute == "" {
		return model.RefExpression(t.target.LogicalID()), nil
	}
	return model.GetAttExpression(t.target.LogicalID(), t.attribute), nil
}

func (t *Reference) References(_ *model.ResolveContext) ([]model.Referable, error) {
	return []model.Referable{t.target}, nil
}

func (t *Reference) String() string { return Encode(t.id) }

// Pseudo defers a reserved deploy-time parameter such as the account id or
// partition. It resolves to a reference expression naming the parameter, not
// to a concrete value.
type Pseudo struct {
	id   string
	name string
}

func NewPseudo(reg *Registry, name string) *Pseudo {
	t := &Pseudo{id: newID(), name: name}
	reg.Register(t)
	return t
}

func (t *Pseudo) ID() string { return t.id }

func (t *Pseudo) Name() string { return t.name }

func (t *Pseudo) Resolve(_ *model.ResolveContext) (model.Value, error) {
	return model.RefExpression(t.name), nil
}

func (t *Pseudo) References(_ *model.ResolveContext) ([]model.Referable, error) {
	return nil, nil
}

func (t *Pseudo) String() string { return Encode(t.id) }

// Intrinsic defers a named function application over argument values that
// may themselves contain tokens. It resolves to the single-key expression
// {name: args}; the resolver then resolves the argument structure.
type Intrinsic struct {
	id   string
	name string
	args []model.Value
}

func NewIntrinsic(reg *Registry, name string, args ...model.Value) *Intrinsic {
	t := &Intrinsic{id: newID(), name: name, args: args}
	reg.Register(t)
	return t
}

// Join creates the string-join intrinsic over the given separator and parts.
func Join(reg *Registry, separator string, parts ...model.Value) *Intrinsic {
	return NewIntrinsic(reg, model.IntrinsicJoin,
		model.StringValue(separator), model.SequenceValue(parts...))
}

func (t *Intrinsic) ID() string { return t.id }

func (t *Intrinsic) Name() string { return t.name }

func (t *Intrinsic) Resolve(_ *model.ResolveContext) (model.Value, error) {
	return model.MappingValue(map[string]model.Value{
		t.name: model.SequenceValue(t.args...),
	}), nil
}

func (t *Intrinsic) References(ctx *model.ResolveContext) ([]model.Referable, error) {
	var refs []model.Referable
	for _, arg := range t.args {
		found, err := FindReferences(arg, ctx)
		if err != nil {
			return nil, err
		}
		refs = append(refs, found...)
	}
	return refs, nil
}

func (t *Intrinsic) String() string { return Encode(t.id) }

// Lazy defers to a caller-supplied producer invoked at resolution time, for
// values that only exist once the whole construct graph does. The producer
// must be pure: it is invoked both for resolution and for dependency
// discovery.
type Lazy struct {
	id      string
	produce func(ctx *model.ResolveContext) (model.Value, error)
}

func NewLazy(reg *Registry, produce func(ctx *model.ResolveContext) (model.Value, error)) *Lazy {
	t := &Lazy{id: newID(), produce: produce}
	reg.Register(t)
	return t
}

func (t *Lazy) ID() string { return t.id }

func (t *Lazy) Resolve(ctx *model.ResolveContext) (model.Value, error) {
	return t.produce(ctx)
}

func (t *Lazy) References(ctx *model.ResolveContext) ([]model.Referable, error) {
	if err := ctx.Push(t.id); err != nil {
		return nil, err
	}
	defer ctx.Pop()

	v, err := t.produce(ctx)
	if err != nil {
		return nil, err
	}
	return FindReferences(v, ctx)
}

func (t *Lazy) String() string { return Encode(t.id) }
