// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package resolver turns unresolved property trees into their emitted form:
// tokens become intrinsic expressions, strings with embedded markers become
// join expressions, everything else passes through untouched.
package resolver

import (
	"fmt"
	"strconv"

	"github.com/platform-engineering-labs/kiln/pkg/model"
	"github.com/platform-engineering-labs/kiln/pkg/token"
)

// Resolve recursively replaces every token in a value with its resolved
// representation. Resolution is pure: the same value against the same token
// source resolves identically every time.
func Resolve(v model.Value, ctx *model.ResolveContext) (model.Value, error) {
	switch v.Kind() {
	case model.KindScalar:
		s, ok := v.Scalar().(string)
		if ok && token.ContainsMarker(s) {
			return resolveString(s, ctx)
		}
		return v, nil

	case model.KindSequence:
		elems := make([]model.Value, 0, len(v.Sequence()))
		for i, e := range v.Sequence() {
			ctx.PushPath(strconv.Itoa(i))
			resolved, err := Resolve(e, ctx)
			ctx.PopPath()
			if err != nil {
				return model.Value{}, err
			}
			elems = append(elems, resolved)
		}
		return model.SequenceValue(elems...), nil

	case model.KindMapping:
		m := make(map[string]model.Value, len(v.Mapping()))
		for _, k := range v.SortedKeys() {
			ctx.PushPath(k)
			resolved, err := Resolve(v.Mapping()[k], ctx)
			ctx.PopPath()
			if err != nil {
				return model.Value{}, err
			}
			m[k] = resolved
		}
		return model.MappingValue(m), nil

	case model.KindToken:
		return resolveToken(v.Token(), ctx)

	default:
		return model.Value{}, fmt.Errorf("cannot resolve value of %s at %s", v.Kind(), ctx.Path())
	}
}

// resolveToken invokes the token's own resolution and then re-resolves the
// result, since a token may resolve to a value that still contains tokens.
// The token's id stays on the context chain for the whole of that
// re-resolution so self-reaching tokens fail with the full chain.
func resolveToken(t model.Token, ctx *model.ResolveContext) (model.Value, error) {
	if err := ctx.Push(t.ID()); err != nil {
		return model.Value{}, err
	}
	defer ctx.Pop()

	out, err := t.Resolve(ctx)
	if err != nil {
		return model.Value{}, err
	}
	return Resolve(out, ctx)
}

// resolveString handles a string scalar with embedded token markers. A
// string that is exactly one whole-value marker resolves to the token's
// native resolved value, unwrapped; otherwise the literal runs and resolved
// tokens combine into a join expression in original left-to-right order.
func resolveString(s string, ctx *model.ResolveContext) (model.Value, error) {
	if id, ok := token.SingleToken(s); ok {
		t, err := ctx.Tokens().Lookup(id)
		if err != nil {
			return model.Value{}, err
		}
		return resolveToken(t, ctx)
	}

	frags := token.Scan(s)
	parts := make([]model.Value, 0, len(frags))
	for _, frag := range frags {
		if !frag.IsToken() {
			parts = append(parts, model.StringValue(frag.Text))
			continue
		}
		t, err := ctx.Tokens().Lookup(frag.TokenID)
		if err != nil {
			return model.Value{}, err
		}
		resolved, err := resolveToken(t, ctx)
		if err != nil {
			return model.Value{}, err
		}
		parts = append(parts, resolved)
	}
	return model.JoinExpression("", parts...), nil
}
