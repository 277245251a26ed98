// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package token

import (
	"github.com/platform-engineering-labs/kiln/pkg/model"
)

// FindTokens collects every token directly present in a value: whole-value
// tokens and tokens embedded in string scalars as markers. It does not
// descend into the tokens themselves; References does that.
func FindTokens(v model.Value, ctx *model.ResolveContext) ([]model.Token, error) {
	var out []model.Token
	if err := findTokens(v, ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findTokens(v model.Value, ctx *model.ResolveContext, out *[]model.Token) error {
	switch v.Kind() {
	case model.KindToken:
		*out = append(*out, v.Token())
	case model.KindScalar:
		s, ok := v.Scalar().(string)
		if !ok || !ContainsMarker(s) {
			return nil
		}
		for _, frag := range Scan(s) {
			if !frag.IsToken() {
				continue
			}
			t, err := ctx.Tokens().Lookup(frag.TokenID)
			if err != nil {
				return err
			}
			*out = append(*out, t)
		}
	case model.KindSequence:
		for _, e := range v.Sequence() {
			if err := findTokens(e, ctx, out); err != nil {
				return err
			}
		}
	case model.KindMapping:
		for _, k := range v.SortedKeys() {
			if err := findTokens(v.Mapping()[k], ctx, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// FindReferences collects every resource a value transitively depends on,
// asking each discovered token for its references.
func FindReferences(v model.Value, ctx *model.ResolveContext) ([]model.Referable, error) {
	tokens, err := FindTokens(v, ctx)
	if err != nil {
		return nil, err
	}

	var refs []model.Referable
	for _, t := range tokens {
		found, err := t.References(ctx)
		if err != nil {
			return nil, err
		}
		refs = append(refs, found...)
	}
	return refs, nil
}
