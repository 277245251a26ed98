// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

//go:build unit

package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platform-engineering-labs/kiln/pkg/model"
	"github.com/platform-engineering-labs/kiln/pkg/token"
)

type fakeResource struct {
	id string
}

func (r *fakeResource) LogicalID() string { return r.id }

func mustJSON(t *testing.T, v model.Value) string {
	t.Helper()
	b, err := v.MarshalJSON()
	require.NoError(t, err)
	return string(b)
}

func TestResolve(t *testing.T) {
	t.Run("token-free trees pass through untouched", func(t *testing.T) {
		reg := token.NewRegistry()
		v := model.MappingValue(map[string]model.Value{
			"Name":    model.StringValue("my-bucket"),
			"Enabled": model.BoolValue(true),
			"Count":   model.IntValue(3),
			"Tags":    model.SequenceValue(model.StringValue("a"), model.StringValue("b")),
		})

		resolved, err := Resolve(v, model.NewResolveContext(reg))
		require.NoError(t, err)

		assert.JSONEq(t, `{"Count":3,"Enabled":true,"Name":"my-bucket","Tags":["a","b"]}`, mustJSON(t, resolved))
	})

	t.Run("whole-value token resolves to its native form", func(t *testing.T) {
		reg := token.NewRegistry()
		att := token.NewGetAtt(reg, &fakeResource{id: "Key"}, "Arn")

		resolved, err := Resolve(model.TokenValue(att), model.NewResolveContext(reg))
		require.NoError(t, err)

		assert.JSONEq(t, `{"Fn::GetAtt":["Key","Arn"]}`, mustJSON(t, resolved))
	})

	t.Run("string that is exactly one marker unwraps to the native form", func(t *testing.T) {
		reg := token.NewRegistry()
		ref := token.NewRef(reg, &fakeResource{id: "Key"})

		resolved, err := Resolve(model.StringValue(ref.String()), model.NewResolveContext(reg))
		require.NoError(t, err)

		// Not coerced to a string, not wrapped in a join.
		assert.JSONEq(t, `{"Ref":"Key"}`, mustJSON(t, resolved))
	})

	t.Run("markers embedded in a string become a join expression", func(t *testing.T) {
		reg := token.NewRegistry()
		att := token.NewGetAtt(reg, &fakeResource{id: "Key"}, "Arn")

		resolved, err := Resolve(model.StringValue("arn-prefix:"+att.String()+":suffix"), model.NewResolveContext(reg))
		require.NoError(t, err)

		assert.JSONEq(t,
			`{"Fn::Join":["",["arn-prefix:",{"Fn::GetAtt":["Key","Arn"]},":suffix"]]}`,
			mustJSON(t, resolved))
	})

	t.Run("tokens nested in sequences and mappings resolve in place", func(t *testing.T) {
		reg := token.NewRegistry()
		ref := token.NewRef(reg, &fakeResource{id: "Key"})

		v := model.MappingValue(map[string]model.Value{
			"KeyId": model.TokenValue(ref),
			"List":  model.SequenceValue(model.StringValue("x"), model.TokenValue(ref)),
		})

		resolved, err := Resolve(v, model.NewResolveContext(reg))
		require.NoError(t, err)

		assert.JSONEq(t, `{"KeyId":{"Ref":"Key"},"List":["x",{"Ref":"Key"}]}`, mustJSON(t, resolved))
	})

	t.Run("lazy token result is itself resolved", func(t *testing.T) {
		reg := token.NewRegistry()
		ref := token.NewRef(reg, &fakeResource{id: "Key"})
		lazy := token.NewLazy(reg, func(_ *model.ResolveContext) (model.Value, error) {
			return model.StringValue("id-" + ref.String()), nil
		})

		resolved, err := Resolve(model.TokenValue(lazy), model.NewResolveContext(reg))
		require.NoError(t, err)

		assert.JSONEq(t, `{"Fn::Join":["",["id-",{"Ref":"Key"}]]}`, mustJSON(t, resolved))
	})

	t.Run("join token resolves its tokenized parts", func(t *testing.T) {
		reg := token.NewRegistry()
		ref := token.NewRef(reg, &fakeResource{id: "Key"})
		join := token.Join(reg, "/", model.StringValue("alias"), model.TokenValue(ref))

		resolved, err := Resolve(model.TokenValue(join), model.NewResolveContext(reg))
		require.NoError(t, err)

		assert.JSONEq(t, `{"Fn::Join":["/",["alias",{"Ref":"Key"}]]}`, mustJSON(t, resolved))
	})

	t.Run("self-reaching lazy token fails with the full chain", func(t *testing.T) {
		reg := token.NewRegistry()
		var lazy *token.Lazy
		lazy = token.NewLazy(reg, func(_ *model.ResolveContext) (model.Value, error) {
			return model.StringValue(lazy.String()), nil
		})

		_, err := Resolve(model.TokenValue(lazy), model.NewResolveContext(reg))

		var cycle *model.ResolutionCycleError
		require.ErrorAs(t, err, &cycle)
		require.Len(t, cycle.Chain, 2)
		assert.Equal(t, lazy.ID(), cycle.Chain[0])
		assert.Equal(t, lazy.ID(), cycle.Chain[1])
	})

	t.Run("mutually recursive lazy tokens fail with both ids on the chain", func(t *testing.T) {
		reg := token.NewRegistry()
		var a, b *token.Lazy
		a = token.NewLazy(reg, func(_ *model.ResolveContext) (model.Value, error) {
			return model.StringValue(b.String()), nil
		})
		b = token.NewLazy(reg, func(_ *model.ResolveContext) (model.Value, error) {
			return model.StringValue(a.String()), nil
		})

		_, err := Resolve(model.TokenValue(a), model.NewResolveContext(reg))

		var cycle *model.ResolutionCycleError
		require.ErrorAs(t, err, &cycle)
		assert.Equal(t, []string{a.ID(), b.ID(), a.ID()}, cycle.Chain)
	})

	t.Run("marker with no registry entry fails resolution", func(t *testing.T) {
		reg := token.NewRegistry()
		v := model.StringValue(token.Encode("0ujsszwN8NRY24YaXiTIE2VWDTS"))

		_, err := Resolve(v, model.NewResolveContext(reg))

		var unregistered *model.UnregisteredTokenError
		require.ErrorAs(t, err, &unregistered)
		assert.Equal(t, "0ujsszwN8NRY24YaXiTIE2VWDTS", unregistered.ID)
	})

	t.Run("same input resolves identically across passes", func(t *testing.T) {
		reg := token.NewRegistry()
		att := token.NewGetAtt(reg, &fakeResource{id: "Key"}, "Arn")
		v := model.StringValue("a-" + att.String() + "-b")

		first, err := Resolve(v, model.NewResolveContext(reg))
		require.NoError(t, err)
		second, err := Resolve(v, model.NewResolveContext(reg))
		require.NoError(t, err)

		assert.Equal(t, mustJSON(t, first), mustJSON(t, second))
	})
}
