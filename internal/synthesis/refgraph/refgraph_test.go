// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

//go:build unit

package refgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platform-engineering-labs/kiln/pkg/model"
	"github.com/platform-engineering-labs/kiln/pkg/token"
)

type stubReferable struct {
	id string
}

func (r *stubReferable) LogicalID() string { return r.id }

func resource(id string, props map[string]model.Value) *model.Resource {
	return &model.Resource{
		LogicalID:  id,
		Path:       "test/" + id,
		Type:       "Test::Resource",
		Properties: model.MappingValue(props),
		Metadata:   model.NullValue(),
	}
}

func TestBuild(t *testing.T) {
	t.Run("consumer depends on producer, not the reverse", func(t *testing.T) {
		reg := token.NewRegistry()
		keyArn := token.NewGetAtt(reg, &stubReferable{id: "Key"}, "Arn")

		key := resource("Key", nil)
		bucket := resource("Bucket", map[string]model.Value{
			"EncryptionKeyArn": model.TokenValue(keyArn),
		})

		g, err := Build([]*model.Resource{key, bucket}, reg)
		require.NoError(t, err)

		assert.Equal(t, []string{"Key"}, g.DependenciesOf("Bucket"))
		assert.Empty(t, g.DependenciesOf("Key"))
		assert.Equal(t, [][2]string{{"Bucket", "Key"}}, g.Edges())
	})

	t.Run("multiple references to one target collapse to one edge", func(t *testing.T) {
		reg := token.NewRegistry()
		keyRef := token.NewRef(reg, &stubReferable{id: "Key"})
		keyArn := token.NewGetAtt(reg, &stubReferable{id: "Key"}, "Arn")

		key := resource("Key", nil)
		bucket := resource("Bucket", map[string]model.Value{
			"KeyId":  model.TokenValue(keyRef),
			"KeyArn": model.TokenValue(keyArn),
			"Nested": model.StringValue("arn-" + keyArn.String()),
		})

		g, err := Build([]*model.Resource{key, bucket}, reg)
		require.NoError(t, err)

		assert.Equal(t, [][2]string{{"Bucket", "Key"}}, g.Edges())
	})

	t.Run("self-references carry no edge", func(t *testing.T) {
		reg := token.NewRegistry()
		selfRef := token.NewRef(reg, &stubReferable{id: "Bucket"})

		bucket := resource("Bucket", map[string]model.Value{
			"OwnRef": model.TokenValue(selfRef),
		})

		g, err := Build([]*model.Resource{bucket}, reg)
		require.NoError(t, err)

		assert.Empty(t, g.Edges())
		assert.NoError(t, g.DetectCycle())
	})

	t.Run("references to resources outside the set carry no edge", func(t *testing.T) {
		reg := token.NewRegistry()
		foreign := token.NewRef(reg, &stubReferable{id: "Elsewhere"})

		bucket := resource("Bucket", map[string]model.Value{
			"Foreign": model.TokenValue(foreign),
		})

		g, err := Build([]*model.Resource{bucket}, reg)
		require.NoError(t, err)

		assert.Empty(t, g.Edges())
	})

	t.Run("metadata references count", func(t *testing.T) {
		reg := token.NewRegistry()
		keyRef := token.NewRef(reg, &stubReferable{id: "Key"})

		key := resource("Key", nil)
		bucket := resource("Bucket", nil)
		bucket.Metadata = model.MappingValue(map[string]model.Value{
			"source": model.TokenValue(keyRef),
		})

		g, err := Build([]*model.Resource{key, bucket}, reg)
		require.NoError(t, err)

		assert.Equal(t, [][2]string{{"Bucket", "Key"}}, g.Edges())
	})

	t.Run("explicit depends-on adds an edge and stays explicit", func(t *testing.T) {
		reg := token.NewRegistry()

		db := resource("Database", nil)
		app := resource("App", nil)
		app.DependsOn = []string{"Database"}

		g, err := Build([]*model.Resource{db, app}, reg)
		require.NoError(t, err)

		assert.Equal(t, []string{"Database"}, g.DependenciesOf("App"))
		assert.Equal(t, []string{"Database"}, g.ExplicitDependsOn("App"))
		assert.Empty(t, g.ExplicitDependsOn("Database"))
	})

	t.Run("explicit depends-on on an unknown resource fails", func(t *testing.T) {
		reg := token.NewRegistry()

		app := resource("App", nil)
		app.DependsOn = []string{"Nowhere"}

		_, err := Build([]*model.Resource{app}, reg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Nowhere")
	})

	t.Run("token-derived edges never appear as explicit", func(t *testing.T) {
		reg := token.NewRegistry()
		keyRef := token.NewRef(reg, &stubReferable{id: "Key"})

		key := resource("Key", nil)
		bucket := resource("Bucket", map[string]model.Value{
			"KeyId": model.TokenValue(keyRef),
		})

		g, err := Build([]*model.Resource{key, bucket}, reg)
		require.NoError(t, err)

		assert.Empty(t, g.ExplicitDependsOn("Bucket"))
	})
}

func TestDetectCycle(t *testing.T) {
	t.Run("acyclic graph passes", func(t *testing.T) {
		reg := token.NewRegistry()
		aRef := token.NewRef(reg, &stubReferable{id: "A"})

		a := resource("A", nil)
		b := resource("B", map[string]model.Value{"Ref": model.TokenValue(aRef)})

		g, err := Build([]*model.Resource{a, b}, reg)
		require.NoError(t, err)
		assert.NoError(t, g.DetectCycle())
	})

	t.Run("three-party cycle names every participant", func(t *testing.T) {
		reg := token.NewRegistry()
		aRef := token.NewRef(reg, &stubReferable{id: "A"})
		bRef := token.NewRef(reg, &stubReferable{id: "B"})
		cRef := token.NewRef(reg, &stubReferable{id: "C"})

		a := resource("A", map[string]model.Value{"Next": model.TokenValue(bRef)})
		b := resource("B", map[string]model.Value{"Next": model.TokenValue(cRef)})
		c := resource("C", map[string]model.Value{"Next": model.TokenValue(aRef)})

		g, err := Build([]*model.Resource{a, b, c}, reg)
		require.NoError(t, err)

		err = g.DetectCycle()
		var cycle *model.ReferenceCycleError
		require.ErrorAs(t, err, &cycle)
		assert.Contains(t, cycle.Resources, "A")
		assert.Contains(t, cycle.Resources, "B")
		assert.Contains(t, cycle.Resources, "C")
	})

	t.Run("two-party cycle from mixed edge kinds is caught", func(t *testing.T) {
		reg := token.NewRegistry()
		aRef := token.NewRef(reg, &stubReferable{id: "A"})

		a := resource("A", nil)
		a.DependsOn = []string{"B"}
		b := resource("B", map[string]model.Value{"Ref": model.TokenValue(aRef)})

		g, err := Build([]*model.Resource{a, b}, reg)
		require.NoError(t, err)

		err = g.DetectCycle()
		var cycle *model.ReferenceCycleError
		require.ErrorAs(t, err, &cycle)
		assert.Contains(t, cycle.Resources, "A")
		assert.Contains(t, cycle.Resources, "B")
	})
}

func TestTopologicalOrder(t *testing.T) {
	t.Run("dependencies come before dependents", func(t *testing.T) {
		reg := token.NewRegistry()
		keyRef := token.NewRef(reg, &stubReferable{id: "Key"})
		bucketRef := token.NewRef(reg, &stubReferable{id: "Bucket"})

		key := resource("Key", nil)
		bucket := resource("Bucket", map[string]model.Value{"KeyId": model.TokenValue(keyRef)})
		notice := resource("Notice", map[string]model.Value{"Bucket": model.TokenValue(bucketRef)})

		g, err := Build([]*model.Resource{key, bucket, notice}, reg)
		require.NoError(t, err)

		order, err := g.TopologicalOrder()
		require.NoError(t, err)
		assert.Equal(t, []string{"Key", "Bucket", "Notice"}, order)
	})

	t.Run("independent resources order lexicographically", func(t *testing.T) {
		reg := token.NewRegistry()

		g, err := Build([]*model.Resource{resource("Zeta", nil), resource("Alpha", nil), resource("Mid", nil)}, reg)
		require.NoError(t, err)

		order, err := g.TopologicalOrder()
		require.NoError(t, err)
		assert.Equal(t, []string{"Alpha", "Mid", "Zeta"}, order)
	})
}
