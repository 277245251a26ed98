// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

//go:build unit

package token

import (
	"testing"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	t.Run("encodes an id as a marker", func(t *testing.T) {
		id := ksuid.New().String()
		marker := Encode(id)

		assert.Equal(t, "${KilnTok["+id+"]}", marker)
		assert.True(t, ContainsMarker(marker))
	})

	t.Run("plain strings carry no marker", func(t *testing.T) {
		assert.False(t, ContainsMarker(""))
		assert.False(t, ContainsMarker("arn:aws:s3:::my-bucket"))
		assert.False(t, ContainsMarker("${KilnTok[short]}"))
		assert.False(t, ContainsMarker("${KilnTok[]}"))
	})
}

func TestScan(t *testing.T) {
	t.Run("empty string yields no fragments", func(t *testing.T) {
		assert.Empty(t, Scan(""))
	})

	t.Run("string without markers is one literal fragment", func(t *testing.T) {
		frags := Scan("just text")
		require.Len(t, frags, 1)
		assert.False(t, frags[0].IsToken())
		assert.Equal(t, "just text", frags[0].Text)
	})

	t.Run("whole marker is one token fragment", func(t *testing.T) {
		id := ksuid.New().String()
		frags := Scan(Encode(id))
		require.Len(t, frags, 1)
		assert.True(t, frags[0].IsToken())
		assert.Equal(t, id, frags[0].TokenID)
	})

	t.Run("splits literals and markers in order", func(t *testing.T) {
		a := ksuid.New().String()
		b := ksuid.New().String()
		frags := Scan("pre-" + Encode(a) + "-mid-" + Encode(b) + "-post")

		require.Len(t, frags, 5)
		assert.Equal(t, "pre-", frags[0].Text)
		assert.Equal(t, a, frags[1].TokenID)
		assert.Equal(t, "-mid-", frags[2].Text)
		assert.Equal(t, b, frags[3].TokenID)
		assert.Equal(t, "-post", frags[4].Text)
	})

	t.Run("adjacent markers stay separate", func(t *testing.T) {
		a := ksuid.New().String()
		b := ksuid.New().String()
		frags := Scan(Encode(a) + Encode(b))

		require.Len(t, frags, 2)
		assert.Equal(t, a, frags[0].TokenID)
		assert.Equal(t, b, frags[1].TokenID)
	})

	t.Run("malformed marker stays literal", func(t *testing.T) {
		frags := Scan("${KilnTok[not-a-ksuid]}")
		require.Len(t, frags, 1)
		assert.False(t, frags[0].IsToken())
	})
}

func TestSingleToken(t *testing.T) {
	t.Run("whole marker is a single token", func(t *testing.T) {
		id := ksuid.New().String()
		got, ok := SingleToken(Encode(id))
		assert.True(t, ok)
		assert.Equal(t, id, got)
	})

	t.Run("marker with surrounding text is not", func(t *testing.T) {
		id := ksuid.New().String()
		_, ok := SingleToken("x" + Encode(id))
		assert.False(t, ok)
	})

	t.Run("two markers are not", func(t *testing.T) {
		_, ok := SingleToken(Encode(ksuid.New().String()) + Encode(ksuid.New().String()))
		assert.False(t, ok)
	})

	t.Run("plain string is not", func(t *testing.T) {
		_, ok := SingleToken("plain")
		assert.False(t, ok)
	})
}
