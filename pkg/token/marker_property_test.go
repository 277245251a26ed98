// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

//go:build property

package token

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

const base62 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

func idGen() *rapid.Generator[string] {
	return rapid.StringOfN(rapid.RuneFrom([]rune(base62)), 27, 27, -1)
}

// literalGen produces text that carries no marker of its own so the expected
// fragmentation is unambiguous.
func literalGen() *rapid.Generator[string] {
	return rapid.String().Filter(func(s string) bool {
		return !ContainsMarker(s)
	})
}

func TestScanReassemblesInput(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		count := rapid.IntRange(0, 8).Draw(t, "count")

		var input strings.Builder
		var wantIDs []string
		for i := 0; i < count; i++ {
			input.WriteString(literalGen().Draw(t, "literal"))
			id := idGen().Draw(t, "id")
			input.WriteString(Encode(id))
			wantIDs = append(wantIDs, id)
		}
		input.WriteString(literalGen().Draw(t, "tail"))

		s := input.String()
		frags := Scan(s)

		var out strings.Builder
		var gotIDs []string
		for _, frag := range frags {
			if frag.IsToken() {
				out.WriteString(Encode(frag.TokenID))
				gotIDs = append(gotIDs, frag.TokenID)
			} else {
				if frag.Text == "" {
					t.Fatalf("empty literal fragment")
				}
				out.WriteString(frag.Text)
			}
		}

		if out.String() != s {
			t.Fatalf("fragments do not reassemble input: %q != %q", out.String(), s)
		}
		if len(gotIDs) != len(wantIDs) {
			t.Fatalf("scanned %d token ids, embedded %d", len(gotIDs), len(wantIDs))
		}
		for i := range wantIDs {
			if gotIDs[i] != wantIDs[i] {
				t.Fatalf("token id %d: got %q, want %q", i, gotIDs[i], wantIDs[i])
			}
		}
	})
}

func TestMarkerFreeStringsScanAsLiteral(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := literalGen().Draw(t, "s")

		frags := Scan(s)
		if s == "" {
			if len(frags) != 0 {
				t.Fatalf("empty string scanned into %d fragments", len(frags))
			}
			return
		}
		if len(frags) != 1 || frags[0].IsToken() || frags[0].Text != s {
			t.Fatalf("marker-free string did not scan as one literal: %#v", frags)
		}
	})
}

func TestSingleTokenRoundtrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		id := idGen().Draw(t, "id")

		got, ok := SingleToken(Encode(id))
		if !ok || got != id {
			t.Fatalf("SingleToken(Encode(%q)) = %q, %v", id, got, ok)
		}
	})
}
