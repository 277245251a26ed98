// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package token

import "regexp"

// Marker format, version 1: ${KilnTok[<id>]} where <id> is a 27-character
// base62 KSUID. The fixed id width plus the explicit closing "]}" makes the
// scan unambiguous: concatenating two encoded tokens, or embedding a marker
// in a JSON string literal, cannot produce a different parse. A string that
// merely looks like a marker but carries an id the registry never issued
// fails resolution as an unregistered token rather than passing through.
const (
	markerPrefix = "${KilnTok["
	markerSuffix = "]}"
	idLength     = 27
)

var markerPattern = regexp.MustCompile(`\$\{KilnTok\[([0-9A-Za-z]{27})\]\}`)

// Encode renders a token id as its embeddable marker string.
func Encode(id string) string {
	return markerPrefix + id + markerSuffix
}

// ContainsMarker reports whether s embeds at least one token marker.
func ContainsMarker(s string) bool {
	return markerPattern.MatchString(s)
}

// Fragment is one run of a scanned string: either literal text or a token
// id, never both.
type Fragment struct {
	Text    string
	TokenID string
}

func (f Fragment) IsToken() bool { return f.TokenID != "" }

// Scan splits a string into its ordered literal and token fragments.
// Scan(Encode(id)) yields exactly one token fragment; a string without
// markers yields exactly one literal fragment (or none when empty).
func Scan(s string) []Fragment {
	matches := markerPattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		if s == "" {
			return nil
		}
		return []Fragment{{Text: s}}
	}

	var frags []Fragment
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > last {
			frags = append(frags, Fragment{Text: s[last:start]})
		}
		frags = append(frags, Fragment{TokenID: s[m[2]:m[3]]})
		last = end
	}
	if last < len(s) {
		frags = append(frags, Fragment{Text: s[last:]})
	}
	return frags
}

// SingleToken reports whether s is exactly one whole-value marker with no
// surrounding literal text, returning the embedded id. Such a string
// resolves to the token's native type instead of being coerced to a string.
func SingleToken(s string) (string, bool) {
	frags := Scan(s)
	if len(frags) == 1 && frags[0].IsToken() {
		return frags[0].TokenID, true
	}
	return "", false
}
