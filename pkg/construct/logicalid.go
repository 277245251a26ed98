// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package construct

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// LogicalIDAllocator derives a template logical id from a construct path
// (stack segment excluded). Any replacement must be deterministic: the same
// path maps to the same id on every synthesis pass. Uniqueness across
// distinct paths is checked at synth, not assumed here.
type LogicalIDAllocator func(path []string) string

const maxLogicalIDLength = 255

// DefaultLogicalID joins the sanitized path components and, above the length
// limit, truncates with a hash suffix so long paths stay unique without
// losing readability.
func DefaultLogicalID(path []string) string {
	var b strings.Builder
	for _, segment := range path {
		for _, r := range segment {
			if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
	}
	id := b.String()
	if id == "" {
		id = "Resource"
	}
	if len(id) <= maxLogicalIDLength {
		return id
	}

	sum := sha256.Sum256([]byte(strings.Join(path, "/")))
	suffix := strings.ToUpper(hex.EncodeToString(sum[:8]))
	return id[:maxLogicalIDLength-len(suffix)] + suffix
}
