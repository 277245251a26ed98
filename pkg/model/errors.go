// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package model

import (
	"fmt"
	"strings"
)

// All synthesis failures are pre-deployment and fatal: none is retried, none
// produces partial output.

// UnregisteredTokenError means a marker carried a token id with no registry
// entry: the encoding was corrupted or crossed session boundaries.
type UnregisteredTokenError struct {
	ID string
}

func (e *UnregisteredTokenError) Error() string {
	return fmt.Sprintf("unregistered token id %q: marker is corrupted or belongs to another synthesis session", e.ID)
}

// ResolutionCycleError means a token's resolution transitively reached
// itself. Chain holds every token id on the path, the repeated id last.
type ResolutionCycleError struct {
	Chain []string
}

func (e *ResolutionCycleError) Error() string {
	return fmt.Sprintf("token resolution cycle: %s", strings.Join(e.Chain, " -> "))
}

// ReferenceCycleError means the inter-resource dependency graph is cyclic.
type ReferenceCycleError struct {
	Resources []string
}

func (e *ReferenceCycleError) Error() string {
	return fmt.Sprintf("reference cycle between resources: %s", strings.Join(e.Resources, " -> "))
}

// LogicalIDCollisionError means two distinct constructs derived the same
// logical id.
type LogicalIDCollisionError struct {
	LogicalID string
	Paths     []string
}

func (e *LogicalIDCollisionError) Error() string {
	return fmt.Sprintf("logical id %q derived for multiple resources: %s", e.LogicalID, strings.Join(e.Paths, ", "))
}

// UnsupportedValueError means a property tree held a value outside
// scalar/sequence/mapping/token.
type UnsupportedValueError struct {
	Path   string
	GoType string
}

func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("unsupported value of type %s at property path %s", e.GoType, e.Path)
}
