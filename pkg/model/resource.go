// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package model

// RemovalPolicy controls what the template consumer does with the underlying
// cloud resource when its template entry is removed or replaced. The empty
// value means "not set"; the emitter never invents a policy, the consumer's
// default applies.
type RemovalPolicy string

const (
	RemovalPolicyNone     RemovalPolicy = ""
	RemovalPolicyDelete   RemovalPolicy = "Delete"
	RemovalPolicyRetain   RemovalPolicy = "Retain"
	RemovalPolicySnapshot RemovalPolicy = "Snapshot"
)

func (p RemovalPolicy) IsValid() bool {
	switch p {
	case RemovalPolicyNone, RemovalPolicyDelete, RemovalPolicyRetain, RemovalPolicySnapshot:
		return true
	}
	return false
}

// Resource is the synthesis-time record of one emitted resource: the unit
// the reference graph, the resolver and the emitter all operate on. The
// property tree and metadata are unresolved and may contain tokens.
type Resource struct {
	LogicalID           string
	Path                string
	Type                string
	Properties          Value
	Metadata            Value
	DeletionPolicy      RemovalPolicy
	UpdateReplacePolicy RemovalPolicy

	// DependsOn holds explicit ordering constraints by logical id,
	// independent of any token-derived reference.
	DependsOn []string
}
