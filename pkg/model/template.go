// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package model

import (
	"sort"

	json "github.com/goccy/go-json"
)

// Wire vocabulary of the emitted template format. Intrinsic expressions are
// single-key mappings keyed by one of these names.
const (
	IntrinsicRef    = "Ref"
	IntrinsicGetAtt = "Fn::GetAtt"
	IntrinsicJoin   = "Fn::Join"
)

// Reserved pseudo-parameter identifiers. They survive into the template as
// reference expressions; the deploy-time consumer supplies the concrete
// values.
const (
	PseudoAccountID = "AWS::AccountId"
	PseudoRegion    = "AWS::Region"
	PseudoPartition = "AWS::Partition"
	PseudoStackName = "AWS::StackName"
	PseudoURLSuffix = "AWS::URLSuffix"
)

// RefExpression builds the {"Ref": target} intrinsic form.
func RefExpression(target string) Value {
	return MappingValue(map[string]Value{
		IntrinsicRef: StringValue(target),
	})
}

// GetAttExpression builds the {"Fn::GetAtt": [id, attribute]} intrinsic form.
func GetAttExpression(logicalID, attribute string) Value {
	return MappingValue(map[string]Value{
		IntrinsicGetAtt: SequenceValue(StringValue(logicalID), StringValue(attribute)),
	})
}

// JoinExpression builds the {"Fn::Join": [separator, [parts...]]} intrinsic
// form.
func JoinExpression(separator string, parts ...Value) Value {
	return MappingValue(map[string]Value{
		IntrinsicJoin: SequenceValue(StringValue(separator), SequenceValue(parts...)),
	})
}

// ResourceEntry is one fully resolved resource definition in the output
// document. Policy, depends-on and metadata keys appear only when set.
type ResourceEntry struct {
	Type                string
	Properties          Value
	DependsOn           []string
	DeletionPolicy      RemovalPolicy
	UpdateReplacePolicy RemovalPolicy
	Metadata            Value
}

// MarshalJSON emits the entry's sibling keys in the canonical document
// order: Type, Properties, DependsOn, DeletionPolicy, UpdateReplacePolicy,
// Metadata.
func (e *ResourceEntry) MarshalJSON() ([]byte, error) {
	out := []byte{'{'}
	write := func(key string, val any) error {
		kb, err := json.Marshal(key)
		if err != nil {
			return err
		}
		vb, err := json.Marshal(val)
		if err != nil {
			return err
		}
		if len(out) > 1 {
			out = append(out, ',')
		}
		out = append(out, kb...)
		out = append(out, ':')
		out = append(out, vb...)
		return nil
	}

	if err := write("Type", e.Type); err != nil {
		return nil, err
	}
	if err := write("Properties", e.Properties); err != nil {
		return nil, err
	}
	if len(e.DependsOn) > 0 {
		if err := write("DependsOn", e.DependsOn); err != nil {
			return nil, err
		}
	}
	if e.DeletionPolicy != RemovalPolicyNone {
		if err := write("DeletionPolicy", string(e.DeletionPolicy)); err != nil {
			return nil, err
		}
	}
	if e.UpdateReplacePolicy != RemovalPolicyNone {
		if err := write("UpdateReplacePolicy", string(e.UpdateReplacePolicy)); err != nil {
			return nil, err
		}
	}
	if !e.Metadata.IsNull() {
		if err := write("Metadata", e.Metadata); err != nil {
			return nil, err
		}
	}
	return append(out, '}'), nil
}

// Template is the finished deployment document.
type Template struct {
	Resources map[string]*ResourceEntry
}

// SortedLogicalIDs returns the resource ids in lexicographic order.
func (t *Template) SortedLogicalIDs() []string {
	ids := make([]string, 0, len(t.Resources))
	for id := range t.Resources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (t *Template) MarshalJSON() ([]byte, error) {
	out := []byte(`{"Resources":{`)
	for i, id := range t.SortedLogicalIDs() {
		kb, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(t.Resources[id])
		if err != nil {
			return nil, err
		}
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, kb...)
		out = append(out, ':')
		out = append(out, vb...)
	}
	return append(out, '}', '}'), nil
}

// ToJSON renders the document with two-space indentation. Identical input
// yields byte-identical output.
func (t *Template) ToJSON() (string, error) {
	b, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
