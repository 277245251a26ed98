// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package manifest loads a declarative stack description and builds the
// construct graph from it. Deferred-value directives ($Ref, $GetAtt, $Join,
// $Pseudo) in property trees are rewritten into encoded token markers, so a
// manifest exercises the exact same resolution path as a stack built in Go.
package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver"
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"

	"github.com/platform-engineering-labs/kiln/pkg/construct"
	"github.com/platform-engineering-labs/kiln/pkg/model"
)

// Supported manifest format versions.
var formatConstraint = func() *semver.Constraints {
	c, err := semver.NewConstraint("^1")
	if err != nil {
		panic(err)
	}
	return c
}()

var pseudoNames = map[string]string{
	"AccountId": model.PseudoAccountID,
	"Region":    model.PseudoRegion,
	"Partition": model.PseudoPartition,
	"StackName": model.PseudoStackName,
	"URLSuffix": model.PseudoURLSuffix,
}

// Load reads a manifest file (.yaml, .yml or .json) and builds its stack.
func Load(path string) (*construct.Stack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse builds a stack from raw manifest content. ext selects the input
// schema: ".yaml"/".yml" or ".json" (default).
func Parse(data []byte, ext string) (*construct.Stack, error) {
	jsonDoc, err := toJSON(data, ext)
	if err != nil {
		return nil, err
	}

	doc := gjson.Parse(jsonDoc)
	if err := checkFormatVersion(doc); err != nil {
		return nil, err
	}

	stackName := doc.Get("Stack").String()
	if stackName == "" {
		return nil, fmt.Errorf("manifest is missing the Stack name")
	}
	stack := construct.NewStack(stackName)

	resources := doc.Get("Resources")
	if !resources.IsObject() || len(resources.Map()) == 0 {
		return nil, fmt.Errorf("manifest declares no resources")
	}

	handles := make(map[string]*construct.Resource)
	var names []string
	var ferr error
	resources.ForEach(func(key, entry gjson.Result) bool {
		name := key.String()
		typ := entry.Get("Type").String()
		if typ == "" {
			ferr = fmt.Errorf("resource %s is missing Type", name)
			return false
		}
		handle, err := stack.NewResource(name, typ)
		if err != nil {
			ferr = err
			return false
		}
		handles[name] = handle
		names = append(names, name)
		return true
	})
	if ferr != nil {
		return nil, ferr
	}

	loader := &loader{stack: stack, handles: handles}
	for _, name := range names {
		if err := loader.populate(name, resources.Get(escapeSegment(name))); err != nil {
			return nil, err
		}
	}

	return stack, nil
}

func toJSON(data []byte, ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return "", fmt.Errorf("failed to parse manifest YAML: %w", err)
		}
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to convert manifest to JSON: %w", err)
		}
		return string(b), nil
	default:
		if !gjson.ValidBytes(data) {
			return "", fmt.Errorf("manifest is not valid JSON")
		}
		return string(data), nil
	}
}

func checkFormatVersion(doc gjson.Result) error {
	raw := doc.Get("FormatVersion")
	if !raw.Exists() {
		return nil
	}
	v, err := semver.NewVersion(raw.String())
	if err != nil {
		return fmt.Errorf("invalid FormatVersion %q: %w", raw.String(), err)
	}
	if !formatConstraint.Check(v) {
		return fmt.Errorf("unsupported FormatVersion %s: this build understands ^1", raw.String())
	}
	return nil
}

type loader struct {
	stack   *construct.Stack
	handles map[string]*construct.Resource
}

func (l *loader) populate(name string, entry gjson.Result) error {
	handle := l.handles[name]

	if props := entry.Get("Properties"); props.Exists() {
		m, err := l.decodeTree(props, name, "Properties")
		if err != nil {
			return err
		}
		if err := handle.SetProperties(m); err != nil {
			return err
		}
	}

	if md := entry.Get("Metadata"); md.Exists() {
		m, err := l.decodeTree(md, name, "Metadata")
		if err != nil {
			return err
		}
		for k, v := range m {
			if err := handle.SetMetadata(k, v); err != nil {
				return err
			}
		}
	}

	if p := entry.Get("DeletionPolicy"); p.Exists() {
		policy := model.RemovalPolicy(p.String())
		if !policy.IsValid() {
			return fmt.Errorf("resource %s: unknown DeletionPolicy %q", name, p.String())
		}
		handle.SetDeletionPolicy(policy)
	}
	if p := entry.Get("UpdateReplacePolicy"); p.Exists() {
		policy := model.RemovalPolicy(p.String())
		if !policy.IsValid() {
			return fmt.Errorf("resource %s: unknown UpdateReplacePolicy %q", name, p.String())
		}
		handle.SetUpdateReplacePolicy(policy)
	}

	if deps := entry.Get("DependsOn"); deps.Exists() {
		var derr error
		deps.ForEach(func(_, dep gjson.Result) bool {
			target, ok := l.handles[dep.String()]
			if !ok {
				derr = fmt.Errorf("resource %s: DependsOn references unknown resource %q", name, dep.String())
				return false
			}
			handle.AddDependsOn(target)
			return true
		})
		if derr != nil {
			return derr
		}
	}

	return nil
}

// decodeTree rewrites all deferred-value directives in a subtree into token
// markers, then decodes it into the generic property shape.
func (l *loader) decodeTree(node gjson.Result, resource, section string) (map[string]any, error) {
	if !node.IsObject() {
		return nil, fmt.Errorf("resource %s: %s must be a mapping", resource, section)
	}

	rewritten, err := l.rewriteDirectives(node.Raw)
	if err != nil {
		return nil, fmt.Errorf("resource %s: %s: %w", resource, section, err)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(rewritten)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("resource %s: failed to decode %s: %w", resource, section, err)
	}
	return m, nil
}

type directive struct {
	path string
	kind string
	node gjson.Result
}

// rewriteDirectives repeatedly locates the first directive object in the
// document and replaces it with its encoded token marker until none remain.
func (l *loader) rewriteDirectives(doc string) (string, error) {
	for {
		d := findDirective(gjson.Parse(doc), "")
		if d == nil {
			return doc, nil
		}

		marker, err := l.encodeDirective(d)
		if err != nil {
			return "", err
		}
		replacement, err := json.Marshal(marker)
		if err != nil {
			return "", err
		}

		doc, err = sjson.SetRaw(doc, d.path, string(replacement))
		if err != nil {
			return "", fmt.Errorf("failed to rewrite directive at %s: %w", d.path, err)
		}
	}
}

// findDirective walks the subtree in document order and returns the first
// directive object. It does not descend into one: directives are replaced
// wholesale, nested directives inside $Join parts are handled when the join
// itself is encoded.
func findDirective(node gjson.Result, base string) *directive {
	if node.IsObject() {
		for _, kind := range []string{"$Ref", "$GetAtt", "$Join", "$Pseudo"} {
			if node.Get(escapeSegment(kind)).Exists() {
				return &directive{path: base, kind: kind, node: node}
			}
		}
		var found *directive
		node.ForEach(func(key, val gjson.Result) bool {
			found = findDirective(val, joinPath(base, key.String()))
			return found == nil
		})
		return found
	}
	if node.IsArray() {
		var found *directive
		i := 0
		node.ForEach(func(_, val gjson.Result) bool {
			found = findDirective(val, joinPath(base, fmt.Sprintf("%d", i)))
			i++
			return found == nil
		})
		return found
	}
	return nil
}

func (l *loader) encodeDirective(d *directive) (string, error) {
	arg := d.node.Get(escapeSegment(d.kind))

	switch d.kind {
	case "$Ref":
		target, ok := l.handles[arg.String()]
		if !ok {
			return "", fmt.Errorf("$Ref to unknown resource %q", arg.String())
		}
		return target.RefString(), nil

	case "$GetAtt":
		var name, attr string
		if arg.IsArray() {
			parts := arg.Array()
			if len(parts) != 2 {
				return "", fmt.Errorf("$GetAtt expects [resource, attribute], got %s", arg.Raw)
			}
			name, attr = parts[0].String(), parts[1].String()
		} else {
			name, attr, _ = strings.Cut(arg.String(), ".")
		}
		target, ok := l.handles[name]
		if !ok {
			return "", fmt.Errorf("$GetAtt to unknown resource %q", name)
		}
		if attr == "" {
			return "", fmt.Errorf("$GetAtt on %q is missing the attribute name", name)
		}
		return target.GetAttString(attr), nil

	case "$Pseudo":
		wire, ok := pseudoNames[arg.String()]
		if !ok {
			return "", fmt.Errorf("unknown pseudo parameter %q", arg.String())
		}
		return l.stack.Pseudo(wire).Token().String(), nil

	case "$Join":
		parts := arg.Array()
		if len(parts) != 2 || !parts[1].IsArray() {
			return "", fmt.Errorf("$Join expects [separator, [parts...]], got %s", arg.Raw)
		}
		partsJSON, err := l.rewriteDirectives(parts[1].Raw)
		if err != nil {
			return "", err
		}
		dec := json.NewDecoder(bytes.NewReader([]byte(partsJSON)))
		dec.UseNumber()
		var raw []any
		if err := dec.Decode(&raw); err != nil {
			return "", fmt.Errorf("failed to decode $Join parts: %w", err)
		}
		values := make([]model.Value, 0, len(raw))
		for _, p := range raw {
			v, err := model.FromGo(p)
			if err != nil {
				return "", err
			}
			values = append(values, v)
		}
		return l.stack.Join(parts[0].String(), values...).Token().String(), nil

	default:
		return "", fmt.Errorf("unknown directive %s", d.kind)
	}
}

func joinPath(base, segment string) string {
	segment = escapeSegment(segment)
	if base == "" {
		return segment
	}
	return base + "." + segment
}

// escapeSegment guards path metacharacters in manifest keys against gjson
// and sjson path syntax.
func escapeSegment(segment string) string {
	var b strings.Builder
	for _, r := range segment {
		switch r {
		case '.', '*', '?', '\\', '|', '#', '@':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
