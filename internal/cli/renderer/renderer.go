// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package renderer turns synthesis results into terminal output: the
// dependency table and the deployment-order tree.
package renderer

import (
	"fmt"
	"strings"

	"github.com/ddddddO/gtree"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/platform-engineering-labs/kiln/internal/cli/display"
	"github.com/platform-engineering-labs/kiln/pkg/construct"
)

// RenderDependencyTable lists every resource with its dependencies, explicit
// ones marked separately from those discovered through references.
func RenderDependencyTable(syn *construct.Synthesis) (string, error) {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s\n", display.LightBlue("Dependencies"))

	table := tablewriter.NewTable(&buf,
		tablewriter.WithMaxWidth(120),
		tablewriter.WithRowAutoWrap(tw.WrapBreak),
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.On, ShowHeader: tw.On}},
		})))

	if err := table.Append([]string{"Resource", "Type", "Depends On"}); err != nil {
		return "", err
	}

	for _, id := range syn.Template.SortedLogicalIDs() {
		node, ok := syn.Graph.Node(id)
		if !ok {
			continue
		}

		explicit := make(map[string]struct{})
		for _, dep := range syn.Graph.ExplicitDependsOn(id) {
			explicit[dep] = struct{}{}
		}

		deps := syn.Graph.DependenciesOf(id)
		cells := make([]string, 0, len(deps))
		for _, dep := range deps {
			if _, ok := explicit[dep]; ok {
				cells = append(cells, display.Gold(dep+" (explicit)"))
			} else {
				cells = append(cells, dep)
			}
		}
		depCell := display.Grey("none")
		if len(cells) > 0 {
			depCell = strings.Join(cells, "\n")
		}

		if err := table.Append([]string{id, node.Resource.Type, depCell}); err != nil {
			return "", err
		}
	}

	if err := table.Render(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderDeploymentTree shows the topological deployment order as a tree:
// each resource hangs beneath the last of its dependencies, roots are
// resources with no dependencies at all.
func RenderDeploymentTree(syn *construct.Synthesis) (string, error) {
	root := gtree.NewRoot(display.LightBlue(display.Tool) + " " + display.Grey("deployment order"))

	nodes := map[string]*gtree.Node{}
	for _, id := range syn.Order {
		deps := syn.Graph.DependenciesOf(id)

		parent := root
		// Deterministic placement: hang beneath the dependency that comes
		// last in deployment order.
		for i := len(syn.Order) - 1; i >= 0; i-- {
			candidate := syn.Order[i]
			if candidate == id {
				continue
			}
			found := false
			for _, dep := range deps {
				if dep == candidate {
					found = true
					break
				}
			}
			if found {
				parent = nodes[candidate]
				break
			}
		}

		label := id
		if node, ok := syn.Graph.Node(id); ok {
			label = id + " " + display.Grey("("+node.Resource.Type+")")
		}
		nodes[id] = parent.Add(label)
	}

	var buf strings.Builder
	if err := gtree.OutputFromRoot(&buf, root); err != nil {
		return "", err
	}
	return buf.String(), nil
}
