// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package synth

import (
	"fmt"
	"log/slog"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/theory/jsonpath"
	"github.com/theory/jsonpath/registry"

	"github.com/platform-engineering-labs/kiln/internal/cli/cmd"
	"github.com/platform-engineering-labs/kiln/internal/cli/display"
	"github.com/platform-engineering-labs/kiln/internal/cli/renderer"
	"github.com/platform-engineering-labs/kiln/internal/logging"
	"github.com/platform-engineering-labs/kiln/internal/manifest"
	"github.com/platform-engineering-labs/kiln/internal/util"
)

// jsonpathParser is a package-level parser with RFC 9535 function extensions
var jsonpathParser = jsonpath.NewParser(jsonpath.WithRegistry(registry.New()))

type SynthOptions struct {
	ManifestFile   string
	OutputFile     string
	Query          string
	ShowDeps       bool
	OutputConsumer string
}

func validateSynthOptions(opts *SynthOptions) error {
	if opts.ManifestFile == "" {
		return fmt.Errorf("manifest file is required")
	}
	if opts.OutputConsumer != "human" && opts.OutputConsumer != "machine" {
		return fmt.Errorf("output-consumer must be 'human' or 'machine'")
	}
	return nil
}

func SynthCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize a manifest into a template",
		PreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupClientLogging(util.ExpandHomePath("~/.kiln/log/client.log"), logging.NoLoggingLevel)
		},
		RunE: func(command *cobra.Command, args []string) error {
			opts := &SynthOptions{}
			opts.ManifestFile = command.Flags().Arg(0)
			opts.OutputFile, _ = command.Flags().GetString("output")
			opts.Query, _ = command.Flags().GetString("query")
			opts.ShowDeps, _ = command.Flags().GetBool("deps")
			opts.OutputConsumer, _ = command.Flags().GetString("output-consumer")

			return runSynth(opts)
		},
		Annotations: map[string]string{
			"type":     "Manifest",
			"examples": "{{.Name}} {{.Command}} stack.yaml  |  {{.Name}} {{.Command}} -q '$.Resources.Bucket' stack.yaml",
			"args":     "<manifest file>",
		},
		SilenceErrors: true,
	}

	command.SetUsageTemplate(cmd.SimpleCmdUsageTemplate)

	command.Flags().StringP("output", "o", "", "Write the template to a file instead of stdout")
	command.Flags().StringP("query", "q", "", "JSONPath query to select a fragment of the template")
	command.Flags().Bool("deps", false, "Show the dependency table after the template")
	command.Flags().String("output-consumer", "human", "Consumer of the command result (human | machine)")

	return command
}

func runSynth(opts *SynthOptions) error {
	if err := validateSynthOptions(opts); err != nil {
		return err
	}

	stack, err := manifest.Load(opts.ManifestFile)
	if err != nil {
		return err
	}

	syn, err := stack.Synth()
	if err != nil {
		return fmt.Errorf("cannot synthesize %s: %w", opts.ManifestFile, err)
	}
	slog.Debug("Synthesized manifest", "file", opts.ManifestFile, "resources", len(syn.Order))

	rendered, err := syn.Template.ToJSON()
	if err != nil {
		return fmt.Errorf("cannot serialize template: %w", err)
	}
	output := []byte(rendered)

	if opts.Query != "" {
		output, err = applyQuery(output, opts.Query)
		if err != nil {
			return err
		}
	}

	if opts.OutputFile != "" {
		if err := util.EnsureFileFolderHierarchy(opts.OutputFile); err != nil {
			return err
		}
		if err := os.WriteFile(opts.OutputFile, append(output, '\n'), 0644); err != nil {
			return fmt.Errorf("cannot write template to %s: %w", opts.OutputFile, err)
		}
	}

	if opts.OutputConsumer == "machine" {
		if opts.OutputFile == "" {
			fmt.Println(string(output))
		}
		return nil
	}

	display.PrintBanner()
	fmt.Print(display.Gold("Synthesizing stack:") + "\n  " + display.Green("File: ") + fmt.Sprintf("%s\n  ", opts.ManifestFile) + display.Green("Stack:") + fmt.Sprintf(" %s\n\n", stack.Name()))

	if opts.OutputFile != "" {
		display.Success(fmt.Sprintf("Template written to %s", opts.OutputFile))
	} else {
		fmt.Printf("%s\n\n%s\n", display.Gold("Synthesized template:"), string(output))
	}

	if opts.ShowDeps {
		table, err := renderer.RenderDependencyTable(syn)
		if err != nil {
			return err
		}
		fmt.Println(table)
	}

	return nil
}

func applyQuery(template []byte, query string) ([]byte, error) {
	var data any
	if err := json.Unmarshal(template, &data); err != nil {
		return nil, fmt.Errorf("cannot parse template for query: %w", err)
	}

	path, err := jsonpathParser.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", query, err)
	}

	nodes := path.Select(data)
	var selected any
	switch len(nodes) {
	case 0:
		return nil, fmt.Errorf("query %q matched nothing", query)
	case 1:
		selected = nodes[0]
	default:
		selected = []any(nodes)
	}

	out, err := json.MarshalIndent(selected, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("cannot serialize query result: %w", err)
	}
	return out, nil
}
