// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package tree

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/platform-engineering-labs/kiln/internal/cli/cmd"
	"github.com/platform-engineering-labs/kiln/internal/cli/display"
	"github.com/platform-engineering-labs/kiln/internal/cli/renderer"
	"github.com/platform-engineering-labs/kiln/internal/logging"
	"github.com/platform-engineering-labs/kiln/internal/manifest"
	"github.com/platform-engineering-labs/kiln/internal/util"
)

func TreeCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "tree",
		Short: "Show the deployment order of a manifest",
		PreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupClientLogging(util.ExpandHomePath("~/.kiln/log/client.log"), logging.NoLoggingLevel)
		},
		RunE: func(command *cobra.Command, args []string) error {
			manifestFile := command.Flags().Arg(0)
			if manifestFile == "" {
				return fmt.Errorf("manifest file is required")
			}

			stack, err := manifest.Load(manifestFile)
			if err != nil {
				return err
			}

			syn, err := stack.Synth()
			if err != nil {
				return fmt.Errorf("cannot synthesize %s: %w", manifestFile, err)
			}

			out, err := renderer.RenderDeploymentTree(syn)
			if err != nil {
				return err
			}

			display.PrintBanner()
			fmt.Println(out)
			return nil
		},
		Annotations: map[string]string{
			"type":     "Manifest",
			"examples": "{{.Name}} {{.Command}} stack.yaml",
			"args":     "<manifest file>",
		},
		SilenceErrors: true,
	}

	command.SetUsageTemplate(cmd.SimpleCmdUsageTemplate)

	return command
}
