package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/ussdpilot/internal/presentation/graph"
	"github.com/aretw0/ussdpilot/internal/presentation/tui"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/steps"
	"github.com/spf13/cobra"
)

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "Show the step chains walked for each mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		modeName, _ := cmd.Flags().GetString("mode")

		modes := domain.Modes
		if modeName != "" {
			mode, err := domain.ParseMode(modeName)
			if err != nil {
				return err
			}
			modes = []domain.Mode{mode}
		}

		out := cmd.OutOrStdout()
		switch format {
		case "markdown":
			return tui.WriteMarkdown(out, steps.Markdown())
		case "json":
			chains := make(map[domain.Mode][]domain.StepDefinition, len(modes))
			for _, mode := range modes {
				chains[mode] = append(steps.Chain(mode), steps.Confirm)
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(chains)
		case "mermaid":
			for _, mode := range modes {
				fmt.Fprintf(out, "%%%% %s\n", mode)
				fmt.Fprintln(out, graph.GenerateMermaid(append(steps.Chain(mode), steps.Confirm), nil))
			}
			return nil
		}
		return fmt.Errorf("unknown format %q (supported: markdown, json, mermaid)", format)
	},
}

func init() {
	rootCmd.AddCommand(stepsCmd)
	stepsCmd.Flags().StringP("format", "f", "markdown", "Output format: markdown, json or mermaid")
	stepsCmd.Flags().StringP("mode", "m", "", "Limit json and mermaid output to one mode")
}
