package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/ussdpilot/internal/presentation/graph"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/steps"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or reset the persisted session",
	Long:  `Reads the session cursor from the configured store. Useful after a crash, before the engine recovers it.`,
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the session cursor",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()

		state, err := rt.Store.Load(cmd.Context())
		if errors.Is(err, domain.ErrSessionNotFound) {
			fmt.Fprintln(cmd.OutOrStdout(), "No session found.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}

		if format, _ := cmd.Flags().GetString("graph"); format != "" {
			if format != "mermaid" {
				return fmt.Errorf("unknown graph format %q (supported: mermaid)", format)
			}
			chain := append(steps.Chain(state.Mode), steps.Confirm)
			fmt.Fprintln(cmd.OutOrStdout(), graph.GenerateMermaid(chain, &graph.Overlay{
				CurrentStep: state.Step,
				Closing:     state.Closing,
			}))
			return nil
		}

		// Pretty print JSON
		data, err := json.MarshalIndent(state.Redacted(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal state: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the session cursor",
	Long:  `Deletes the persisted session. A running engine is not notified; its timers still fire against an empty store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()

		if err := rt.Store.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Session cleared.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionClearCmd)
	sessionInspectCmd.Flags().String("graph", "", "Render the session on its step chain instead (mermaid)")
}
