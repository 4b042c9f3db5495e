package main

import (
	"fmt"

	"github.com/aretw0/ussdpilot"
	"github.com/aretw0/ussdpilot/internal/cli"
	"github.com/aretw0/ussdpilot/internal/presentation/tui"
	"github.com/aretw0/ussdpilot/pkg/trigger"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <body>",
	Short: "Run a trigger message against an in-memory menu",
	Long: `Drives the configured engine against a simulated carrier menu and prints every
lifecycle event as it happens, followed by the menu transcript and the final result.
The session store from the configuration is used, so a simulated run replaces any session in flight.`,
	Example: `  ussdpilot simulate --sender 0712345678 "BG|5544|90"
  ussdpilot simulate --sender 0712345678 --confirm-page --distractor "SM|0722000111|250"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()

		flags := cmd.Flags()
		sender, _ := flags.GetString("sender")
		opts := cli.SimulateOptions{Message: trigger.Message{Sender: sender, Body: args[0]}}
		opts.PIN, _ = flags.GetString("pin")
		opts.ConfirmPage, _ = flags.GetBool("confirm-page")
		opts.Distractor, _ = flags.GetBool("distractor")
		opts.StaleAuth, _ = flags.GetInt("stale-auth")
		opts.Timeout, _ = flags.GetDuration("timeout")

		out := cmd.OutOrStdout()
		if quiet, _ := flags.GetBool("quiet"); !quiet {
			tui.PrintBanner(out, ussdpilot.Version)
		}
		trace := tui.NewTrace(out)

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		res, err := cli.Simulate(sc, rt, opts, trace.Hooks())
		if res == nil {
			return err
		}
		if res.Request == nil {
			trace.Note("message ignored, no session started")
			return err
		}

		fmt.Fprintln(out)
		for _, e := range res.Transcript {
			fmt.Fprintf(out, "  %-14s %-10s %s\n", e.Page, e.Action, e.Value)
		}
		if res.Result != "" {
			fmt.Fprintf(out, "\n%s\n", res.Result)
		}
		if sig := sc.Signal(); sig != nil {
			trace.Note("interrupted by %s", sig)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	f := simulateCmd.Flags()
	f.StringP("sender", "s", "", "Sender address of the message")
	f.String("pin", "", "PIN the simulated menu accepts (default: the configured auth code)")
	f.Bool("confirm-page", false, "Show a confirmation page after the PIN")
	f.Bool("distractor", false, "Overlay a lookalike window from the session owner")
	f.Int("stale-auth", 0, "Keep rendering the PIN page this many times after it was submitted")
	f.Duration("timeout", 0, "Give up after this long (default: dead-man delay plus one second)")
	f.BoolP("quiet", "q", false, "Do not print the banner")
}
