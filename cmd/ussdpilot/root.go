package main

import (
	"fmt"
	"os"

	"github.com/aretw0/ussdpilot/internal/cli"
	"github.com/aretw0/ussdpilot/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ussdpilot",
	Short: "ussdpilot drives USSD menu sessions from trigger messages",
	Long: `ussdpilot turns authorised trigger messages into transaction requests and walks
the interactive menu of the carrier session step by step until it is confirmed or abandoned.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default ./"+config.DefaultPath+" when present)")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// openRuntime loads the configuration and opens its store. Logs go to stderr.
func openRuntime(cmd *cobra.Command) (*cli.Runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cli.Open(cfg, cmd.ErrOrStderr())
}
