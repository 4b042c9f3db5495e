package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/ussdpilot/pkg/trigger"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse <body>",
	Short: "Interpret a trigger message against the configured policy",
	Long: `Runs the trigger interpreter on a message body without touching the session.
The resulting request is printed with the auth code redacted, or the reason the message would be ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		sender, _ := cmd.Flags().GetString("sender")
		country, _ := cmd.Flags().GetString("country-code")

		in := trigger.New()
		if country != "" {
			in.CountryCode = country
		}
		req, err := in.Interpret(cfg.Automation.Policy, trigger.Message{Sender: sender, Body: args[0]})
		if err != nil {
			var rej *trigger.RejectError
			if errors.As(err, &rej) {
				fmt.Fprintf(cmd.OutOrStdout(), "ignored: %s\n", rej.Reason)
				return nil
			}
			return err
		}

		data, err := json.MarshalIndent(req.Redacted(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringP("sender", "s", "", "Sender address of the message")
	parseCmd.Flags().String("country-code", "", "Country code rewritten to the local prefix (default "+trigger.DefaultCountryCode+")")
}
