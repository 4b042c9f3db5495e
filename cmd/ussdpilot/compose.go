package main

import (
	"fmt"

	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/trigger"
	"github.com/spf13/cobra"
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Build the trigger message body for a transaction",
	Example: `  ussdpilot compose --mode send_money --phone 0712345678 --amount 500
  ussdpilot compose --mode paybill --business 888880 --account ACC-1 --amount 1500`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		modeName, _ := flags.GetString("mode")
		mode, err := domain.ParseMode(modeName)
		if err != nil {
			return err
		}
		req := domain.TransactionRequest{Mode: mode}
		req.Amount, _ = flags.GetString("amount")
		req.Phone, _ = flags.GetString("phone")
		req.Till, _ = flags.GetString("till")
		req.Business, _ = flags.GetString("business")
		req.Account, _ = flags.GetString("account")
		req.Agent, _ = flags.GetString("agent")
		req.Store, _ = flags.GetString("store")

		body, err := trigger.Compose(req)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), body)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(composeCmd)
	f := composeCmd.Flags()
	f.StringP("mode", "m", "", "Transaction mode: send_money, till, paybill or withdraw")
	f.StringP("amount", "a", "", "Amount")
	f.String("phone", "", "Recipient phone (send_money)")
	f.String("till", "", "Till number (till)")
	f.String("business", "", "Business number (paybill)")
	f.String("account", "", "Account reference (paybill)")
	f.String("agent", "", "Agent number (withdraw)")
	f.String("store", "", "Store number (withdraw)")
	_ = composeCmd.MarkFlagRequired("mode")
	_ = composeCmd.MarkFlagRequired("amount")
}
