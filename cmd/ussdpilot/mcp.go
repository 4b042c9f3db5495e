package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/aretw0/ussdpilot"
	"github.com/aretw0/ussdpilot/internal/cli"
	"github.com/aretw0/ussdpilot/pkg/adapters/mcp"
	"github.com/aretw0/ussdpilot/pkg/observability"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the engine as an MCP Server so agents can submit trigger messages,
start transactions and inspect the session as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")
		if transport != "stdio" && transport != "sse" {
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}

		// Ensure logs don't corrupt JSON-RPC on Stdout
		log.SetOutput(os.Stderr)
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		rt, err := cli.Open(cfg, os.Stderr)
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()

		pilot, err := ussdpilot.New(newSimulator(cmd, rt), rt.PilotOptions(observability.LogHooks(rt.Logger))...)
		if err != nil {
			return err
		}
		srv := mcp.NewServer(pilot, rt.Logger)

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()
		g, ctx := errgroup.WithContext(sc)
		g.Go(func() error {
			return pilot.Run(ctx)
		})

		switch transport {
		case "stdio":
			rt.Logger.Info("Starting ussdpilot MCP Server (Stdio)...")
			g.Go(func() error {
				// ServeStdio returns once stdin is closed or a signal arrives.
				defer sc.Cancel()
				return srv.ServeStdio()
			})
		case "sse":
			if addr == "" {
				addr = rt.Config.HTTP.Addr
			}
			rt.Logger.Info("Starting ussdpilot MCP Server (SSE)", "address", addr)
			g.Go(func() error {
				return srv.ServeSSE(ctx, addr)
			})
		}

		err = g.Wait()
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		if err == nil {
			rt.Logger.Info("MCP Server stopped gracefully")
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", "", "Address to listen on (only for SSE, default from config)")
	addSimulatorFlags(mcpCmd)
}
