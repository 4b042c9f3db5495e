package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/ussdpilot"
	"github.com/aretw0/ussdpilot/internal/cli"
	httpAdapter "github.com/aretw0/ussdpilot/pkg/adapters/http"
	"github.com/aretw0/ussdpilot/pkg/adapters/simulator"
	"github.com/aretw0/ussdpilot/pkg/observability"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	Long: `Starts the engine behind an HTTP API. Trigger messages are posted to /messages,
lifecycle events stream on /events and Prometheus metrics are exposed on /metrics.

The engine drives the built-in menu simulator; a device bridge embeds the ussdpilot
package with its own adapter instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = rt.Config.HTTP.Addr
		}

		metrics := observability.NewMetrics()
		streams := httpAdapter.NewStreamManager(rt.Logger)

		pilot, err := ussdpilot.New(newSimulator(cmd, rt), rt.PilotOptions(
			observability.LogHooks(rt.Logger),
			metrics.Hooks(),
			streams.Hooks(),
		)...)
		if err != nil {
			return err
		}

		handler := httpAdapter.NewHandler(pilot,
			httpAdapter.WithStreams(streams),
			httpAdapter.WithMetrics(metrics.Handler()),
			httpAdapter.WithLogger(rt.Logger),
		)
		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()
		g, ctx := errgroup.WithContext(sc)

		g.Go(func() error {
			return pilot.Run(ctx)
		})
		g.Go(func() error {
			rt.Logger.Info("server listening", "address", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				_ = srv.Close()
				return fmt.Errorf("graceful shutdown did not complete: %w", err)
			}
			return nil
		})

		err = g.Wait()
		if sig := sc.Signal(); sig != nil {
			rt.Logger.Info("server stopped", "signal", sig.String())
			if errors.Is(err, context.Canceled) {
				return nil
			}
		}
		return err
	},
}

// newSimulator builds the menu simulator from the simulator flags and the configuration.
func newSimulator(cmd *cobra.Command, rt *cli.Runtime) *simulator.Simulator {
	confirm, _ := cmd.Flags().GetBool("confirm-page")
	distractor, _ := cmd.Flags().GetBool("distractor")

	opts := []simulator.Option{
		simulator.WithPIN(rt.Config.Automation.AuthCode),
		simulator.WithConfirmation(confirm),
		simulator.WithAccessCode(rt.Config.Automation.AccessCode),
		simulator.WithLogger(rt.Logger),
	}
	if distractor {
		opts = append(opts, simulator.WithDistractor(rt.Config.Automation.OwnerID))
	}
	return simulator.New(opts...)
}

func addSimulatorFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("confirm-page", false, "Simulated menu shows a confirmation page after the PIN")
	cmd.Flags().Bool("distractor", false, "Simulated menu overlays a lookalike window")
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (default from config, :8080)")
	addSimulatorFlags(serveCmd)
}
