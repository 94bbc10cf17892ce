package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/y0ug/scanvault/internal/webserver"
	"github.com/y0ug/scanvault/pkg/auth"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	webServerConfig, err := webserver.NewWebserverConfig()
	if err != nil {
		return fmt.Errorf("failed to load webserver configuration: %w", err)
	}

	authConfig, err := auth.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to initialize auth config: %w", err)
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		a.logger.Infof("Auth type: %v", authConfig.AuthType)

		// Create a cancellable context
		ctxCancel, cancel := context.WithCancel(ctx)
		defer cancel()

		webServer := webserver.NewWebServer(a.service, webServerConfig, authConfig, a.logger)
		server, err := webserver.StartWebServer(ctxCancel, webServer)
		if err != nil {
			return fmt.Errorf("failed to start web server: %w", err)
		}

		// Listen for OS signals to handle graceful shutdown
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigs)

		select {
		case sig := <-sigs:
			a.logger.Infof("Received signal: %s. Initiating shutdown...", sig)
		case <-ctx.Done():
			a.logger.Info("Context cancelled. Initiating shutdown...")
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		// Shutdown the web server gracefully
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to gracefully shutdown the server: %w", err)
		}
		cancel()

		a.logger.Info("Shutdown complete. Exiting.")
		return nil
	})
}
