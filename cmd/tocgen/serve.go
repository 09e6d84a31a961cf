package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/tocgen/internal/api"
	"github.com/dgallion1/tocgen/internal/config"
	"github.com/dgallion1/tocgen/internal/version"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the TOC engine over HTTP",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.load(cmd, func(c *config.Config) error {
				if cmd.Flags().Changed("port") {
					c.Server.Port = port
				}
				return nil
			})
			if err != nil {
				return err
			}

			srv := api.NewServer(cfg, log)
			httpServer := &http.Server{
				Addr:         ":" + cfg.Server.Port,
				Handler:      srv,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 60 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			// Graceful shutdown.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			shutdownErr := make(chan error, 1)
			go func() {
				<-ctx.Done()
				log.Info("shutting down...")

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer shutdownCancel()
				shutdownErr <- httpServer.Shutdown(shutdownCtx)
			}()

			log.Info("starting tocgen", "port", cfg.Server.Port, "version", version.Version, "auth", cfg.Server.APIKey != "")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return <-shutdownErr
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (default 8090, or $PORT)")
	return cmd
}
