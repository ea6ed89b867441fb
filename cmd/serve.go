package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/localgaid/pipeline/internal/api"
	"github.com/localgaid/pipeline/pkg/config"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the status endpoints (/healthz, /metrics)",
		Long: `Starts the advisory status server exposing a health probe and the
Prometheus metrics registry. The server runs until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := resolveRuntime(cmd.Context())
			if err != nil {
				return err
			}

			addr := config.LoadServerConfig(rt.V).Addr
			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewServer(rt.Registry, rt.Logger).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				rt.Logger.Info("status server listening", zap.String("addr", addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case <-cmd.Context().Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("shutdown status server: %w", err)
				}
				return nil
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("status server: %w", err)
			}
		},
	}
	return cmd
}
