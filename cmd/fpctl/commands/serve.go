package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/touchstone/api"
	"github.com/banshee-data/touchstone/internal/monitoring"
)

func serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP JSON API over the sensor and record store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen == "" {
				listen = cfg.Serve.Addr
			}

			sensor, port, err := openSensor()
			if err != nil {
				return err
			}
			defer port.Close()

			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			server := &http.Server{
				Addr:    listen,
				Handler: api.NewServer(sensor, db).ServeMux(),
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				monitoring.Logf("fpctl: serving on %s", listen)
				if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config)")
	return cmd
}
