package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/habiliai/oursgpt/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	params := &struct {
		Port int
	}{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat and image studio over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx, flags, false)
			if err != nil {
				return err
			}
			defer app.Close()

			cfg := app.Config()
			logger := app.Logger()
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = params.Port
			}

			server := &http.Server{
				Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
				Handler: createServerHandler(app, cfg.Server.AllowedOrigins, logger),
				BaseContext: func(net.Listener) context.Context {
					return ctx
				},
			}

			eg, ctx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				logger.Info("server started", slog.Int("port", cfg.Server.Port))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return errors.Wrapf(err, "failed to serve on port %d", cfg.Server.Port)
				}
				return nil
			})
			eg.Go(func() error {
				<-ctx.Done()
				app.Chat().Cancel()
				if err := server.Shutdown(context.WithoutCancel(ctx)); err != nil {
					return errors.Wrapf(err, "failed to shutdown server")
				}
				logger.Info("server stopped")
				return nil
			})

			return eg.Wait()
		},
	}

	cmd.Flags().IntVarP(&params.Port, "port", "p", 3001, "Port to listen on")

	return cmd
}
