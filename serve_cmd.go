package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"auto_blog_writer/publisher"
	"auto_blog_writer/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the session API over HTTP",
	Long: `Serve starts the JSON API. Each POST /api/sessions creates an independent
writing session kept in memory until it is deleted or the process exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		gateway, err := buildGateway()
		if err != nil {
			return err
		}
		creds, closeCreds, err := openCredentials()
		if err != nil {
			return err
		}
		defer closeCreds()

		srv, err := server.New(gateway, creds, publisher.NewExporter(cfg.Author), logger)
		if err != nil {
			return err
		}
		httpSrv := &http.Server{Addr: cfg.Server.Addr, Handler: srv.Routes()}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.Info("blogwriter listening", "addr", cfg.Server.Addr, "version", version)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			logger.Info("shutting down")
			return httpSrv.Shutdown(shutdownCtx)
		})
		if err := g.Wait(); err != nil {
			return err
		}
		logger.Info("blogwriter stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}
