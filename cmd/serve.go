package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/rfp-responder/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pipeline over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 0, "port to listen on (overrides server.port)")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config, application := prepare(ctx)

	port := 8000
	if config.Server != nil && config.Server.Port > 0 {
		port = config.Server.Port
	}

	srv := server.New(application.pipeline, application.library, logger.Named("server"))

	errs := make(chan error, 1)
	go func() {
		errs <- srv.Listen(fmt.Sprintf(":%d", port))
	}()

	select {
	case err := <-errs:
		if err != nil {
			logger.Fatal("http server stopped", zap.Error(err))
		}
		return
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", shutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Error("shutting down the http server", zap.Error(err))
	}
}
