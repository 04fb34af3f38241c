package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"aipedia/internal/app"
	"aipedia/internal/article"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve generated articles over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := app.LoadConfig(v)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		generator, err := app.NewGenerator(cfg)
		if err != nil {
			return fmt.Errorf("init generator: %w", err)
		}

		handler, err := app.NewServer(generator)
		if err != nil {
			return fmt.Errorf("init server: %w", err)
		}

		srv := &http.Server{
			Addr:        ":" + cfg.Port,
			Handler:     handler.Handler(),
			ReadTimeout: 5 * time.Second,
			// generation is slow; websocket writes carry their own deadlines
			WriteTimeout: cfg.GenerateTimeout + 15*time.Second,
			IdleTimeout:  60 * time.Second,
		}

		shutdownCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			log.Printf("aipedia listening on %s (provider %s)", srv.Addr, article.ResolveProvider(cfg.ArticleSettings()))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return fmt.Errorf("listen: %w", err)
		case <-shutdownCtx.Done():
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("graceful shutdown failed: %v", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("port", "", "port to listen on (default 8080)")
	_ = v.BindPFlag("port", serveCmd.Flags().Lookup("port"))

	rootCmd.AddCommand(serveCmd)
}
