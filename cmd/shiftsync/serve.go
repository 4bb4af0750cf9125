package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/k-negishi/abi-shift-sync/internal/handler"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the streaming sync HTTP endpoint",
	Long: `Start an HTTP server exposing POST /sync (text/event-stream progress) and GET /health.

The request body is {"venue_id": "...", "username": "...", "password": "..."}.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}

		addr := a.Config.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		server := &http.Server{
			Addr:              addr,
			Handler:           handler.NewServer(a.Sync, a.Config.SyncTimeout),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.ListenAndServe()
		}()
		slog.Info("HTTPサーバーを起動しました", "addr", addr)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-sigCh:
			slog.Info("HTTPサーバーを停止します")
			// 実行中の同期が終わるのを待つ
			ctx, cancel := context.WithTimeout(context.Background(), a.Config.SyncTimeout)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("HTTPサーバーの停止に失敗しました: %w", err)
			}
			err := <-errCh
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: LISTEN_ADDR or :8000)")
}
