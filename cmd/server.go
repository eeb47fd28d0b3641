package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/flowgraph/internal/server"
	"github.com/ziadkadry99/flowgraph/internal/session"
)

var (
	serverPort       int
	serverSessionTTL time.Duration
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the graph generation server",
	Long:  `Starts the HTTP server behind the chat: POST /generate, POST /clear_session, GET /api/history and the /ws/generate websocket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serverPort != 0 {
			cfg.Server.Port = serverPort
		}

		logger, err := newLogger(cfg, false)
		if err != nil {
			return err
		}
		defer logger.Sync()

		database, sessions, err := openSessions(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		engine, err := newEngine(cfg, sessions, logger)
		if err != nil {
			return err
		}

		srv := server.New(server.Config{
			Port:           cfg.Server.Port,
			AllowAll:       cfg.Server.AllowAllOrigins,
			MaxUploadBytes: cfg.Server.MaxUploadBytes,
			RequestTimeout: cfg.RequestTimeout(),
		}, sessions, engine, logger)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("flowgraph server starting",
			zap.String("version", Version),
			zap.Int("port", cfg.Server.Port),
			zap.String("database", database.Path()),
			zap.String("provider", string(cfg.Provider)),
			zap.String("model", cfg.Model),
		)

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		if serverSessionTTL > 0 {
			g.Go(func() error {
				pruneSessions(ctx, sessions, serverSessionTTL, logger)
				return nil
			})
		}
		return g.Wait()
	},
}

// pruneSessions drops idle sessions once an hour until ctx ends.
func pruneSessions(ctx context.Context, sessions *session.Store, ttl time.Duration, logger *zap.Logger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := sessions.Prune(ctx, time.Now().Add(-ttl))
			if err != nil {
				logger.Warn("pruning sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("pruned idle sessions", zap.Int64("count", n))
			}
		}
	}
}

func init() {
	serverCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "port to listen on (default from config)")
	serverCmd.Flags().DurationVar(&serverSessionTTL, "session-ttl", 7*24*time.Hour, "drop sessions idle for longer than this (0 keeps them forever)")
	rootCmd.AddCommand(serverCmd)
}
