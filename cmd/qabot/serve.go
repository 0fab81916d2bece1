package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/necyberteam/qabot/internal/logging"
	httpAdapter "github.com/necyberteam/qabot/pkg/adapters/http"
	"github.com/necyberteam/qabot/pkg/adapters/memory"
	redisAdapter "github.com/necyberteam/qabot/pkg/adapters/redis"
	"github.com/necyberteam/qabot/pkg/observability"
	"github.com/necyberteam/qabot/pkg/ports"
	"github.com/necyberteam/qabot/pkg/session"
	"github.com/necyberteam/qabot/pkg/submit"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the assistant in server mode, exposing a JSON API with Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		if flag, _ := cmd.Flags().GetString("log-level"); flag != "" {
			cfg.LogLevel = flag
		}
		if flag, _ := cmd.Flags().GetString("listen"); flag != "" {
			cfg.Listen = flag
		}
		level, err := parseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger := logging.NewJSON(level)

		if cfg.Tickets.BaseURL == "" {
			return fmt.Errorf("ticket proxy URL is required (tickets.base_url)")
		}

		// Session persistence: Redis when configured, in-memory otherwise.
		var (
			store       ports.StateStore
			sessionOpts = []session.Option{session.WithLogger(logger)}
		)
		if cfg.Redis.Addr != "" {
			client := goredis.NewClient(&goredis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			store = redisAdapter.NewFromClient(client, redisAdapter.WithTTL(cfg.Redis.TTL))
			sessionOpts = append(sessionOpts, session.WithLocker(redisAdapter.NewLocker(client, "qabot:")))
			logger.Info("using redis session store", "addr", cfg.Redis.Addr)
		} else {
			store = memory.NewStore()
			logger.Info("using in-memory session store")
		}
		sessions := session.NewManager(store, sessionOpts...)

		registry := prometheus.NewRegistry()
		metrics := observability.NewMetrics(registry)

		handler, err := httpAdapter.NewHandler(httpAdapter.Config{
			Sessions:  sessions,
			Tickets:   submit.NewClient(cfg.Tickets.BaseURL, submit.WithLogger(logger)),
			QueryBase: cfg.Query.BaseURL,
			QueryKey:  cfg.Query.APIKey,
			Dev:       cfg.DevDesk,
			Hooks:     metrics.Hooks(),
			Logger:    logger,
		})
		if err != nil {
			return err
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		mux.Handle("/", handler)

		srv := &http.Server{
			Addr:    cfg.Listen,
			Handler: mux,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting server", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("starting shutdown", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("could not stop server: %w", err)
				}
			}
			logger.Info("server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Address to listen on (overrides config)")
}
