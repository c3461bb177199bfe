package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/clocktower"
	httpadapter "github.com/aretw0/clocktower/pkg/adapters/http"
	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/observability"
	"github.com/aretw0/clocktower/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored games over HTTP",
	Long: `Starts a read-only JSON API over the game store, with live public events over
SSE and Prometheus metrics on /metrics. With --demo, the server also hosts games
between random agents so the stream and metrics have something to show.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Int("demo", 0, "Number of demo games to host")
	serveCmd.Flags().Duration("demo-delay", 200*time.Millisecond, "Pause between demo game phases")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, closeStore, err := openSessions(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	api := httpadapter.NewServer(sessions, logger)
	api.Version = clocktower.Version

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Mount("/", api.Handler())

	port, _ := cmd.Flags().GetString("port")
	srv := &http.Server{Addr: ":" + port, Handler: r}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("clocktower server listening", "address", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	demos, _ := cmd.Flags().GetInt("demo")
	delay, _ := cmd.Flags().GetDuration("demo-delay")
	for i := 0; i < demos; i++ {
		go hostDemo(ctx, sessions, api, metrics, delay)
	}

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown did not complete", "err", err)
			return srv.Close()
		}
		return nil
	}
}

// hostDemo plays one game between random agents, publishing its public events
// to SSE subscribers and pausing at every phase change.
func hostDemo(ctx context.Context, sessions *session.Manager, api *httpadapter.Server, metrics *observability.Metrics, delay time.Duration) {
	id := uuid.NewString()
	pace := domain.LifecycleHooks{
		OnEvent: func(ctx context.Context, evt domain.Event) {
			if evt.Type != domain.EventPhaseChanged {
				return
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
		},
	}
	game, err := clocktower.New([]string{"Ann", "Bob", "Cat", "Dan", "Eve", "Fay", "Gus", "Hal"},
		clocktower.WithID(id),
		clocktower.WithSessions(sessions),
		clocktower.WithLogger(logger),
		clocktower.WithLifecycleHooks(observability.Aggregate(metrics.Hooks(), api.Streams.Hook(id), pace)),
	)
	if err != nil {
		logger.Error("demo setup failed", "err", err)
		return
	}
	logger.Info("demo game started", "game", id)
	if _, err := game.Play(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("demo game failed", "game", id, "err", err)
	}
}
