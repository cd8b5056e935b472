package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pulseboard/eventpipe/config"
	"github.com/pulseboard/eventpipe/event"
	"github.com/pulseboard/eventpipe/event/credential"
	"github.com/pulseboard/eventpipe/event/normalize"
	eventredis "github.com/pulseboard/eventpipe/event/redis"
	"github.com/pulseboard/eventpipe/internal/http/chi"
	"github.com/pulseboard/eventpipe/metrics"
	"github.com/pulseboard/eventpipe/sources"
)

const TIMEOUT = 30 * time.Second

/* Ingress API server: terminates webhook HTTP requests, admits them
 * through rate limiting, authentication and validation, and enqueues the
 * normalized events durably before responding. Processing happens in the
 * separate worker process; this binary never blocks on a handler.
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	loader := sources.NewLoader()
	if err := loader.Load(cfg.SourcesFile); err != nil {
		fmt.Println(err)
		return
	}

	repo, err := eventredis.NewRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MaxAttempts, cfg.AckedTTL())
	if err != nil {
		fmt.Println(err)
		return
	}
	defer repo.Close(ctx)

	ingress := event.NewService(
		loader,
		repo,
		credential.NewVerifier(repo),
		normalize.New(),
		repo,
		cfg.RateLimitDefault,
		cfg.RateWindow(),
	)

	exporter, err := metrics.NewOTelExporter(metrics.NewRedisCollector(repo))
	if err != nil {
		fmt.Println(err)
		return
	}
	defer exporter.Shutdown(ctx)

	r := chi.Handlers(ctx, ingress, repo, cfg.MaxBodyBytes, exporter.ServeHTTP())
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      r,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	fmt.Printf("Listening on port %s\n", cfg.Port)
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		fmt.Println(err)
		return
	}
	err = <-errShutdown
	if err != nil {
		fmt.Println(err)
		return
	}
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		fmt.Printf("\nShutting down server...\n")
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("Forcing closing the server")
	default:
		errShutdown <- fmt.Errorf("Forcing closing the server")
	}
}
