package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/go-chi/httplog"
	"github.com/pulseboard/eventpipe/breaker"
	"github.com/pulseboard/eventpipe/config"
	"github.com/pulseboard/eventpipe/dispatch"
	eventredis "github.com/pulseboard/eventpipe/event/redis"
	projectredis "github.com/pulseboard/eventpipe/project/redis"
	"github.com/pulseboard/eventpipe/upstream"
	"github.com/pulseboard/eventpipe/upstream/signature"
)

/* Worker process: runs the dispatcher pool against the durable queue.
 * Scales independently of the ingress API; both share only Redis.
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

	logger := httplog.NewLogger("eventpipe-worker", httplog.Options{
		JSON: true,
	})

	repo, err := eventredis.NewRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MaxAttempts, cfg.AckedTTL())
	if err != nil {
		fmt.Println(err)
		return
	}
	defer repo.Close(ctx)

	store := projectredis.NewStore(repo.GetClient())
	invalidator := projectredis.NewInvalidator(repo.GetClient())

	upstreamBreaker := breaker.New("upstream-metrics", cfg.BreakerFailureThreshold, cfg.BreakerCooldown())
	metricsAPI := upstream.NewClient(cfg.UpstreamURL, upstreamBreaker)
	if cfg.UpstreamSigningSecret != "" {
		secret, err := signature.Parse(cfg.UpstreamSigningSecret)
		if err != nil {
			fmt.Println(err)
			return
		}
		metricsAPI.UseSigningSecret(secret)
	}

	d := &dispatch.Dispatcher{
		Queue:       repo,
		Ledger:      repo,
		Store:       store,
		Invalidator: invalidator,
		Registry:    dispatch.DefaultRegistry(metricsAPI),
		Heartbeats:  repo,
		Logger:      logger,
		Workers:     cfg.WorkerCount,
		BatchSize:   cfg.LeaseBatchSize,
		LeaseFor:    cfg.LeaseDuration(),
	}

	logger.Info().Int("workers", cfg.WorkerCount).Msg("dispatcher starting")
	d.Run(ctx)
	logger.Info().Msg("dispatcher stopped")
}
