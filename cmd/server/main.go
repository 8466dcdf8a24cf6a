// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Command server runs the event ingestion and dispatch pipeline: the
// HTTP ingest façade, the NATS JetStream priority broker, the Redis
// Streams fallback consumer, the event processor, and the dead-letter
// sweeper, all under one suture supervision tree.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/cartographus/internal/breaker"
	"github.com/tomtom215/cartographus/internal/broker"
	"github.com/tomtom215/cartographus/internal/config"
	"github.com/tomtom215/cartographus/internal/deadletter"
	"github.com/tomtom215/cartographus/internal/eventstore"
	"github.com/tomtom215/cartographus/internal/httpapi"
	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/processor"
	"github.com/tomtom215/cartographus/internal/retry"
	"github.com/tomtom215/cartographus/internal/streamqueue"
	"github.com/tomtom215/cartographus/internal/supervisor"
	"github.com/tomtom215/cartographus/internal/supervisor/services"
	"github.com/tomtom215/cartographus/internal/websocket"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	logging.Info().Msg("starting cartographus event pipeline")

	idemDB, err := badger.Open(badger.DefaultOptions(cfg.Badger.Path).WithLogger(nil))
	if err != nil {
		return fmt.Errorf("open badger: %w", err)
	}
	defer idemDB.Close()

	store, err := eventstore.Open(eventstore.Config{
		Path:                   cfg.Store.Path,
		MaxMemory:              cfg.Store.MaxMemory,
		Threads:                cfg.Store.Threads,
		PreserveInsertionOrder: cfg.Store.PreserveInsertionOrder,
	})
	if err != nil {
		return fmt.Errorf("open event store: %w", err)
	}
	defer store.Close()

	brokerBreakerCfg := breaker.QueueConfig("broker")
	brokerBreakerCfg.FailureThreshold = cfg.Breaker.QueueFailureThreshold
	brokerBreakerCfg.SuccessThreshold = cfg.Breaker.QueueSuccessThreshold
	brokerBreakerCfg.OpenTimeout = cfg.Breaker.OpenTimeout
	brokerBreakerCfg.HalfOpenTimeout = cfg.Breaker.HalfOpenTimeout
	brokerBreaker := breaker.New(brokerBreakerCfg)

	streamBreakerCfg := breaker.QueueConfig("stream")
	streamBreakerCfg.FailureThreshold = cfg.Breaker.QueueFailureThreshold
	streamBreakerCfg.SuccessThreshold = cfg.Breaker.QueueSuccessThreshold
	streamBreakerCfg.OpenTimeout = cfg.Breaker.OpenTimeout
	streamBreakerCfg.HalfOpenTimeout = cfg.Breaker.HalfOpenTimeout
	streamBreaker := breaker.New(streamBreakerCfg)

	retryMgr := retry.New(idemDB, retry.Config{
		Initial:        cfg.Retry.InitialDelay,
		Backoff:        cfg.Retry.BackoffMultiplier,
		MaxDelay:       cfg.Retry.MaxDelay,
		MaxRetries:     cfg.Retry.MaxRetries,
		JitterFraction: cfg.Retry.JitterFraction,
	}, time.Now().UnixNano())

	gcLoop := retry.NewGCLoop(idemDB, cfg.Badger.GCInterval)

	brokerCfg := broker.DefaultConfig(cfg.Broker.URL)
	brokerCfg.MaxDeliver = cfg.Broker.MaxDeliver
	brokerCfg.AckWait = cfg.Broker.AckWait
	brokerCfg.MaxAckPending = cfg.Broker.MaxAckPending
	brokerCfg.PublishRatePerSecond = cfg.Broker.PublishRateLimit
	brokerCfg.PublishBurst = cfg.Broker.PublishBurst

	if cfg.Broker.EmbeddedServer {
		embedded, err := broker.NewEmbeddedServer(broker.EmbeddedServerConfig{
			Host:              cfg.Server.Host,
			StoreDir:          cfg.Broker.StoreDir,
			JetStreamMaxMem:   cfg.Broker.MaxMemory,
			JetStreamMaxStore: cfg.Broker.MaxStore,
		})
		if err != nil {
			return fmt.Errorf("start embedded nats server: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = embedded.Shutdown(shutdownCtx)
		}()
		brokerCfg.URL = embedded.ClientURL()
	}

	// pub is dedicated to synchronous publish paths (the HTTP ingest
	// façade and dead-letter republish); broker.Components opens its own
	// connection for the consumer side when the supervision tree starts it.
	pub, err := broker.NewPublisher(brokerCfg, brokerBreaker, nil)
	if err != nil {
		return fmt.Errorf("create broker publisher: %w", err)
	}
	defer pub.Close()

	wsHub := websocket.NewHub()

	registry := processor.NewRegistry()
	registerDefaultHandlers(registry, wsHub)
	proc := processor.New(idemDB, store, registry, processor.DefaultConfig())

	dlqCfg := deadletter.DefaultConfig()
	dlqCfg.SweepInterval = cfg.DeadLetter.SweepInterval
	dlqCfg.FileBackupPath = cfg.DeadLetter.FileBackupPath

	dlq := deadletter.NewManager(idemDB, pub, dlqCfg)
	if err := dlq.LoadWheel(ctx); err != nil {
		logging.Warn().Err(err).Msg("failed to load dead-letter time wheel from badger")
	}
	if n, err := dlq.RestoreFromBackup(ctx); err != nil {
		logging.Warn().Err(err).Msg("failed to restore dead-letter KV backup")
	} else if n > 0 {
		logging.Info().Int("restored", n).Msg("restored dead-letter entries from KV backup")
	}

	brokerComponents := broker.NewComponents(brokerCfg, brokerBreaker, retryMgr, dlq, proc.Process)

	streamClient, err := streamqueue.Connect(cfg.Stream.URL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer streamClient.Close()
	if err := streamqueue.EnsureGroups(ctx, streamClient); err != nil {
		return fmt.Errorf("ensure redis consumer groups: %w", err)
	}

	streamCfg := streamqueue.DefaultConfig(cfg.Stream.URL)
	streamCfg.Count = cfg.Stream.BatchSize
	streamCfg.BlockTimeout = cfg.Stream.BlockTimeout
	streamCfg.IdleTimeout = cfg.Stream.ClaimMinIdle

	streamPublisher := streamqueue.NewPublisher(streamClient, streamCfg)
	streamConsumerHigh := streamqueue.NewConsumer(streamClient, streamCfg, streamqueue.StreamHigh, proc.Process)
	streamConsumerNormal := streamqueue.NewConsumer(streamClient, streamCfg, streamqueue.StreamNormal, proc.Process)

	httpCfg := httpapi.DefaultConfig()
	httpCfg.RateLimitRPS = cfg.Server.RateLimitRPS
	httpCfg.RateLimitBurst = cfg.Server.RateLimitBurst
	httpCfg.CORSOrigins = cfg.Server.CORSOrigins
	httpCfg.IdempotencyTTL = cfg.Badger.IdempotencyTTL

	ingester := httpapi.NewIngester(idemDB, store, pub, brokerBreaker, streamPublisher, streamBreaker, httpCfg)
	apiServer := httpapi.NewServer(httpCfg, ingester, store, dlq, brokerBreaker, streamBreaker, wsHub)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      apiServer.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree, err := supervisor.NewSupervisorTree(slog.Default(), treeCfg)
	if err != nil {
		return fmt.Errorf("build supervisor tree: %w", err)
	}

	watchdog := newExitWatchdog(cfg.Supervisor, stop)
	go watchdog.run(ctx)

	tree.AddMessagingService(services.NewBrokerService(brokerComponents))
	tree.AddMessagingService(newStreamConsumerService("stream-high", streamConsumerHigh))
	tree.AddMessagingService(newStreamConsumerService("stream-normal", streamConsumerNormal))
	tree.AddDataService(services.NewDeadLetterSweeperService(deadletter.NewSweeper(dlq)))
	tree.AddDataService(services.NewRetryCoordinatorService(gcLoop))
	tree.AddAPIService(services.NewHTTPServerService(httpServer, cfg.Server.ShutdownTimeout))
	tree.AddAPIService(services.NewWebSocketHubService(wsHub))
	tree.AddAPIService(newDiagnosticsService(store, dlq, brokerBreaker, streamBreaker, wsHub))

	logging.Info().Str("addr", httpServer.Addr).Msg("supervision tree starting")
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("supervision tree exited: %w", err)
	}

	logging.Info().Msg("shutdown complete")
	return nil
}
