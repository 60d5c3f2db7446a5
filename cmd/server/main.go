package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"certledger/internal/audit"
	kafkasink "certledger/internal/audit/publishers/kafka"
	"certledger/internal/audit/publishers/redisstream"
	"certledger/internal/jwtident"
	"certledger/internal/platform/config"
	"certledger/internal/platform/httpserver"
	"certledger/internal/platform/logger"
	"certledger/internal/platform/metrics"
	"certledger/internal/registry"
	"certledger/internal/registry/access"
	"certledger/internal/registry/sequencer"
	"certledger/internal/registry/store"
	httpapi "certledger/internal/transport/http"
	id "certledger/pkg/domain"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in internal/registry.
func main() {
	cfg := config.FromEnv()
	log := logger.New(slog.LevelInfo)
	slog.SetDefault(log)

	admin, err := id.ParseIdentity(cfg.AdminIdentity)
	if err != nil {
		log.Error("CERTLEDGER_ADMIN_IDENTITY is required", "error", err)
		os.Exit(1)
	}

	var (
		accessStore access.Store
		records     store.RecordStore
		trail       audit.Store
		seq         sequencer.Sequencer
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		pgTrail := audit.NewPostgres(db)
		last, err := pgTrail.MaxSeq(context.Background())
		if err != nil {
			log.Error("read last committed sequence", "error", err)
			os.Exit(1)
		}

		accessStore = access.NewPostgres(db, admin)
		records = store.NewPostgres(db)
		trail = pgTrail
		seq = sequencer.NewTransactional(db, last)
		log.Info("using postgres stores", "last_seq", last)
	} else {
		accessStore = access.NewInMemoryStore(admin)
		records = store.NewInMemoryStore()
		trail = audit.NewInMemoryStore()
		seq = sequencer.NewSerial(0)
		log.Info("using in-memory stores")
	}

	var sinks []audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := kafkasink.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("create kafka sink", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, sink)
		log.Info("kafka event sink enabled", "topic", cfg.KafkaTopic)
	}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Error("parse redis URL", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, redisstream.New(redis.NewClient(opts), cfg.RedisStream))
		log.Info("redis stream event sink enabled", "stream", cfg.RedisStream)
	}

	var opts []registry.Option
	opts = append(opts, registry.WithLogger(log), registry.WithMetrics(metrics.New()))
	var publisher *audit.Publisher
	if len(sinks) > 0 {
		publisher = audit.NewPublisher(sinks,
			audit.WithAsyncBuffer(1024),
			audit.WithPublisherLogger(log))
		opts = append(opts, registry.WithPublisher(publisher))
	}

	svc, err := registry.New(accessStore, records, trail, seq, opts...)
	if err != nil {
		log.Error("build registry service", "error", err)
		os.Exit(1)
	}

	tokens := jwtident.NewService(cfg.JWTSigningKey, "certledger")
	router := httpapi.NewRouter(httpapi.NewHandler(svc, log), tokens, log)
	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting certledger", "addr", cfg.Addr, "admin", admin)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	if publisher != nil {
		publisher.Close()
	}
	log.Info("shutdown complete")
}
