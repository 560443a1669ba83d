package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"rentdesk/internal/app/middleware"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/service"
	"rentdesk/internal/app/support"
	"rentdesk/internal/app/uow"
	"rentdesk/internal/infra/broker/kafka"
	rediscache "rentdesk/internal/infra/cache/redis"
	"rentdesk/internal/infra/config"
	mongodb "rentdesk/internal/infra/db/mongo"
	"rentdesk/internal/infra/inbox"
	"rentdesk/internal/infra/obs"
	infraoutbox "rentdesk/internal/infra/outbox"
	"rentdesk/internal/infra/storage/memory"
	"rentdesk/internal/infra/storage/s3"
)

const inboxRetention = 7 * 24 * time.Hour

type infrastructure struct {
	uow         uow.Factory
	idempotency middleware.IdempotencyStore
	outbox      infraoutbox.Store
	inbox       kafka.Inbox
	snapshots   policies.SnapshotCache
	archive     policies.DocumentArchive
	checks      map[string]obs.Check
	closers     []func(context.Context) error
}

func openInfrastructure(ctx context.Context, cfg config.Config, logger *slog.Logger) (*infrastructure, error) {
	infra := &infrastructure{checks: map[string]obs.Check{}}

	switch cfg.StorageMode {
	case config.StorageMongo:
		client, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		db := client.DB
		outboxStore := infraoutbox.NewMongoStore(ctx, db)
		infra.uow = mongodb.Factory{
			DB:             db,
			PropertiesRepo: mongodb.NewPropertyRepository(db),
			BookingsRepo:   mongodb.NewBookingRepository(ctx, db),
			OutboxStore:    outboxStore,
		}
		infra.outbox = outboxStore
		infra.idempotency = mongodb.NewIdempotencyStore(ctx, db, cfg.IdempotencyTTL)
		infra.inbox = inbox.NewStore(ctx, db, cfg.KafkaGroupID, inboxRetention)
		infra.checks["mongo"] = client.Ping
		infra.closers = append(infra.closers, client.Close)
		logger.Info("mongo storage ready", "database", cfg.MongoDB)
	default:
		store := memory.NewStore(cfg.IdempotencyTTL)
		infra.uow = store.Factory()
		infra.outbox = store.Outbox
		infra.idempotency = store.Idempotency
		infra.inbox = store.Inbox
		logger.Info("memory storage ready")
	}

	infra.snapshots = support.RepositorySnapshots{UoWFactory: infra.uow}
	if cfg.RedisAddr != "" {
		client, err := rediscache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, 2*time.Second)
		if err != nil {
			logger.Warn("redis unavailable, snapshot cache disabled", "error", err)
		} else {
			infra.snapshots = &rediscache.SnapshotCache{
				Client: client,
				Source: infra.snapshots,
				TTL:    cfg.SnapshotCacheTTL,
				Logger: logger,
			}
			infra.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
			infra.closers = append(infra.closers, func(context.Context) error { return client.Close() })
		}
	}

	if cfg.S3Endpoint != "" {
		archive, err := s3.NewLeaseArchive(s3.Options{
			Endpoint:       cfg.S3Endpoint,
			PublicEndpoint: cfg.S3PublicEndpoint,
			AccessKey:      cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			Bucket:         cfg.S3Bucket,
			UseSSL:         cfg.S3UseSSL,
			Logger:         logger,
		})
		if err != nil {
			infra.close(logger)
			return nil, err
		}
		infra.archive = archive
		infra.checks["s3"] = archive.Ping
	} else {
		logger.Warn("S3_ENDPOINT not set, lease generation disabled")
	}
	return infra, nil
}

// outboxWorker is nil without brokers; records then stay in the outbox.
func (i *infrastructure) outboxWorker(cfg config.Config, logger *slog.Logger, metrics *obs.Metrics) *infraoutbox.Worker {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Warn("KAFKA_BROKERS not set, outbox relay disabled")
		return nil
	}
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		logger.Error("kafka producer unavailable, outbox relay disabled", "error", err)
		return nil
	}
	i.closers = append(i.closers, func(context.Context) error { return producer.Close() })
	return &infraoutbox.Worker{
		Store:       i.outbox,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Source:      "rentdesk",
		Backoff:     cfg.RetryBackoff,
		Logger:      logger,
		Observer:    metrics,
	}
}

// startListener consumes property events and reprices the affected bookings.
func (i *infrastructure) startListener(ctx context.Context, cfg config.Config, svc *service.Service, logger *slog.Logger) error {
	if len(cfg.KafkaBrokers) == 0 {
		return nil
	}
	listener := &kafka.OverridesListener{
		Inbox:  i.inbox,
		Cache:  i.snapshots,
		Bus:    svc.Commands,
		Logger: logger,
	}
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, nil, listener, logger)
	if err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	i.closers = append(i.closers, func(context.Context) error { return consumer.Close() })
	topic := infraoutbox.TopicFor(cfg.KafkaTopicPrefix, kafka.OverridesUpdatedType)
	go func() {
		if err := consumer.Run(ctx, []string{topic}); err != nil && ctx.Err() == nil {
			logger.Error("kafka consumer stopped", "topic", topic, "error", err)
		}
	}()
	logger.Info("listening for property events", "topic", topic, "group", cfg.KafkaGroupID)
	return nil
}

func (i *infrastructure) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for j := len(i.closers) - 1; j >= 0; j-- {
		if err := i.closers[j](ctx); err != nil {
			logger.Warn("shutdown step failed", "error", err)
		}
	}
}
