package queue

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisRunner backs the queue with one Redis Stream per job kind, consumed by
// a consumer group. Failed jobs are re-added to the stream with an
// incremented attempt counter after exponential backoff; after MaxAttempts
// they are logged and acked, leaving dead-job visibility to Redis-side
// tooling.
type RedisRunner struct {
	rdb      *redis.Client
	handlers Handlers
	log      *logrus.Logger

	group          string
	consumerPrefix string
	numWorkers     int
}

type RedisRunnerConfig struct {
	Redis          *redis.Client
	Handlers       Handlers
	Logger         *logrus.Logger
	Group          string
	ConsumerPrefix string
	NumWorkers     int
}

func NewRedisRunner(cfg RedisRunnerConfig) *RedisRunner {
	if cfg.Group == "" {
		cfg.Group = "pipeline-workers"
	}
	if cfg.ConsumerPrefix == "" {
		cfg.ConsumerPrefix = "c"
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 5
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &RedisRunner{
		rdb:            cfg.Redis,
		handlers:       cfg.Handlers,
		log:            cfg.Logger,
		group:          cfg.Group,
		consumerPrefix: cfg.ConsumerPrefix,
		numWorkers:     cfg.NumWorkers,
	}
}

func streamFor(kind Kind) string { return "jobs:" + string(kind) }

func (r *RedisRunner) Enqueue(ctx context.Context, kind Kind, payload []byte) error {
	if _, err := r.handlers.forKind(kind); err != nil {
		return err
	}
	return r.add(ctx, kind, payload, 1)
}

func (r *RedisRunner) add(ctx context.Context, kind Kind, payload []byte, attempt int) error {
	return r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamFor(kind),
		Values: map[string]any{
			"payload": string(payload),
			"attempt": strconv.Itoa(attempt),
		},
	}).Err()
}

// Start creates the consumer groups and launches the worker goroutines. They
// run until ctx is cancelled.
func (r *RedisRunner) Start(ctx context.Context) {
	for _, kind := range []Kind{KindIngest, KindProcess} {
		// ignore BUSYGROUP on restart
		_ = r.rdb.XGroupCreateMkStream(ctx, streamFor(kind), r.group, "0").Err()

		for i := 0; i < r.numWorkers; i++ {
			consumer := r.consumerPrefix + "-" + string(kind) + "-" + strconv.Itoa(i+1)
			go r.runConsumer(ctx, kind, consumer)
		}
	}
}

func (r *RedisRunner) runConsumer(ctx context.Context, kind Kind, consumer string) {
	stream := streamFor(kind)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := r.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    r.group,
			Consumer: consumer,
			Streams:  []string{stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, s := range res {
			for _, msg := range s.Messages {
				if r.handleMsg(ctx, kind, msg) {
					_ = r.rdb.XAck(ctx, stream, r.group, msg.ID).Err()
				}
			}
		}
	}
}

func retryDelay(attempt int) time.Duration {
	return BackoffBase << (attempt - 1)
}

// handleMsg runs one delivery and reports whether the stream entry may be
// acknowledged. A failed job's retry entry is added to the stream before the
// original is acked; when the re-add cannot happen (shutdown mid-backoff,
// unreachable broker) the original stays pending instead, so a scheduled
// retry is never held only in memory.
func (r *RedisRunner) handleMsg(ctx context.Context, kind Kind, msg redis.XMessage) bool {
	payload, _ := msg.Values["payload"].(string)
	attempt := 1
	if s, ok := msg.Values["attempt"].(string); ok {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			attempt = n
		}
	}

	log := r.log.WithFields(logrus.Fields{
		"redis_id": msg.ID,
		"kind":     string(kind),
		"attempt":  attempt,
	})

	h, err := r.handlers.forKind(kind)
	if err != nil {
		log.WithError(err).Error("unroutable job")
		return true
	}

	err = h(ctx, []byte(payload))
	if err == nil {
		return true
	}
	if attempt >= MaxAttempts {
		log.WithError(err).Error("job failed after max attempts")
		return true
	}

	delay := retryDelay(attempt)
	log.WithError(err).WithField("retry_in", delay.String()).Warn("job failed, scheduling retry")

	select {
	case <-ctx.Done():
		return false
	case <-time.After(delay):
	}
	if err := r.add(ctx, kind, []byte(payload), attempt+1); err != nil {
		log.WithError(err).Error("failed to requeue job")
		return false
	}
	return true
}
