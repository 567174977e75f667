// Package queue decouples request handling from conversation processing. Two
// runner strategies exist behind the same interface: InlineRunner executes
// handlers synchronously in the caller's flow, RedisRunner hands jobs to
// Redis Streams consumed by worker goroutines with retry and backoff. The
// strategy is picked once at construction, based on whether Redis is
// configured.
package queue

import (
	"context"
	"fmt"
	"time"
)

type Kind string

const (
	KindIngest  Kind = "ingest"
	KindProcess Kind = "process"
)

const (
	// MaxAttempts bounds broker-mode retries per job.
	MaxAttempts = 3
	// BackoffBase is the exponential backoff base delay between attempts.
	BackoffBase = time.Second
)

// HandlerFunc consumes one job payload. A returned error makes the broker
// retry (up to MaxAttempts); the inline runner surfaces it to the caller.
type HandlerFunc func(ctx context.Context, payload []byte) error

// Handlers binds each job kind to its handler. The ingest handler is expected
// to enqueue a process job itself on success, so the ingest→process chain is
// identical in both modes.
type Handlers struct {
	Ingest  HandlerFunc
	Process HandlerFunc
}

func (h Handlers) forKind(kind Kind) (HandlerFunc, error) {
	switch kind {
	case KindIngest:
		if h.Ingest != nil {
			return h.Ingest, nil
		}
	case KindProcess:
		if h.Process != nil {
			return h.Process, nil
		}
	}
	return nil, fmt.Errorf("queue: no handler for job kind %q", kind)
}

// Runner enqueues a job for eventual execution.
type Runner interface {
	Enqueue(ctx context.Context, kind Kind, payload []byte) error
}
