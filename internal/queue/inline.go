package queue

import (
	"context"

	"github.com/sirupsen/logrus"
)

// InlineRunner executes jobs synchronously in the caller's goroutine. Used
// when no broker is configured: a single track request runs the whole
// ingest→process chain before returning, and handler errors surface directly
// to the caller instead of being retried.
type InlineRunner struct {
	handlers Handlers
	log      *logrus.Logger
}

func NewInlineRunner(handlers Handlers, log *logrus.Logger) *InlineRunner {
	if log == nil {
		log = logrus.New()
	}
	return &InlineRunner{handlers: handlers, log: log}
}

func (r *InlineRunner) Enqueue(ctx context.Context, kind Kind, payload []byte) error {
	h, err := r.handlers.forKind(kind)
	if err != nil {
		return err
	}
	if err := h(ctx, payload); err != nil {
		r.log.WithError(err).WithField("kind", string(kind)).Error("inline job failed")
		return err
	}
	return nil
}
