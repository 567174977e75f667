package services

import (
	"context"
	"encoding/json"

	"github.com/convopulse/convopulse/internal/queue"
)

// EnqueueFunc hands a job to whichever runner is active. It is a parameter
// rather than a queue.Runner so the handlers can be built before the runner
// that will execute them exists.
type EnqueueFunc func(ctx context.Context, kind queue.Kind, payload []byte) error

// PipelineHandlers binds the job kinds to the pipeline services. The ingest
// handler chains a process job through enqueue on success, so the
// ingest→process sequence is identical in inline and broker mode.
func PipelineHandlers(ingest IngestionService, process ProcessingService, enqueue EnqueueFunc) queue.Handlers {
	return queue.Handlers{
		Ingest: func(ctx context.Context, payload []byte) error {
			var req TrackRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return err
			}
			id, err := ingest.Ingest(ctx, req)
			if err != nil {
				return err
			}
			next, err := json.Marshal(ProcessRequest{ConversationID: id})
			if err != nil {
				return err
			}
			return enqueue(ctx, queue.KindProcess, next)
		},
		Process: func(ctx context.Context, payload []byte) error {
			var req ProcessRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return err
			}
			return process.Process(ctx, req.ConversationID)
		},
	}
}
