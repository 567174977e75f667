package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestInlineRunner(t *testing.T) {
	Convey("InlineRunner executes jobs synchronously", t, func() {
		ctx := context.Background()

		Convey("a job runs in the caller's flow", func() {
			ran := 0
			r := NewInlineRunner(Handlers{
				Process: func(ctx context.Context, payload []byte) error {
					ran++
					return nil
				},
			}, nil)

			So(r.Enqueue(ctx, KindProcess, []byte(`{}`)), ShouldBeNil)
			So(ran, ShouldEqual, 1)
		})

		Convey("handler errors surface to the caller", func() {
			boom := errors.New("boom")
			r := NewInlineRunner(Handlers{
				Ingest: func(ctx context.Context, payload []byte) error { return boom },
			}, nil)

			So(r.Enqueue(ctx, KindIngest, nil), ShouldEqual, boom)
		})

		Convey("a kind without a handler is rejected", func() {
			r := NewInlineRunner(Handlers{}, nil)
			So(r.Enqueue(ctx, KindProcess, nil), ShouldNotBeNil)
		})

		Convey("an ingest handler that chains a process job runs the whole chain before returning", func() {
			var processed []string

			var runner Runner
			handlers := Handlers{
				Ingest: func(ctx context.Context, payload []byte) error {
					var in map[string]string
					if err := json.Unmarshal(payload, &in); err != nil {
						return err
					}
					next, _ := json.Marshal(map[string]string{"conversation_id": in["id"] + "-internal"})
					return runner.Enqueue(ctx, KindProcess, next)
				},
				Process: func(ctx context.Context, payload []byte) error {
					var in map[string]string
					if err := json.Unmarshal(payload, &in); err != nil {
						return err
					}
					processed = append(processed, in["conversation_id"])
					return nil
				},
			}
			runner = NewInlineRunner(handlers, nil)

			So(runner.Enqueue(ctx, KindIngest, []byte(`{"id":"demo_1"}`)), ShouldBeNil)
			So(processed, ShouldResemble, []string{"demo_1-internal"})
		})
	})
}
