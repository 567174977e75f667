package queue

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRetryDelay(t *testing.T) {
	Convey("retryDelay backs off exponentially from the base", t, func() {
		So(retryDelay(1), ShouldEqual, time.Second)
		So(retryDelay(2), ShouldEqual, 2*time.Second)
	})
}

func TestRedisRunnerAckDecisions(t *testing.T) {
	Convey("handleMsg only allows acking entries that are done or durably requeued", t, func() {
		// Points at a closed port: any command the runner issues fails, which
		// is exactly the broker-unreachable case the requeue path must survive.
		unreachable := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})

		delivery := func(attempt int) redis.XMessage {
			return redis.XMessage{
				ID: "1-1",
				Values: map[string]any{
					"payload": `{}`,
					"attempt": strconv.Itoa(attempt),
				},
			}
		}

		newRunner := func(process HandlerFunc) *RedisRunner {
			return NewRedisRunner(RedisRunnerConfig{
				Redis:    unreachable,
				Handlers: Handlers{Process: process},
			})
		}

		Convey("a successful job is acked", func() {
			r := newRunner(func(ctx context.Context, payload []byte) error { return nil })
			So(r.handleMsg(context.Background(), KindProcess, delivery(1)), ShouldBeTrue)
		})

		Convey("a job failing its final attempt is acked and dropped", func() {
			r := newRunner(func(ctx context.Context, payload []byte) error { return errors.New("boom") })
			So(r.handleMsg(context.Background(), KindProcess, delivery(MaxAttempts)), ShouldBeTrue)
		})

		Convey("an unroutable kind is acked rather than redelivered forever", func() {
			r := NewRedisRunner(RedisRunnerConfig{Redis: unreachable, Handlers: Handlers{}})
			So(r.handleMsg(context.Background(), KindProcess, delivery(1)), ShouldBeTrue)
		})

		Convey("shutdown during the backoff window leaves the entry pending", func() {
			r := newRunner(func(ctx context.Context, payload []byte) error { return errors.New("boom") })
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			So(r.handleMsg(ctx, KindProcess, delivery(1)), ShouldBeFalse)
		})

		Convey("a failed requeue leaves the entry pending", func() {
			r := newRunner(func(ctx context.Context, payload []byte) error { return errors.New("boom") })
			So(r.handleMsg(context.Background(), KindProcess, delivery(1)), ShouldBeFalse)
		})
	})
}
