package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeDeliverNotification = "notification:deliver"
	QueueName               = "notifications"
)

func NewDeliverTask(ev Event) (*asynq.Task, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDeliverNotification, b), nil
}

// QueueDispatcher enqueues events on Redis so delivery survives restarts and is retried.
type QueueDispatcher struct {
	client *asynq.Client
	log    *zap.Logger
}

func NewQueueDispatcher(client *asynq.Client, log *zap.Logger) *QueueDispatcher {
	return &QueueDispatcher{client: client, log: log}
}

func (q *QueueDispatcher) Dispatch(ctx context.Context, ev Event) error {
	task, err := NewDeliverTask(ev)
	if err != nil {
		return err
	}
	info, err := q.client.EnqueueContext(ctx, task, asynq.Queue(QueueName), asynq.MaxRetry(5))
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	q.log.Debug("notification enqueued", zap.String("task_id", info.ID), zap.String("type", string(ev.Type)))
	return nil
}

// NewServeMux routes queued notification tasks to the deliverer.
func NewServeMux(d *Deliverer, log *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeDeliverNotification, handleDeliverTask(d, log))
	return mux
}

func handleDeliverTask(d *Deliverer, log *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var ev Event
		if err := json.Unmarshal(task.Payload(), &ev); err != nil {
			log.Error("invalid notification payload", zap.Error(err))
			return fmt.Errorf("decode notification: %v: %w", err, asynq.SkipRetry)
		}
		return d.Deliver(ctx, ev)
	}
}

func NewWorker(opt asynq.RedisClientOpt) *asynq.Server {
	return asynq.NewServer(opt, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			QueueName: 1,
		},
	})
}
