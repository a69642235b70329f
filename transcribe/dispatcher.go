package transcribe

import (
	"context"

	"github.com/kbukum/scribe/celery"
)

// DefaultTaskName is the worker's registered transcription task.
const DefaultTaskName = "transcriber.transcribe"

// QueueDispatcher is the celery-backed Dispatcher. It performs no retry:
// retry policy, if any, belongs to the queue infrastructure.
type QueueDispatcher struct {
	client *celery.Client
	task   string
}

// NewQueueDispatcher creates a dispatcher for the given task name.
// An empty task means DefaultTaskName.
func NewQueueDispatcher(client *celery.Client, task string) *QueueDispatcher {
	if task == "" {
		task = DefaultTaskName
	}
	return &QueueDispatcher{client: client, task: task}
}

// Submit enqueues a transcription with the URL as the task's sole
// positional argument. Broker errors surface verbatim.
func (d *QueueDispatcher) Submit(ctx context.Context, url string) (Future, error) {
	res, err := d.client.Submit(ctx, d.task, url)
	if err != nil {
		return nil, err
	}
	return res, nil
}

var _ Dispatcher = (*QueueDispatcher)(nil)
