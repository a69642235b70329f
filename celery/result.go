package celery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/scribe/redis"
)

// Terminal task states written by the worker to the result backend.
const (
	StateSuccess = "SUCCESS"
	StateFailure = "FAILURE"
	StateRevoked = "REVOKED"
)

// resultKeyPrefix is the result backend key convention.
const resultKeyPrefix = "celery-task-meta-"

// taskMeta is the result backend record.
type taskMeta struct {
	Status    string          `json:"status"`
	Result    json.RawMessage `json:"result"`
	Traceback string          `json:"traceback"`
	TaskID    string          `json:"task_id"`
}

// excInfo is the shape of Result for failed tasks.
type excInfo struct {
	ExcType    string   `json:"exc_type"`
	ExcMessage []string `json:"exc_message"`
}

// TaskError is the worker-side failure surfaced to the caller.
type TaskError struct {
	TaskID  string
	ExcType string
	Message string
}

func (e *TaskError) Error() string {
	return e.Message
}

// AsyncResult is a handle to an in-flight task.
type AsyncResult struct {
	TaskID       string
	rdb          *redis.Client
	pollInterval time.Duration
}

// Wait blocks until the task reaches a terminal state and returns the
// string result. Worker failures come back as *TaskError with the
// worker's message preserved verbatim. Wait does not time out on its
// own; cancel ctx to stop waiting.
func (r *AsyncResult) Wait(ctx context.Context) (string, error) {
	key := resultKeyPrefix + r.TaskID

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		raw, err := r.rdb.Get(ctx, key)
		switch {
		case err == nil:
			meta := taskMeta{}
			if err := json.Unmarshal([]byte(raw), &meta); err != nil {
				return "", fmt.Errorf("celery: decode task meta for %s: %w", r.TaskID, err)
			}
			if done, res, derr := r.settle(meta); done {
				return res, derr
			}
		case !redis.IsNil(err):
			return "", fmt.Errorf("celery: read result for %s: %w", r.TaskID, err)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

// settle interprets a task meta record. Non-terminal states report not done.
func (r *AsyncResult) settle(meta taskMeta) (bool, string, error) {
	switch meta.Status {
	case StateSuccess:
		var text string
		if err := json.Unmarshal(meta.Result, &text); err != nil {
			// Workers may return non-string payloads; surface them raw.
			text = string(meta.Result)
		}
		return true, text, nil

	case StateFailure, StateRevoked:
		info := excInfo{}
		_ = json.Unmarshal(meta.Result, &info)
		msg := strings.Join(info.ExcMessage, " ")
		if msg == "" {
			msg = info.ExcType
		}
		if msg == "" {
			msg = "task failed with no error detail"
		}
		return true, "", &TaskError{TaskID: meta.TaskID, ExcType: info.ExcType, Message: msg}

	default:
		return false, "", nil
	}
}
