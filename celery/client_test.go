package celery

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/redis"
)

func newTestClient(t *testing.T, opts ...Option) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(func() { mini.Close() })

	rdb, err := redis.New(redis.Config{Enabled: true, Addr: mini.Addr()}, logger.NewDefault("celery-test"))
	if err != nil {
		t.Fatalf("failed to create redis client: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })

	opts = append([]Option{WithPollInterval(5 * time.Millisecond)}, opts...)
	return New(rdb, logger.NewDefault("celery-test"), opts...), mini
}

// writeResult simulates a worker writing to the result backend.
func writeResult(t *testing.T, mini *miniredis.Miniredis, taskID string, meta map[string]interface{}) {
	t.Helper()
	raw, err := json.Marshal(meta)
	if err != nil {
		t.Fatalf("marshal meta: %v", err)
	}
	if err := mini.Set(resultKeyPrefix+taskID, string(raw)); err != nil {
		t.Fatalf("set result key: %v", err)
	}
}

func TestSubmit_PublishesProtocolMessage(t *testing.T) {
	client, mini := newTestClient(t)

	res, err := client.Submit(context.Background(), "transcriber.transcribe", "https://x/a.ogg")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if res.TaskID == "" {
		t.Fatal("expected a task id")
	}

	vals, err := mini.List("celery")
	if err != nil {
		t.Fatalf("broker list read failed: %v", err)
	}
	if len(vals) != 1 {
		t.Fatalf("expected one broker message, got %d", len(vals))
	}

	var msg message
	if err := json.Unmarshal([]byte(vals[0]), &msg); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if msg.Headers.Task != "transcriber.transcribe" {
		t.Errorf("expected task name in headers, got %q", msg.Headers.Task)
	}
	if msg.Headers.ID != res.TaskID {
		t.Errorf("header id %q does not match result task id %q", msg.Headers.ID, res.TaskID)
	}
	if msg.Properties.BodyEncoding != "base64" {
		t.Errorf("expected base64 body encoding, got %q", msg.Properties.BodyEncoding)
	}

	body, err := base64.StdEncoding.DecodeString(msg.Body)
	if err != nil {
		t.Fatalf("decode body: %v", err)
	}
	var triple []json.RawMessage
	if err := json.Unmarshal(body, &triple); err != nil || len(triple) != 3 {
		t.Fatalf("expected [args, kwargs, embed] triple, got %s", body)
	}
	var args []string
	if err := json.Unmarshal(triple[0], &args); err != nil {
		t.Fatalf("decode args: %v", err)
	}
	if len(args) != 1 || args[0] != "https://x/a.ogg" {
		t.Errorf("expected positional url argument, got %v", args)
	}
}

func TestSubmit_CustomQueue(t *testing.T) {
	client, mini := newTestClient(t, WithQueue("transcribe-tasks"))

	if _, err := client.Submit(context.Background(), "transcriber.transcribe", "u"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if _, err := mini.List("transcribe-tasks"); err != nil {
		t.Errorf("expected message on custom queue: %v", err)
	}
}

func TestWait_Success(t *testing.T) {
	client, mini := newTestClient(t)

	res, err := client.Submit(context.Background(), "transcriber.transcribe", "u")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	writeResult(t, mini, res.TaskID, map[string]interface{}{
		"status": "SUCCESS", "result": "hello world", "task_id": res.TaskID,
	})

	got, err := res.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if got != "hello world" {
		t.Errorf("expected transcription text, got %q", got)
	}
}

func TestWait_Failure(t *testing.T) {
	client, mini := newTestClient(t)

	res, err := client.Submit(context.Background(), "transcriber.transcribe", "u")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	writeResult(t, mini, res.TaskID, map[string]interface{}{
		"status": "FAILURE",
		"result": map[string]interface{}{
			"exc_type":    "Exception",
			"exc_message": []string{"timeout"},
		},
		"task_id": res.TaskID,
	})

	_, err = res.Wait(context.Background())
	if err == nil {
		t.Fatal("expected worker failure error")
	}
	var taskErr *TaskError
	if !errors.As(err, &taskErr) {
		t.Fatalf("expected *TaskError, got %T", err)
	}
	if taskErr.Error() != "timeout" {
		t.Errorf("worker message must surface verbatim, got %q", taskErr.Error())
	}
}

func TestWait_IgnoresPendingStates(t *testing.T) {
	client, mini := newTestClient(t)

	res, err := client.Submit(context.Background(), "transcriber.transcribe", "u")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// STARTED is a progress update, not a terminal state.
	writeResult(t, mini, res.TaskID, map[string]interface{}{
		"status": "STARTED", "result": map[string]interface{}{"action": "fetch_file"},
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		got, werr := res.Wait(context.Background())
		if werr != nil {
			t.Errorf("Wait failed: %v", werr)
		}
		if got != "done" {
			t.Errorf("expected final result, got %q", got)
		}
	}()

	time.Sleep(20 * time.Millisecond)
	writeResult(t, mini, res.TaskID, map[string]interface{}{
		"status": "SUCCESS", "result": "done", "task_id": res.TaskID,
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not settle after success was written")
	}
}

func TestWait_ContextCancel(t *testing.T) {
	client, _ := newTestClient(t)

	res, err := client.Submit(context.Background(), "transcriber.transcribe", "u")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if _, err := res.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context deadline error, got %v", err)
	}
}
