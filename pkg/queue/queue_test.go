package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewQueue(client, nil), mr
}

func TestEnqueueDequeueRoundtrip(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	payload := RecordingUploadPayload{
		RecordingID: uuid.New(),
		InterviewID: uuid.New(),
		SourceURL:   "https://provider.example.com/rec.mp4",
	}
	if err := q.EnqueueRecordingUpload(ctx, payload); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	dctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	job, key, err := q.Dequeue(dctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if job == nil {
		t.Fatal("dequeue returned nil job")
	}
	if key != QueueRecordings {
		t.Errorf("key = %q, want %q", key, QueueRecordings)
	}
	if job.Type != JobTypeRecordingUpload {
		t.Errorf("type = %q, want %q", job.Type, JobTypeRecordingUpload)
	}
	if job.Attempt != 0 {
		t.Errorf("attempt = %d, want 0", job.Attempt)
	}

	var got RecordingUploadPayload
	if err := json.Unmarshal(job.Payload, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got != payload {
		t.Errorf("payload = %+v, want %+v", got, payload)
	}
}

func TestRetryIncrementsAttempt(t *testing.T) {
	q, mr := newTestQueue(t)
	ctx := context.Background()

	job := &Job{ID: uuid.NewString(), Type: JobTypeRecordingUpload, Payload: json.RawMessage(`{}`)}
	if err := q.Retry(ctx, job); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if job.Attempt != 1 {
		t.Errorf("attempt = %d, want 1", job.Attempt)
	}
	if n, _ := mr.List(QueueRecordings); len(n) != 1 {
		t.Errorf("queue length = %d, want 1", len(n))
	}
	if mr.Exists(QueueDLQ) {
		t.Error("job landed in DLQ before exhausting retries")
	}
}

func TestRetryMovesExhaustedJobToDLQ(t *testing.T) {
	q, mr := newTestQueue(t)
	ctx := context.Background()

	job := &Job{
		ID:      uuid.NewString(),
		Type:    JobTypeRecordingUpload,
		Payload: json.RawMessage(`{}`),
		Attempt: MaxRetries - 1,
	}
	if err := q.Retry(ctx, job); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if mr.Exists(QueueRecordings) {
		t.Error("exhausted job was re-enqueued to the work queue")
	}
	dlq, err := mr.List(QueueDLQ)
	if err != nil {
		t.Fatalf("list dlq: %v", err)
	}
	if len(dlq) != 1 {
		t.Fatalf("dlq length = %d, want 1", len(dlq))
	}
	var dead Job
	if err := json.Unmarshal([]byte(dlq[0]), &dead); err != nil {
		t.Fatalf("unmarshal dlq job: %v", err)
	}
	if dead.Attempt != MaxRetries {
		t.Errorf("dlq attempt = %d, want %d", dead.Attempt, MaxRetries)
	}
}
