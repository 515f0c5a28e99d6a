package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
)

type schedulerConfig struct {
	redisURL string
}

func (c schedulerConfig) GetRedisURL() string       { return c.redisURL }
func (c schedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c schedulerConfig) GetAsynqQueueName() string { return "test" }
func (c schedulerConfig) GetAsynqConcurrency() int  { return 1 }

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(schedulerConfig{}); err == nil {
		t.Fatal("NewClient() with empty redis url should fail")
	}
}

func TestEnqueueFollowUpReminder(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewClient(schedulerConfig{redisURL: "redis://" + srv.Addr()})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	err = client.EnqueueFollowUpReminder(context.Background(), uuid.New(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("EnqueueFollowUpReminder() error = %v", err)
	}

	// asynq stores scheduled tasks under its own key namespace.
	keys := srv.Keys()
	if len(keys) == 0 {
		t.Fatal("no keys written to redis, task was not enqueued")
	}
}

func TestFollowUpReminderPayloadRoundTrip(t *testing.T) {
	id := uuid.New()
	task, err := NewFollowUpReminderTask(FollowUpReminderPayload{FollowUpID: id.String()})
	if err != nil {
		t.Fatalf("NewFollowUpReminderTask() error = %v", err)
	}
	if task.Type() != TaskFollowUpReminder {
		t.Errorf("task type = %q, want %q", task.Type(), TaskFollowUpReminder)
	}

	payload, err := ParseFollowUpReminderPayload(task)
	if err != nil {
		t.Fatalf("ParseFollowUpReminderPayload() error = %v", err)
	}
	if payload.FollowUpID != id.String() {
		t.Errorf("follow-up id = %q, want %q", payload.FollowUpID, id.String())
	}
}
