package dispatcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"expoconnect_backend/internal/drip/domain"
	"expoconnect_backend/internal/drip/repository"
	"expoconnect_backend/internal/events"
	leadsdomain "expoconnect_backend/internal/leads/domain"
	leadsrepo "expoconnect_backend/internal/leads/repository"
	"expoconnect_backend/platform/logger"
)

// fakeDripRepo implements the parts of the repository the dispatcher
// touches; the embedded interface panics on anything else.
type fakeDripRepo struct {
	repository.DripRepository

	due []domain.DueMessage

	claims    int
	sentIDs   []uuid.UUID
	retried   []retryCall
	failedIDs []uuid.UUID
	completed int
}

type retryCall struct {
	id            uuid.UUID
	nextAttemptAt time.Time
}

func (f *fakeDripRepo) ClaimDue(_ context.Context, _ time.Time, _ int) ([]domain.DueMessage, error) {
	f.claims++
	due := f.due
	f.due = nil // claimed rows are no longer pending
	return due, nil
}

func (f *fakeDripRepo) MarkSent(_ context.Context, id uuid.UUID, _ string, _ time.Time) error {
	f.sentIDs = append(f.sentIDs, id)
	return nil
}

func (f *fakeDripRepo) ReturnForRetry(_ context.Context, id uuid.UUID, _ string, nextAttemptAt time.Time) error {
	f.retried = append(f.retried, retryCall{id: id, nextAttemptAt: nextAttemptAt})
	return nil
}

func (f *fakeDripRepo) MarkFailed(_ context.Context, id uuid.UUID, _ string) error {
	f.failedIDs = append(f.failedIDs, id)
	return nil
}

func (f *fakeDripRepo) CompleteFinished(_ context.Context) (int, error) {
	return f.completed, nil
}

type fakeLeadsRepo struct {
	leadsrepo.LeadsRepository

	mu       sync.Mutex
	messages []leadsrepo.CreateMessageParams
}

func (f *fakeLeadsRepo) CreateMessage(_ context.Context, params leadsrepo.CreateMessageParams) (leadsdomain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, params)
	return leadsdomain.Message{ID: uuid.New()}, nil
}

type fakeSender struct {
	err   error
	calls int
	sent  []string
}

func (f *fakeSender) SendMessage(_ context.Context, phone, message string) (string, error) {
	f.calls++
	f.sent = append(f.sent, message)
	if f.err != nil {
		return "", f.err
	}
	return "wamid-123", nil
}

type dispatcherConfig struct{}

func (dispatcherConfig) GetDripTickInterval() time.Duration  { return time.Minute }
func (dispatcherConfig) GetDripBatchSize() int               { return 50 }
func (dispatcherConfig) GetDripMaxAttempts() int             { return 3 }
func (dispatcherConfig) GetDripRetryBackoff() time.Duration  { return 5 * time.Minute }
func (dispatcherConfig) GetDripDefinitionsPath() string      { return "" }
func (dispatcherConfig) GetDefaultDripName() string          { return "post_confirmation" }

func dueMessage(attempts int) domain.DueMessage {
	return domain.DueMessage{
		ScheduledMessage: domain.ScheduledMessage{
			ID:           uuid.New(),
			AssignmentID: uuid.New(),
			LeadID:       uuid.New(),
			BodyTemplate: "Hi {{name}} from {{company}}!",
			Status:       domain.ScheduledSending,
			Attempts:     attempts,
		},
		LeadPhone:   "+919876543210",
		LeadName:    "Priya",
		LeadCompany: "Acme",
	}
}

func newDispatcher(repo *fakeDripRepo, leads *fakeLeadsRepo, sender *fakeSender, bus events.Bus) *Dispatcher {
	return New(dispatcherConfig{}, repo, leads, sender, bus, logger.New("test"))
}

func TestTickSendsRenderedMessageAndAppendsTranscript(t *testing.T) {
	msg := dueMessage(0)
	repo := &fakeDripRepo{due: []domain.DueMessage{msg}}
	leads := &fakeLeadsRepo{}
	sender := &fakeSender{}
	bus := events.NewInMemoryBus(logger.New("test"))

	newDispatcher(repo, leads, sender, bus).Tick(context.Background())

	if sender.calls != 1 {
		t.Fatalf("sender called %d times, want 1", sender.calls)
	}
	if want := "Hi Priya from Acme!"; sender.sent[0] != want {
		t.Errorf("sent body = %q, want %q", sender.sent[0], want)
	}
	if len(repo.sentIDs) != 1 || repo.sentIDs[0] != msg.ID {
		t.Errorf("sent ids = %v, want [%s]", repo.sentIDs, msg.ID)
	}
	if len(leads.messages) != 1 {
		t.Fatalf("transcript appends = %d, want 1", len(leads.messages))
	}
	if leads.messages[0].SenderKind != leadsdomain.SenderSystem {
		t.Errorf("transcript sender = %q, want system", leads.messages[0].SenderKind)
	}
}

func TestSecondTickSeesNothingToClaim(t *testing.T) {
	repo := &fakeDripRepo{due: []domain.DueMessage{dueMessage(0)}}
	sender := &fakeSender{}
	bus := events.NewInMemoryBus(logger.New("test"))
	d := newDispatcher(repo, &fakeLeadsRepo{}, sender, bus)

	d.Tick(context.Background())
	d.Tick(context.Background())

	if repo.claims != 2 {
		t.Errorf("claims = %d, want 2", repo.claims)
	}
	if sender.calls != 1 {
		t.Errorf("sender called %d times, want 1 (no double delivery)", sender.calls)
	}
}

func TestTransientFailureReturnsRowForRetryWithBackoff(t *testing.T) {
	msg := dueMessage(0)
	repo := &fakeDripRepo{due: []domain.DueMessage{msg}}
	sender := &fakeSender{err: errors.New("gateway timeout")}
	bus := events.NewInMemoryBus(logger.New("test"))

	before := time.Now()
	newDispatcher(repo, &fakeLeadsRepo{}, sender, bus).Tick(context.Background())

	if len(repo.failedIDs) != 0 {
		t.Fatalf("row marked permanently failed on first attempt")
	}
	if len(repo.retried) != 1 {
		t.Fatalf("retries = %d, want 1", len(repo.retried))
	}
	minNext := before.Add(5 * time.Minute)
	if repo.retried[0].nextAttemptAt.Before(minNext) {
		t.Errorf("next attempt %s earlier than backoff floor %s", repo.retried[0].nextAttemptAt, minNext)
	}
}

func TestFailureAtAttemptCapIsPermanentAndAlerts(t *testing.T) {
	msg := dueMessage(2) // third attempt hits the cap of 3
	repo := &fakeDripRepo{due: []domain.DueMessage{msg}}
	sender := &fakeSender{err: errors.New("gateway down")}

	log := logger.New("test")
	bus := events.NewInMemoryBus(log)
	alerts := make(chan events.DeliveryPermanentlyFailed, 1)
	bus.Subscribe(events.DeliveryPermanentlyFailed{}.EventName(), events.HandlerFunc(
		func(_ context.Context, e events.Event) error {
			alerts <- e.(events.DeliveryPermanentlyFailed)
			return nil
		}))

	d := newDispatcher(repo, &fakeLeadsRepo{}, sender, bus)
	d.Tick(context.Background())

	if len(repo.retried) != 0 {
		t.Errorf("row retried past the attempt cap")
	}
	if len(repo.failedIDs) != 1 || repo.failedIDs[0] != msg.ID {
		t.Fatalf("failed ids = %v, want [%s]", repo.failedIDs, msg.ID)
	}

	// Publish is async; wait for the handler.
	select {
	case alert := <-alerts:
		if alert.Attempts != 3 {
			t.Errorf("alert attempts = %d, want 3", alert.Attempts)
		}
	case <-time.After(time.Second):
		t.Fatal("no operator alert published")
	}
}
