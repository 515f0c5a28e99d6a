// Package dispatcher delivers due drip messages. A single periodic tick
// claims due rows, renders them against live lead fields, and pushes them
// through the WhatsApp gateway with bounded retries.
package dispatcher

import (
	"context"
	"time"

	"expoconnect_backend/internal/drip/domain"
	"expoconnect_backend/internal/drip/repository"
	"expoconnect_backend/internal/events"
	leadsdomain "expoconnect_backend/internal/leads/domain"
	leadsrepo "expoconnect_backend/internal/leads/repository"
	"expoconnect_backend/internal/whatsapp"
	"expoconnect_backend/platform/config"
	"expoconnect_backend/platform/logger"
)

// Dispatcher owns the periodic delivery tick.
type Dispatcher struct {
	repo        repository.DripRepository
	leads       leadsrepo.LeadsRepository
	sender      whatsapp.Sender
	bus         events.Bus
	log         *logger.Logger
	interval    time.Duration
	batchSize   int
	maxAttempts int
	backoff     time.Duration
}

// New creates a dispatcher from config.
func New(cfg config.DripConfig, repo repository.DripRepository, leads leadsrepo.LeadsRepository,
	sender whatsapp.Sender, bus events.Bus, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		repo:        repo,
		leads:       leads,
		sender:      sender,
		bus:         bus,
		log:         log,
		interval:    cfg.GetDripTickInterval(),
		batchSize:   cfg.GetDripBatchSize(),
		maxAttempts: cfg.GetDripMaxAttempts(),
		backoff:     cfg.GetDripRetryBackoff(),
	}
}

// Run ticks until the context is cancelled. A failed tick is logged and
// never prevents the next tick.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.log.Info("drip dispatcher started", "interval", d.interval.String())

	for {
		select {
		case <-ctx.Done():
			d.log.Info("drip dispatcher stopped")
			return
		case <-ticker.C:
		}

		d.Tick(ctx)
	}
}

// Tick runs one dispatch pass: claim due rows, deliver each, close out
// finished assignments.
func (d *Dispatcher) Tick(ctx context.Context) {
	due, err := d.repo.ClaimDue(ctx, time.Now(), d.batchSize)
	if err != nil {
		d.log.Error("drip claim failed", "error", err)
		return
	}

	sent, failed := 0, 0
	for _, msg := range due {
		if d.deliver(ctx, msg) {
			sent++
		} else {
			failed++
		}
	}

	completed, err := d.repo.CompleteFinished(ctx)
	if err != nil {
		d.log.Error("drip completion sweep failed", "error", err)
	} else if completed > 0 {
		d.log.Info("drip assignments completed", "count", completed)
	}

	if len(due) > 0 {
		d.log.DispatchTick(len(due), sent, failed)
	}
}

// deliver sends one claimed row and settles its status. Returns true when
// the message went out.
func (d *Dispatcher) deliver(ctx context.Context, msg domain.DueMessage) bool {
	body := domain.RenderTemplate(msg.BodyTemplate, msg)

	deliveryID, err := d.sender.SendMessage(ctx, msg.LeadPhone, body)
	if err != nil {
		d.settleFailure(ctx, msg, err)
		return false
	}

	if err := d.repo.MarkSent(ctx, msg.ID, deliveryID, time.Now()); err != nil {
		d.log.Error("mark sent failed", "scheduled_message_id", msg.ID, "error", err)
		return false
	}

	// Keep the transcript complete; drip sends show up in the lead's
	// conversation like any other system message.
	_, err = d.leads.CreateMessage(ctx, leadsrepo.CreateMessageParams{
		LeadID:     msg.LeadID,
		SenderKind: leadsdomain.SenderSystem,
		Body:       body,
		DeliveryID: &deliveryID,
	})
	if err != nil {
		d.log.Warn("transcript append failed", "lead_id", msg.LeadID, "error", err)
	}

	return true
}

// settleFailure retries below the attempt cap and marks the row
// permanently failed at it, alerting operators through the event bus.
func (d *Dispatcher) settleFailure(ctx context.Context, msg domain.DueMessage, sendErr error) {
	attempts := msg.Attempts + 1
	d.log.DeliveryFailed(msg.ID.String(), attempts, sendErr)

	if attempts < d.maxAttempts {
		nextAttempt := time.Now().Add(time.Duration(attempts) * d.backoff)
		if err := d.repo.ReturnForRetry(ctx, msg.ID, sendErr.Error(), nextAttempt); err != nil {
			d.log.Error("retry reschedule failed", "scheduled_message_id", msg.ID, "error", err)
		}
		return
	}

	if err := d.repo.MarkFailed(ctx, msg.ID, sendErr.Error()); err != nil {
		d.log.Error("mark failed failed", "scheduled_message_id", msg.ID, "error", err)
		return
	}

	d.bus.Publish(ctx, events.DeliveryPermanentlyFailed{
		BaseEvent:          events.NewBaseEvent(),
		LeadID:             msg.LeadID,
		ScheduledMessageID: msg.ID,
		LeadPhone:          msg.LeadPhone,
		Attempts:           attempts,
		LastError:          sendErr.Error(),
	})
}
