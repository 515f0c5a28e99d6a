package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"expoconnect_backend/internal/employees"
	"expoconnect_backend/internal/followups"
	leadsrepo "expoconnect_backend/internal/leads/repository"
	"expoconnect_backend/internal/whatsapp"
	"expoconnect_backend/platform/apperr"
	"expoconnect_backend/platform/config"
	"expoconnect_backend/platform/logger"
)

// Worker consumes due reminder tasks and notifies booth staff over the
// WhatsApp gateway.
type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	followUps  followups.Repository
	leads      leadsrepo.LeadsRepository
	employees  employees.Repository
	sender     whatsapp.Sender
	adminPhone string
	log        *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, contact config.ContactConfig, pool *pgxpool.Pool,
	sender whatsapp.Sender, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:     server,
		mux:        mux,
		followUps:  followups.NewRepo(pool),
		leads:      leadsrepo.New(pool),
		employees:  employees.NewRepo(pool),
		sender:     sender,
		adminPhone: contact.GetAdminPhone(),
		log:        log,
	}

	mux.HandleFunc(TaskFollowUpReminder, w.handleFollowUpReminder)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleFollowUpReminder pings the lead's assigned employee (or the admin
// fallback) shortly before a scheduled demo or meeting. A follow-up that
// is no longer pending is silently skipped.
func (w *Worker) handleFollowUpReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowUpReminderPayload(task)
	if err != nil {
		return err
	}

	followUpID, err := uuid.Parse(payload.FollowUpID)
	if err != nil {
		return err
	}

	followUp, err := w.followUps.GetByID(ctx, followUpID)
	if err != nil {
		if apperr.GetKind(err) == apperr.KindNotFound {
			return nil
		}
		return err
	}
	if followUp.Status != followups.StatusPending {
		return nil
	}

	lead, err := w.leads.GetByID(ctx, followUp.LeadID)
	if err != nil {
		return err
	}

	phone := w.adminPhone
	if lead.AssignedEmployeeID != nil {
		if employee, err := w.employees.GetByID(ctx, *lead.AssignedEmployeeID); err == nil {
			phone = employee.Phone
		}
	}
	if phone == "" {
		w.log.Warn("no reminder target for follow-up", "followup_id", followUpID)
		return nil
	}

	text := fmt.Sprintf("Reminder: %s with %s (%s) at %s.",
		followUp.Kind, lead.Name, lead.Company,
		followUp.ScheduledFor.Format("Mon 2 Jan 3:04 PM"))

	if _, err := w.sender.SendMessage(ctx, phone, text); err != nil {
		return fmt.Errorf("send follow-up reminder: %w", err)
	}

	if err := w.followUps.UpdateStatus(ctx, followUpID, followups.StatusNotified); err != nil {
		w.log.Warn("follow-up status update failed", "followup_id", followUpID, "error", err)
	}

	return nil
}
