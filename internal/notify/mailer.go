// Package notify delivers operator-facing alerts. The only alert today is
// a permanent drip delivery failure, raised through the event bus by the
// dispatcher and mailed to the configured operator address.
package notify

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"

	"expoconnect_backend/internal/events"
	"expoconnect_backend/platform/config"
	"expoconnect_backend/platform/logger"
)

// Mailer sends operator alert emails over SMTP.
type Mailer struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
	operator  string
	enabled   bool
	log       *logger.Logger
}

// NewMailer creates a mailer from config. A disabled mailer still
// subscribes but only logs.
func NewMailer(cfg config.MailConfig, log *logger.Logger) *Mailer {
	return &Mailer{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetMailFromName(),
		fromEmail: cfg.GetMailFromAddress(),
		operator:  cfg.GetOperatorEmail(),
		enabled:   cfg.IsMailEnabled(),
		log:       log,
	}
}

// RegisterHandlers subscribes the mailer to delivery failure events.
func (m *Mailer) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.DeliveryPermanentlyFailed{}.EventName(), m)
}

// Handle routes events to the appropriate alert.
func (m *Mailer) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.DeliveryPermanentlyFailed:
		return m.alertDeliveryFailed(ctx, e)
	default:
		return nil
	}
}

func (m *Mailer) alertDeliveryFailed(ctx context.Context, e events.DeliveryPermanentlyFailed) error {
	if !m.enabled {
		m.log.Warn("mail disabled, delivery failure alert suppressed",
			"scheduled_message_id", e.ScheduledMessageID, "lead_id", e.LeadID)
		return nil
	}

	subject := fmt.Sprintf("Drip delivery permanently failed for lead %s", e.LeadID)
	body := fmt.Sprintf(
		"<p>A scheduled WhatsApp message could not be delivered after %d attempts.</p>"+
			"<ul><li>Lead: %s</li><li>Phone: %s</li><li>Scheduled message: %s</li>"+
			"<li>Last error: %s</li></ul>"+
			"<p>The message will not be retried. Please follow up with the lead manually.</p>",
		e.Attempts, e.LeadID, e.LeadPhone, e.ScheduledMessageID, e.LastError)

	return m.send(ctx, m.operator, subject, body)
}

func (m *Mailer) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(m.fromName, m.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(m.host,
		gomail.WithPort(m.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.username),
		gomail.WithPassword(m.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}
