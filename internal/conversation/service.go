package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"expoconnect_backend/internal/conversation/classifier"
	"expoconnect_backend/internal/conversation/correction"
	convdomain "expoconnect_backend/internal/conversation/domain"
	dripdomain "expoconnect_backend/internal/drip/domain"
	"expoconnect_backend/internal/employees"
	"expoconnect_backend/internal/events"
	"expoconnect_backend/internal/followups"
	leadsdomain "expoconnect_backend/internal/leads/domain"
	leadsrepo "expoconnect_backend/internal/leads/repository"
	"expoconnect_backend/internal/whatsapp"
	"expoconnect_backend/platform/apperr"
	"expoconnect_backend/platform/logger"
	"expoconnect_backend/platform/phone"
)

// InboundEvent is one normalized message from the WhatsApp gateway.
type InboundEvent struct {
	FromPhone  string
	Kind       leadsdomain.MessageKind
	Text       string
	MediaRef   *string
	ReceivedAt time.Time
}

// DripControl is the slice of the drip service the executor drives.
type DripControl interface {
	EnrollByName(ctx context.Context, leadID uuid.UUID, dripName string) (dripdomain.Assignment, error)
	StopForLead(ctx context.Context, leadID uuid.UUID) error
}

// FollowUpCreator creates follow-up appointments from conversation commands.
type FollowUpCreator interface {
	Create(ctx context.Context, leadID uuid.UUID, kind convdomain.FollowUpKind, scheduledFor time.Time, notes string) (followups.FollowUp, error)
}

// Service is the conversation executor. It identifies the sender, runs
// classification, applies the state machine's verdict behind a
// compare-and-set write, and executes the emitted commands.
type Service struct {
	leads      leadsrepo.LeadsRepository
	employees  employees.Repository
	classifier *classifier.Classifier
	machine    Machine
	drips      DripControl
	followUps  FollowUpCreator
	sender     whatsapp.Sender
	bus        events.Bus
	adminPhone string
	log        *logger.Logger
}

// NewService wires the conversation executor.
func NewService(
	leads leadsrepo.LeadsRepository,
	employeeRepo employees.Repository,
	cls *classifier.Classifier,
	machine Machine,
	drips DripControl,
	followUps FollowUpCreator,
	sender whatsapp.Sender,
	bus events.Bus,
	adminPhone string,
	log *logger.Logger,
) *Service {
	return &Service{
		leads:      leads,
		employees:  employeeRepo,
		classifier: cls,
		machine:    machine,
		drips:      drips,
		followUps:  followUps,
		sender:     sender,
		bus:        bus,
		adminPhone: adminPhone,
		log:        log,
	}
}

// HandleInbound processes one gateway event end to end. Errors returned
// here are infrastructure failures; classification and transition problems
// are absorbed into the conversation itself.
func (s *Service) HandleInbound(ctx context.Context, event InboundEvent) error {
	lead, senderKind, err := s.identifySender(ctx, event.FromPhone)
	if err != nil {
		return err
	}

	if _, err := s.leads.CreateMessage(ctx, leadsrepo.CreateMessageParams{
		LeadID:     lead.ID,
		SenderKind: senderKind,
		Body:       event.Text,
		MediaRef:   event.MediaRef,
	}); err != nil {
		return err
	}

	s.log.InboundMessage(lead.ID.String(), string(senderKind), string(event.Kind))
	s.bus.Publish(ctx, events.MessageReceived{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     lead.ID,
		SenderKind: string(senderKind),
		Kind:       string(event.Kind),
		ReceivedAt: event.ReceivedAt,
	})

	if event.Kind == leadsdomain.MessageImage {
		return s.handleCardImage(ctx, lead)
	}

	intent := s.classifier.Classify(ctx, classifier.Input{
		Text:       event.Text,
		State:      lead.ConversationState,
		SenderKind: senderKind,
	})
	s.log.IntentClassified(lead.ID.String(), string(intent.Kind), string(intent.Layer), intent.Confidence)

	var directive *convdomain.CorrectionDirective
	if intent.Kind == convdomain.IntentCorrection {
		if d, ok := correction.Parse(event.Text); ok {
			if prompt, valid := validateDirective(d); !valid {
				// Invalid value: surface a field-specific prompt and leave
				// the state untouched rather than storing a bad value.
				return s.reply(ctx, lead, prompt)
			}
			directive = &d
		}
	}

	input := TransitionInput{
		State:      lead.ConversationState,
		Intent:     intent,
		Directive:  directive,
		SenderKind: senderKind,
		Text:       event.Text,
		LeadName:   lead.Name,
		Company:    lead.Company,
		Now:        time.Now(),
	}
	result := s.machine.Transition(input)

	lead, result, ok := s.commitTransition(ctx, lead, input, result)
	if !ok {
		return nil
	}

	return s.execute(ctx, lead, intent, result)
}

// commitTransition writes the new state behind a compare-and-set. On a
// conflict it re-reads, recomputes the transition against the fresh state,
// and retries exactly once; a second conflict degrades to a rejected
// transition with no commands.
func (s *Service) commitTransition(ctx context.Context, lead leadsdomain.Lead,
	input TransitionInput, result TransitionResult) (leadsdomain.Lead, TransitionResult, bool) {

	for attempt := 0; ; attempt++ {
		if result.NewState == lead.ConversationState {
			return lead, result, true
		}

		err := s.leads.UpdateConversationStateCAS(ctx, lead.ID, lead.ConversationState, result.NewState)
		if err == nil {
			s.log.StateTransition(lead.ID.String(), string(lead.ConversationState),
				string(result.NewState), string(input.Intent.Kind))
			s.bus.Publish(ctx, events.StateChanged{
				BaseEvent: events.NewBaseEvent(),
				LeadID:    lead.ID,
				FromState: string(lead.ConversationState),
				ToState:   string(result.NewState),
				Intent:    string(input.Intent.Kind),
			})
			lead.ConversationState = result.NewState
			if result.NewState == leadsdomain.StateConfirmed {
				s.segmentLead(ctx, lead.ID, lead.Designation)
			}
			return lead, result, true
		}

		if apperr.GetKind(err) != apperr.KindConflict || attempt >= 1 {
			s.log.Warn("transition rejected", "lead_id", lead.ID,
				"from", lead.ConversationState, "to", result.NewState, "error", err)
			return lead, result, false
		}

		fresh, readErr := s.leads.GetByID(ctx, lead.ID)
		if readErr != nil {
			s.log.Error("re-read after state conflict failed", "lead_id", lead.ID, "error", readErr)
			return lead, result, false
		}

		lead = fresh
		input.State = fresh.ConversationState
		result = s.machine.Transition(input)
	}
}

// execute applies the machine's commands in order.
func (s *Service) execute(ctx context.Context, lead leadsdomain.Lead,
	intent convdomain.IntentResult, result TransitionResult) error {

	for _, cmd := range result.Commands {
		switch c := cmd.(type) {
		case convdomain.Reply:
			if err := s.reply(ctx, lead, c.Text); err != nil {
				return err
			}
		case convdomain.NotifyEmployee:
			s.notifyEmployee(ctx, lead, c.Text)
		case convdomain.StartDrip:
			if _, err := s.drips.EnrollByName(ctx, lead.ID, c.DripName); err != nil {
				if apperr.GetKind(err) == apperr.KindConflict {
					s.log.Info("drip enrollment skipped, live assignment exists", "lead_id", lead.ID)
				} else {
					s.log.Error("drip enrollment failed", "lead_id", lead.ID, "drip", c.DripName, "error", err)
				}
			}
		case convdomain.StopDrip:
			if err := s.drips.StopForLead(ctx, lead.ID); err != nil {
				s.log.Error("drip stop failed", "lead_id", lead.ID, "error", err)
			}
		case convdomain.ApplyCorrection:
			if err := s.applyCorrection(ctx, lead.ID, c.Directive); err != nil {
				return err
			}
		case convdomain.CreateFollowUp:
			notes := fmt.Sprintf("Requested over WhatsApp by %s", lead.Phone)
			if _, err := s.followUps.Create(ctx, lead.ID, c.Kind, c.At, notes); err != nil {
				s.log.Error("follow-up creation failed", "lead_id", lead.ID, "error", err)
			}
		case convdomain.LogInternal:
			s.log.Info("conversation note", "lead_id", lead.ID, "note", c.Note, "intent", intent.Kind)
		}
	}

	return nil
}

// handleCardImage advances the card capture flow for photo messages. The
// actual field extraction runs in an external pipeline; here the state
// just reflects that a card arrived.
func (s *Service) handleCardImage(ctx context.Context, lead leadsdomain.Lead) error {
	if lead.ConversationState != leadsdomain.StateNew && lead.ConversationState != leadsdomain.StateNeedCard {
		return s.reply(ctx, lead, "Got it, thanks for sharing!")
	}

	err := s.leads.UpdateConversationStateCAS(ctx, lead.ID, lead.ConversationState, leadsdomain.StateCardReceived)
	if err != nil {
		if apperr.GetKind(err) == apperr.KindConflict {
			s.log.Warn("card transition rejected", "lead_id", lead.ID)
			return nil
		}
		return err
	}

	s.log.StateTransition(lead.ID.String(), string(lead.ConversationState),
		string(leadsdomain.StateCardReceived), "card_image")

	return s.reply(ctx, lead, "Thanks! We've received your card and are reading the details. We'll send them over for confirmation shortly.")
}

// identifySender resolves an inbound phone number to a lead and sender
// kind. Staff numbers map to their latest assigned lead; unknown numbers
// become fresh visitor leads.
func (s *Service) identifySender(ctx context.Context, rawPhone string) (leadsdomain.Lead, leadsdomain.SenderKind, error) {
	normalized := phone.NormalizeE164(rawPhone)

	if employee, err := s.employees.GetByPhone(ctx, normalized); err == nil {
		lead, err := s.leads.GetLatestByEmployee(ctx, employee.ID)
		if err != nil {
			return leadsdomain.Lead{}, "", fmt.Errorf("employee %s has no lead context: %w", employee.ID, err)
		}
		return lead, leadsdomain.SenderEmployee, nil
	}

	if lead, err := s.leads.GetByPhone(ctx, normalized); err == nil {
		return lead, leadsdomain.SenderVisitor, nil
	}

	// Gateways sometimes strip the country prefix; fall back to a suffix
	// match before assuming a brand-new visitor.
	if suffix := phone.LastDigits(rawPhone, 8); suffix != "" {
		if lead, err := s.leads.GetByPhoneSuffix(ctx, suffix); err == nil {
			return lead, leadsdomain.SenderVisitor, nil
		}
	}

	lead, err := s.leads.Create(ctx, leadsrepo.CreateLeadParams{
		Phone:             normalized,
		ConversationState: leadsdomain.StateNew,
	})
	if err != nil {
		return leadsdomain.Lead{}, "", err
	}

	s.log.Info("visitor lead created from inbound message", "lead_id", lead.ID, "phone", normalized)
	return lead, leadsdomain.SenderVisitor, nil
}

func (s *Service) reply(ctx context.Context, lead leadsdomain.Lead, text string) error {
	deliveryID, err := s.sender.SendMessage(ctx, lead.Phone, text)
	if err != nil {
		return fmt.Errorf("send reply: %w", err)
	}

	if _, err := s.leads.CreateMessage(ctx, leadsrepo.CreateMessageParams{
		LeadID:     lead.ID,
		SenderKind: leadsdomain.SenderSystem,
		Body:       text,
		DeliveryID: &deliveryID,
	}); err != nil {
		s.log.Warn("transcript append failed", "lead_id", lead.ID, "error", err)
	}

	return nil
}

// notifyEmployee targets the assigned employee, falling back to the admin
// phone. Notification failures never fail the visitor's flow.
func (s *Service) notifyEmployee(ctx context.Context, lead leadsdomain.Lead, text string) {
	target := s.adminPhone
	if lead.AssignedEmployeeID != nil {
		if employee, err := s.employees.GetByID(ctx, *lead.AssignedEmployeeID); err == nil {
			target = employee.Phone
		}
	}
	if target == "" {
		s.log.Warn("no notification target", "lead_id", lead.ID)
		return
	}

	if _, err := s.sender.SendMessage(ctx, target, text); err != nil {
		s.log.Error("employee notification failed", "lead_id", lead.ID, "error", err)
	}
}

func (s *Service) applyCorrection(ctx context.Context, leadID uuid.UUID, directive convdomain.CorrectionDirective) error {
	value := directive.Value
	if directive.Field == leadsdomain.FieldPhone {
		value = phone.NormalizeE164(value)
	}
	if err := s.leads.UpdateField(ctx, leadID, directive.Field, value); err != nil {
		return err
	}
	if directive.Field == leadsdomain.FieldDesignation {
		s.segmentLead(ctx, leadID, value)
	}
	return nil
}

// segmentLead derives and stores the lead's segment from the designation.
// Failures only cost the dashboard a label, so they log instead of
// aborting the conversation turn.
func (s *Service) segmentLead(ctx context.Context, leadID uuid.UUID, designation string) {
	segment, priority := leadsdomain.SegmentFor(designation)
	if err := s.leads.UpdateSegment(ctx, leadID, segment, priority); err != nil {
		s.log.Error("lead segmentation failed", "lead_id", leadID, "error", err)
	}
}

// validateDirective runs the pre-apply value checks. When a value is
// rejected the returned prompt is sent to the visitor verbatim.
func validateDirective(d convdomain.CorrectionDirective) (prompt string, valid bool) {
	switch d.Field {
	case leadsdomain.FieldEmail:
		if !leadsdomain.ValidEmailShape(d.Value) {
			return "That doesn't look like a valid email address. Please send it as \"Email: name@company.com\".", false
		}
	case leadsdomain.FieldPhone:
		if !phone.IsValid(d.Value) {
			return "That doesn't look like a valid phone number. Please send it as \"Phone: +91XXXXXXXXXX\".", false
		}
	}
	return "", true
}
