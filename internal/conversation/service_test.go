package conversation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"expoconnect_backend/internal/conversation/classifier"
	convdomain "expoconnect_backend/internal/conversation/domain"
	dripdomain "expoconnect_backend/internal/drip/domain"
	"expoconnect_backend/internal/events"
	"expoconnect_backend/internal/followups"
	leadsdomain "expoconnect_backend/internal/leads/domain"
	leadsrepo "expoconnect_backend/internal/leads/repository"
	"expoconnect_backend/platform/apperr"
	"expoconnect_backend/platform/logger"
)

type fakeLeadsRepo struct {
	leadsrepo.LeadsRepository

	lead     leadsdomain.Lead
	messages []leadsrepo.CreateMessageParams
	updates  []leadsdomain.CorrectionField
	segments []string

	casCalls        int
	conflictsToFire int
	created         bool
}

func (f *fakeLeadsRepo) GetByID(ctx context.Context, id uuid.UUID) (leadsdomain.Lead, error) {
	if f.lead.ID != id {
		return leadsdomain.Lead{}, apperr.NotFound("lead not found")
	}
	return f.lead, nil
}

func (f *fakeLeadsRepo) GetByPhone(ctx context.Context, phone string) (leadsdomain.Lead, error) {
	if f.lead.Phone == phone {
		return f.lead, nil
	}
	return leadsdomain.Lead{}, apperr.NotFound("lead not found")
}

func (f *fakeLeadsRepo) GetByPhoneSuffix(ctx context.Context, suffix string) (leadsdomain.Lead, error) {
	if f.lead.Phone != "" && strings.HasSuffix(f.lead.Phone, suffix) {
		return f.lead, nil
	}
	return leadsdomain.Lead{}, apperr.NotFound("lead not found")
}

func (f *fakeLeadsRepo) GetLatestByEmployee(ctx context.Context, employeeID uuid.UUID) (leadsdomain.Lead, error) {
	if f.lead.AssignedEmployeeID != nil && *f.lead.AssignedEmployeeID == employeeID {
		return f.lead, nil
	}
	return leadsdomain.Lead{}, apperr.NotFound("lead not found")
}

func (f *fakeLeadsRepo) Create(ctx context.Context, params leadsrepo.CreateLeadParams) (leadsdomain.Lead, error) {
	f.created = true
	f.lead = leadsdomain.Lead{
		ID:                uuid.New(),
		Phone:             params.Phone,
		ConversationState: params.ConversationState,
		IsActive:          true,
	}
	return f.lead, nil
}

func (f *fakeLeadsRepo) UpdateConversationStateCAS(ctx context.Context, id uuid.UUID, expected, next leadsdomain.ConversationState) error {
	f.casCalls++
	if f.conflictsToFire > 0 {
		f.conflictsToFire--
		return apperr.Conflict("conversation state changed concurrently")
	}
	if f.lead.ConversationState != expected {
		return apperr.Conflict("conversation state changed concurrently")
	}
	f.lead.ConversationState = next
	return nil
}

func (f *fakeLeadsRepo) UpdateField(ctx context.Context, id uuid.UUID, field leadsdomain.CorrectionField, value string) error {
	f.updates = append(f.updates, field)
	return nil
}

func (f *fakeLeadsRepo) UpdateSegment(ctx context.Context, id uuid.UUID, segment, priority string) error {
	f.segments = append(f.segments, segment)
	f.lead.Segment = segment
	f.lead.Priority = priority
	return nil
}

func (f *fakeLeadsRepo) CreateMessage(ctx context.Context, params leadsrepo.CreateMessageParams) (leadsdomain.Message, error) {
	f.messages = append(f.messages, params)
	return leadsdomain.Message{ID: uuid.New(), LeadID: params.LeadID}, nil
}

type fakeEmployees struct {
	byPhone map[string]leadsdomain.Employee
}

func (f *fakeEmployees) GetByID(ctx context.Context, id uuid.UUID) (leadsdomain.Employee, error) {
	for _, e := range f.byPhone {
		if e.ID == id {
			return e, nil
		}
	}
	return leadsdomain.Employee{}, apperr.NotFound("employee not found")
}

func (f *fakeEmployees) GetByPhone(ctx context.Context, phone string) (leadsdomain.Employee, error) {
	if e, ok := f.byPhone[phone]; ok {
		return e, nil
	}
	return leadsdomain.Employee{}, apperr.NotFound("employee not found")
}

type sentMessage struct {
	phone string
	text  string
}

type fakeSender struct {
	sent []sentMessage
}

func (f *fakeSender) SendMessage(ctx context.Context, phone, message string) (string, error) {
	f.sent = append(f.sent, sentMessage{phone: phone, text: message})
	return "wamid-test", nil
}

type fakeDrips struct {
	enrolled []string
	stops    int
}

func (f *fakeDrips) EnrollByName(ctx context.Context, leadID uuid.UUID, dripName string) (dripdomain.Assignment, error) {
	f.enrolled = append(f.enrolled, dripName)
	return dripdomain.Assignment{ID: uuid.New(), LeadID: leadID, Status: dripdomain.AssignmentActive}, nil
}

func (f *fakeDrips) StopForLead(ctx context.Context, leadID uuid.UUID) error {
	f.stops++
	return nil
}

type fakeFollowUps struct {
	created []convdomain.FollowUpKind
}

func (f *fakeFollowUps) Create(ctx context.Context, leadID uuid.UUID, kind convdomain.FollowUpKind, scheduledFor time.Time, notes string) (followups.FollowUp, error) {
	f.created = append(f.created, kind)
	return followups.FollowUp{ID: uuid.New(), LeadID: leadID, Kind: kind}, nil
}

type serviceFixture struct {
	svc       *Service
	leads     *fakeLeadsRepo
	employees *fakeEmployees
	sender    *fakeSender
	drips     *fakeDrips
	followUps *fakeFollowUps
}

func newServiceFixture(lead leadsdomain.Lead) *serviceFixture {
	log := logger.New("test")
	f := &serviceFixture{
		leads:     &fakeLeadsRepo{lead: lead},
		employees: &fakeEmployees{byPhone: map[string]leadsdomain.Employee{}},
		sender:    &fakeSender{},
		drips:     &fakeDrips{},
		followUps: &fakeFollowUps{},
	}
	f.svc = NewService(
		f.leads,
		f.employees,
		classifier.Default(log, nil),
		NewMachine("post_confirmation"),
		f.drips,
		f.followUps,
		f.sender,
		events.NewInMemoryBus(log),
		"+919999999999",
		log,
	)
	return f
}

func knownLead(state leadsdomain.ConversationState) leadsdomain.Lead {
	return leadsdomain.Lead{
		ID:                uuid.New(),
		Name:              "Priya",
		Company:           "Acme",
		Phone:             "+919876543210",
		Designation:       "Director",
		ConversationState: state,
		IsActive:          true,
	}
}

func TestHandleInboundConfirmationStartsDrip(t *testing.T) {
	f := newServiceFixture(knownLead(leadsdomain.StateAwaitingConfirmation))

	err := f.svc.HandleInbound(context.Background(), InboundEvent{
		FromPhone:  "+919876543210",
		Kind:       leadsdomain.MessageText,
		Text:       "yes",
		ReceivedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("HandleInbound() error = %v", err)
	}

	if got := f.leads.lead.ConversationState; got != leadsdomain.StateConfirmed {
		t.Errorf("state = %q, want %q", got, leadsdomain.StateConfirmed)
	}
	if f.drips.stops != 1 {
		t.Errorf("drip stops = %d, want 1", f.drips.stops)
	}
	if f.leads.lead.Segment != leadsdomain.SegmentDecisionMaker || f.leads.lead.Priority != leadsdomain.PriorityHigh {
		t.Errorf("segment/priority = %q/%q, want %q/%q",
			f.leads.lead.Segment, f.leads.lead.Priority,
			leadsdomain.SegmentDecisionMaker, leadsdomain.PriorityHigh)
	}
	if len(f.drips.enrolled) != 1 || f.drips.enrolled[0] != "post_confirmation" {
		t.Errorf("enrolled = %v, want [post_confirmation]", f.drips.enrolled)
	}
	if len(f.sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(f.sender.sent))
	}
	if f.sender.sent[0].phone != "+919876543210" {
		t.Errorf("reply target = %q, want the lead's phone", f.sender.sent[0].phone)
	}

	// Inbound turn plus the system reply must land in the transcript.
	if len(f.leads.messages) != 2 {
		t.Fatalf("stored %d messages, want 2", len(f.leads.messages))
	}
	if f.leads.messages[1].SenderKind != leadsdomain.SenderSystem {
		t.Errorf("second transcript entry sender = %q, want system", f.leads.messages[1].SenderKind)
	}
}

func TestHandleInboundUnknownNumberCreatesVisitorLead(t *testing.T) {
	f := newServiceFixture(leadsdomain.Lead{})

	err := f.svc.HandleInbound(context.Background(), InboundEvent{
		FromPhone:  "+918888877777",
		Kind:       leadsdomain.MessageText,
		Text:       "hello",
		ReceivedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("HandleInbound() error = %v", err)
	}

	if !f.leads.created {
		t.Fatal("expected a visitor lead to be created")
	}
	if got := f.leads.messages[0].SenderKind; got != leadsdomain.SenderVisitor {
		t.Errorf("sender kind = %q, want visitor", got)
	}
}

func TestHandleInboundPhoneSuffixFallback(t *testing.T) {
	lead := knownLead(leadsdomain.StateConfirmed)
	f := newServiceFixture(lead)

	// A gateway-prefixed number that defeats E.164 parsing must still
	// resolve through the trailing-digits match.
	err := f.svc.HandleInbound(context.Background(), InboundEvent{
		FromPhone:  "whatsapp:919876543210",
		Kind:       leadsdomain.MessageText,
		Text:       "hello",
		ReceivedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("HandleInbound() error = %v", err)
	}

	if f.leads.created {
		t.Error("suffix match should not create a new lead")
	}
	if f.leads.messages[0].LeadID != lead.ID {
		t.Error("message attached to the wrong lead")
	}
}

func TestHandleInboundEmployeeChatterStaysSilent(t *testing.T) {
	employeeID := uuid.New()
	lead := knownLead(leadsdomain.StateConfirmed)
	lead.AssignedEmployeeID = &employeeID

	f := newServiceFixture(lead)
	f.employees.byPhone["+917777766666"] = leadsdomain.Employee{
		ID: employeeID, Name: "Ravi", Phone: "+917777766666", IsActive: true,
	}

	err := f.svc.HandleInbound(context.Background(), InboundEvent{
		FromPhone:  "+917777766666",
		Kind:       leadsdomain.MessageText,
		Text:       "hello, discussed pricing at the booth",
		ReceivedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("HandleInbound() error = %v", err)
	}

	if len(f.sender.sent) != 0 {
		t.Errorf("sent %d messages, want none for staff chatter", len(f.sender.sent))
	}
	if got := f.leads.lead.ConversationState; got != leadsdomain.StateConfirmed {
		t.Errorf("state = %q, want unchanged", got)
	}
	if got := f.leads.messages[0].SenderKind; got != leadsdomain.SenderEmployee {
		t.Errorf("sender kind = %q, want employee", got)
	}
}

func TestHandleInboundValidCorrectionUpdatesField(t *testing.T) {
	f := newServiceFixture(knownLead(leadsdomain.StateNeedsCorrection))

	err := f.svc.HandleInbound(context.Background(), InboundEvent{
		FromPhone:  "+919876543210",
		Kind:       leadsdomain.MessageText,
		Text:       "Email: priya@acme.com",
		ReceivedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("HandleInbound() error = %v", err)
	}

	if got := f.leads.lead.ConversationState; got != leadsdomain.StateCorrectionApplied {
		t.Errorf("state = %q, want %q", got, leadsdomain.StateCorrectionApplied)
	}
	if len(f.leads.updates) != 1 || f.leads.updates[0] != leadsdomain.FieldEmail {
		t.Errorf("updated fields = %v, want [email]", f.leads.updates)
	}
	if len(f.sender.sent) != 1 || !strings.Contains(f.sender.sent[0].text, "priya@acme.com") {
		t.Errorf("confirmation reply should itemize the new value, got %v", f.sender.sent)
	}
}

func TestHandleInboundDesignationCorrectionResegments(t *testing.T) {
	f := newServiceFixture(knownLead(leadsdomain.StateNeedsCorrection))

	err := f.svc.HandleInbound(context.Background(), InboundEvent{
		FromPhone:  "+919876543210",
		Kind:       leadsdomain.MessageText,
		Text:       "Designation: Procurement Officer",
		ReceivedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("HandleInbound() error = %v", err)
	}

	if len(f.leads.updates) != 1 || f.leads.updates[0] != leadsdomain.FieldDesignation {
		t.Errorf("updated fields = %v, want [designation]", f.leads.updates)
	}
	if f.leads.lead.Segment != leadsdomain.SegmentPurchase || f.leads.lead.Priority != leadsdomain.PriorityMedium {
		t.Errorf("segment/priority = %q/%q, want %q/%q",
			f.leads.lead.Segment, f.leads.lead.Priority,
			leadsdomain.SegmentPurchase, leadsdomain.PriorityMedium)
	}
}

func TestHandleInboundInvalidEmailRejectedBeforeStateChange(t *testing.T) {
	f := newServiceFixture(knownLead(leadsdomain.StateNeedsCorrection))

	err := f.svc.HandleInbound(context.Background(), InboundEvent{
		FromPhone:  "+919876543210",
		Kind:       leadsdomain.MessageText,
		Text:       "Email: not-an-address",
		ReceivedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("HandleInbound() error = %v", err)
	}

	if len(f.leads.updates) != 0 {
		t.Errorf("field updates = %v, want none", f.leads.updates)
	}
	if got := f.leads.lead.ConversationState; got != leadsdomain.StateNeedsCorrection {
		t.Errorf("state = %q, want unchanged", got)
	}
	if len(f.sender.sent) != 1 || !strings.Contains(f.sender.sent[0].text, "valid email") {
		t.Errorf("expected a field-specific prompt, got %v", f.sender.sent)
	}
}

func TestHandleInboundCASConflictRetriesOnce(t *testing.T) {
	f := newServiceFixture(knownLead(leadsdomain.StateAwaitingConfirmation))
	f.leads.conflictsToFire = 1

	err := f.svc.HandleInbound(context.Background(), InboundEvent{
		FromPhone:  "+919876543210",
		Kind:       leadsdomain.MessageText,
		Text:       "yes",
		ReceivedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("HandleInbound() error = %v", err)
	}

	if f.leads.casCalls != 2 {
		t.Errorf("CAS attempts = %d, want 2", f.leads.casCalls)
	}
	if got := f.leads.lead.ConversationState; got != leadsdomain.StateConfirmed {
		t.Errorf("state = %q, want %q after retry", got, leadsdomain.StateConfirmed)
	}
}

func TestHandleInboundSecondCASConflictGivesUp(t *testing.T) {
	f := newServiceFixture(knownLead(leadsdomain.StateAwaitingConfirmation))
	f.leads.conflictsToFire = 2

	err := f.svc.HandleInbound(context.Background(), InboundEvent{
		FromPhone:  "+919876543210",
		Kind:       leadsdomain.MessageText,
		Text:       "yes",
		ReceivedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("HandleInbound() should absorb the rejected transition, got %v", err)
	}

	if f.leads.casCalls != 2 {
		t.Errorf("CAS attempts = %d, want exactly 2", f.leads.casCalls)
	}
	if got := f.leads.lead.ConversationState; got != leadsdomain.StateAwaitingConfirmation {
		t.Errorf("state = %q, want unchanged after giving up", got)
	}
	if len(f.drips.enrolled) != 0 {
		t.Errorf("no commands should run after a rejected transition, enrolled %v", f.drips.enrolled)
	}
}

func TestHandleInboundCardImageAdvancesState(t *testing.T) {
	f := newServiceFixture(knownLead(leadsdomain.StateNew))

	err := f.svc.HandleInbound(context.Background(), InboundEvent{
		FromPhone:  "+919876543210",
		Kind:       leadsdomain.MessageImage,
		Text:       "",
		MediaRef:   strPtr("leads/x/card.jpg"),
		ReceivedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("HandleInbound() error = %v", err)
	}

	if got := f.leads.lead.ConversationState; got != leadsdomain.StateCardReceived {
		t.Errorf("state = %q, want %q", got, leadsdomain.StateCardReceived)
	}
	if len(f.sender.sent) != 1 || !strings.Contains(f.sender.sent[0].text, "card") {
		t.Errorf("expected a card acknowledgment, got %v", f.sender.sent)
	}
	if f.leads.messages[0].MediaRef == nil {
		t.Error("media reference should be stored with the transcript entry")
	}
}

func TestHandleInboundDemoRequestCreatesFollowUp(t *testing.T) {
	f := newServiceFixture(knownLead(leadsdomain.StateConfirmed))

	err := f.svc.HandleInbound(context.Background(), InboundEvent{
		FromPhone:  "+919876543210",
		Kind:       leadsdomain.MessageText,
		Text:       "can we schedule a demo",
		ReceivedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("HandleInbound() error = %v", err)
	}

	if got := f.leads.lead.ConversationState; got != leadsdomain.StateScheduledDemo {
		t.Errorf("state = %q, want %q", got, leadsdomain.StateScheduledDemo)
	}
	if len(f.followUps.created) != 1 || f.followUps.created[0] != convdomain.FollowUpDemo {
		t.Errorf("follow-ups = %v, want [demo]", f.followUps.created)
	}

	// Notification falls back to the admin phone when no employee is assigned.
	if len(f.sender.sent) != 2 {
		t.Fatalf("sent %d messages, want notification plus reply", len(f.sender.sent))
	}
	if f.sender.sent[0].phone != "+919999999999" {
		t.Errorf("notification target = %q, want admin phone", f.sender.sent[0].phone)
	}
}

func strPtr(s string) *string { return &s }
