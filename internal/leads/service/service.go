// Package service contains the leads read API and shared lead lookups.
package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"expoconnect_backend/internal/leads/domain"
	"expoconnect_backend/internal/leads/repository"
	"expoconnect_backend/internal/leads/transport"
	"expoconnect_backend/platform/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service provides lead queries for the read API.
type Service struct {
	repo repository.LeadsRepository
	log  *logger.Logger
}

// New creates a new leads service.
func New(repo repository.LeadsRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// List returns a page of active leads.
func (s *Service) List(ctx context.Context, req transport.ListLeadsRequest) (transport.ListLeadsResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	leads, total, err := s.repo.List(ctx, repository.ListParams{
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		return transport.ListLeadsResponse{}, err
	}

	return transport.ListLeadsResponse{
		Leads:    transport.ToLeadResponses(leads),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Get returns one lead by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return transport.ToLeadResponse(lead), nil
}

// Messages returns a lead's full transcript in chronological order.
func (s *Service) Messages(ctx context.Context, leadID uuid.UUID) ([]transport.MessageResponse, error) {
	if _, err := s.repo.GetByID(ctx, leadID); err != nil {
		return nil, err
	}
	messages, err := s.repo.ListMessages(ctx, leadID)
	if err != nil {
		return nil, err
	}
	return transport.ToMessageResponses(messages), nil
}

// ContactQR renders a wa.me chat link for the lead's phone number as a PNG
// QR code, so booth staff can hand off a conversation to another device.
func (s *Service) ContactQR(ctx context.Context, leadID uuid.UUID) ([]byte, error) {
	lead, err := s.repo.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	link := WhatsAppLink(lead.Phone, "")
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode contact qr: %w", err)
	}

	return png, nil
}

// WhatsAppLink builds a wa.me deep link for the given E.164 phone number
// and optional prefilled message. The wa.me format wants bare digits.
func WhatsAppLink(phone, text string) string {
	digits := strings.TrimPrefix(phone, "+")
	link := "https://wa.me/" + digits
	if text != "" {
		link += "?text=" + url.QueryEscape(text)
	}
	return link
}

// FindByID exposes the raw domain lead for other bounded contexts.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	return s.repo.GetByID(ctx, id)
}
