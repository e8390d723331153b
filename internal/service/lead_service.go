package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/leadbook/internal/model"
	"github.com/iliyamo/leadbook/internal/query"
	"github.com/iliyamo/leadbook/internal/queue"
	"github.com/iliyamo/leadbook/internal/repository"
)

// LeadPage is one page of a lead listing.
type LeadPage struct {
	Data       []model.Lead `json:"data"`
	Page       int          `json:"page"`
	Limit      int          `json:"limit"`
	Total      int64        `json:"total"`
	TotalPages int          `json:"totalPages"`
}

// LeadService implements owner-scoped lead CRUD.  The owner always comes
// from the verified identity, never from request data.
type LeadService struct {
	leads  LeadStore
	events EventPublisher
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewLeadService(leads LeadStore, events EventPublisher, log logrus.FieldLogger) *LeadService {
	if events == nil {
		events = NopPublisher{}
	}
	return &LeadService{leads: leads, events: events, log: log, now: time.Now}
}

// Create validates in and stores a new lead owned by id.
func (s *LeadService) Create(ctx context.Context, id model.Identity, in LeadInput) (*model.Lead, error) {
	in.normalize()
	if err := check(in); err != nil {
		return nil, err
	}
	l := in.lead(id.UserID)
	if err := s.leads.Create(ctx, l); err != nil {
		return nil, storeErr("create lead", err)
	}
	s.publish(ctx, queue.LeadCreated, l)
	return l, nil
}

// Get returns the lead if it exists and belongs to the caller.
func (s *LeadService) Get(ctx context.Context, id model.Identity, leadID string) (*model.Lead, error) {
	l, err := s.leads.GetByIDAndOwner(ctx, leadID, id.UserID)
	if err != nil {
		return nil, storeErr("get lead", err)
	}
	return l, nil
}

// Update applies the supplied fields of in.  Email uniqueness is enforced
// by the store index, so an email change can fail with ErrDuplicateLead.
func (s *LeadService) Update(ctx context.Context, id model.Identity, leadID string, in LeadUpdateInput) (*model.Lead, error) {
	in.normalize()
	if err := check(in); err != nil {
		return nil, err
	}
	l, err := s.leads.UpdateByIDAndOwner(ctx, leadID, id.UserID, in.patch(), s.now().UTC())
	if err != nil {
		return nil, storeErr("update lead", err)
	}
	s.publish(ctx, queue.LeadUpdated, l)
	return l, nil
}

// Delete removes the lead if it belongs to the caller.
func (s *LeadService) Delete(ctx context.Context, id model.Identity, leadID string) error {
	if err := s.leads.DeleteByIDAndOwner(ctx, leadID, id.UserID); err != nil {
		return storeErr("delete lead", err)
	}
	s.publish(ctx, queue.LeadDeleted, &model.Lead{ID: leadID, OwnerID: id.UserID})
	return nil
}

// List runs q.  The owner of q is overwritten with the caller.
func (s *LeadService) List(ctx context.Context, id model.Identity, q query.LeadQuery) (*LeadPage, error) {
	q.OwnerID = id.UserID
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = query.DefaultLimit
	}
	if q.Limit > query.MaxLimit {
		q.Limit = query.MaxLimit
	}
	leads, total, err := s.leads.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search leads: %w", err)
	}
	if leads == nil {
		leads = []model.Lead{}
	}
	return &LeadPage{
		Data:       leads,
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: query.TotalPages(total, q.Limit),
	}, nil
}

func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrDuplicateLead
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *LeadService) publish(ctx context.Context, typ string, l *model.Lead) {
	ev := queue.LeadEvent{
		Type:       typ,
		LeadID:     l.ID,
		OwnerID:    l.OwnerID,
		Email:      l.Email,
		Status:     string(l.Status),
		Score:      l.Score,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"event": typ, "lead_id": l.ID}).Warn("lead event not published")
	}
}
