// Package testhelpers provides in-memory stores and recorders used by the
// service and handler tests.  They follow the same contracts as the MySQL
// and MongoDB repositories, including the sentinel errors.
package testhelpers

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/leadbook/internal/model"
	"github.com/iliyamo/leadbook/internal/query"
	"github.com/iliyamo/leadbook/internal/queue"
	"github.com/iliyamo/leadbook/internal/repository"
)

// Users is an in-memory credential store.
type Users struct {
	mu   sync.Mutex
	seq  int
	byID map[string]model.User
}

func NewUsers() *Users {
	return &Users{byID: map[string]model.User{}}
}

func (s *Users) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, other := range s.byID {
		if other.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	s.seq++
	u.ID = strconv.Itoa(s.seq)
	u.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	u.UpdatedAt = u.CreatedAt
	s.byID[u.ID] = *u
	return nil
}

func (s *Users) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.byID {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Users) GetByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

// Delete removes a user; used to test tokens of vanished users.
func (s *Users) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
}

// Leads is an in-memory record store.
type Leads struct {
	mu    sync.Mutex
	seq   int
	byID  map[string]model.Lead
	order map[string]int
}

func NewLeads() *Leads {
	return &Leads{byID: map[string]model.Lead{}, order: map[string]int{}}
}

func (s *Leads) duplicate(id, owner, email string) bool {
	for _, l := range s.byID {
		if l.ID != id && l.OwnerID == owner && l.Email == email {
			return true
		}
	}
	return false
}

func (s *Leads) Create(_ context.Context, l *model.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.duplicate("", l.OwnerID, l.Email) {
		return repository.ErrDuplicate
	}
	s.seq++
	l.ID = strconv.Itoa(s.seq)
	now := time.Now().UTC().Truncate(time.Millisecond)
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	s.byID[l.ID] = *l
	s.order[l.ID] = s.seq
	return nil
}

func (s *Leads) GetByIDAndOwner(_ context.Context, id, ownerID string) (*model.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.byID[id]
	if !ok || l.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	return &l, nil
}

func (s *Leads) UpdateByIDAndOwner(_ context.Context, id, ownerID string, p model.LeadPatch, updatedAt time.Time) (*model.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.byID[id]
	if !ok || l.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	if p.Email != nil && s.duplicate(id, ownerID, *p.Email) {
		return nil, repository.ErrDuplicate
	}
	p.Apply(&l)
	l.UpdatedAt = updatedAt.UTC().Truncate(time.Millisecond)
	s.byID[id] = l
	return &l, nil
}

func (s *Leads) DeleteByIDAndOwner(_ context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.byID[id]
	if !ok || l.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(s.byID, id)
	delete(s.order, id)
	return nil
}

func (s *Leads) Search(_ context.Context, q query.LeadQuery) ([]model.Lead, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var hits []model.Lead
	for _, l := range s.byID {
		if l.OwnerID == q.OwnerID && matchesAll(l, q.Clauses) {
			hits = append(hits, l)
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if !hits[i].CreatedAt.Equal(hits[j].CreatedAt) {
			return hits[i].CreatedAt.After(hits[j].CreatedAt)
		}
		return s.order[hits[i].ID] > s.order[hits[j].ID]
	})
	total := int64(len(hits))
	start := q.Offset()
	if start > len(hits) {
		start = len(hits)
	}
	end := start + q.Limit
	if end > len(hits) {
		end = len(hits)
	}
	return append([]model.Lead{}, hits[start:end]...), total, nil
}

func (s *Leads) CountByOwner(_ context.Context, ownerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, l := range s.byID {
		if l.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func matchesAll(l model.Lead, cs []query.Clause) bool {
	for _, c := range cs {
		if !matches(l, c) {
			return false
		}
	}
	return true
}

func fieldValue(l model.Lead, f query.Field) any {
	switch f {
	case query.FieldEmail:
		return l.Email
	case query.FieldCompany:
		return l.Company
	case query.FieldCity:
		return l.City
	case query.FieldStatus:
		return string(l.Status)
	case query.FieldSource:
		return string(l.Source)
	case query.FieldScore:
		return float64(l.Score)
	case query.FieldLeadValue:
		return l.LeadValue
	case query.FieldCreatedAt:
		return l.CreatedAt
	case query.FieldIsQualified:
		return l.IsQualified
	}
	return nil
}

func matches(l model.Lead, c query.Clause) bool {
	v := fieldValue(l, c.Field)
	switch c.Op {
	case query.OpEq:
		return v == c.Values[0]
	case query.OpContains:
		return strings.Contains(strings.ToLower(v.(string)), strings.ToLower(c.Values[0].(string)))
	case query.OpIn:
		for _, x := range c.Values {
			if v == x {
				return true
			}
		}
		return false
	case query.OpGt, query.OpAfter:
		return compare(v, c.Values[0]) > 0
	case query.OpLt, query.OpBefore:
		return compare(v, c.Values[0]) < 0
	case query.OpBetween:
		return compare(v, c.Values[0]) >= 0 && compare(v, c.Values[1]) <= 0
	}
	return false
}

func compare(a, b any) int {
	switch x := a.(type) {
	case float64:
		y := b.(float64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case time.Time:
		return x.Compare(b.(time.Time))
	}
	return 0
}

// Events records published lead events.
type Events struct {
	mu     sync.Mutex
	Err    error
	events []queue.LeadEvent
}

func (e *Events) Publish(_ context.Context, ev queue.LeadEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.events = append(e.events, ev)
	return nil
}

// Types returns the types of the recorded events in publish order.
func (e *Events) Types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.Type)
	}
	return out
}
