// Package service holds the application logic behind the HTTP API: the auth
// service (register, login, token verification) and the owner-scoped lead
// CRUD service.  Both depend on small store interfaces implemented by the
// MySQL and MongoDB repositories.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/leadbook/internal/model"
	"github.com/iliyamo/leadbook/internal/query"
)

// UserStore is the credential store.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// LeadStore is the record store.  Every method that addresses an existing
// lead takes the owner id and must apply it inside the store query.
type LeadStore interface {
	Create(ctx context.Context, l *model.Lead) error
	GetByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Lead, error)
	UpdateByIDAndOwner(ctx context.Context, id, ownerID string, p model.LeadPatch, updatedAt time.Time) (*model.Lead, error)
	DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error
	Search(ctx context.Context, q query.LeadQuery) ([]model.Lead, int64, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
}
