package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/leadbook/internal/model"
)

// leadRow mirrors the 'leads' table.
type leadRow struct {
	ID             uint64       `db:"id"`
	OwnerID        uint64       `db:"owner_id"`
	FirstName      string       `db:"first_name"`
	LastName       string       `db:"last_name"`
	Email          string       `db:"email"`
	Phone          string       `db:"phone"`
	Company        string       `db:"company"`
	City           string       `db:"city"`
	State          string       `db:"state"`
	Source         string       `db:"source"`
	Status         string       `db:"status"`
	Score          int          `db:"score"`
	LeadValue      float64      `db:"lead_value"`
	LastActivityAt sql.NullTime `db:"last_activity_at"`
	IsQualified    bool         `db:"is_qualified"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
}

func (r leadRow) model() model.Lead {
	l := model.Lead{
		ID:          strconv.FormatUint(r.ID, 10),
		OwnerID:     strconv.FormatUint(r.OwnerID, 10),
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		Phone:       r.Phone,
		Company:     r.Company,
		City:        r.City,
		State:       r.State,
		Source:      model.Source(r.Source),
		Status:      model.Status(r.Status),
		Score:       r.Score,
		LeadValue:   r.LeadValue,
		IsQualified: r.IsQualified,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.LastActivityAt.Valid {
		t := r.LastActivityAt.Time
		l.LastActivityAt = &t
	}
	return l
}

const leadColumns = `id, owner_id, first_name, last_name, email, phone, company, city, state,
	source, status, score, lead_value, last_activity_at, is_qualified, created_at, updated_at`

// LeadRepo stores leads in MySQL.  Every statement that touches an existing
// lead carries "owner_id = ?" so a lead owned by someone else behaves
// exactly like a missing one.
type LeadRepo struct {
	db *sqlx.DB
}

func NewLeadRepo(db *sqlx.DB) *LeadRepo {
	return &LeadRepo{db: db}
}

// parseID converts a decimal id; anything else can never match a row.
func parseID(id string) (uint64, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64)
	return n, err == nil && n > 0
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// Create inserts l and fills in ID, CreatedAt and UpdatedAt.  A CreatedAt
// already set by the caller is kept (the seeder backdates leads).
func (r *LeadRepo) Create(ctx context.Context, l *model.Lead) error {
	owner, ok := parseID(l.OwnerID)
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	} else {
		l.CreatedAt = l.CreatedAt.UTC().Truncate(time.Millisecond)
	}
	l.UpdatedAt = now
	const q = `INSERT INTO leads
		(owner_id, first_name, last_name, email, phone, company, city, state, source, status,
		 score, lead_value, last_activity_at, is_qualified, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q,
		owner, l.FirstName, l.LastName, l.Email, l.Phone, l.Company, l.City, l.State,
		string(l.Source), string(l.Status), l.Score, l.LeadValue, nullTime(l.LastActivityAt),
		l.IsQualified, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = strconv.FormatInt(id, 10)
	return nil
}

// GetByIDAndOwner fetches a lead by id but only if it belongs to ownerID.
func (r *LeadRepo) GetByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Lead, error) {
	lid, ok1 := parseID(id)
	owner, ok2 := parseID(ownerID)
	if !ok1 || !ok2 {
		return nil, ErrNotFound
	}
	var row leadRow
	err := r.db.GetContext(ctx, &row, "SELECT "+leadColumns+" FROM leads WHERE id = ? AND owner_id = ?", lid, owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	l := row.model()
	return &l, nil
}

// UpdateByIDAndOwner applies the non-nil fields of p in a single UPDATE
// guarded by id and owner, then re-reads the row.  Concurrent updates are
// last-write-wins per column.
func (r *LeadRepo) UpdateByIDAndOwner(ctx context.Context, id, ownerID string, p model.LeadPatch, updatedAt time.Time) (*model.Lead, error) {
	lid, ok1 := parseID(id)
	owner, ok2 := parseID(ownerID)
	if !ok1 || !ok2 {
		return nil, ErrNotFound
	}
	sets, args := patchAssignments(p)
	sets = append(sets, "updated_at = ?")
	args = append(args, updatedAt.UTC().Truncate(time.Millisecond), lid, owner)

	q := "UPDATE leads SET " + strings.Join(sets, ", ") + " WHERE id = ? AND owner_id = ?"
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return r.GetByIDAndOwner(ctx, id, ownerID)
}

func patchAssignments(p model.LeadPatch) ([]string, []any) {
	var sets []string
	var args []any
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.FirstName != nil {
		add("first_name", *p.FirstName)
	}
	if p.LastName != nil {
		add("last_name", *p.LastName)
	}
	if p.Email != nil {
		add("email", *p.Email)
	}
	if p.Phone != nil {
		add("phone", *p.Phone)
	}
	if p.Company != nil {
		add("company", *p.Company)
	}
	if p.City != nil {
		add("city", *p.City)
	}
	if p.State != nil {
		add("state", *p.State)
	}
	if p.Source != nil {
		add("source", string(*p.Source))
	}
	if p.Status != nil {
		add("status", string(*p.Status))
	}
	if p.Score != nil {
		add("score", *p.Score)
	}
	if p.LeadValue != nil {
		add("lead_value", *p.LeadValue)
	}
	if p.LastActivityAt != nil {
		add("last_activity_at", nullTime(p.LastActivityAt))
	}
	if p.IsQualified != nil {
		add("is_qualified", *p.IsQualified)
	}
	return sets, args
}

// DeleteByIDAndOwner physically removes a lead.
func (r *LeadRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error {
	lid, ok1 := parseID(id)
	owner, ok2 := parseID(ownerID)
	if !ok1 || !ok2 {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM leads WHERE id = ? AND owner_id = ?", lid, owner)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByOwner returns how many leads ownerID has.
func (r *LeadRepo) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	owner, ok := parseID(ownerID)
	if !ok {
		return 0, nil
	}
	var n int64
	err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM leads WHERE owner_id = ?", owner)
	return n, err
}
