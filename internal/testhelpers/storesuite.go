package testhelpers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/leadbook/internal/model"
	"github.com/iliyamo/leadbook/internal/query"
	"github.com/iliyamo/leadbook/internal/repository"
)

// UserStore and LeadStore restate the store contracts so the suite can be
// shared by the service package's own tests.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

type LeadStore interface {
	Create(ctx context.Context, l *model.Lead) error
	GetByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Lead, error)
	UpdateByIDAndOwner(ctx context.Context, id, ownerID string, p model.LeadPatch, updatedAt time.Time) (*model.Lead, error)
	DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error
	Search(ctx context.Context, q query.LeadQuery) ([]model.Lead, int64, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
}

func ptr[T any](v T) *T { return &v }

func clause(t *testing.T, f query.Field, op query.Operator, vals ...any) query.Clause {
	t.Helper()
	c, err := query.NewClause(f, op, vals...)
	require.NoError(t, err)
	return c
}

// RunStoreSuite checks the behaviour every store driver must share: email
// uniqueness, owner scoping, partial updates, filtering, ordering and
// paging.  The stores must be empty.
func RunStoreSuite(t *testing.T, users UserStore, leads LeadStore) {
	ctx := context.Background()

	alice := &model.User{Email: "alice@example.com", PasswordHash: "h", FirstName: "Alice", LastName: "A"}
	bob := &model.User{Email: "bob@example.com", PasswordHash: "h", FirstName: "Bob", LastName: "B"}
	require.NoError(t, users.Create(ctx, alice))
	require.NoError(t, users.Create(ctx, bob))
	require.NotEmpty(t, alice.ID)
	assert.NotEqual(t, alice.ID, bob.ID)

	t.Run("users", func(t *testing.T) {
		err := users.Create(ctx, &model.User{Email: "alice@example.com", PasswordHash: "h", FirstName: "X", LastName: "Y"})
		assert.ErrorIs(t, err, repository.ErrEmailExists)

		got, err := users.GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)
		assert.Equal(t, "h", got.PasswordHash)

		got, err = users.GetByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "Bob", got.FirstName)

		_, err = users.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		_, err = users.GetByID(ctx, "not-an-id")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	base := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	mk := func(owner, email, company, city string, status model.Status, score int, value float64, created time.Time) *model.Lead {
		l := &model.Lead{
			OwnerID: owner, FirstName: "F", LastName: "L", Email: email,
			Phone: "555", Company: company, City: city, State: "CA",
			Source: model.SourceWebsite, Status: status, Score: score, LeadValue: value,
			CreatedAt: created,
		}
		require.NoError(t, leads.Create(ctx, l))
		require.NotEmpty(t, l.ID)
		return l
	}
	a1 := mk(alice.ID, "a1@x.com", "Acme 50%_off", "Austin", model.StatusNew, 10, 100, base)
	a2 := mk(alice.ID, "a2@x.com", "Globex", "Boston", model.StatusWon, 90, 5000.5, base.Add(24*time.Hour))
	a3 := mk(alice.ID, "a3@x.com", "acme labs", "austin", model.StatusContacted, 50, 750, base.Add(48*time.Hour))
	b1 := mk(bob.ID, "a1@x.com", "Acme", "Austin", model.StatusNew, 10, 100, base)

	t.Run("create", func(t *testing.T) {
		assert.True(t, a1.CreatedAt.Equal(base))
		assert.False(t, a1.UpdatedAt.IsZero())

		err := leads.Create(ctx, &model.Lead{OwnerID: alice.ID, Email: "a1@x.com", Source: model.SourceOther, Status: model.StatusNew})
		assert.ErrorIs(t, err, repository.ErrDuplicate)
		assert.NotEqual(t, a1.ID, b1.ID)
	})

	t.Run("get is owner scoped", func(t *testing.T) {
		got, err := leads.GetByIDAndOwner(ctx, a2.ID, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "Globex", got.Company)
		assert.Equal(t, 5000.5, got.LeadValue)
		assert.Nil(t, got.LastActivityAt)
		assert.True(t, got.CreatedAt.Equal(a2.CreatedAt))

		_, err = leads.GetByIDAndOwner(ctx, a2.ID, bob.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		_, err = leads.GetByIDAndOwner(ctx, "garbage", alice.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("update", func(t *testing.T) {
		at := base.Add(72 * time.Hour)
		stamp := time.Now().UTC().Truncate(time.Millisecond)
		got, err := leads.UpdateByIDAndOwner(ctx, a1.ID, alice.ID, model.LeadPatch{
			Score:          ptr(42),
			LastActivityAt: &at,
			IsQualified:    ptr(true),
		}, stamp)
		require.NoError(t, err)
		assert.Equal(t, 42, got.Score)
		assert.True(t, got.IsQualified)
		require.NotNil(t, got.LastActivityAt)
		assert.True(t, got.LastActivityAt.Equal(at))
		assert.Equal(t, "Acme 50%_off", got.Company)
		assert.True(t, got.UpdatedAt.Equal(stamp))
		assert.True(t, got.CreatedAt.Equal(base))

		// writing the same values again is still a match
		_, err = leads.UpdateByIDAndOwner(ctx, a1.ID, alice.ID, model.LeadPatch{Score: ptr(42)}, stamp)
		assert.NoError(t, err)

		_, err = leads.UpdateByIDAndOwner(ctx, a1.ID, bob.ID, model.LeadPatch{Score: ptr(1)}, stamp)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		_, err = leads.UpdateByIDAndOwner(ctx, a1.ID, alice.ID, model.LeadPatch{Email: ptr("a2@x.com")}, stamp)
		assert.ErrorIs(t, err, repository.ErrDuplicate)

		untouched, err := leads.GetByIDAndOwner(ctx, b1.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, untouched.Score)
	})

	search := func(t *testing.T, owner string, page, limit int, cs ...query.Clause) ([]string, int64) {
		t.Helper()
		got, total, err := leads.Search(ctx, query.LeadQuery{OwnerID: owner, Clauses: cs, Page: page, Limit: limit})
		require.NoError(t, err)
		ids := []string{}
		for _, l := range got {
			ids = append(ids, l.ID)
		}
		return ids, total
	}

	t.Run("search", func(t *testing.T) {
		ids, total := search(t, alice.ID, 1, 20)
		assert.Equal(t, []string{a3.ID, a2.ID, a1.ID}, ids)
		assert.EqualValues(t, 3, total)

		ids, total = search(t, alice.ID, 2, 2)
		assert.Equal(t, []string{a1.ID}, ids)
		assert.EqualValues(t, 3, total)

		ids, _ = search(t, alice.ID, 1, 20, clause(t, query.FieldCompany, query.OpContains, "ACME"))
		assert.Equal(t, []string{a3.ID, a1.ID}, ids)

		ids, _ = search(t, alice.ID, 1, 20, clause(t, query.FieldCompany, query.OpContains, "50%_"))
		assert.Equal(t, []string{a1.ID}, ids)

		ids, _ = search(t, alice.ID, 1, 20, clause(t, query.FieldCity, query.OpEq, "Austin"))
		assert.Equal(t, []string{a1.ID}, ids)

		ids, _ = search(t, alice.ID, 1, 20, clause(t, query.FieldStatus, query.OpIn, "won", "contacted"))
		assert.Equal(t, []string{a3.ID, a2.ID}, ids)

		ids, _ = search(t, alice.ID, 1, 20, clause(t, query.FieldScore, query.OpBetween, 40.0, 50.0))
		assert.Equal(t, []string{a3.ID, a1.ID}, ids)

		ids, _ = search(t, alice.ID, 1, 20, clause(t, query.FieldLeadValue, query.OpGt, 750.0))
		assert.Equal(t, []string{a2.ID}, ids)

		ids, _ = search(t, alice.ID, 1, 20, clause(t, query.FieldIsQualified, query.OpEq, true))
		assert.Equal(t, []string{a1.ID}, ids)

		ids, _ = search(t, alice.ID, 1, 20, clause(t, query.FieldCreatedAt, query.OpOn, base.Add(24*time.Hour)))
		assert.Equal(t, []string{a2.ID}, ids)

		ids, _ = search(t, alice.ID, 1, 20, clause(t, query.FieldCreatedAt, query.OpBefore, base.Add(24*time.Hour)))
		assert.Equal(t, []string{a1.ID}, ids)

		ids, total = search(t, alice.ID, 1, 20,
			clause(t, query.FieldCity, query.OpContains, "aus"),
			clause(t, query.FieldScore, query.OpLt, 45.0))
		assert.Equal(t, []string{a1.ID}, ids)
		assert.EqualValues(t, 1, total)

		ids, total = search(t, bob.ID, 1, 20)
		assert.Equal(t, []string{b1.ID}, ids)
		assert.EqualValues(t, 1, total)

		ids, total = search(t, alice.ID, 5, 20)
		assert.Empty(t, ids)
		assert.EqualValues(t, 3, total)
	})

	t.Run("delete", func(t *testing.T) {
		assert.ErrorIs(t, leads.DeleteByIDAndOwner(ctx, a2.ID, bob.ID), repository.ErrNotFound)
		require.NoError(t, leads.DeleteByIDAndOwner(ctx, a2.ID, alice.ID))
		assert.ErrorIs(t, leads.DeleteByIDAndOwner(ctx, a2.ID, alice.ID), repository.ErrNotFound)

		n, err := leads.CountByOwner(ctx, alice.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)
		n, err = leads.CountByOwner(ctx, bob.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("concurrent creates with one email", func(t *testing.T) {
		const n = 20
		var (
			wg       sync.WaitGroup
			start    = make(chan struct{})
			created  atomic.Int32
			dupes    atomic.Int32
			otherErr = make(chan error, 2*n)
		)
		for i := 0; i < n; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				<-start
				err := leads.Create(ctx, &model.Lead{
					OwnerID: bob.ID, FirstName: "R", LastName: "C", Email: "race@x.com",
					Source: model.SourceOther, Status: model.StatusNew,
				})
				switch {
				case err == nil:
					created.Add(1)
				case errors.Is(err, repository.ErrDuplicate):
					dupes.Add(1)
				default:
					otherErr <- err
				}
			}()
			go func() {
				defer wg.Done()
				<-start
				err := users.Create(ctx, &model.User{Email: "carol@example.com", PasswordHash: "h", FirstName: "C", LastName: "C"})
				if err != nil && !errors.Is(err, repository.ErrEmailExists) {
					otherErr <- err
				}
			}()
		}
		close(start)
		wg.Wait()
		close(otherErr)
		for err := range otherErr {
			t.Errorf("unexpected error: %v", err)
		}

		assert.EqualValues(t, 1, created.Load())
		assert.EqualValues(t, n-1, dupes.Load())
		count, err := leads.CountByOwner(ctx, bob.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)

		carol, err := users.GetByEmail(ctx, "carol@example.com")
		require.NoError(t, err)
		assert.NotEmpty(t, carol.ID)
	})
}
