package seed

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/leadbook/internal/model"
)

func TestGenerator_LeadShape(t *testing.T) {
	now := time.Date(2024, 8, 15, 12, 0, 0, 0, time.UTC)
	g := NewGenerator(rand.New(rand.NewPCG(1, 2)))
	g.now = func() time.Time { return now }

	seen := map[string]bool{}
	counts := map[model.Status]int{}
	for i := 0; i < 500; i++ {
		l := g.Lead("owner-1")
		require.Equal(t, "owner-1", l.OwnerID)
		assert.True(t, l.Status.Valid(), l.Status)
		assert.True(t, l.Source.Valid(), l.Source)
		assert.GreaterOrEqual(t, l.Score, 0)
		assert.LessOrEqual(t, l.Score, 100)
		assert.GreaterOrEqual(t, l.LeadValue, 100.0)
		assert.False(t, l.CreatedAt.After(now))
		assert.True(t, l.CreatedAt.After(now.AddDate(0, -7, 0)))
		if l.Status == model.StatusWon || l.Status == model.StatusQualified {
			assert.True(t, l.IsQualified)
		}
		if l.Status == model.StatusWon {
			assert.GreaterOrEqual(t, l.Score, 80)
			assert.GreaterOrEqual(t, l.LeadValue, 5000.0)
		}
		if l.Status == model.StatusLost {
			assert.Less(t, l.Score, 20)
		}
		assert.False(t, seen[l.Email], "duplicate email %s", l.Email)
		seen[l.Email] = true
		counts[l.Status]++
	}
	// new is the most common stage, lost the rarest
	assert.Greater(t, counts[model.StatusNew], counts[model.StatusLost])
}
