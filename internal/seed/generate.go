// Package seed generates demo leads with a realistic pipeline shape: most
// leads are new or contacted, scores and values rise with the stage, and
// creation dates spread over the last six months.
package seed

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/leadbook/internal/model"
)

var (
	cities    = []string{"New York", "Los Angeles", "Chicago", "Houston", "Phoenix", "Philadelphia", "San Antonio", "San Diego", "Dallas", "San Jose", "Austin", "Jacksonville", "Fort Worth", "Columbus", "Charlotte", "San Francisco", "Indianapolis", "Seattle", "Denver", "Washington"}
	states    = []string{"NY", "CA", "IL", "TX", "AZ", "PA", "TX", "CA", "TX", "CA", "TX", "FL", "TX", "OH", "NC", "CA", "IN", "WA", "CO", "DC"}
	companies = []string{"Tech Corp", "StartupXYZ", "Global Solutions", "Innovation Labs", "Digital Agency", "Consulting Group", "Software Inc", "Data Systems", "Cloud Services", "Mobile Apps", "AI Solutions", "Blockchain Co", "E-commerce Pro", "Marketing Masters", "Sales Force", "Customer Success", "Growth Hacking", "Product Labs", "Design Studio", "Analytics Pro"}
	first     = []string{"John", "Jane", "Michael", "Sarah", "David", "Emily", "Robert", "Jessica", "William", "Ashley", "James", "Amanda", "Christopher", "Jennifer", "Daniel", "Lisa", "Matthew", "Nancy", "Anthony", "Karen", "Mark", "Betty", "Donald", "Helen", "Steven", "Sandra", "Paul", "Donna", "Andrew", "Carol"}
	last      = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez", "Wilson", "Anderson", "Thomas", "Taylor", "Moore", "Jackson", "Martin", "Lee", "Perez", "Thompson", "White", "Harris", "Sanchez", "Clark", "Ramirez", "Lewis", "Robinson"}
)

// stage weights sum to one; scoreFloor and baseValue describe each stage.
var stages = []struct {
	status     model.Status
	weight     float64
	scoreFloor int
	baseValue  float64
}{
	{model.StatusNew, 0.30, 20, 100},
	{model.StatusContacted, 0.25, 40, 500},
	{model.StatusQualified, 0.20, 60, 2000},
	{model.StatusWon, 0.15, 80, 5000},
	{model.StatusLost, 0.10, 0, 100},
}

// Generator produces random leads.  It is not safe for concurrent use.
type Generator struct {
	r   *rand.Rand
	now func() time.Time
}

// NewGenerator returns a Generator drawing from r.  A nil r uses a
// randomly seeded source.
func NewGenerator(r *rand.Rand) *Generator {
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{r: r, now: time.Now}
}

func pick[T any](r *rand.Rand, xs []T) T { return xs[r.IntN(len(xs))] }

// Lead builds one lead for ownerID.  The email carries a short random
// suffix so repeated runs never collide on (owner, email).
func (g *Generator) Lead(ownerID string) *model.Lead {
	r := g.r
	fn, ln := pick(r, first), pick(r, last)
	ci := r.IntN(len(cities))

	st := stages[0]
	roll, acc := r.Float64(), 0.0
	for _, s := range stages {
		acc += s.weight
		if roll <= acc {
			st = s
			break
		}
	}

	value := st.baseValue + r.Float64()*st.baseValue*0.5
	value = math.Round(value*100) / 100

	now := g.now().UTC()
	created := now.AddDate(0, -r.IntN(6), 0)
	created = time.Date(created.Year(), created.Month(), r.IntN(28)+1,
		created.Hour(), created.Minute(), created.Second(), 0, time.UTC)
	if created.After(now) {
		created = created.AddDate(0, -1, 0)
	}

	var activity *time.Time
	if r.Float64() > 0.3 {
		t := now.Add(-time.Duration(r.Int64N(int64(30 * 24 * time.Hour)))).Truncate(time.Millisecond)
		activity = &t
	}

	domain := strings.ToLower(strings.ReplaceAll(pick(r, companies), " ", ""))
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]

	return &model.Lead{
		OwnerID:        ownerID,
		FirstName:      fn,
		LastName:       ln,
		Email:          fmt.Sprintf("%s.%s.%s@%s.com", strings.ToLower(fn), strings.ToLower(ln), suffix, domain),
		Phone:          fmt.Sprintf("+1%d", r.Int64N(9_000_000_000)+1_000_000_000),
		Company:        pick(r, companies),
		City:           cities[ci],
		State:          states[ci],
		Source:         pick(r, model.Sources),
		Status:         st.status,
		Score:          st.scoreFloor + r.IntN(20),
		LeadValue:      value,
		LastActivityAt: activity,
		IsQualified:    st.status == model.StatusQualified || st.status == model.StatusWon || r.Float64() > 0.8,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
}
