package mongorepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/iliyamo/leadbook/internal/model"
	"github.com/iliyamo/leadbook/internal/query"
	"github.com/iliyamo/leadbook/internal/repository"
)

// leadDoc is the stored shape of a lead.  Field names match the query
// string names so filters need no translation table.
type leadDoc struct {
	ID             bson.ObjectID `bson:"_id,omitempty"`
	OwnerID        bson.ObjectID `bson:"userId"`
	FirstName      string        `bson:"firstName"`
	LastName       string        `bson:"lastName"`
	Email          string        `bson:"email"`
	Phone          string        `bson:"phone"`
	Company        string        `bson:"company"`
	City           string        `bson:"city"`
	State          string        `bson:"state"`
	Source         string        `bson:"source"`
	Status         string        `bson:"status"`
	Score          int           `bson:"score"`
	LeadValue      float64       `bson:"leadValue"`
	LastActivityAt *time.Time    `bson:"lastActivityAt,omitempty"`
	IsQualified    bool          `bson:"isQualified"`
	CreatedAt      time.Time     `bson:"createdAt"`
	UpdatedAt      time.Time     `bson:"updatedAt"`
}

func (d leadDoc) model() model.Lead {
	l := model.Lead{
		ID:          d.ID.Hex(),
		OwnerID:     d.OwnerID.Hex(),
		FirstName:   d.FirstName,
		LastName:    d.LastName,
		Email:       d.Email,
		Phone:       d.Phone,
		Company:     d.Company,
		City:        d.City,
		State:       d.State,
		Source:      model.Source(d.Source),
		Status:      model.Status(d.Status),
		Score:       d.Score,
		LeadValue:   d.LeadValue,
		IsQualified: d.IsQualified,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.LastActivityAt != nil {
		t := d.LastActivityAt.UTC()
		l.LastActivityAt = &t
	}
	return l
}

// LeadStore keeps leads in the "leads" collection.  Every filter carries
// the owner's id.
type LeadStore struct {
	coll *mongo.Collection
}

func NewLeadStore(db *mongo.Database) *LeadStore {
	return &LeadStore{coll: db.Collection(leadsCollection)}
}

func (s *LeadStore) Create(ctx context.Context, l *model.Lead) error {
	owner, err := objectID(l.OwnerID)
	if err != nil {
		return err
	}
	ts := now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = ts
	} else {
		l.CreatedAt = l.CreatedAt.UTC().Truncate(time.Millisecond)
	}
	l.UpdatedAt = ts
	doc := leadDoc{
		ID:          bson.NewObjectID(),
		OwnerID:     owner,
		FirstName:   l.FirstName,
		LastName:    l.LastName,
		Email:       l.Email,
		Phone:       l.Phone,
		Company:     l.Company,
		City:        l.City,
		State:       l.State,
		Source:      string(l.Source),
		Status:      string(l.Status),
		Score:       l.Score,
		LeadValue:   l.LeadValue,
		IsQualified: l.IsQualified,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
	if l.LastActivityAt != nil {
		t := l.LastActivityAt.UTC().Truncate(time.Millisecond)
		doc.LastActivityAt = &t
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	l.ID = doc.ID.Hex()
	return nil
}

// ownedFilter matches one lead of one owner.
func ownedFilter(id, ownerID string) (bson.D, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	owner, err := objectID(ownerID)
	if err != nil {
		return nil, err
	}
	return bson.D{{Key: "_id", Value: oid}, {Key: "userId", Value: owner}}, nil
}

func (s *LeadStore) GetByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Lead, error) {
	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return nil, err
	}
	var d leadDoc
	if err := s.coll.FindOne(ctx, filter).Decode(&d); err != nil {
		return nil, notFound(err)
	}
	l := d.model()
	return &l, nil
}

// UpdateByIDAndOwner applies p with a single $set and returns the updated
// document.
func (s *LeadStore) UpdateByIDAndOwner(ctx context.Context, id, ownerID string, p model.LeadPatch, updatedAt time.Time) (*model.Lead, error) {
	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return nil, err
	}
	set := patchSet(p)
	set = append(set, bson.E{Key: "updatedAt", Value: updatedAt.UTC().Truncate(time.Millisecond)})

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d leadDoc
	err = s.coll.FindOneAndUpdate(ctx, filter, bson.D{{Key: "$set", Value: set}}, opts).Decode(&d)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, notFound(err)
	}
	l := d.model()
	return &l, nil
}

func patchSet(p model.LeadPatch) bson.D {
	var set bson.D
	add := func(k string, v any) { set = append(set, bson.E{Key: k, Value: v}) }
	if p.FirstName != nil {
		add("firstName", *p.FirstName)
	}
	if p.LastName != nil {
		add("lastName", *p.LastName)
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
		add("leadValue", *p.LeadValue)
	}
	if p.LastActivityAt != nil {
		add("lastActivityAt", p.LastActivityAt.UTC().Truncate(time.Millisecond))
	}
	if p.IsQualified != nil {
		add("isQualified", *p.IsQualified)
	}
	return set
}

func (s *LeadStore) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error {
	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *LeadStore) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	owner, err := objectID(ownerID)
	if err != nil {
		return 0, nil
	}
	return s.coll.CountDocuments(ctx, bson.D{{Key: "userId", Value: owner}})
}

// Search returns one page of matches, newest first, and the total count.
func (s *LeadStore) Search(ctx context.Context, q query.LeadQuery) ([]model.Lead, int64, error) {
	owner, err := objectID(q.OwnerID)
	if err != nil {
		return []model.Lead{}, 0, nil
	}
	filter, err := leadFilter(q, owner)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(q.Offset())).
		SetLimit(int64(q.Limit))
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	var docs []leadDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, err
	}
	out := make([]model.Lead, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, total, nil
}
