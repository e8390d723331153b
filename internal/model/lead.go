package model

import (
	"encoding/json"
	"time"
)

// Source is the acquisition channel of a lead.
type Source string

const (
	SourceWebsite     Source = "website"
	SourceFacebookAds Source = "facebook_ads"
	SourceGoogleAds   Source = "google_ads"
	SourceReferral    Source = "referral"
	SourceEvents      Source = "events"
	SourceOther       Source = "other"
)

// Sources lists every accepted Source in display order.
var Sources = []Source{SourceWebsite, SourceFacebookAds, SourceGoogleAds, SourceReferral, SourceEvents, SourceOther}

// Valid reports whether s belongs to the closed source enumeration.
func (s Source) Valid() bool {
	for _, v := range Sources {
		if v == s {
			return true
		}
	}
	return false
}

// Status is the pipeline stage of a lead.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusQualified Status = "qualified"
	StatusLost      Status = "lost"
	StatusWon       Status = "won"
)

// Statuses lists every accepted Status in pipeline order.
var Statuses = []Status{StatusNew, StatusContacted, StatusQualified, StatusLost, StatusWon}

// Valid reports whether s belongs to the closed status enumeration.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// Lead is a prospective customer owned by exactly one user.  ID is the
// store's identifier rendered as a string (decimal for MySQL, ObjectID hex
// for MongoDB) so that handlers and clients never depend on the driver.
//
// Fields:
//  OwnerID        – id of the owning user; never changes after create.
//  Score          – 0..100 inclusive.
//  LeadValue      – monetary value, never negative.
//  LastActivityAt – optional, nil when the lead was never touched.
type Lead struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"userId"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Company        string     `json:"company"`
	City           string     `json:"city"`
	State          string     `json:"state"`
	Source         Source     `json:"source"`
	Status         Status     `json:"status"`
	Score          int        `json:"score"`
	LeadValue      float64    `json:"leadValue"`
	LastActivityAt *time.Time `json:"lastActivityAt"`
	IsQualified    bool       `json:"isQualified"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// LeadPatch carries the fields of a partial update.  A nil pointer means
// "leave unchanged".  LastActivityAt cannot be cleared through a patch.
type LeadPatch struct {
	FirstName      *string
	LastName       *string
	Email          *string
	Phone          *string
	Company        *string
	City           *string
	State          *string
	Source         *Source
	Status         *Status
	Score          *int
	LeadValue      *float64
	LastActivityAt *time.Time
	IsQualified    *bool
}

// IsEmpty reports whether the patch changes no field.
func (p LeadPatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.Phone == nil &&
		p.Company == nil && p.City == nil && p.State == nil && p.Source == nil &&
		p.Status == nil && p.Score == nil && p.LeadValue == nil &&
		p.LastActivityAt == nil && p.IsQualified == nil
}

// Apply copies the non-nil fields of p onto l.  Stores that cannot express
// the update as a single statement use it to build the replacement record.
func (p LeadPatch) Apply(l *Lead) {
	if p.FirstName != nil {
		l.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		l.LastName = *p.LastName
	}
	if p.Email != nil {
		l.Email = *p.Email
	}
	if p.Phone != nil {
		l.Phone = *p.Phone
	}
	if p.Company != nil {
		l.Company = *p.Company
	}
	if p.City != nil {
		l.City = *p.City
	}
	if p.State != nil {
		l.State = *p.State
	}
	if p.Source != nil {
		l.Source = *p.Source
	}
	if p.Status != nil {
		l.Status = *p.Status
	}
	if p.Score != nil {
		l.Score = *p.Score
	}
	if p.LeadValue != nil {
		l.LeadValue = *p.LeadValue
	}
	if p.LastActivityAt != nil {
		t := *p.LastActivityAt
		l.LastActivityAt = &t
	}
	if p.IsQualified != nil {
		l.IsQualified = *p.IsQualified
	}
}

// MarshalJSON emits the id a second time as "_id", the key browser clients
// of the document-store era still read.
func (l Lead) MarshalJSON() ([]byte, error) {
	type plain Lead
	return json.Marshal(struct {
		plain
		LegacyID string `json:"_id"`
	}{plain: plain(l), LegacyID: l.ID})
}
