package leadclient

import "time"

// User is the public part of an account.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Lead is a lead as returned by the API.
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
	Source         string     `json:"source"`
	Status         string     `json:"status"`
	Score          int        `json:"score"`
	LeadValue      float64    `json:"leadValue"`
	LastActivityAt *time.Time `json:"lastActivityAt"`
	IsQualified    bool       `json:"isQualified"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// LeadInput is the body of create and update requests.  Nil fields are
// left out of the JSON; on update that means "unchanged".
type LeadInput struct {
	FirstName      *string    `json:"firstName,omitempty"`
	LastName       *string    `json:"lastName,omitempty"`
	Email          *string    `json:"email,omitempty"`
	Phone          *string    `json:"phone,omitempty"`
	Company        *string    `json:"company,omitempty"`
	City           *string    `json:"city,omitempty"`
	State          *string    `json:"state,omitempty"`
	Source         *string    `json:"source,omitempty"`
	Status         *string    `json:"status,omitempty"`
	Score          *int       `json:"score,omitempty"`
	LeadValue      *float64   `json:"leadValue,omitempty"`
	LastActivityAt *time.Time `json:"lastActivityAt,omitempty"`
	IsQualified    *bool      `json:"isQualified,omitempty"`
}

// LeadPage is one page of a lead listing.
type LeadPage struct {
	Data       []Lead `json:"data"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	Total      int64  `json:"total"`
	TotalPages int    `json:"totalPages"`
}

// Ptr returns a pointer to v, for filling LeadInput.
func Ptr[T any](v T) *T { return &v }
