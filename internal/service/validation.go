package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/leadbook/internal/model"
)

// LeadInput is the body of a lead create request.  Pointers tell a missing
// field apart from a zero value.
type LeadInput struct {
	FirstName      *string       `json:"firstName" validate:"required,min=1,max=100"`
	LastName       *string       `json:"lastName" validate:"required,min=1,max=100"`
	Email          *string       `json:"email" validate:"required,email,max=255"`
	Phone          *string       `json:"phone" validate:"required,min=1,max=50"`
	Company        *string       `json:"company" validate:"required,min=1,max=255"`
	City           *string       `json:"city" validate:"required,min=1,max=100"`
	State          *string       `json:"state" validate:"required,min=1,max=100"`
	Source         *model.Source `json:"source" validate:"required,oneof=website facebook_ads google_ads referral events other"`
	Status         *model.Status `json:"status" validate:"omitempty,oneof=new contacted qualified lost won"`
	Score          *int          `json:"score" validate:"required,min=0,max=100"`
	LeadValue      *float64      `json:"leadValue" validate:"required,min=0"`
	LastActivityAt *time.Time    `json:"lastActivityAt"`
	IsQualified    *bool         `json:"isQualified"`
}

// LeadUpdateInput is the body of a partial update.  Only supplied fields
// are validated, with the same rules as on create.
type LeadUpdateInput struct {
	FirstName      *string       `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName       *string       `json:"lastName" validate:"omitempty,min=1,max=100"`
	Email          *string       `json:"email" validate:"omitempty,email,max=255"`
	Phone          *string       `json:"phone" validate:"omitempty,min=1,max=50"`
	Company        *string       `json:"company" validate:"omitempty,min=1,max=255"`
	City           *string       `json:"city" validate:"omitempty,min=1,max=100"`
	State          *string       `json:"state" validate:"omitempty,min=1,max=100"`
	Source         *model.Source `json:"source" validate:"omitempty,oneof=website facebook_ads google_ads referral events other"`
	Status         *model.Status `json:"status" validate:"omitempty,oneof=new contacted qualified lost won"`
	Score          *int          `json:"score" validate:"omitempty,min=0,max=100"`
	LeadValue      *float64      `json:"leadValue" validate:"omitempty,min=0"`
	LastActivityAt *time.Time    `json:"lastActivityAt"`
	IsQualified    *bool         `json:"isQualified"`
}

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
}

// LoginInput is the body of a login request.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their wire names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var labels = map[string]string{
	"firstName": "First name",
	"lastName":  "Last name",
	"email":     "Email",
	"password":  "Password",
	"phone":     "Phone",
	"company":   "Company",
	"city":      "City",
	"state":     "State",
	"source":    "Source",
	"status":    "Status",
	"score":     "Score",
	"leadValue": "Lead value",
}

// check runs the struct validator and converts its report into a
// *ValidationError.
func check(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range ves {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	label := labels[field]
	if label == "" {
		label = field
	}
	switch field {
	case "score":
		if fe.Tag() != "required" {
			return "Score must be between 0 and 100"
		}
	case "leadValue":
		if fe.Tag() != "required" {
			return "Lead value must be positive"
		}
	case "email":
		if fe.Tag() == "email" {
			return "Please enter a valid email"
		}
	case "password":
		if fe.Tag() == "min" {
			return "Password must be at least 6 characters"
		}
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return label + " is required"
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return label + " is invalid"
}

func trim(p *string) {
	if p != nil {
		*p = strings.TrimSpace(*p)
	}
}

// normalize trims every string field in place and lower-cases the email,
// the way the record stores compare them.
func (in *LeadInput) normalize() {
	for _, p := range []*string{in.FirstName, in.LastName, in.Email, in.Phone, in.Company, in.City, in.State} {
		trim(p)
	}
	if in.Email != nil {
		*in.Email = strings.ToLower(*in.Email)
	}
}

func (in *LeadUpdateInput) normalize() {
	for _, p := range []*string{in.FirstName, in.LastName, in.Email, in.Phone, in.Company, in.City, in.State} {
		trim(p)
	}
	if in.Email != nil {
		*in.Email = strings.ToLower(*in.Email)
	}
}

func (in *RegisterInput) normalize() {
	in.Email = normalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
}

func msTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Millisecond)
	return &v
}

// lead builds the record to insert; status defaults to new.
func (in LeadInput) lead(ownerID string) *model.Lead {
	l := &model.Lead{
		OwnerID:        ownerID,
		FirstName:      *in.FirstName,
		LastName:       *in.LastName,
		Email:          *in.Email,
		Phone:          *in.Phone,
		Company:        *in.Company,
		City:           *in.City,
		State:          *in.State,
		Source:         *in.Source,
		Status:         model.StatusNew,
		Score:          *in.Score,
		LeadValue:      *in.LeadValue,
		LastActivityAt: msTime(in.LastActivityAt),
	}
	if in.Status != nil {
		l.Status = *in.Status
	}
	if in.IsQualified != nil {
		l.IsQualified = *in.IsQualified
	}
	return l
}

func (in LeadUpdateInput) patch() model.LeadPatch {
	return model.LeadPatch{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Phone:          in.Phone,
		Company:        in.Company,
		City:           in.City,
		State:          in.State,
		Source:         in.Source,
		Status:         in.Status,
		Score:          in.Score,
		LeadValue:      in.LeadValue,
		LastActivityAt: msTime(in.LastActivityAt),
		IsQualified:    in.IsQualified,
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
