package model

import "time"

// User represents an account that owns leads.  The password is only ever
// held as a bcrypt hash; PasswordHash is excluded from JSON so a User can
// never leak it through a handler by accident.
//
// Fields:
//  ID           – store identifier rendered as a string.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hash of the password.
//  FirstName    – display first name.
//  LastName     – display last name.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicUser is the subset of a user returned by the auth endpoints.
type PublicUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Public strips everything but the identity fields.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

// Identity is the verified caller of a request.  It is produced only by the
// session gate after the token signature, expiry and user lookup succeed,
// and it is the single value lead handlers use to scope their work.
type Identity struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string
}

// Public renders the identity the same way as User.Public.
func (i Identity) Public() PublicUser {
	return PublicUser{ID: i.UserID, Email: i.Email, FirstName: i.FirstName, LastName: i.LastName}
}
