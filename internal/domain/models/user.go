// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRecord is the normalized user kept in a session.
// Role is always canonical once a record has passed through normalize.User.
type UserRecord struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Role      Role       `json:"role"`
	Enabled   bool       `json:"enabled"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// FullName joins first and last name, skipping empty parts.
func (u UserRecord) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Session is the pair persisted per browser: an opaque access token and
// the user it belongs to. Both are set together or both are empty.
type Session struct {
	Token string
	User  *UserRecord
}

// Authenticated reports whether the session carries a token.
func (s Session) Authenticated() bool { return s.Token != "" }

// DirectoryUser is a user document in the local MongoDB directory.
//
// Roles is stored as an array of role names, the same shape the upstream
// API returns, so directory users go through the same normalization path.
type DirectoryUser struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Email       string             `bson:"email"`
	EmailCI     string             `bson:"email_ci"` // folded for lookups
	Password    string             `bson:"password"` // bcrypt hash
	FirstName   string             `bson:"firstName"`
	LastName    string             `bson:"lastName"`
	PhoneNumber string             `bson:"phoneNumber,omitempty"`
	Address     string             `bson:"address,omitempty"`
	Roles       []string           `bson:"roles"`
	Enabled     bool               `bson:"enabled"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}
