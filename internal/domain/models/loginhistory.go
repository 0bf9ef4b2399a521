// internal/domain/models/loginhistory.go
package models

import "time"

// Login record events.
const (
	LoginEventLogin  = "login"
	LoginEventLogout = "logout"
)

// LoginRecord captures a session being established or torn down.
// CreatedAt is indexed for recent-activity views.
type LoginRecord struct {
	UserID    string    `bson:"user_id"`
	Email     string    `bson:"email"`
	Role      string    `bson:"role"`
	Event     string    `bson:"event"`
	IP        string    `bson:"ip"`
	UserAgent string    `bson:"user_agent,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}
