package persistence

import "time"

// SentinelPasswordHash replaces placeholder credentials on accounts that
// authenticate through an external proxy. The leading "!" makes the value
// unparseable as a PHC hash string, so no verification attempt can succeed.
const SentinelPasswordHash = "!unusable-password"

// User is a dashboard account. Accounts provisioned by an authentication
// proxy carry HasLocalPassword=false and never hold a usable credential.
type User struct {
	ID                 string
	Email              string
	DisplayName        string
	PasswordHash       string
	IsAdmin            bool
	MustChangePassword bool
	HasLocalPassword   bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Session is an issued login session. Sessions are invalidated together
// whenever the owning user's credential changes.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// Board is a dashboard page. LayoutJSON holds the widget layout payload:
// either a bare array of widget descriptors or an object with a "widgets"
// array field.
type Board struct {
	ID         string
	Name       string
	LayoutJSON *string
	IsHome     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IntegrationInstance is one configured instance of an external integration.
// Multiple instances of the same type may coexist; the id is derived from the
// type plus a discriminator (for example "plex-primary").
type IntegrationInstance struct {
	ID        string
	Type      string
	Name      string
	Config    string
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IntegrationShare grants an integration instance to a user or group.
// Uniqueness holds per (integration_id, share_type, share_target).
type IntegrationShare struct {
	ID            string
	IntegrationID string
	ShareType     string
	ShareTarget   string
	CreatedAt     time.Time
}
