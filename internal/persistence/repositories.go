package persistence

import (
	"context"
	"time"
)

// UserRepository captures persistence operations for dashboard accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	UpdatePassword(ctx context.Context, id, passwordHash string, mustChange bool) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// SessionRepository captures persistence operations for login sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	RevokeSessionsForUser(ctx context.Context, userID string, revokedAt time.Time) error
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// BoardRepository captures persistence operations for dashboard boards.
type BoardRepository interface {
	CreateBoard(ctx context.Context, board Board) error
	GetBoard(ctx context.Context, id string) (Board, error)
	ListBoards(ctx context.Context) ([]Board, error)
	SaveLayout(ctx context.Context, id string, layoutJSON *string) error
	SetHomeBoard(ctx context.Context, id string) error
	DeleteBoard(ctx context.Context, id string) error
}

// IntegrationRepository captures persistence operations for integration
// instances and their shares.
type IntegrationRepository interface {
	CreateIntegration(ctx context.Context, instance IntegrationInstance) error
	UpdateIntegration(ctx context.Context, instance IntegrationInstance) error
	GetIntegration(ctx context.Context, id string) (IntegrationInstance, error)
	ListIntegrations(ctx context.Context) ([]IntegrationInstance, error)
	DeleteIntegration(ctx context.Context, id string) error

	CreateShare(ctx context.Context, share IntegrationShare) error
	ListShares(ctx context.Context, integrationID string) ([]IntegrationShare, error)
}
