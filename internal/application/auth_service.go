package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/homedash/internal/persistence"
)

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// PasswordHasher derives a storable hash from a plaintext password.
type PasswordHasher func(password string) (string, error)

// Principal is the authenticated identity attached to a validated session.
type Principal struct {
	UserID             string
	IsAdmin            bool
	MustChangePassword bool
}

// AuthResult carries the outcome of a successful login.
type AuthResult struct {
	User    persistence.User
	Session persistence.Session
}

// AuthService coordinates authentication flows: login, session validation,
// credential rotation, and logout.
type AuthService struct {
	users          persistence.UserRepository
	sessions       persistence.SessionRepository
	verifyPassword PasswordVerifier
	hashPassword   PasswordHasher
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
// Nil collaborators get production defaults.
func NewAuthService(users persistence.UserRepository, sessions persistence.SessionRepository, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		users:          users,
		sessions:       sessions,
		verifyPassword: VerifyPassword,
		hashPassword: func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		},
		tokenGenerator: uuid.NewString,
		now:            time.Now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate validates credentials and issues a new session token. Unknown
// account, proxy-provisioned account, and wrong password all fail with the
// same error.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (result AuthResult, err error) {
	if s == nil || s.users == nil || s.sessions == nil {
		err = fmt.Errorf("auth service not configured")
		return
	}

	normalized := strings.TrimSpace(strings.ToLower(email))
	logger := s.loggerWith(ctx, "Authenticate", "email", normalized)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"user_id", result.User.ID,
			"session_id", result.Session.ID,
		).InfoContext(ctx, "authentication succeeded")
	}()

	if normalized == "" || password == "" {
		err = ErrInvalidCredentials
		return
	}

	var user persistence.User
	user, err = s.users.GetUserByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	// Proxy-provisioned accounts carry the unusable sentinel and can never
	// log in with a password.
	if !user.HasLocalPassword || user.PasswordHash == persistence.SentinelPasswordHash {
		err = ErrInvalidCredentials
		return
	}

	if err = s.verifyPassword(user.PasswordHash, password); err != nil {
		err = ErrInvalidCredentials
		return
	}

	now := s.now()
	session := persistence.Session{
		ID:        s.tokenGenerator(),
		UserID:    user.ID,
		Token:     s.tokenGenerator(),
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}

	if err = s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		return
	}
	session, err = s.sessions.CreateSession(ctx, session)
	if err != nil {
		return
	}

	result = AuthResult{User: user, Session: session}
	return
}

// ValidateSession verifies that the provided token corresponds to an active
// session and returns its principal. A pending forced password change is
// surfaced on the principal, not treated as a failure.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if s == nil || s.users == nil || s.sessions == nil {
		err = fmt.Errorf("auth service not configured")
		return
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if trimmed == "" {
		err = ErrUnauthorized
		return
	}

	var session persistence.Session
	session, err = s.sessions.GetSession(ctx, trimmed)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrUnauthorized
		}
		return
	}

	now := s.now()
	if session.RevokedAt != nil && !session.RevokedAt.IsZero() {
		err = ErrSessionRevoked
		return
	}
	if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(now) {
		err = ErrSessionExpired
		return
	}

	var user persistence.User
	user, err = s.users.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrUnauthorized
		}
		return
	}

	principal = Principal{
		UserID:             user.ID,
		IsAdmin:            user.IsAdmin,
		MustChangePassword: user.MustChangePassword,
	}
	return
}

// ChangePassword rotates a user's credential and revokes every session the
// user holds, so stolen tokens die with the old password.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if s == nil || s.users == nil || s.sessions == nil {
		return fmt.Errorf("auth service not configured")
	}

	logger := s.loggerWith(ctx, "ChangePassword", "user_id", userID)

	validation := &ValidationError{}
	if len(newPassword) < 8 {
		validation.add("password", "must be at least 8 characters")
	}
	if newPassword == currentPassword {
		validation.add("password", "must differ from the current password")
	}
	if validation.HasErrors() {
		logger.ErrorContext(ctx, "password change rejected", "error_kind", ErrorKind(validation))
		return validation
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if !user.HasLocalPassword {
		logger.ErrorContext(ctx, "password change rejected for proxy account")
		return ErrUnauthorized
	}
	if err := s.verifyPassword(user.PasswordHash, currentPassword); err != nil {
		logger.ErrorContext(ctx, "password change rejected", "error_kind", ErrorKind(ErrInvalidCredentials))
		return ErrInvalidCredentials
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash, false); err != nil {
		return err
	}

	if err := s.sessions.RevokeSessionsForUser(ctx, userID, s.now()); err != nil {
		logger.ErrorContext(ctx, "failed to revoke sessions after password change", "error", err)
		return err
	}

	logger.InfoContext(ctx, "password changed, sessions revoked")
	return nil
}

// Logout invalidates an existing session token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if s == nil || s.sessions == nil {
		return fmt.Errorf("auth service not configured")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "Logout")

	if _, err := s.sessions.RevokeSession(ctx, trimmed, s.now()); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrUnauthorized
		}
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if err := s.sessions.DeleteExpiredSessions(ctx, s.now()); err != nil {
		logger.ErrorContext(ctx, "failed to prune expired sessions", "error", err)
		return err
	}

	logger.InfoContext(ctx, "session revoked")
	return nil
}
