package application

import (
	"context"
	"time"

	"github.com/example/homedash/internal/persistence"
)

// In-memory repository fakes for service tests.

type fakeUserRepo struct {
	users map[string]persistence.User
}

func newFakeUserRepo(users ...persistence.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]persistence.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeUserRepo) CreateUser(ctx context.Context, user persistence.User) error {
	if _, ok := r.users[user.ID]; ok {
		return persistence.ErrDuplicate
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) UpdateUser(ctx context.Context, user persistence.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, mustChange bool) error {
	user, ok := r.users[id]
	if !ok {
		return persistence.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.MustChangePassword = mustChange
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) GetUser(ctx context.Context, id string) (persistence.User, error) {
	user, ok := r.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

func (r *fakeUserRepo) ListUsers(ctx context.Context) ([]persistence.User, error) {
	users := make([]persistence.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	return users, nil
}

func (r *fakeUserRepo) DeleteUser(ctx context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeSessionRepo struct {
	sessions map[string]persistence.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]persistence.Session)}
}

func (r *fakeSessionRepo) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if _, ok := r.sessions[session.Token]; ok {
		return persistence.Session{}, persistence.ErrDuplicate
	}
	r.sessions[session.Token] = session
	return session, nil
}

func (r *fakeSessionRepo) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	session, ok := r.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (r *fakeSessionRepo) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	session, ok := r.sessions[token]
	if !ok || session.RevokedAt != nil {
		return persistence.Session{}, persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	r.sessions[token] = session
	return session, nil
}

func (r *fakeSessionRepo) RevokeSessionsForUser(ctx context.Context, userID string, revokedAt time.Time) error {
	for token, session := range r.sessions {
		if session.UserID == userID && session.RevokedAt == nil {
			session.RevokedAt = &revokedAt
			r.sessions[token] = session
		}
	}
	return nil
}

func (r *fakeSessionRepo) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	for token, session := range r.sessions {
		if session.ExpiresAt.Before(reference) {
			delete(r.sessions, token)
		}
	}
	return nil
}

type fakeBoardRepo struct {
	boards map[string]persistence.Board
}

func newFakeBoardRepo(boards ...persistence.Board) *fakeBoardRepo {
	repo := &fakeBoardRepo{boards: make(map[string]persistence.Board)}
	for _, board := range boards {
		repo.boards[board.ID] = board
	}
	return repo
}

func (r *fakeBoardRepo) CreateBoard(ctx context.Context, board persistence.Board) error {
	if _, ok := r.boards[board.ID]; ok {
		return persistence.ErrDuplicate
	}
	r.boards[board.ID] = board
	return nil
}

func (r *fakeBoardRepo) GetBoard(ctx context.Context, id string) (persistence.Board, error) {
	board, ok := r.boards[id]
	if !ok {
		return persistence.Board{}, persistence.ErrNotFound
	}
	return board, nil
}

func (r *fakeBoardRepo) ListBoards(ctx context.Context) ([]persistence.Board, error) {
	boards := make([]persistence.Board, 0, len(r.boards))
	for _, board := range r.boards {
		boards = append(boards, board)
	}
	return boards, nil
}

func (r *fakeBoardRepo) SaveLayout(ctx context.Context, id string, layoutJSON *string) error {
	board, ok := r.boards[id]
	if !ok {
		return persistence.ErrNotFound
	}
	board.LayoutJSON = layoutJSON
	r.boards[id] = board
	return nil
}

func (r *fakeBoardRepo) SetHomeBoard(ctx context.Context, id string) error {
	if _, ok := r.boards[id]; !ok {
		return persistence.ErrNotFound
	}
	for boardID, board := range r.boards {
		board.IsHome = boardID == id
		r.boards[boardID] = board
	}
	return nil
}

func (r *fakeBoardRepo) DeleteBoard(ctx context.Context, id string) error {
	if _, ok := r.boards[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.boards, id)
	return nil
}

type shareKey struct {
	integrationID string
	shareType     string
	shareTarget   string
}

type fakeIntegrationRepo struct {
	integrations map[string]persistence.IntegrationInstance
	shares       map[shareKey]persistence.IntegrationShare
}

func newFakeIntegrationRepo() *fakeIntegrationRepo {
	return &fakeIntegrationRepo{
		integrations: make(map[string]persistence.IntegrationInstance),
		shares:       make(map[shareKey]persistence.IntegrationShare),
	}
}

func (r *fakeIntegrationRepo) CreateIntegration(ctx context.Context, instance persistence.IntegrationInstance) error {
	if _, ok := r.integrations[instance.ID]; ok {
		return persistence.ErrDuplicate
	}
	r.integrations[instance.ID] = instance
	return nil
}

func (r *fakeIntegrationRepo) UpdateIntegration(ctx context.Context, instance persistence.IntegrationInstance) error {
	if _, ok := r.integrations[instance.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.integrations[instance.ID] = instance
	return nil
}

func (r *fakeIntegrationRepo) GetIntegration(ctx context.Context, id string) (persistence.IntegrationInstance, error) {
	instance, ok := r.integrations[id]
	if !ok {
		return persistence.IntegrationInstance{}, persistence.ErrNotFound
	}
	return instance, nil
}

func (r *fakeIntegrationRepo) ListIntegrations(ctx context.Context) ([]persistence.IntegrationInstance, error) {
	instances := make([]persistence.IntegrationInstance, 0, len(r.integrations))
	for _, instance := range r.integrations {
		instances = append(instances, instance)
	}
	return instances, nil
}

func (r *fakeIntegrationRepo) DeleteIntegration(ctx context.Context, id string) error {
	if _, ok := r.integrations[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.integrations, id)
	return nil
}

func (r *fakeIntegrationRepo) CreateShare(ctx context.Context, share persistence.IntegrationShare) error {
	key := shareKey{share.IntegrationID, share.ShareType, share.ShareTarget}
	if _, ok := r.shares[key]; ok {
		return persistence.ErrDuplicate
	}
	r.shares[key] = share
	return nil
}

func (r *fakeIntegrationRepo) ListShares(ctx context.Context, integrationID string) ([]persistence.IntegrationShare, error) {
	var shares []persistence.IntegrationShare
	for key, share := range r.shares {
		if key.integrationID == integrationID {
			shares = append(shares, share)
		}
	}
	return shares, nil
}
