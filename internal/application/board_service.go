package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/homedash/internal/persistence"
)

// BoardService manages dashboard boards and their widget layouts.
type BoardService struct {
	boards persistence.BoardRepository
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// NewBoardService constructs a BoardService.
func NewBoardService(boards persistence.BoardRepository, logger *slog.Logger) *BoardService {
	return &BoardService{
		boards: boards,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: defaultLogger(logger),
	}
}

func (s *BoardService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BoardService", operation, attrs...)
}

// CreateBoard creates an empty board with the given name.
func (s *BoardService) CreateBoard(ctx context.Context, name string) (persistence.Board, error) {
	if s == nil || s.boards == nil {
		return persistence.Board{}, fmt.Errorf("board service not configured")
	}

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		validation := &ValidationError{}
		validation.add("name", "must not be empty")
		return persistence.Board{}, validation
	}

	now := s.now()
	board := persistence.Board{
		ID:        s.newID(),
		Name:      trimmed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.boards.CreateBoard(ctx, board); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return persistence.Board{}, ErrAlreadyExists
		}
		return persistence.Board{}, err
	}

	s.loggerWith(ctx, "CreateBoard", "board_id", board.ID).InfoContext(ctx, "board created")
	return board, nil
}

// GetBoard loads one board by id.
func (s *BoardService) GetBoard(ctx context.Context, id string) (persistence.Board, error) {
	if s == nil || s.boards == nil {
		return persistence.Board{}, fmt.Errorf("board service not configured")
	}

	board, err := s.boards.GetBoard(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Board{}, ErrNotFound
		}
		return persistence.Board{}, err
	}
	return board, nil
}

// ListBoards returns every board.
func (s *BoardService) ListBoards(ctx context.Context) ([]persistence.Board, error) {
	if s == nil || s.boards == nil {
		return nil, fmt.Errorf("board service not configured")
	}
	return s.boards.ListBoards(ctx)
}

// SaveLayout stores a widget layout payload. Nil clears the layout; anything
// else must be valid JSON.
func (s *BoardService) SaveLayout(ctx context.Context, id string, layoutJSON *string) error {
	if s == nil || s.boards == nil {
		return fmt.Errorf("board service not configured")
	}

	if layoutJSON != nil && !json.Valid([]byte(*layoutJSON)) {
		validation := &ValidationError{}
		validation.add("layout", "must be valid JSON")
		return validation
	}

	if err := s.boards.SaveLayout(ctx, id, layoutJSON); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.loggerWith(ctx, "SaveLayout", "board_id", id).InfoContext(ctx, "board layout saved")
	return nil
}

// SetHomeBoard marks one board as the landing page, clearing the flag on all
// others.
func (s *BoardService) SetHomeBoard(ctx context.Context, id string) error {
	if s == nil || s.boards == nil {
		return fmt.Errorf("board service not configured")
	}

	if err := s.boards.SetHomeBoard(ctx, id); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.loggerWith(ctx, "SetHomeBoard", "board_id", id).InfoContext(ctx, "home board set")
	return nil
}

// DeleteBoard removes a board.
func (s *BoardService) DeleteBoard(ctx context.Context, id string) error {
	if s == nil || s.boards == nil {
		return fmt.Errorf("board service not configured")
	}

	if err := s.boards.DeleteBoard(ctx, id); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.loggerWith(ctx, "DeleteBoard", "board_id", id).InfoContext(ctx, "board deleted")
	return nil
}
