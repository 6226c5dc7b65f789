package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/homedash/internal/persistence"
)

func TestBoardService_CreateBoard(t *testing.T) {
	repo := newFakeBoardRepo()
	service := NewBoardService(repo, discardLogger())
	ctx := context.Background()

	board, err := service.CreateBoard(ctx, "  Living Room  ")
	if err != nil {
		t.Fatalf("CreateBoard failed: %v", err)
	}
	if board.Name != "Living Room" {
		t.Errorf("Expected trimmed name, got %q", board.Name)
	}
	if board.ID == "" {
		t.Error("Expected a generated board id")
	}

	if _, err := service.CreateBoard(ctx, "   "); err == nil {
		t.Error("Expected blank name to be rejected")
	} else {
		var v *ValidationError
		if !errors.As(err, &v) {
			t.Errorf("Expected ValidationError, got %v", err)
		}
	}
}

func TestBoardService_SaveLayout(t *testing.T) {
	repo := newFakeBoardRepo(persistence.Board{ID: "board1", Name: "Home"})
	service := NewBoardService(repo, discardLogger())
	ctx := context.Background()

	layout := `{"widgets":[{"h":4}]}`
	if err := service.SaveLayout(ctx, "board1", &layout); err != nil {
		t.Fatalf("SaveLayout failed: %v", err)
	}

	board, _ := repo.GetBoard(ctx, "board1")
	if board.LayoutJSON == nil || *board.LayoutJSON != layout {
		t.Errorf("Expected layout stored, got %v", board.LayoutJSON)
	}

	// Nil clears.
	if err := service.SaveLayout(ctx, "board1", nil); err != nil {
		t.Fatalf("SaveLayout with nil failed: %v", err)
	}

	broken := "{not json"
	err := service.SaveLayout(ctx, "board1", &broken)
	var v *ValidationError
	if !errors.As(err, &v) {
		t.Errorf("Expected ValidationError for malformed JSON, got %v", err)
	}

	if err := service.SaveLayout(ctx, "missing", &layout); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestBoardService_SetHomeBoard(t *testing.T) {
	repo := newFakeBoardRepo(
		persistence.Board{ID: "board1", Name: "One", IsHome: true},
		persistence.Board{ID: "board2", Name: "Two"},
	)
	service := NewBoardService(repo, discardLogger())
	ctx := context.Background()

	if err := service.SetHomeBoard(ctx, "board2"); err != nil {
		t.Fatalf("SetHomeBoard failed: %v", err)
	}

	first, _ := repo.GetBoard(ctx, "board1")
	second, _ := repo.GetBoard(ctx, "board2")
	if first.IsHome {
		t.Error("Expected previous home flag cleared")
	}
	if !second.IsHome {
		t.Error("Expected new home flag set")
	}

	if err := service.SetHomeBoard(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
