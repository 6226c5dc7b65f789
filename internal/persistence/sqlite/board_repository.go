package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/homedash/internal/persistence"
)

// BoardRepository implements persistence.BoardRepository using SQLite.
type BoardRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewBoardRepository creates a new SQLite board repository.
func NewBoardRepository(pool *ConnectionPool) *BoardRepository {
	return &BoardRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateBoard inserts a new board into the database.
func (r *BoardRepository) CreateBoard(ctx context.Context, board persistence.Board) error {
	if board.ID == "" || board.Name == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if board.CreatedAt.IsZero() {
		board.CreatedAt = now
	}
	board.UpdatedAt = now

	query := `
		INSERT INTO boards (id, name, layout_json, is_home, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		board.ID,
		board.Name,
		layoutArg(board.LayoutJSON),
		board.IsHome,
		board.CreatedAt.Format(time.RFC3339),
		board.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// GetBoard retrieves a board by ID.
func (r *BoardRepository) GetBoard(ctx context.Context, id string) (persistence.Board, error) {
	if id == "" {
		return persistence.Board{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, name, layout_json, is_home, created_at, updated_at
		FROM boards
		WHERE id = ?
	`
	return r.scanBoard(r.helper.QueryRow(ctx, query, id))
}

// ListBoards returns every board, home board first, then by name.
func (r *BoardRepository) ListBoards(ctx context.Context) ([]persistence.Board, error) {
	query := `
		SELECT id, name, layout_json, is_home, created_at, updated_at
		FROM boards
		ORDER BY is_home DESC, name ASC
	`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var boards []persistence.Board
	for rows.Next() {
		board, err := r.scanBoard(rows)
		if err != nil {
			return nil, err
		}
		boards = append(boards, board)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return boards, nil
}

// SaveLayout stores a board's widget layout payload. Nil clears it.
func (r *BoardRepository) SaveLayout(ctx context.Context, id string, layoutJSON *string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx,
		`UPDATE boards SET layout_json = ?, updated_at = ? WHERE id = ?`,
		layoutArg(layoutJSON),
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// SetHomeBoard marks one board as the landing page and clears the flag
// everywhere else, inside one transaction.
func (r *BoardRepository) SetHomeBoard(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	now := time.Now().UTC().Format(time.RFC3339)

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE boards SET is_home = 1, updated_at = ? WHERE id = ?`, now, id,
		)
		if err != nil {
			return err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return persistence.ErrNotFound
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE boards SET is_home = 0, updated_at = ? WHERE id != ? AND is_home = 1`, now, id,
		)
		return err
	})
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// DeleteBoard removes a board by ID.
func (r *BoardRepository) DeleteBoard(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, `DELETE FROM boards WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func layoutArg(layoutJSON *string) any {
	if layoutJSON == nil {
		return nil
	}
	return *layoutJSON
}

func (r *BoardRepository) scanBoard(row rowScanner) (persistence.Board, error) {
	var board persistence.Board
	var layout sql.NullString
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&board.ID,
		&board.Name,
		&layout,
		&board.IsHome,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Board{}, r.mapper.MapError(err)
	}

	if layout.Valid {
		board.LayoutJSON = &layout.String
	}
	if board.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Board{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if board.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Board{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return board, nil
}
