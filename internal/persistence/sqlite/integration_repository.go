package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/homedash/internal/persistence"
)

// IntegrationRepository implements persistence.IntegrationRepository using
// SQLite.
type IntegrationRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewIntegrationRepository creates a new SQLite integration repository.
func NewIntegrationRepository(pool *ConnectionPool) *IntegrationRepository {
	return &IntegrationRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateIntegration inserts a new integration instance.
func (r *IntegrationRepository) CreateIntegration(ctx context.Context, instance persistence.IntegrationInstance) error {
	if instance.ID == "" || instance.Type == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if instance.CreatedAt.IsZero() {
		instance.CreatedAt = now
	}
	instance.UpdatedAt = now

	query := `
		INSERT INTO integrations (id, type, name, config, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		instance.ID,
		instance.Type,
		instance.Name,
		instance.Config,
		instance.Enabled,
		instance.CreatedAt.Format(time.RFC3339),
		instance.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// UpdateIntegration updates an existing integration instance.
func (r *IntegrationRepository) UpdateIntegration(ctx context.Context, instance persistence.IntegrationInstance) error {
	if instance.ID == "" {
		return persistence.ErrConstraintViolation
	}

	instance.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE integrations
		SET type = ?, name = ?, config = ?, enabled = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		instance.Type,
		instance.Name,
		instance.Config,
		instance.Enabled,
		instance.UpdatedAt.Format(time.RFC3339),
		instance.ID,
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

// GetIntegration retrieves one integration instance by ID.
func (r *IntegrationRepository) GetIntegration(ctx context.Context, id string) (persistence.IntegrationInstance, error) {
	if id == "" {
		return persistence.IntegrationInstance{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, type, name, config, enabled, created_at, updated_at
		FROM integrations
		WHERE id = ?
	`
	return r.scanIntegration(r.helper.QueryRow(ctx, query, id))
}

// ListIntegrations returns every instance ordered by type then id.
func (r *IntegrationRepository) ListIntegrations(ctx context.Context) ([]persistence.IntegrationInstance, error) {
	query := `
		SELECT id, type, name, config, enabled, created_at, updated_at
		FROM integrations
		ORDER BY type ASC, id ASC
	`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var instances []persistence.IntegrationInstance
	for rows.Next() {
		instance, err := r.scanIntegration(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, instance)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return instances, nil
}

// DeleteIntegration removes an instance by ID.
func (r *IntegrationRepository) DeleteIntegration(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, `DELETE FROM integrations WHERE id = ?`, id)
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

// CreateShare inserts a new share row. The integration_type column is kept in
// sync for older readers.
func (r *IntegrationRepository) CreateShare(ctx context.Context, share persistence.IntegrationShare) error {
	if share.ID == "" || share.IntegrationID == "" {
		return persistence.ErrConstraintViolation
	}

	if share.CreatedAt.IsZero() {
		share.CreatedAt = time.Now().UTC()
	}

	instance, err := r.GetIntegration(ctx, share.IntegrationID)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO integration_shares (id, integration_type, integration_id, share_type, share_target, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = r.helper.Exec(ctx, query,
		share.ID,
		instance.Type,
		share.IntegrationID,
		share.ShareType,
		share.ShareTarget,
		share.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// ListShares returns the shares granted on one instance.
func (r *IntegrationRepository) ListShares(ctx context.Context, integrationID string) ([]persistence.IntegrationShare, error) {
	query := `
		SELECT id, integration_id, share_type, share_target, created_at
		FROM integration_shares
		WHERE integration_id = ?
		ORDER BY share_type ASC, share_target ASC
	`

	rows, err := r.helper.Query(ctx, query, integrationID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var shares []persistence.IntegrationShare
	for rows.Next() {
		var share persistence.IntegrationShare
		var createdAtStr string
		if err := rows.Scan(&share.ID, &share.IntegrationID, &share.ShareType, &share.ShareTarget, &createdAtStr); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if share.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		shares = append(shares, share)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return shares, nil
}

func (r *IntegrationRepository) scanIntegration(row rowScanner) (persistence.IntegrationInstance, error) {
	var instance persistence.IntegrationInstance
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&instance.ID,
		&instance.Type,
		&instance.Name,
		&instance.Config,
		&instance.Enabled,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.IntegrationInstance{}, r.mapper.MapError(err)
	}

	if instance.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.IntegrationInstance{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if instance.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.IntegrationInstance{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return instance, nil
}
