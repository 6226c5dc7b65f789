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
	"github.com/example/homedash/internal/security"
)

// CreateIntegrationParams describes a new integration instance. The instance
// id is derived as "<type>-<discriminator>" so multiple instances of one type
// can coexist.
type CreateIntegrationParams struct {
	Type          string
	Discriminator string
	Name          string
	Config        map[string]any
	Enabled       bool
}

// IntegrationService manages integration instances and their shares. Configs
// are encrypted at rest when a key is configured and transparently decrypted
// on read.
type IntegrationService struct {
	integrations persistence.IntegrationRepository
	cipher       *security.ConfigCipher
	now          func() time.Time
	newID        func() string
	logger       *slog.Logger
}

// NewIntegrationService constructs an IntegrationService. A nil cipher
// selects plaintext config storage.
func NewIntegrationService(integrations persistence.IntegrationRepository, cipher *security.ConfigCipher, logger *slog.Logger) *IntegrationService {
	if cipher == nil {
		cipher, _ = security.NewConfigCipher(nil)
	}
	return &IntegrationService{
		integrations: integrations,
		cipher:       cipher,
		now:          time.Now,
		newID:        uuid.NewString,
		logger:       defaultLogger(logger),
	}
}

func (s *IntegrationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "IntegrationService", operation, attrs...)
}

// CreateIntegration validates, encrypts the config, and stores a new
// instance.
func (s *IntegrationService) CreateIntegration(ctx context.Context, params CreateIntegrationParams) (persistence.IntegrationInstance, error) {
	if s == nil || s.integrations == nil {
		return persistence.IntegrationInstance{}, fmt.Errorf("integration service not configured")
	}

	integrationType := strings.TrimSpace(strings.ToLower(params.Type))
	discriminator := strings.TrimSpace(strings.ToLower(params.Discriminator))
	if discriminator == "" {
		discriminator = "primary"
	}

	validation := &ValidationError{}
	if integrationType == "" {
		validation.add("type", "must not be empty")
	}
	if strings.ContainsAny(integrationType+discriminator, " \t") {
		validation.add("type", "must not contain whitespace")
	}
	if validation.HasErrors() {
		return persistence.IntegrationInstance{}, validation
	}

	name := strings.TrimSpace(params.Name)
	if name == "" {
		name = integrationType
	}

	config := params.Config
	if config == nil {
		config = map[string]any{}
	}
	stored, err := s.cipher.EncryptConfig(config)
	if err != nil {
		return persistence.IntegrationInstance{}, fmt.Errorf("failed to encrypt config: %w", err)
	}

	now := s.now()
	instance := persistence.IntegrationInstance{
		ID:        integrationType + "-" + discriminator,
		Type:      integrationType,
		Name:      name,
		Config:    stored,
		Enabled:   params.Enabled,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.integrations.CreateIntegration(ctx, instance); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return persistence.IntegrationInstance{}, ErrAlreadyExists
		}
		return persistence.IntegrationInstance{}, err
	}

	s.loggerWith(ctx, "CreateIntegration",
		"integration_id", instance.ID,
		"encrypted", s.cipher.Enabled(),
	).InfoContext(ctx, "integration created")
	return instance, nil
}

// GetConfig loads and decrypts one instance's configuration.
func (s *IntegrationService) GetConfig(ctx context.Context, id string) (map[string]any, error) {
	if s == nil || s.integrations == nil {
		return nil, fmt.Errorf("integration service not configured")
	}

	instance, err := s.integrations.GetIntegration(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if strings.TrimSpace(instance.Config) == "" {
		return map[string]any{}, nil
	}

	plaintext, err := s.cipher.Decrypt(instance.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt config for %s: %w", id, err)
	}

	var config map[string]any
	if err := json.Unmarshal(plaintext, &config); err != nil {
		return nil, fmt.Errorf("stored config for %s is not valid JSON: %w", id, err)
	}
	return config, nil
}

// ListIntegrations returns every instance. Stored configs are not decrypted
// here; use GetConfig for one instance's settings.
func (s *IntegrationService) ListIntegrations(ctx context.Context) ([]persistence.IntegrationInstance, error) {
	if s == nil || s.integrations == nil {
		return nil, fmt.Errorf("integration service not configured")
	}
	return s.integrations.ListIntegrations(ctx)
}

// DeleteIntegration removes an instance.
func (s *IntegrationService) DeleteIntegration(ctx context.Context, id string) error {
	if s == nil || s.integrations == nil {
		return fmt.Errorf("integration service not configured")
	}

	if err := s.integrations.DeleteIntegration(ctx, id); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.loggerWith(ctx, "DeleteIntegration", "integration_id", id).InfoContext(ctx, "integration deleted")
	return nil
}

// CreateShare grants an instance to a user or group. Uniqueness holds per
// (instance, share type, target).
func (s *IntegrationService) CreateShare(ctx context.Context, integrationID, shareType, shareTarget string) (persistence.IntegrationShare, error) {
	if s == nil || s.integrations == nil {
		return persistence.IntegrationShare{}, fmt.Errorf("integration service not configured")
	}

	validation := &ValidationError{}
	if strings.TrimSpace(shareType) == "" {
		validation.add("share_type", "must not be empty")
	}
	if strings.TrimSpace(shareTarget) == "" {
		validation.add("share_target", "must not be empty")
	}
	if validation.HasErrors() {
		return persistence.IntegrationShare{}, validation
	}

	if _, err := s.integrations.GetIntegration(ctx, integrationID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.IntegrationShare{}, ErrNotFound
		}
		return persistence.IntegrationShare{}, err
	}

	share := persistence.IntegrationShare{
		ID:            s.newID(),
		IntegrationID: integrationID,
		ShareType:     strings.TrimSpace(shareType),
		ShareTarget:   strings.TrimSpace(shareTarget),
		CreatedAt:     s.now(),
	}

	if err := s.integrations.CreateShare(ctx, share); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return persistence.IntegrationShare{}, ErrAlreadyExists
		}
		return persistence.IntegrationShare{}, err
	}

	s.loggerWith(ctx, "CreateShare",
		"integration_id", integrationID,
		"share_type", share.ShareType,
	).InfoContext(ctx, "integration shared")
	return share, nil
}

// ListShares returns the shares granted on one instance.
func (s *IntegrationService) ListShares(ctx context.Context, integrationID string) ([]persistence.IntegrationShare, error) {
	if s == nil || s.integrations == nil {
		return nil, fmt.Errorf("integration service not configured")
	}
	return s.integrations.ListShares(ctx, integrationID)
}
