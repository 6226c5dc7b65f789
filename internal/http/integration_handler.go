package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/homedash/internal/application"
	"github.com/example/homedash/internal/persistence"
)

type integrationService interface {
	CreateIntegration(ctx context.Context, params application.CreateIntegrationParams) (persistence.IntegrationInstance, error)
	GetConfig(ctx context.Context, id string) (map[string]any, error)
	ListIntegrations(ctx context.Context) ([]persistence.IntegrationInstance, error)
	DeleteIntegration(ctx context.Context, id string) error
	CreateShare(ctx context.Context, integrationID, shareType, shareTarget string) (persistence.IntegrationShare, error)
	ListShares(ctx context.Context, integrationID string) ([]persistence.IntegrationShare, error)
}

type IntegrationHandler struct {
	service   integrationService
	responder responder
	logger    *slog.Logger
}

func NewIntegrationHandler(service integrationService, logger *slog.Logger) *IntegrationHandler {
	base := defaultLogger(logger)
	return &IntegrationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *IntegrationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "IntegrationHandler", operation, attrs...)
}

// requireAdmin rejects non-administrators. Integration configs hold
// credentials for external services, so mutations are admin-only.
func (h *IntegrationHandler) requireAdmin(w http.ResponseWriter, r *http.Request, operation string) bool {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok || !principal.IsAdmin {
		h.log(r.Context(), operation, "error_kind", "forbidden").ErrorContext(r.Context(), "non-administrator attempted integration mutation")
		h.responder.writeJSON(r.Context(), w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "administrator privileges are required",
		})
		return false
	}
	return true
}

func (h *IntegrationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if !h.requireAdmin(w, r, "Create") {
		return
	}

	var req createIntegrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode integration request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "integration_type", req.Type)

	instance, err := h.service.CreateIntegration(r.Context(), application.CreateIntegrationParams{
		Type:          req.Type,
		Discriminator: req.Discriminator,
		Name:          req.Name,
		Config:        req.Config,
		Enabled:       req.Enabled,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "integration creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("integration_id", instance.ID).InfoContext(r.Context(), "integration created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, integrationResponse{Integration: toIntegrationDTO(instance)})
}

func (h *IntegrationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "List")
	instances, err := h.service.ListIntegrations(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "integration list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(instances)).InfoContext(r.Context(), "integrations listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listIntegrationsResponse{Integrations: toIntegrationDTOs(instances)})
}

func (h *IntegrationHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if !h.requireAdmin(w, r, "GetConfig") {
		return
	}

	integrationID, ok := IntegrationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(integrationID) == "" {
		h.log(r.Context(), "GetConfig", "error_kind", "bad_request").ErrorContext(r.Context(), "missing integration id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidIntegrationID)
		return
	}

	config, err := h.service.GetConfig(r.Context(), integrationID)
	if err != nil {
		h.log(r.Context(), "GetConfig", "integration_id", integrationID).ErrorContext(r.Context(), "config lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, configResponse{Config: config})
}

func (h *IntegrationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if !h.requireAdmin(w, r, "Delete") {
		return
	}

	integrationID, ok := IntegrationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(integrationID) == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing integration id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidIntegrationID)
		return
	}

	logger := h.log(r.Context(), "Delete", "integration_id", integrationID)
	if err := h.service.DeleteIntegration(r.Context(), integrationID); err != nil {
		logger.ErrorContext(r.Context(), "integration delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "integration deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *IntegrationHandler) CreateShare(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if !h.requireAdmin(w, r, "CreateShare") {
		return
	}

	integrationID, ok := IntegrationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(integrationID) == "" {
		h.log(r.Context(), "CreateShare", "error_kind", "bad_request").ErrorContext(r.Context(), "missing integration id for share")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidIntegrationID)
		return
	}

	var req createShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CreateShare", "integration_id", integrationID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode share request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "CreateShare", "integration_id", integrationID)

	share, err := h.service.CreateShare(r.Context(), integrationID, req.ShareType, req.ShareTarget)
	if err != nil {
		logger.ErrorContext(r.Context(), "share creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("share_id", share.ID).InfoContext(r.Context(), "integration shared")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, shareResponse{Share: toShareDTO(share)})
}

func (h *IntegrationHandler) ListShares(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	integrationID, ok := IntegrationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(integrationID) == "" {
		h.log(r.Context(), "ListShares", "error_kind", "bad_request").ErrorContext(r.Context(), "missing integration id for share list")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidIntegrationID)
		return
	}

	shares, err := h.service.ListShares(r.Context(), integrationID)
	if err != nil {
		h.log(r.Context(), "ListShares", "integration_id", integrationID).ErrorContext(r.Context(), "share list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSharesResponse{Shares: toShareDTOs(shares)})
}

type createIntegrationRequest struct {
	Type          string         `json:"type"`
	Discriminator string         `json:"discriminator"`
	Name          string         `json:"name"`
	Config        map[string]any `json:"config"`
	Enabled       bool           `json:"enabled"`
}

type createShareRequest struct {
	ShareType   string `json:"share_type"`
	ShareTarget string `json:"share_target"`
}

type integrationResponse struct {
	Integration integrationDTO `json:"integration"`
}

type listIntegrationsResponse struct {
	Integrations []integrationDTO `json:"integrations"`
}

type configResponse struct {
	Config map[string]any `json:"config"`
}

type shareResponse struct {
	Share shareDTO `json:"share"`
}

type listSharesResponse struct {
	Shares []shareDTO `json:"shares"`
}

// integrationDTO deliberately omits the stored config; credentials are only
// exposed through the dedicated /config endpoint.
type integrationDTO struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Name      string `json:"name"`
	Enabled   bool   `json:"enabled"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type shareDTO struct {
	ID            string `json:"id"`
	IntegrationID string `json:"integration_id"`
	ShareType     string `json:"share_type"`
	ShareTarget   string `json:"share_target"`
	CreatedAt     string `json:"created_at"`
}

func toIntegrationDTO(instance persistence.IntegrationInstance) integrationDTO {
	return integrationDTO{
		ID:        instance.ID,
		Type:      instance.Type,
		Name:      instance.Name,
		Enabled:   instance.Enabled,
		CreatedAt: instance.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: instance.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toIntegrationDTOs(instances []persistence.IntegrationInstance) []integrationDTO {
	if len(instances) == 0 {
		return nil
	}
	out := make([]integrationDTO, 0, len(instances))
	for _, instance := range instances {
		out = append(out, toIntegrationDTO(instance))
	}
	return out
}

func toShareDTO(share persistence.IntegrationShare) shareDTO {
	return shareDTO{
		ID:            share.ID,
		IntegrationID: share.IntegrationID,
		ShareType:     share.ShareType,
		ShareTarget:   share.ShareTarget,
		CreatedAt:     share.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toShareDTOs(shares []persistence.IntegrationShare) []shareDTO {
	if len(shares) == 0 {
		return nil
	}
	out := make([]shareDTO, 0, len(shares))
	for _, share := range shares {
		out = append(out, toShareDTO(share))
	}
	return out
}
