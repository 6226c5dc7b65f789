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

type boardService interface {
	CreateBoard(ctx context.Context, name string) (persistence.Board, error)
	GetBoard(ctx context.Context, id string) (persistence.Board, error)
	ListBoards(ctx context.Context) ([]persistence.Board, error)
	SaveLayout(ctx context.Context, id string, layoutJSON *string) error
	SetHomeBoard(ctx context.Context, id string) error
	DeleteBoard(ctx context.Context, id string) error
}

type BoardHandler struct {
	service   boardService
	responder responder
	logger    *slog.Logger
}

func NewBoardHandler(service boardService, logger *slog.Logger) *BoardHandler {
	base := defaultLogger(logger)
	return &BoardHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BoardHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BoardHandler", operation, attrs...)
}

func (h *BoardHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req createBoardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode board request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")

	board, err := h.service.CreateBoard(r.Context(), req.Name)
	if err != nil {
		logger.ErrorContext(r.Context(), "board creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("board_id", board.ID).InfoContext(r.Context(), "board created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, boardResponse{Board: toBoardDTO(board)})
}

func (h *BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	boardID, ok := BoardIDFromContext(r.Context())
	if !ok || strings.TrimSpace(boardID) == "" {
		h.log(r.Context(), "Get", "error_kind", "bad_request").ErrorContext(r.Context(), "missing board id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBoardID)
		return
	}

	board, err := h.service.GetBoard(r.Context(), boardID)
	if err != nil {
		h.log(r.Context(), "Get", "board_id", boardID).ErrorContext(r.Context(), "board lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, boardResponse{Board: toBoardDTO(board)})
}

func (h *BoardHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "List")
	boards, err := h.service.ListBoards(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "board list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(boards)).InfoContext(r.Context(), "boards listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBoardsResponse{Boards: toBoardDTOs(boards)})
}

func (h *BoardHandler) SaveLayout(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	boardID, ok := BoardIDFromContext(r.Context())
	if !ok || strings.TrimSpace(boardID) == "" {
		h.log(r.Context(), "SaveLayout", "error_kind", "bad_request").ErrorContext(r.Context(), "missing board id for layout save")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBoardID)
		return
	}

	var req saveLayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "SaveLayout", "board_id", boardID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode layout request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	// A null or absent layout clears the stored payload.
	var layoutJSON *string
	if len(req.Layout) > 0 && string(req.Layout) != "null" {
		raw := string(req.Layout)
		layoutJSON = &raw
	}

	logger := h.log(r.Context(), "SaveLayout", "board_id", boardID)

	if err := h.service.SaveLayout(r.Context(), boardID, layoutJSON); err != nil {
		logger.ErrorContext(r.Context(), "layout save failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "board layout saved")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *BoardHandler) SetHome(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	boardID, ok := BoardIDFromContext(r.Context())
	if !ok || strings.TrimSpace(boardID) == "" {
		h.log(r.Context(), "SetHome", "error_kind", "bad_request").ErrorContext(r.Context(), "missing board id for home flag")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBoardID)
		return
	}

	logger := h.log(r.Context(), "SetHome", "board_id", boardID)

	if err := h.service.SetHomeBoard(r.Context(), boardID); err != nil {
		logger.ErrorContext(r.Context(), "home board update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "home board set")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *BoardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	boardID, ok := BoardIDFromContext(r.Context())
	if !ok || strings.TrimSpace(boardID) == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing board id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBoardID)
		return
	}

	logger := h.log(r.Context(), "Delete", "board_id", boardID)
	if err := h.service.DeleteBoard(r.Context(), boardID); err != nil {
		logger.ErrorContext(r.Context(), "board delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "board deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type createBoardRequest struct {
	Name string `json:"name"`
}

type saveLayoutRequest struct {
	Layout json.RawMessage `json:"layout"`
}

type boardResponse struct {
	Board boardDTO `json:"board"`
}

type listBoardsResponse struct {
	Boards []boardDTO `json:"boards"`
}

type boardDTO struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Layout    json.RawMessage `json:"layout,omitempty"`
	IsHome    bool            `json:"is_home"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

func toBoardDTO(board persistence.Board) boardDTO {
	dto := boardDTO{
		ID:        board.ID,
		Name:      board.Name,
		IsHome:    board.IsHome,
		CreatedAt: board.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: board.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if board.LayoutJSON != nil {
		dto.Layout = json.RawMessage(*board.LayoutJSON)
	}
	return dto
}

func toBoardDTOs(boards []persistence.Board) []boardDTO {
	if len(boards) == 0 {
		return nil
	}
	out := make([]boardDTO, 0, len(boards))
	for _, board := range boards {
		out = append(out, toBoardDTO(board))
	}
	return out
}
