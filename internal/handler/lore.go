package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mkaye/memorybox/internal/apperror"
	"github.com/mkaye/memorybox/internal/model"
	"github.com/mkaye/memorybox/internal/service"
)

// LoreHandler serves the lore listing, the random sidebar sample, and the
// public submission endpoint.
type LoreHandler struct {
	lores  *service.LoreService
	logger *slog.Logger
}

func NewLoreHandler(lores *service.LoreService, logger *slog.Logger) *LoreHandler {
	return &LoreHandler{lores: lores, logger: logger}
}

// HandleAll returns every approved lore entry, newest first.
//
// HTTP: GET /api/lores/all
func (h *LoreHandler) HandleAll(w http.ResponseWriter, r *http.Request) {
	lores, err := h.lores.All(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if lores == nil {
		lores = []model.Lore{}
	}
	writeJSON(w, http.StatusOK, lores)
}

// HandleRandom returns up to two approved entries chosen at random without
// replacement. An empty list is a valid answer.
//
// HTTP: GET /api/lores/random
func (h *LoreHandler) HandleRandom(w http.ResponseWriter, r *http.Request) {
	lores, err := h.lores.Random(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if lores == nil {
		lores = []model.Lore{}
	}
	writeJSON(w, http.StatusOK, lores)
}

type submitLoreRequest struct {
	Content string `json:"content"`
}

type submitLoreResponse struct {
	Lore    model.Lore `json:"lore"`
	Message string     `json:"message"`
}

// HandleSubmit accepts a public lore submission. The entry is persisted
// unapproved and stays out of every listing until moderated.
//
// HTTP: POST /api/lores/submit
func (h *LoreHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitLoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid lore JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	lore, err := h.lores.Submit(r.Context(), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, submitLoreResponse{
		Lore:    *lore,
		Message: "lore submitted and awaiting approval",
	})
}
