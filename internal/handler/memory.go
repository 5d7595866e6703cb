// Package handler is the HTTP layer: request parsing, response shaping,
// and the translation of domain errors to status codes. No business rules
// live here.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mkaye/memorybox/internal/apperror"
	"github.com/mkaye/memorybox/internal/model"
	"github.com/mkaye/memorybox/internal/service"
)

// memoryDateLayout is the wire format for the remembered-event date. It is
// a calendar date, not a timestamp.
const memoryDateLayout = "2006-01-02"

// MemoryHandler serves the memory CRUD surface plus the on-this-day
// selector and the password gate.
type MemoryHandler struct {
	memories *service.MemoryService
	logger   *slog.Logger
}

func NewMemoryHandler(memories *service.MemoryService, logger *slog.Logger) *MemoryHandler {
	return &MemoryHandler{memories: memories, logger: logger}
}

// memoryResponse is the API shape of a memory. The thumbnail is always
// resolved (placeholder when none was set), the spotify embed URL is
// precomputed the way the player iframe needs it, and the password hash
// never leaves the server.
type memoryResponse struct {
	model.Memory
	ThumbnailURL    string `json:"thumbnailUrl"`
	Protected       bool   `json:"protected"`
	SpotifyEmbedURL string `json:"spotifyEmbedUrl,omitempty"`
}

func toMemoryResponse(m *model.Memory) memoryResponse {
	resp := memoryResponse{
		Memory:       *m,
		ThumbnailURL: m.ThumbnailOrPlaceholder(),
		Protected:    m.IsProtected(),
	}
	if m.Spotify != nil {
		resp.SpotifyEmbedURL = m.Spotify.EmbedURL()
	}
	return resp
}

// HandleList returns all memories, newest first.
//
// HTTP: GET /api/memories
func (h *MemoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	memories, err := h.memories.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]memoryResponse, 0, len(memories))
	for i := range memories {
		resp = append(resp, toMemoryResponse(&memories[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

type createMemoryRequest struct {
	Title            string   `json:"title"`
	CreatorNames     string   `json:"creatorNames"`
	ShortDescription string   `json:"shortDescription"`
	Content          string   `json:"content"`
	ThumbnailURL     string   `json:"thumbnailUrl"`
	MediaKeys        []string `json:"mediaKeys"`
	Spotify          string   `json:"spotify"`
	Password         string   `json:"password"`
	MemoryDate       string   `json:"memoryDate"`
}

// HandleCreate saves a new memory.
//
// HTTP: POST /api/memories
func (h *MemoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid memory JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	var memoryDate *time.Time
	if req.MemoryDate != "" {
		d, err := time.ParseInLocation(memoryDateLayout, req.MemoryDate, time.UTC)
		if err != nil {
			writeError(w, apperror.ValidationFailed("memoryDate", "memory date must be YYYY-MM-DD"))
			return
		}
		memoryDate = &d
	}

	memory, err := h.memories.Create(r.Context(), service.CreateMemoryInput{
		Title:            req.Title,
		CreatorNames:     req.CreatorNames,
		ShortDescription: req.ShortDescription,
		Content:          req.Content,
		ThumbnailURL:     req.ThumbnailURL,
		MediaKeys:        req.MediaKeys,
		Spotify:          req.Spotify,
		Password:         req.Password,
		MemoryDate:       memoryDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMemoryResponse(memory))
}

// HandleGet returns one memory by slug.
//
// HTTP: GET /api/memories/{slug}
func (h *MemoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	memory, err := h.memories.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemoryResponse(memory))
}

// HandleOnThisDay returns the memory whose anniversary is today, chosen at
// random among matches. No match is a 404 with a presentable message.
//
// HTTP: GET /api/memories/on-this-day
func (h *MemoryHandler) HandleOnThisDay(w http.ResponseWriter, r *http.Request) {
	memory, err := h.memories.OnThisDay(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemoryResponse(memory))
}

// HandleDelete removes a memory by ID.
//
// HTTP: DELETE /api/memories/{id}
func (h *MemoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.memories.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	noStore(w)
	w.WriteHeader(http.StatusNoContent)
}

type verifyPasswordRequest struct {
	MemoryID string `json:"memoryId"`
	Password string `json:"password"`
}

type verifyPasswordResponse struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
}

// HandleVerifyPassword runs the password gate for a memory.
//
// HTTP: POST /api/memories/verify-password
//
// 200 {"verified":true,...} on success (including unprotected memories),
// 401 with a generic message on a wrong password, 404 when the memoryId
// matches nothing. The 401 message never reveals whether a hash exists.
func (h *MemoryHandler) HandleVerifyPassword(w http.ResponseWriter, r *http.Request) {
	var req verifyPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	if err := h.memories.VerifyPassword(r.Context(), req.MemoryID, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verifyPasswordResponse{
		Verified: true,
		Message:  "password verified",
	})
}
