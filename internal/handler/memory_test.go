package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkaye/memorybox/internal/auth"
	"github.com/mkaye/memorybox/internal/handler"
	"github.com/mkaye/memorybox/internal/model"
	"github.com/mkaye/memorybox/internal/repository/sqlite"
	"github.com/mkaye/memorybox/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newMemoryHandler wires the handler over a real in-memory store, so these
// tests cover the full request path below HTTP.
func newMemoryHandler(t *testing.T) *handler.MemoryHandler {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	passwords := auth.NewPasswordServiceWithCost(bcrypt.MinCost)
	svc := service.NewMemoryService(db, passwords, testLogger())
	return handler.NewMemoryHandler(svc, testLogger())
}

func createMemory(t *testing.T, h *handler.MemoryHandler, body string) map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/memories", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.HandleCreate(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, "create failed: %s", rr.Body.String())

	var created map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	return created
}

func TestMemoryCreateAndGet(t *testing.T) {
	h := newMemoryHandler(t)

	created := createMemory(t, h, `{
		"title": "Summer Road Trip",
		"creatorNames": "Alex & Sam",
		"shortDescription": "Three days on the coast",
		"content": "{\"type\":\"doc\",\"content\":[{\"type\":\"paragraph\",\"content\":[{\"type\":\"text\",\"text\":\"hello\"}]}]}",
		"spotify": "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M",
		"memoryDate": "2023-07-04"
	}`)

	assert.Equal(t, "summer-road-trip", created["slug"])
	assert.Equal(t, "https://open.spotify.com/embed/playlist/37i9dQZF1DXcBWIGoYBM5M", created["spotifyEmbedUrl"])
	assert.Equal(t, model.PlaceholderThumbnail, created["thumbnailUrl"])
	assert.Equal(t, false, created["protected"])
	assert.NotContains(t, created, "passwordHash")

	req := httptest.NewRequest(http.MethodGet, "/api/memories/summer-road-trip", nil)
	req.SetPathValue("slug", "summer-road-trip")
	rr := httptest.NewRecorder()
	h.HandleGet(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "no-store, max-age=0", rr.Header().Get("Cache-Control"))

	var got map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, "Summer Road Trip", got["title"])
	assert.Contains(t, got["content"], `"hello"`)
}

func TestMemoryCreateValidation(t *testing.T) {
	h := newMemoryHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"content":""}`},
		{"malformed JSON", `{"title": `},
		{"bad memory date", `{"title":"x","memoryDate":"July 4th"}`},
		{"unparseable content", `{"title":"x","content":"{\"type\":\"mystery\"}"}`},
		{"bad spotify reference", `{"title":"x","spotify":"https://example.com/nope"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/memories", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()
			h.HandleCreate(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)

			var resp handler.ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, "validation_error", resp.Error)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestMemoryDuplicateSlugIsConflict(t *testing.T) {
	h := newMemoryHandler(t)
	createMemory(t, h, `{"title":"Same Title"}`)

	req := httptest.NewRequest(http.MethodPost, "/api/memories", bytes.NewBufferString(`{"title":"Same Title"}`))
	rr := httptest.NewRecorder()
	h.HandleCreate(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestMemoryGetMissingIs404(t *testing.T) {
	h := newMemoryHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/memories/nope", nil)
	req.SetPathValue("slug", "nope")
	rr := httptest.NewRecorder()
	h.HandleGet(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMemoryList(t *testing.T) {
	h := newMemoryHandler(t)
	createMemory(t, h, `{"title":"First"}`)
	createMemory(t, h, `{"title":"Second"}`)

	rr := httptest.NewRecorder()
	h.HandleList(rr, httptest.NewRequest(http.MethodGet, "/api/memories", nil))

	assert.Equal(t, http.StatusOK, rr.Code)

	var list []map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0]["slug"], "listing is newest first")
	assert.Equal(t, "first", list[1]["slug"])
}

func TestMemoryDelete(t *testing.T) {
	h := newMemoryHandler(t)
	created := createMemory(t, h, `{"title":"Doomed"}`)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	req := httptest.NewRequest(http.MethodDelete, "/api/memories/"+id, nil)
	req.SetPathValue("id", id)
	rr := httptest.NewRecorder()
	h.HandleDelete(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	// Deleting again is a 404.
	rr = httptest.NewRecorder()
	h.HandleDelete(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestVerifyPasswordEndpoint(t *testing.T) {
	h := newMemoryHandler(t)
	locked := createMemory(t, h, `{"title":"Locked","password":"hunter2"}`)
	open := createMemory(t, h, `{"title":"Open"}`)
	lockedID, _ := locked["id"].(string)
	openID, _ := open["id"].(string)
	require.NotEmpty(t, lockedID)
	require.NotEmpty(t, openID)

	verify := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/memories/verify-password", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()
		h.HandleVerifyPassword(rr, req)
		return rr
	}

	t.Run("correct password", func(t *testing.T) {
		rr := verify(`{"memoryId":"` + lockedID + `","password":"hunter2"}`)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"verified":true,"message":"password verified"}`, rr.Body.String())
	})

	t.Run("wrong password", func(t *testing.T) {
		rr := verify(`{"memoryId":"` + lockedID + `","password":"wrong"}`)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		var resp handler.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "unauthorized", resp.Error)
		assert.Equal(t, "incorrect password", resp.Message)
	})

	t.Run("unprotected memory", func(t *testing.T) {
		rr := verify(`{"memoryId":"` + openID + `","password":"whatever"}`)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		rr := verify(`{"memoryId":"ghost","password":"x"}`)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
