package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkaye/memorybox/internal/handler"
	"github.com/mkaye/memorybox/internal/storage"
	"github.com/mkaye/memorybox/internal/upload"
)

func newUploadFixture(t *testing.T) (*handler.UploadHandler, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir, "http://localhost:8080")
	require.NoError(t, err)

	gateway := upload.NewGateway(store, testLogger())
	return handler.NewUploadHandler(gateway, testLogger()), dir
}

func multipartBody(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func TestUploadEndpoint(t *testing.T) {
	h, dir := newUploadFixture(t)

	body, contentType := multipartBody(t, "file", "cat.png", "image/png", []byte("pretend png bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	h.HandleUpload(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp struct {
		PublicURL string `json:"publicUrl"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, strings.HasPrefix(resp.PublicURL, "http://localhost:8080/media/"), resp.PublicURL)
	assert.True(t, strings.HasSuffix(resp.PublicURL, ".png"), resp.PublicURL)

	// The bytes really landed on disk under the key from the URL.
	key := strings.TrimPrefix(resp.PublicURL, "http://localhost:8080/media/")
	stored, err := os.ReadFile(filepath.Join(dir, key))
	require.NoError(t, err)
	assert.Equal(t, []byte("pretend png bytes"), stored)
}

func TestUploadMissingFileField(t *testing.T) {
	h, _ := newUploadFixture(t)

	body, contentType := multipartBody(t, "wrong-field", "cat.png", "image/png", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	h.HandleUpload(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "validation_error", resp.Error)
}

func TestUploadCorruptHEICRejected(t *testing.T) {
	h, dir := newUploadFixture(t)

	body, contentType := multipartBody(t, "file", "broken.heic", "image/heic", []byte("definitely not heic"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	h.HandleUpload(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "a failed conversion must leave no stored object behind")
}
