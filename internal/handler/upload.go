package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/mkaye/memorybox/internal/apperror"
	"github.com/mkaye/memorybox/internal/upload"
)

// maxUploadBytes caps one multipart upload. Phone photos run 5-15MB; this
// leaves generous headroom without letting one request exhaust memory.
const maxUploadBytes = 32 << 20

// UploadHandler accepts multipart file uploads and hands them to the
// upload gateway.
type UploadHandler struct {
	gateway *upload.Gateway
	logger  *slog.Logger
}

func NewUploadHandler(gateway *upload.Gateway, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{gateway: gateway, logger: logger}
}

// HandleUpload stores one file from the "file" multipart field and returns
// its public URL.
//
// HTTP: POST /api/upload
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperror.ValidationFailed("file", "no file provided"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Warn("failed to read uploaded file",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("file", "could not read uploaded file"))
		return
	}

	result, err := h.gateway.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}
