package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/thegray/audioservice/internal/audioformat"
	"github.com/thegray/audioservice/internal/catalog"
	"github.com/thegray/audioservice/internal/logging"
	"github.com/thegray/audioservice/internal/resolver"
	"github.com/thegray/audioservice/internal/services"
)

// maxUploadBytes caps the request body for uploads; oversized requests are
// rejected before the payload is read.
const maxUploadBytes = 64 << 20

// multipartMemoryLimit is the in-memory threshold before multipart parts
// spill to temp files.
const multipartMemoryLimit = 8 << 20

// Handler serves the audio API.
type Handler struct {
	engine  *resolver.Engine
	catalog *catalog.Store
	logger  *slog.Logger
}

// NewHandler constructs the API handler.
func NewHandler(engine *resolver.Engine, cat *catalog.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: engine, catalog: cat, logger: logger}
}

type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type uploadData struct {
	FileID   int64  `json:"file_id"`
	FileName string `json:"file_name"`
	FilePath string `json:"file_path"`
}

// Upload stores a recording for a (user, phrase) slot. The audio arrives as
// the "file" multipart field.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, phraseID, err := slotParams(r)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		uploadsTotal.WithLabelValues("rejected").Inc()
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		h.writeError(w, r, status, fmt.Errorf("parse multipart form: %w", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		uploadsTotal.WithLabelValues("rejected").Inc()
		h.writeError(w, r, http.StatusBadRequest, fmt.Errorf("missing multipart field %q: %w", "file", err))
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		uploadsTotal.WithLabelValues("error").Inc()
		h.writeError(w, r, http.StatusInternalServerError, fmt.Errorf("read upload: %w", err))
		return
	}

	upload, err := h.engine.Ingest(r.Context(), resolver.IngestRequest{
		UserID:      userID,
		PhraseID:    phraseID,
		ContentType: header.Header.Get("Content-Type"),
		FileName:    header.Filename,
		Payload:     payload,
	})
	if err != nil {
		uploadsTotal.WithLabelValues(services.Kind(err)).Inc()
		h.writeError(w, r, statusForError(err), err)
		return
	}
	uploadsTotal.WithLabelValues("ok").Inc()

	h.writeJSON(w, http.StatusCreated, apiResponse{
		Status:  "success",
		Message: "file uploaded",
		Data: uploadData{
			FileID:   upload.RecordID,
			FileName: upload.FileName,
			FilePath: upload.FilePath,
		},
	})
}

// Download serves the slot's audio in the requested format, transcoding on
// demand when no stored variant matches.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	userID, phraseID, err := slotParams(r)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	format := chi.URLParam(r, "format")

	asset, err := h.engine.Resolve(r.Context(), userID, phraseID, format)
	if err != nil {
		// Unknown formats collapse to one label value; a raw request string
		// must never mint a new metric series.
		label := audioformat.Normalize(format)
		if errors.Is(err, services.ErrUnsupportedFormat) {
			label = "invalid"
		}
		downloadsTotal.WithLabelValues(label, services.Kind(err)).Inc()
		h.writeError(w, r, statusForError(err), err)
		return
	}
	downloadsTotal.WithLabelValues(asset.Format, "ok").Inc()

	w.Header().Set("Content-Type", asset.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", asset.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(asset.Payload)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(asset.Payload); err != nil {
		h.logger.Warn("write response body",
			slog.String("request_id", RequestIDFrom(r.Context())),
			logging.Error(err),
		)
	}
}

// Healthcheck reports service liveness, including catalog reachability.
func (h *Handler) Healthcheck(w http.ResponseWriter, r *http.Request) {
	if h.catalog != nil {
		health, err := h.catalog.CheckHealth(r.Context())
		if err != nil || health.Error != "" {
			detail := health.Error
			if err != nil {
				detail = err.Error()
			}
			h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "down",
				"detail": detail,
			})
			return
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "up"})
}

func slotParams(r *http.Request) (int64, int64, error) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("user id must be an integer")
	}
	phraseID, err := strconv.ParseInt(chi.URLParam(r, "phraseID"), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("phrase id must be an integer")
	}
	return userID, phraseID, nil
}

// statusForError maps the service error taxonomy onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("encode response", logging.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	h.logger.Error("request failed",
		slog.String("request_id", RequestIDFrom(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		logging.Error(err),
	)
	h.writeJSON(w, status, apiResponse{Status: "error", Message: err.Error()})
}
