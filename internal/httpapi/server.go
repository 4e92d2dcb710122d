package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"BookAnnotator/internal/domain"
	"BookAnnotator/internal/usecase"
)

// Describer is the use case behind the descriptions endpoint.
type Describer interface {
	Describe(ctx context.Context, bookID int64) (domain.DescribeResult, error)
}

// descriptionResponse mirrors the JSON the library front-end consumes.
type descriptionResponse struct {
	DocID       int64   `json:"doc_id"`
	Description *string `json:"description"`
	Cached      bool    `json:"cached"`
	Failed      bool    `json:"failed,omitempty"`
	Generating  bool    `json:"generating,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the descriptions API.
type Handler struct {
	describer Describer
	logger    *slog.Logger
}

// NewHandler wires the describe use case.
func NewHandler(describer Describer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{describer: describer, logger: logger}
}

// RegisterHTTP registers endpoints on the chi router.
func (h *Handler) RegisterHTTP(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Get("/api/descriptions/{doc_id}", h.handleDescription)
}

// NewRouter builds the full router with middleware.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	h.RegisterHTTP(r)
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDescription returns the cached or freshly generated description.
// GET /api/descriptions/{doc_id}
func (h *Handler) handleDescription(w http.ResponseWriter, r *http.Request) {
	docID, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, "doc_id")), 10, 64)
	if err != nil || docID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid doc_id"})
		return
	}

	res, err := h.describer.Describe(r.Context(), docID)
	switch {
	case usecase.IsInProgress(err):
		writeJSON(w, http.StatusAccepted, descriptionResponse{DocID: docID, Generating: true})
		return
	case err != nil:
		h.logger.Error("failed to get book description",
			"doc_id", docID,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to get book description"})
		return
	}

	resp := descriptionResponse{DocID: docID, Cached: res.Cached, Failed: res.Failed}
	if !res.Failed {
		description := res.Description
		resp.Description = &description
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
