// Package api exposes the activity store over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "activity-store/internal/common/errors"
	"activity-store/internal/common/logger"
	"activity-store/pkg/activities"
)

// maxBodyBytes caps PUT /activities request bodies.
const maxBodyBytes = 32 << 20

// Store is the part of *activities.Store the handler needs.
type Store interface {
	LoadRaw(ctx context.Context) (interface{}, error)
	Save(ctx context.Context, a activities.Activities) error
}

type Handler struct {
	store  Store
	logger logger.Logger
	mux    *http.ServeMux
}

func NewHandler(store Store, log logger.Logger) *Handler {
	h := &Handler{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "api"}),
		mux:    http.NewServeMux(),
	}
	h.mux.HandleFunc("/activities", h.handleActivities)
	h.mux.HandleFunc("/health", h.status("healthy"))
	h.mux.HandleFunc("/ready", h.status("ready"))
	return h
}

// Handle registers an extra route, e.g. /metrics.
func (h *Handler) Handle(pattern string, handler http.Handler) {
	h.mux.Handle(pattern, handler)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleActivities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getActivities(w, r)
	case http.MethodPut:
		h.putActivities(w, r)
	default:
		w.Header().Set("Allow", "GET, PUT")
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", fmt.Sprintf("method %s not allowed", r.Method))
	}
}

func (h *Handler) getActivities(w http.ResponseWriter, r *http.Request) {
	// The store has already logged any failure. Any JSON root in the file is
	// served as is.
	list, err := h.store.LoadRaw(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) putActivities(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if len(body) > maxBodyBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "request body too large")
		return
	}

	in, err := activities.Parse(body)
	if err != nil {
		h.logger.Warn("rejected activities payload", map[string]interface{}{
			"remoteAddr": r.RemoteAddr,
			"error":      err.Error(),
		})
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "body must be a JSON object")
		return
	}

	if err := h.store.Save(r.Context(), in); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) status(state string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": state,
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}

func writeStoreError(w http.ResponseWriter, err error) {
	code, msg := string(apperrors.ErrCodeInternal), "Unexpected error"
	if stdErr, ok := apperrors.AsStandardError(err); ok {
		code, msg = string(stdErr.Code), stdErr.Message
	}
	writeError(w, http.StatusInternalServerError, code, msg)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
