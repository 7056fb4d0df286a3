package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/kirychukyurii/hostbeat/internal/config"
	"github.com/kirychukyurii/hostbeat/internal/service"
)

// PostHeartBeat handles POST /api/heartbeats
func (h *Handler) PostHeartBeat(w http.ResponseWriter, r *http.Request) {
	var in service.RegistrationInput
	if !h.decodeBody(w, r, &in) {
		return
	}

	hb, err := h.registration.Register(r.Context(), in)
	if err != nil {
		h.respondRegistrationError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, hb)
}

// PostHeartBeatBatch handles POST /api/heartbeats/batch
func (h *Handler) PostHeartBeatBatch(w http.ResponseWriter, r *http.Request) {
	var inputs []service.RegistrationInput
	if !h.decodeBody(w, r, &inputs) {
		return
	}

	hbs, err := h.registration.RegisterBatch(r.Context(), inputs)
	if err != nil {
		h.respondRegistrationError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, hbs)
}

// decodeBody reads a JSON body into dst and writes a 400 response when it cannot
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}

	if len(bytes.TrimSpace(body)) == 0 {
		h.respondError(w, http.StatusBadRequest, "empty request body")
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		h.logger.Warn("invalid json in request body",
			slog.String("error", err.Error()),
		)
		h.respondError(w, http.StatusBadRequest, "invalid json in request body")
		return false
	}

	return true
}

func (h *Handler) respondRegistrationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRegistration):
		h.logger.Warn("registration rejected", slog.String("error", err.Error()))
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, config.ErrMissingSetting):
		h.logger.Error("registration unavailable", slog.String("error", err.Error()))
		h.respondError(w, http.StatusServiceUnavailable, "region is not configured")
	default:
		h.logger.Error("failed to register heartbeat", slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "failed to register heartbeat")
	}
}
