// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/melodex/internal/models"
	"github.com/tomtom215/melodex/internal/review"
)

// ReviewList returns queue items, filtered by an optional comma-separated
// status query parameter. Without a filter it lists pending items, which is
// what a review UI polls for.
func (h *Handler) ReviewList(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	statuses := []models.ReviewStatus{models.StatusPending}
	if raw := r.URL.Query().Get("status"); raw != "" {
		statuses = statuses[:0]
		for _, part := range strings.Split(raw, ",") {
			status, err := models.ParseReviewStatus(strings.TrimSpace(part))
			if err != nil {
				rw.BadRequest(err.Error())
				return
			}
			statuses = append(statuses, status)
		}
	}

	items := h.queue.List(statuses...)

	rw.Success(map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

// ReviewCounts returns the per-status item counts.
func (h *Handler) ReviewCounts(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.queue.GetCounts())
}

// reviewBatchRequest addresses queue items by their "artist|album" keys.
type reviewBatchRequest struct {
	Keys []string `json:"keys"`
}

// ReviewAccept approves a batch of pending items by key.
func (h *Handler) ReviewAccept(w http.ResponseWriter, r *http.Request) {
	h.decideBatch(w, r, models.StatusAccepted)
}

// ReviewReject rejects a batch of pending items by key.
func (h *Handler) ReviewReject(w http.ResponseWriter, r *http.Request) {
	h.decideBatch(w, r, models.StatusRejected)
}

// ReviewNever permanently dismisses a batch of pending items by key.
func (h *Handler) ReviewNever(w http.ResponseWriter, r *http.Request) {
	h.decideBatch(w, r, models.StatusNever)
}

func (h *Handler) decideBatch(w http.ResponseWriter, r *http.Request, status models.ReviewStatus) {
	rw := NewResponseWriter(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req reviewBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		rw.BadRequest(fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(req.Keys) == 0 {
		rw.BadRequest("keys must not be empty")
		return
	}

	updated, err := h.queue.Decide(r.Context(), req.Keys, status)
	if err != nil {
		h.logger.Error().Err(err).Str("status", status.String()).Msg("Batch review decision failed")
		rw.InternalError("Failed to apply review decision")
		return
	}

	rw.Success(map[string]interface{}{
		"status":  status.String(),
		"updated": updated,
	})
}

// reviewStatusRequest carries a single-item decision.
type reviewStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

// ReviewSetStatus applies a decision to one item addressed by ID.
func (h *Handler) ReviewSetStatus(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req reviewStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest(fmt.Sprintf("invalid request body: %v", err))
		return
	}

	status, err := models.ParseReviewStatus(req.Status)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	item, err := h.queue.SetStatus(r.Context(), id, status, req.Notes)
	switch {
	case errors.Is(err, review.ErrNotFound):
		rw.NotFound(fmt.Sprintf("No review item with id %s", id))
		return
	case errors.Is(err, review.ErrAlreadyDecided):
		rw.Conflict("Item has already been decided")
		return
	case errors.Is(err, review.ErrInvalidStatus):
		rw.BadRequest("Pending is not a valid decision target")
		return
	case err != nil:
		h.logger.Error().Err(err).Str("id", id).Msg("Review decision failed")
		rw.InternalError("Failed to apply review decision")
		return
	}

	rw.Success(item)
}
