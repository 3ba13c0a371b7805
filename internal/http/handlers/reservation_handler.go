package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lodgeline/booking-engine/internal/booking"
	"github.com/lodgeline/booking-engine/internal/domain"
	"github.com/lodgeline/booking-engine/internal/http/response"
)

// ReservationHandler accepts a raw booking form and returns the uniform
// submission result, mirroring the provider's status on failure.
type ReservationHandler struct {
	pipeline *booking.Pipeline
}

func NewReservationHandler(pipeline *booking.Pipeline) *ReservationHandler {
	return &ReservationHandler{pipeline: pipeline}
}

func (h *ReservationHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.create)
	return r
}

func (h *ReservationHandler) create(w http.ResponseWriter, r *http.Request) {
	var form domain.ReservationForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")
	result := h.pipeline.Submit(r.Context(), &form, idempotencyKey)

	status := http.StatusOK
	if !result.Success {
		status = result.StatusCode
		if status == 0 {
			status = http.StatusBadGateway
		}
	}
	response.WriteJSON(w, status, result)
}
