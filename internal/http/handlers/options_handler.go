package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lodgeline/booking-engine/internal/catalog"
	"github.com/lodgeline/booking-engine/internal/http/response"
)

// OptionsHandler serves the cached options catalog. It always answers 200 with
// a well-formed body so dependent UI never breaks on an upstream outage.
type OptionsHandler struct {
	aggregator *catalog.Aggregator
}

func NewOptionsHandler(aggregator *catalog.Aggregator) *OptionsHandler {
	return &OptionsHandler{aggregator: aggregator}
}

func (h *OptionsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	return r
}

func (h *OptionsHandler) list(w http.ResponseWriter, r *http.Request) {
	forceReload := r.URL.Query().Get("reload") == "true"
	catalog := h.aggregator.LoadOptions(r.Context(), forceReload)
	response.WriteJSON(w, http.StatusOK, catalog)
}
