package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lodgeline/booking-engine/internal/catalog"
	"github.com/lodgeline/booking-engine/internal/domain"
	"github.com/lodgeline/booking-engine/internal/http/response"
)

// SelectionHandler exposes the process-wide property selection. Setting it
// broadcasts to the dependent unit-type and sales-channel fields, clearing
// their values when they no longer belong to the selected property; reading it
// returns the option lists filtered to the selected property along with the
// surviving field values.
type SelectionHandler struct {
	hub               *catalog.Hub
	aggregator        *catalog.Aggregator
	unitTypeField     *catalog.DependentField
	salesChannelField *catalog.DependentField
}

func NewSelectionHandler(hub *catalog.Hub, aggregator *catalog.Aggregator,
	unitTypeField, salesChannelField *catalog.DependentField) *SelectionHandler {
	return &SelectionHandler{
		hub:               hub,
		aggregator:        aggregator,
		unitTypeField:     unitTypeField,
		salesChannelField: salesChannelField,
	}
}

func (h *SelectionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.set)
	r.Get("/", h.get)
	return r
}

type selectionRequest struct {
	PropertyID     domain.FlexInt `json:"property_id"`
	UnitTypeID     domain.FlexInt `json:"unit_type_id"`
	SalesChannelID domain.FlexInt `json:"sales_channel_id"`
}

type selectionResponse struct {
	PropertyID             int64                       `json:"property_id"`
	SelectedUnitTypeID     int64                       `json:"selected_unit_type_id"`
	SelectedSalesChannelID int64                       `json:"selected_sales_channel_id"`
	UnitTypes              []domain.UnitTypeOption     `json:"unit_types"`
	SalesChannels          []domain.SalesChannelOption `json:"sales_channels"`
}

func (h *SelectionHandler) set(w http.ResponseWriter, r *http.Request) {
	var in selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	// Apply the field values first so the broadcast can clear them when they
	// do not belong to the newly selected property.
	if id := in.UnitTypeID.Int64(); id != 0 {
		h.unitTypeField.Select(id)
	}
	if id := in.SalesChannelID.Int64(); id != 0 {
		h.salesChannelField.Select(id)
	}
	h.hub.SetSelection(in.PropertyID.Int64())

	h.writeSelection(w, r, in.PropertyID.Int64())
}

func (h *SelectionHandler) get(w http.ResponseWriter, r *http.Request) {
	h.writeSelection(w, r, h.hub.Current())
}

func (h *SelectionHandler) writeSelection(w http.ResponseWriter, r *http.Request, propertyID int64) {
	out := selectionResponse{
		PropertyID:             propertyID,
		SelectedUnitTypeID:     h.unitTypeField.Selected(),
		SelectedSalesChannelID: h.salesChannelField.Selected(),
		UnitTypes:              []domain.UnitTypeOption{},
		SalesChannels:          []domain.SalesChannelOption{},
	}
	if propertyID != 0 {
		cat := h.aggregator.LoadOptions(r.Context(), false)
		if unitTypes, ok := cat.UnitTypesByProperty[propertyID]; ok {
			out.UnitTypes = unitTypes
		}
		if channels, ok := cat.SalesChannelsByProperty[propertyID]; ok {
			out.SalesChannels = channels
		}
	}
	response.WriteJSON(w, http.StatusOK, out)
}
