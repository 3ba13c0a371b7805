package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lodgeline/booking-engine/internal/booking"
	"github.com/lodgeline/booking-engine/internal/domain"
	"github.com/lodgeline/booking-engine/internal/http/response"
	"github.com/lodgeline/booking-engine/internal/quote"
	"github.com/lodgeline/booking-engine/pkg/logger"
)

// CapacityFetcher resolves the PMS-declared occupancy ceiling for a unit type.
type CapacityFetcher interface {
	UnitTypeCapacity(ctx context.Context, unitTypeID int64) (*domain.CapacityProfile, error)
}

// QuoteHandler resolves pricing quotes and, when guest counts are supplied,
// revalidates them against stay and capacity limits.
type QuoteHandler struct {
	resolver  *quote.Resolver
	validator *booking.Validator
	capacity  CapacityFetcher
}

func NewQuoteHandler(resolver *quote.Resolver, validator *booking.Validator, capacity CapacityFetcher) *QuoteHandler {
	return &QuoteHandler{resolver: resolver, validator: validator, capacity: capacity}
}

func (h *QuoteHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.get)
	return r
}

type quoteResponse struct {
	Quote      *domain.PricingQuote `json:"quote"`
	Violations []string             `json:"violations"`
}

func (h *QuoteHandler) get(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	unitTypeID, err := strconv.ParseInt(params.Get("unit_type_id"), 10, 64)
	if err != nil || unitTypeID <= 0 {
		response.BadRequest(w, "unit_type_id is required")
		return
	}

	checkIn, err := time.Parse(domain.DateFormat, params.Get("check_in"))
	if err != nil {
		response.BadRequest(w, "check_in must be YYYY-MM-DD")
		return
	}
	checkOut, err := time.Parse(domain.DateFormat, params.Get("check_out"))
	if err != nil {
		response.BadRequest(w, "check_out must be YYYY-MM-DD")
		return
	}
	dateRange, err := domain.NewDateRange(checkIn, checkOut)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	q, err := h.resolver.GetQuote(r.Context(), unitTypeID, dateRange)
	if err != nil {
		logger.ErrorContext(r.Context(), "quote resolution failed",
			"unit_type_id", unitTypeID, "error", err)
		response.BadGateway(w, "pricing is currently unavailable")
		return
	}

	out := quoteResponse{Quote: q, Violations: []string{}}

	if adultsParam := params.Get("adults"); adultsParam != "" {
		adults, err := strconv.Atoi(adultsParam)
		if err != nil || adults < 1 {
			response.BadRequest(w, "adults must be a positive integer")
			return
		}
		guests := domain.GuestComposition{Adults: adults, ChildAges: parseChildAges(params.Get("child_ages"))}

		rooms := 1
		if roomsParam := params.Get("rooms"); roomsParam != "" {
			if n, err := strconv.Atoi(roomsParam); err == nil && n > 0 {
				rooms = n
			}
		}

		capacity, err := h.capacity.UnitTypeCapacity(r.Context(), unitTypeID)
		if err != nil {
			// Validation falls back to the coarse per-room heuristic.
			logger.WarnContext(r.Context(), "capacity lookup failed",
				"unit_type_id", unitTypeID, "error", err)
			capacity = nil
		}

		if violations := h.validator.Validate(q, guests, rooms, capacity); violations != nil {
			out.Violations = violations
		}
	}

	response.WriteJSON(w, http.StatusOK, out)
}

// parseChildAges reads a comma-separated list, dropping anything that is not a
// positive number.
func parseChildAges(raw string) []int {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var ages []int
	for _, part := range strings.Split(raw, ",") {
		if age, err := strconv.Atoi(strings.TrimSpace(part)); err == nil && age > 0 {
			ages = append(ages, age)
		}
	}
	return ages
}
