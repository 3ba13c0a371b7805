package pms

import (
	"strings"
	"time"

	"github.com/lodgeline/booking-engine/internal/domain"
)

// apiDate decodes the provider's "YYYY-MM-DD" date strings. A malformed date
// decodes to the zero time instead of failing the whole envelope.
type apiDate struct {
	time.Time
}

func (d *apiDate) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(domain.DateFormat, s)
	if err != nil {
		d.Time = time.Time{}
		return nil
	}
	d.Time = t
	return nil
}

// Listing envelopes. Every provider listing wraps rows in {"data": [...], "total": N}.

type propertyPage struct {
	Data  []propertyRow `json:"data"`
	Total int           `json:"total"`
}

type propertyRow struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type unitTypePage struct {
	Data  []unitTypeRow `json:"data"`
	Total int           `json:"total"`
}

type unitTypeRow struct {
	ID           int64  `json:"id"`
	PropertyID   int64  `json:"property_id"`
	Name         string `json:"name"`
	MaxOccupancy int    `json:"max_occupancy"`
	MaxAdults    int    `json:"max_adults"`
	MaxChildren  int    `json:"max_children"`
}

type salesChannelPage struct {
	Data  []salesChannelRow `json:"data"`
	Total int               `json:"total"`
}

type salesChannelRow struct {
	ID             int64   `json:"id"`
	PropertyID     int64   `json:"property_id"`
	Name           string  `json:"name"`
	CommissionRate float64 `json:"commission_rate"`
}

type ratePage struct {
	Data []rateRow `json:"data"`
}

type rateRow struct {
	Date     apiDate `json:"date"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

type restrictionPage struct {
	Data []restrictionRow `json:"data"`
}

type restrictionRow struct {
	Date              apiDate `json:"date"`
	MinStay           int     `json:"min_stay"`
	MaxStay           int     `json:"max_stay"`
	ClosedToArrival   bool    `json:"closed_to_arrival"`
	ClosedToDeparture bool    `json:"closed_to_departure"`
}

type availabilityPage struct {
	Data []availabilityRow `json:"data"`
}

type availabilityRow struct {
	Date              apiDate `json:"date"`
	UnitsAvailable    int     `json:"units_available"`
	ClosedToArrival   bool    `json:"closed_to_arrival"`
	ClosedToDeparture bool    `json:"closed_to_departure"`
}

// ChildPayload is a child row as the provider's reservation endpoint expects
// it: the age and nothing else.
type ChildPayload struct {
	Age int `json:"age"`
}

// ReservationPayload is the normalized booking body sent to the provider. The
// routing property id is deliberately absent; the endpoint rejects it.
type ReservationPayload struct {
	UnitTypeID     int64          `json:"unit_type_id"`
	Arrival        string         `json:"arrival"`
	Departure      string         `json:"departure"`
	Adults         int            `json:"adults"`
	Persons        int            `json:"persons"`
	Rooms          int            `json:"rooms"`
	Children       []ChildPayload `json:"children"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone,omitempty"`
	Address        string         `json:"address,omitempty"`
	City           string         `json:"city,omitempty"`
	Country        string         `json:"country,omitempty"`
	Zip            string         `json:"zip,omitempty"`
	CardHolderName string         `json:"card_holder_name,omitempty"`
	CardNumber     string         `json:"card_number,omitempty"`
	ExpiryMonth    string         `json:"expiry_month,omitempty"`
	ExpiryYear     string         `json:"expiry_year,omitempty"`
	SalesChannelID int64          `json:"sales_channel_id"`
	Note           string         `json:"note,omitempty"`
}

// Reply carries a raw provider response for callers that need to inspect the
// status and body themselves (reservation submission, pass-through proxy).
type Reply struct {
	StatusCode  int
	Status      string
	ContentType string
	Body        []byte
}
