package domain

import (
	"fmt"
	"time"
)

// DateFormat is the wire format for all PMS stay dates.
const DateFormat = "2006-01-02"

// DateRange is a half-open stay interval; the checkout day is never billed.
type DateRange struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

func NewDateRange(checkIn, checkOut time.Time) (DateRange, error) {
	if !checkOut.After(checkIn) {
		return DateRange{}, fmt.Errorf("check-out %s must be after check-in %s",
			checkOut.Format(DateFormat), checkIn.Format(DateFormat))
	}
	return DateRange{CheckIn: checkIn, CheckOut: checkOut}, nil
}

// Nights is the stay length in whole days.
func (d DateRange) Nights() int {
	return int(d.CheckOut.Sub(d.CheckIn).Hours() / 24)
}

// StayDates lists every billed date, check-in inclusive, check-out exclusive.
func (d DateRange) StayDates() []time.Time {
	dates := make([]time.Time, 0, d.Nights())
	for t := d.CheckIn; t.Before(d.CheckOut); t = t.AddDate(0, 0, 1) {
		dates = append(dates, t)
	}
	return dates
}

// RateEntry is one priced night. The checkout date may appear as a zero-charge row.
type RateEntry struct {
	Date         time.Time `json:"date"`
	Price        float64   `json:"price"`
	CurrencyCode string    `json:"currency_code"`
}

// RestrictionEntry is a PMS-declared booking constraint for one date.
type RestrictionEntry struct {
	Date              time.Time `json:"date"`
	MinStay           int       `json:"min_stay"`
	MaxStay           int       `json:"max_stay"`
	ClosedToArrival   bool      `json:"closed_to_arrival"`
	ClosedToDeparture bool      `json:"closed_to_departure"`
}

// AvailabilityEntry reports sellable inventory for one date.
type AvailabilityEntry struct {
	Date              time.Time `json:"date"`
	UnitsAvailable    int       `json:"units_available"`
	ClosedToArrival   bool      `json:"closed_to_arrival"`
	ClosedToDeparture bool      `json:"closed_to_departure"`
}

func (a AvailabilityEntry) Available() bool {
	return a.UnitsAvailable > 0
}

// CapacityProfile is the PMS-declared occupancy ceiling for one unit type.
type CapacityProfile struct {
	UnitTypeID   int64 `json:"unit_type_id"`
	MaxOccupancy int   `json:"max_occupancy"`
	MaxAdults    int   `json:"max_adults"`
	MaxChildren  int   `json:"max_children"`
}

// PricingQuote is the resolved pricing and availability verdict for one unit
// type and date range. Immutable once computed.
type PricingQuote struct {
	CheckIn                time.Time   `json:"check_in"`
	CheckOut               time.Time   `json:"check_out"`
	Nights                 int         `json:"nights"`
	AccommodationTotal     float64     `json:"accommodation_total"`
	AccommodationPerNight  float64     `json:"accommodation_per_night"`
	TotalPrice             float64     `json:"total_price"`
	CurrencyCode           string      `json:"currency_code"`
	ConvertedTotal         float64     `json:"converted_total"`
	ExchangeRate           float64     `json:"exchange_rate"`
	IsAvailable            bool        `json:"is_available"`
	Estimated              bool        `json:"estimated"`
	UnavailableDates       []time.Time `json:"unavailable_dates"`
	ClosedToArrivalDates   []time.Time `json:"closed_to_arrival_dates"`
	ClosedToDepartureDates []time.Time `json:"closed_to_departure_dates"`
	MinStay                int         `json:"min_stay"`
	MaxStay                int         `json:"max_stay"`
}
