package quote

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lodgeline/booking-engine/internal/domain"
	"github.com/lodgeline/booking-engine/pkg/logger"
)

// InventoryReader is the slice of the PMS client the resolver needs.
type InventoryReader interface {
	Rates(ctx context.Context, unitTypeID int64, dr domain.DateRange) ([]domain.RateEntry, error)
	Restrictions(ctx context.Context, unitTypeID int64, dr domain.DateRange) ([]domain.RestrictionEntry, error)
	Availability(ctx context.Context, unitTypeID int64, dr domain.DateRange) ([]domain.AvailabilityEntry, error)
}

// Resolver reconciles the three independently-shaped PMS feeds into a single
// pricing quote.
type Resolver struct {
	client         InventoryReader
	rates          RateSource
	targetCurrency string
	allowEstimates bool
}

func NewResolver(client InventoryReader, rates RateSource, targetCurrency string, allowEstimates bool) *Resolver {
	if rates == nil {
		rates = DefaultRates()
	}
	return &Resolver{
		client:         client,
		rates:          rates,
		targetCurrency: targetCurrency,
		allowEstimates: allowEstimates,
	}
}

// GetQuote fetches rates, restrictions and availability concurrently and
// reconciles them. A failure in any feed cancels the others and raises; the
// resolver never fabricates prices.
func (r *Resolver) GetQuote(ctx context.Context, unitTypeID int64, dr domain.DateRange) (*domain.PricingQuote, error) {
	var (
		rateEntries         []domain.RateEntry
		restrictionEntries  []domain.RestrictionEntry
		availabilityEntries []domain.AvailabilityEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rateEntries, err = r.client.Rates(gctx, unitTypeID, dr)
		return err
	})
	g.Go(func() error {
		var err error
		restrictionEntries, err = r.client.Restrictions(gctx, unitTypeID, dr)
		return err
	})
	g.Go(func() error {
		var err error
		availabilityEntries, err = r.client.Availability(gctx, unitTypeID, dr)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("quote fetch for unit type %d failed: %w", unitTypeID, err)
	}

	q := &domain.PricingQuote{
		CheckIn:                dr.CheckIn,
		CheckOut:               dr.CheckOut,
		CurrencyCode:           r.targetCurrency,
		ExchangeRate:           1,
		UnavailableDates:       []time.Time{},
		ClosedToArrivalDates:   []time.Time{},
		ClosedToDepartureDates: []time.Time{},
	}

	r.applyRestrictions(q, restrictionEntries)
	r.applyAvailability(q, dr, availabilityEntries, restrictionEntries)

	if len(rateEntries) == 0 {
		// Provider has no pricing for the range. Degraded mode keeps the
		// availability verdict but flags the quote as estimated; otherwise the
		// quote is simply unavailable. The two are never conflated.
		q.Nights = dr.Nights()
		if r.allowEstimates {
			q.Estimated = true
			logger.WarnContext(ctx, "no rates for range, returning estimated quote",
				"unit_type_id", unitTypeID)
		} else {
			q.IsAvailable = false
		}
		return q, nil
	}

	r.applyRates(q, dr, rateEntries)
	return q, nil
}

// applyRates computes nights and totals. The last calendar day of the range is
// never billed: providers that return a zero-charge checkout row get that row
// excluded from both the night count and the sum.
func (r *Resolver) applyRates(q *domain.PricingQuote, dr domain.DateRange, entries []domain.RateEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date.Before(entries[j].Date) })

	checkout := dr.CheckOut
	includesCheckout := false
	var total float64
	for _, entry := range entries {
		if sameDay(entry.Date, checkout) {
			includesCheckout = true
			continue
		}
		total += entry.Price
	}

	if includesCheckout {
		q.Nights = len(entries) - 1
	} else {
		q.Nights = dr.Nights()
	}

	q.AccommodationTotal = total
	if q.Nights > 0 {
		q.AccommodationPerNight = total / float64(q.Nights)
	}
	q.TotalPrice = total

	if currency := entries[0].CurrencyCode; currency != "" {
		q.CurrencyCode = currency
	}

	rate, ok := r.rates.Rate(q.CurrencyCode, r.targetCurrency)
	if !ok {
		logger.Warn("no exchange rate for pair, conversion skipped",
			"from", q.CurrencyCode, "to", r.targetCurrency)
		rate = 1
	}
	q.ExchangeRate = rate
	q.ConvertedTotal = q.TotalPrice * rate
}

// applyRestrictions reduces per-day restrictions to the most restrictive
// values: the maximum min-stay and the minimum max-stay in range.
func (r *Resolver) applyRestrictions(q *domain.PricingQuote, entries []domain.RestrictionEntry) {
	for _, entry := range entries {
		if entry.MinStay > q.MinStay {
			q.MinStay = entry.MinStay
		}
		if entry.MaxStay > 0 && (q.MaxStay == 0 || entry.MaxStay < q.MaxStay) {
			q.MaxStay = entry.MaxStay
		}
	}
}

// applyAvailability sets the availability verdict and itemizes the dates that
// block the stay.
func (r *Resolver) applyAvailability(q *domain.PricingQuote, dr domain.DateRange,
	availability []domain.AvailabilityEntry, restrictions []domain.RestrictionEntry) {

	byDate := make(map[string]domain.AvailabilityEntry, len(availability))
	for _, entry := range availability {
		byDate[entry.Date.Format(domain.DateFormat)] = entry
	}

	closedArrival := make(map[string]bool)
	closedDeparture := make(map[string]bool)
	for _, entry := range availability {
		key := entry.Date.Format(domain.DateFormat)
		if entry.ClosedToArrival {
			closedArrival[key] = true
		}
		if entry.ClosedToDeparture {
			closedDeparture[key] = true
		}
	}
	for _, entry := range restrictions {
		key := entry.Date.Format(domain.DateFormat)
		if entry.ClosedToArrival {
			closedArrival[key] = true
		}
		if entry.ClosedToDeparture {
			closedDeparture[key] = true
		}
	}

	for _, date := range dr.StayDates() {
		entry, ok := byDate[date.Format(domain.DateFormat)]
		if !ok || !entry.Available() {
			q.UnavailableDates = append(q.UnavailableDates, date)
		}
		if closedArrival[date.Format(domain.DateFormat)] {
			q.ClosedToArrivalDates = append(q.ClosedToArrivalDates, date)
		}
	}
	checkoutKey := dr.CheckOut.Format(domain.DateFormat)
	if closedDeparture[checkoutKey] {
		q.ClosedToDepartureDates = append(q.ClosedToDepartureDates, dr.CheckOut)
	}

	arrivalClosed := closedArrival[dr.CheckIn.Format(domain.DateFormat)]
	departureClosed := closedDeparture[checkoutKey]
	q.IsAvailable = len(q.UnavailableDates) == 0 && !arrivalClosed && !departureClosed
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
