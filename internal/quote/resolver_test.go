package quote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lodgeline/booking-engine/internal/domain"
)

type fakeReader struct {
	rates        []domain.RateEntry
	restrictions []domain.RestrictionEntry
	availability []domain.AvailabilityEntry

	ratesErr error
}

func (f *fakeReader) Rates(ctx context.Context, _ int64, _ domain.DateRange) ([]domain.RateEntry, error) {
	if f.ratesErr != nil {
		return nil, f.ratesErr
	}
	return f.rates, nil
}

func (f *fakeReader) Restrictions(ctx context.Context, _ int64, _ domain.DateRange) ([]domain.RestrictionEntry, error) {
	return f.restrictions, nil
}

func (f *fakeReader) Availability(ctx context.Context, _ int64, _ domain.DateRange) ([]domain.AvailabilityEntry, error) {
	return f.availability, nil
}

func day(s string) time.Time {
	t, err := time.Parse(domain.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return t
}

func mustRange(t *testing.T, checkIn, checkOut string) domain.DateRange {
	t.Helper()
	dr, err := domain.NewDateRange(day(checkIn), day(checkOut))
	if err != nil {
		t.Fatal(err)
	}
	return dr
}

func openDates(from, to string) []domain.AvailabilityEntry {
	var entries []domain.AvailabilityEntry
	for d := day(from); !d.After(day(to)); d = d.AddDate(0, 0, 1) {
		entries = append(entries, domain.AvailabilityEntry{Date: d, UnitsAvailable: 2})
	}
	return entries
}

func TestGetQuoteNeverBillsCheckoutDay(t *testing.T) {
	// Three-night stay with a zero-charge checkout row in the rates feed.
	fake := &fakeReader{
		rates: []domain.RateEntry{
			{Date: day("2025-06-01"), Price: 100, CurrencyCode: "EUR"},
			{Date: day("2025-06-02"), Price: 100, CurrencyCode: "EUR"},
			{Date: day("2025-06-03"), Price: 100, CurrencyCode: "EUR"},
			{Date: day("2025-06-04"), Price: 0, CurrencyCode: "EUR"},
		},
		availability: openDates("2025-06-01", "2025-06-04"),
	}
	r := NewResolver(fake, DefaultRates(), "EUR", false)

	q, err := r.GetQuote(context.Background(), 1, mustRange(t, "2025-06-01", "2025-06-04"))
	if err != nil {
		t.Fatal(err)
	}

	if q.Nights != 3 {
		t.Fatalf("expected 3 nights, got %d", q.Nights)
	}
	if q.AccommodationTotal != 300 {
		t.Fatalf("expected total 300, got %v", q.AccommodationTotal)
	}
	if q.AccommodationPerNight != 100 {
		t.Fatalf("expected 100 per night, got %v", q.AccommodationPerNight)
	}
	if !q.IsAvailable {
		t.Fatal("expected available quote")
	}
}

func TestGetQuoteWithoutCheckoutRowUsesDateSpan(t *testing.T) {
	fake := &fakeReader{
		rates: []domain.RateEntry{
			{Date: day("2025-06-01"), Price: 120, CurrencyCode: "EUR"},
			{Date: day("2025-06-02"), Price: 80, CurrencyCode: "EUR"},
		},
		availability: openDates("2025-06-01", "2025-06-03"),
	}
	r := NewResolver(fake, DefaultRates(), "EUR", false)

	q, err := r.GetQuote(context.Background(), 1, mustRange(t, "2025-06-01", "2025-06-03"))
	if err != nil {
		t.Fatal(err)
	}

	if q.Nights != 2 {
		t.Fatalf("expected 2 nights, got %d", q.Nights)
	}
	if q.AccommodationTotal != 200 {
		t.Fatalf("expected total 200, got %v", q.AccommodationTotal)
	}
}

func TestGetQuoteMostRestrictiveReduction(t *testing.T) {
	fake := &fakeReader{
		rates: []domain.RateEntry{
			{Date: day("2025-06-01"), Price: 100, CurrencyCode: "EUR"},
			{Date: day("2025-06-02"), Price: 100, CurrencyCode: "EUR"},
		},
		restrictions: []domain.RestrictionEntry{
			{Date: day("2025-06-01"), MinStay: 2, MaxStay: 14},
			{Date: day("2025-06-02"), MinStay: 5, MaxStay: 7},
		},
		availability: openDates("2025-06-01", "2025-06-03"),
	}
	r := NewResolver(fake, DefaultRates(), "EUR", false)

	q, err := r.GetQuote(context.Background(), 1, mustRange(t, "2025-06-01", "2025-06-03"))
	if err != nil {
		t.Fatal(err)
	}

	if q.MinStay != 5 {
		t.Fatalf("expected effective min stay 5, got %d", q.MinStay)
	}
	if q.MaxStay != 7 {
		t.Fatalf("expected effective max stay 7, got %d", q.MaxStay)
	}
}

func TestGetQuoteCollectsBlockingDates(t *testing.T) {
	fake := &fakeReader{
		rates: []domain.RateEntry{
			{Date: day("2025-06-01"), Price: 100, CurrencyCode: "EUR"},
			{Date: day("2025-06-02"), Price: 100, CurrencyCode: "EUR"},
		},
		availability: []domain.AvailabilityEntry{
			{Date: day("2025-06-01"), UnitsAvailable: 1, ClosedToArrival: true},
			{Date: day("2025-06-02"), UnitsAvailable: 0},
			{Date: day("2025-06-03"), UnitsAvailable: 1, ClosedToDeparture: true},
		},
	}
	r := NewResolver(fake, DefaultRates(), "EUR", false)

	q, err := r.GetQuote(context.Background(), 1, mustRange(t, "2025-06-01", "2025-06-03"))
	if err != nil {
		t.Fatal(err)
	}

	if q.IsAvailable {
		t.Fatal("expected unavailable quote")
	}
	if len(q.UnavailableDates) != 1 || !q.UnavailableDates[0].Equal(day("2025-06-02")) {
		t.Fatalf("expected 2025-06-02 unavailable, got %v", q.UnavailableDates)
	}
	if len(q.ClosedToArrivalDates) != 1 || !q.ClosedToArrivalDates[0].Equal(day("2025-06-01")) {
		t.Fatalf("expected 2025-06-01 closed to arrival, got %v", q.ClosedToArrivalDates)
	}
	if len(q.ClosedToDepartureDates) != 1 || !q.ClosedToDepartureDates[0].Equal(day("2025-06-03")) {
		t.Fatalf("expected 2025-06-03 closed to departure, got %v", q.ClosedToDepartureDates)
	}
}

func TestGetQuoteCurrencyConversion(t *testing.T) {
	fake := &fakeReader{
		rates: []domain.RateEntry{
			{Date: day("2025-06-01"), Price: 100, CurrencyCode: "USD"},
		},
		availability: openDates("2025-06-01", "2025-06-02"),
	}
	r := NewResolver(fake, StaticRates{"USD/EUR": 0.9}, "EUR", false)

	q, err := r.GetQuote(context.Background(), 1, mustRange(t, "2025-06-01", "2025-06-02"))
	if err != nil {
		t.Fatal(err)
	}

	if q.CurrencyCode != "USD" {
		t.Fatalf("expected USD quote currency, got %s", q.CurrencyCode)
	}
	if q.ExchangeRate != 0.9 {
		t.Fatalf("expected exchange rate 0.9, got %v", q.ExchangeRate)
	}
	if q.ConvertedTotal != 90 {
		t.Fatalf("expected converted total 90, got %v", q.ConvertedTotal)
	}
}

func TestGetQuoteEmptyRatesIsUnavailableByDefault(t *testing.T) {
	fake := &fakeReader{availability: openDates("2025-06-01", "2025-06-03")}
	r := NewResolver(fake, DefaultRates(), "EUR", false)

	q, err := r.GetQuote(context.Background(), 1, mustRange(t, "2025-06-01", "2025-06-03"))
	if err != nil {
		t.Fatal(err)
	}

	if q.IsAvailable {
		t.Fatal("expected unavailable quote when provider has no pricing")
	}
	if q.Estimated {
		t.Fatal("quote must not be flagged estimated without degraded mode")
	}
	if q.AccommodationTotal != 0 || q.TotalPrice != 0 {
		t.Fatalf("expected zero pricing, got %v / %v", q.AccommodationTotal, q.TotalPrice)
	}
}

func TestGetQuoteEmptyRatesEstimatedWhenConfigured(t *testing.T) {
	fake := &fakeReader{availability: openDates("2025-06-01", "2025-06-03")}
	r := NewResolver(fake, DefaultRates(), "EUR", true)

	q, err := r.GetQuote(context.Background(), 1, mustRange(t, "2025-06-01", "2025-06-03"))
	if err != nil {
		t.Fatal(err)
	}

	if !q.Estimated {
		t.Fatal("expected estimated flag in degraded mode")
	}
	if !q.IsAvailable {
		t.Fatal("expected availability verdict preserved in degraded mode")
	}
}

func TestGetQuoteRatesFailureRaises(t *testing.T) {
	fake := &fakeReader{
		ratesErr:     errors.New("rates endpoint down"),
		availability: openDates("2025-06-01", "2025-06-03"),
	}
	r := NewResolver(fake, DefaultRates(), "EUR", false)

	if _, err := r.GetQuote(context.Background(), 1, mustRange(t, "2025-06-01", "2025-06-03")); err == nil {
		t.Fatal("expected error when rates fetch fails")
	}
}

func TestStaticRatesInversePair(t *testing.T) {
	rates := StaticRates{"USD/EUR": 0.5}

	rate, ok := rates.Rate("EUR", "USD")
	if !ok || rate != 2 {
		t.Fatalf("expected inverse rate 2, got %v (ok=%v)", rate, ok)
	}

	if rate, _ := rates.Rate("EUR", "EUR"); rate != 1 {
		t.Fatalf("expected identity rate 1, got %v", rate)
	}
}
