package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lodgeline/booking-engine/internal/booking"
	"github.com/lodgeline/booking-engine/internal/catalog"
	"github.com/lodgeline/booking-engine/internal/domain"
	"github.com/lodgeline/booking-engine/internal/http/handlers"
	"github.com/lodgeline/booking-engine/internal/platform/mailer"
	"github.com/lodgeline/booking-engine/internal/platform/pms"
	"github.com/lodgeline/booking-engine/internal/quote"
)

// ---------- Fakes ----------

type fakeLister struct {
	properties    []domain.PropertyOption
	unitTypes     map[int64][]domain.UnitTypeOption
	salesChannels map[int64][]domain.SalesChannelOption
	err           error
}

func (f *fakeLister) ListProperties(context.Context, int, int) ([]domain.PropertyOption, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.properties, len(f.properties), nil
}

func (f *fakeLister) ListUnitTypes(_ context.Context, propertyID int64, _, _ int) ([]domain.UnitTypeOption, int, error) {
	return f.unitTypes[propertyID], len(f.unitTypes[propertyID]), nil
}

func (f *fakeLister) ListSalesChannels(_ context.Context, propertyID int64, _, _ int) ([]domain.SalesChannelOption, int, error) {
	return f.salesChannels[propertyID], len(f.salesChannels[propertyID]), nil
}

type fakeInventory struct {
	rates        []domain.RateEntry
	availability []domain.AvailabilityEntry
}

func (f *fakeInventory) Rates(context.Context, int64, domain.DateRange) ([]domain.RateEntry, error) {
	return f.rates, nil
}

func (f *fakeInventory) Restrictions(context.Context, int64, domain.DateRange) ([]domain.RestrictionEntry, error) {
	return nil, nil
}

func (f *fakeInventory) Availability(context.Context, int64, domain.DateRange) ([]domain.AvailabilityEntry, error) {
	return f.availability, nil
}

type fakeCapacity struct {
	profile *domain.CapacityProfile
}

func (f *fakeCapacity) UnitTypeCapacity(context.Context, int64) (*domain.CapacityProfile, error) {
	return f.profile, nil
}

type fakeSubmitter struct {
	reply *pms.Reply
	err   error
}

func (f *fakeSubmitter) CreateReservation(context.Context, *pms.ReservationPayload) (*pms.Reply, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func day(s string) time.Time {
	t, _ := time.Parse(domain.DateFormat, s)
	return t
}

// ---------- Options endpoint ----------

func TestOptionsEndpointDegradesToEmptyCatalog(t *testing.T) {
	// A client without a credential never reaches the network; the endpoint
	// must still answer 200 with a well-formed empty body.
	client := pms.NewClient("http://pms.invalid", "", time.Second)
	agg := catalog.NewAggregator(client, 30, 0, nil)
	h := handlers.NewOptionsHandler(agg)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var out domain.OptionsCatalog
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("body is not a well-formed catalog: %v", err)
	}
	if len(out.PropertyOptions) != 0 {
		t.Fatalf("expected empty catalog, got %+v", out)
	}
}

func TestOptionsEndpointReturnsCatalog(t *testing.T) {
	fake := &fakeLister{
		properties: []domain.PropertyOption{{ID: 1, DisplayName: "Seaside"}},
		unitTypes: map[int64][]domain.UnitTypeOption{
			1: {{ID: 10, PropertyID: 1, DisplayName: "Suite"}},
		},
	}
	agg := catalog.NewAggregator(fake, 30, 0, nil)
	h := handlers.NewOptionsHandler(agg)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out domain.OptionsCatalog
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.PropertyOptions) != 1 || len(out.UnitTypesByProperty[1]) != 1 {
		t.Fatalf("unexpected catalog: %+v", out)
	}
}

// ---------- Selection endpoint ----------

func newSelectionHandler() (*handlers.SelectionHandler, *catalog.Hub) {
	fake := &fakeLister{
		properties: []domain.PropertyOption{
			{ID: 1, DisplayName: "Seaside"},
			{ID: 2, DisplayName: "Mountain"},
		},
		unitTypes: map[int64][]domain.UnitTypeOption{
			1: {{ID: 10, PropertyID: 1, DisplayName: "Suite"}},
			2: {{ID: 20, PropertyID: 2, DisplayName: "Chalet"}},
		},
		salesChannels: map[int64][]domain.SalesChannelOption{
			2: {{ID: 200, PropertyID: 2, DisplayName: "Direct"}},
		},
	}
	agg := catalog.NewAggregator(fake, 30, 0, nil)
	hub := catalog.NewHub()

	unitTypeField := catalog.NewDependentField()
	unitTypeField.SetOptions(1, []int64{10})
	unitTypeField.SetOptions(2, []int64{20})
	unitTypeField.Bind(hub)

	salesChannelField := catalog.NewDependentField()
	salesChannelField.SetOptions(1, []int64{})
	salesChannelField.SetOptions(2, []int64{200})
	salesChannelField.Bind(hub)

	return handlers.NewSelectionHandler(hub, agg, unitTypeField, salesChannelField), hub
}

type selectionView struct {
	PropertyID             int64                       `json:"property_id"`
	SelectedUnitTypeID     int64                       `json:"selected_unit_type_id"`
	SelectedSalesChannelID int64                       `json:"selected_sales_channel_id"`
	UnitTypes              []domain.UnitTypeOption     `json:"unit_types"`
	SalesChannels          []domain.SalesChannelOption `json:"sales_channels"`
}

func postSelection(t *testing.T, h *handlers.SelectionHandler, body string) selectionView {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out selectionView
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestSelectionEndpointFiltersDependentOptions(t *testing.T) {
	h, hub := newSelectionHandler()

	out := postSelection(t, h, `{"property_id": "2", "unit_type_id": 20}`)

	if out.PropertyID != 2 {
		t.Fatalf("expected selection 2, got %d", out.PropertyID)
	}
	if out.SelectedUnitTypeID != 20 {
		t.Fatalf("expected unit type 20 kept, got %d", out.SelectedUnitTypeID)
	}
	if len(out.UnitTypes) != 1 || out.UnitTypes[0].ID != 20 {
		t.Fatalf("expected unit types filtered to property 2, got %+v", out.UnitTypes)
	}
	if hub.Current() != 2 {
		t.Fatalf("expected hub updated, got %d", hub.Current())
	}
}

func TestSelectionEndpointClearsStaleDependentValues(t *testing.T) {
	h, _ := newSelectionHandler()

	postSelection(t, h, `{"property_id": 2, "unit_type_id": 20, "sales_channel_id": 200}`)
	out := postSelection(t, h, `{"property_id": 1}`)

	if out.SelectedUnitTypeID != 0 {
		t.Fatalf("expected unit type cleared after property change, got %d", out.SelectedUnitTypeID)
	}
	if out.SelectedSalesChannelID != 0 {
		t.Fatalf("expected sales channel cleared after property change, got %d", out.SelectedSalesChannelID)
	}

	// GET reflects the same state.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	var current selectionView
	if err := json.NewDecoder(rec.Body).Decode(&current); err != nil {
		t.Fatal(err)
	}
	if current.PropertyID != 1 || current.SelectedUnitTypeID != 0 {
		t.Fatalf("unexpected current selection: %+v", current)
	}
}

// ---------- Quote endpoint ----------

func newQuoteRouter(inventory *fakeInventory, capacity *fakeCapacity) chi.Router {
	resolver := quote.NewResolver(inventory, quote.DefaultRates(), "EUR", false)
	validator := booking.NewValidator(4)
	return handlers.NewQuoteHandler(resolver, validator, capacity).Routes()
}

func TestQuoteEndpointRejectsMalformedDates(t *testing.T) {
	router := newQuoteRouter(&fakeInventory{}, &fakeCapacity{})

	req := httptest.NewRequest(http.MethodGet, "/?unit_type_id=7&check_in=junk&check_out=2025-06-04", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestQuoteEndpointReturnsQuoteWithViolations(t *testing.T) {
	inventory := &fakeInventory{
		rates: []domain.RateEntry{
			{Date: day("2025-06-01"), Price: 100, CurrencyCode: "EUR"},
			{Date: day("2025-06-02"), Price: 100, CurrencyCode: "EUR"},
			{Date: day("2025-06-03"), Price: 100, CurrencyCode: "EUR"},
		},
		availability: []domain.AvailabilityEntry{
			{Date: day("2025-06-01"), UnitsAvailable: 1},
			{Date: day("2025-06-02"), UnitsAvailable: 1},
			{Date: day("2025-06-03"), UnitsAvailable: 1},
		},
	}
	capacity := &fakeCapacity{profile: &domain.CapacityProfile{MaxAdults: 2}}
	router := newQuoteRouter(inventory, capacity)

	req := httptest.NewRequest(http.MethodGet,
		"/?unit_type_id=7&check_in=2025-06-01&check_out=2025-06-04&adults=3", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Quote      *domain.PricingQuote `json:"quote"`
		Violations []string             `json:"violations"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Quote.AccommodationTotal != 300 {
		t.Fatalf("expected total 300, got %v", out.Quote.AccommodationTotal)
	}
	if len(out.Violations) != 1 {
		t.Fatalf("expected one capacity violation, got %v", out.Violations)
	}
}

// ---------- Reservation endpoint ----------

func newReservationRouter(submitter *fakeSubmitter) chi.Router {
	pipeline := booking.NewPipeline(submitter, nil, mailer.NewDevMailer(), 1, time.Hour)
	return handlers.NewReservationHandler(pipeline).Routes()
}

func reservationBody() *bytes.Buffer {
	return bytes.NewBufferString(`{
		"unit_type_id": 7,
		"check_in": "2025-07-01",
		"check_out": "2025-07-04",
		"adults": 2,
		"first_name": "Ada",
		"last_name": "Lovelace",
		"email": "ada@example.com"
	}`)
}

func TestReservationEndpointSuccess(t *testing.T) {
	submitter := &fakeSubmitter{reply: &pms.Reply{
		StatusCode: 201,
		Status:     "201 Created",
		Body:       []byte(`{"id": 55}`),
	}}
	router := newReservationRouter(submitter)

	req := httptest.NewRequest(http.MethodPost, "/", reservationBody())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out domain.ReservationResult
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if !out.Success || out.ConfirmationID != "55" {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestReservationEndpointMirrorsProviderStatus(t *testing.T) {
	submitter := &fakeSubmitter{reply: &pms.Reply{
		StatusCode: 409,
		Status:     "409 Conflict",
		Body:       []byte(`{"message": "no allotment"}`),
	}}
	router := newReservationRouter(submitter)

	req := httptest.NewRequest(http.MethodPost, "/", reservationBody())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected provider status mirrored, got %d", rec.Code)
	}
}

func TestReservationEndpointMissingFields(t *testing.T) {
	router := newReservationRouter(&fakeSubmitter{})

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"adults": 2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var out domain.ReservationResult
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.MissingFields) == 0 {
		t.Fatal("expected the missing field names listed")
	}
}

// ---------- Proxy endpoint ----------

func TestProxyEndpointInjectsCredential(t *testing.T) {
	var gotKey, gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		gotPath = r.URL.Path
		w.Write([]byte(`{"data": []}`))
	}))
	defer upstream.Close()

	client := pms.NewClient(upstream.URL, "secret", time.Second)
	router := handlers.NewProxyHandler(client).Routes()

	req := httptest.NewRequest(http.MethodGet, "/rates?unit_type_id=7&from=2025-06-01&to=2025-06-04", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotKey != "secret" {
		t.Fatal("credential header not injected upstream")
	}
	if gotPath != "/unit-types/7/rates" {
		t.Fatalf("unexpected upstream path: %s", gotPath)
	}
}

func TestProxyEndpointRejectsUnknownResource(t *testing.T) {
	client := pms.NewClient("http://pms.invalid", "secret", time.Second)
	router := handlers.NewProxyHandler(client).Routes()

	req := httptest.NewRequest(http.MethodGet, "/reservations?unit_type_id=7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
