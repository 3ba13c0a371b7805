package pms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	"github.com/lodgeline/booking-engine/internal/domain"
	"github.com/lodgeline/booking-engine/pkg/logger"
)

// ErrNoCredential is returned before any network call when the upstream API
// key is not configured. Read paths degrade to neutral data on it.
var ErrNoCredential = errors.New("pms: api key not configured")

const apiKeyHeader = "X-Api-Key"

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type pageParams struct {
	Page     int `url:"page"`
	PageSize int `url:"page_size"`
}

type rangeParams struct {
	From string `url:"from"`
	To   string `url:"to"`
}

func (c *Client) get(ctx context.Context, path string, params interface{}, out interface{}) error {
	if c.apiKey == "" {
		return ErrNoCredential
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("pms: failed to create request: %w", err)
	}
	if params != nil {
		values, err := query.Values(params)
		if err != nil {
			return fmt.Errorf("pms: failed to encode query params: %w", err)
		}
		req.URL.RawQuery = values.Encode()
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("pms: GET %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("pms: GET %s returned %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// Data-shape error: the caller proceeds with whatever decoded cleanly.
		logger.WarnContext(ctx, "PMS response did not match expected envelope",
			"path", path, "error", err)
	}
	return nil
}

func (c *Client) ListProperties(ctx context.Context, page, pageSize int) ([]domain.PropertyOption, int, error) {
	var envelope propertyPage
	err := c.get(ctx, "/properties", pageParams{Page: page, PageSize: pageSize}, &envelope)
	if err != nil {
		return nil, 0, err
	}

	options := make([]domain.PropertyOption, 0, len(envelope.Data))
	for _, row := range envelope.Data {
		options = append(options, domain.PropertyOption{ID: row.ID, DisplayName: row.Name})
	}
	return options, envelope.Total, nil
}

func (c *Client) ListUnitTypes(ctx context.Context, propertyID int64, page, pageSize int) ([]domain.UnitTypeOption, int, error) {
	var envelope unitTypePage
	path := fmt.Sprintf("/properties/%d/unit-types", propertyID)
	err := c.get(ctx, path, pageParams{Page: page, PageSize: pageSize}, &envelope)
	if err != nil {
		return nil, 0, err
	}

	options := make([]domain.UnitTypeOption, 0, len(envelope.Data))
	for _, row := range envelope.Data {
		options = append(options, domain.UnitTypeOption{
			ID:          row.ID,
			PropertyID:  propertyID,
			DisplayName: row.Name,
		})
	}
	return options, envelope.Total, nil
}

func (c *Client) ListSalesChannels(ctx context.Context, propertyID int64, page, pageSize int) ([]domain.SalesChannelOption, int, error) {
	var envelope salesChannelPage
	path := fmt.Sprintf("/properties/%d/sales-channels", propertyID)
	err := c.get(ctx, path, pageParams{Page: page, PageSize: pageSize}, &envelope)
	if err != nil {
		return nil, 0, err
	}

	options := make([]domain.SalesChannelOption, 0, len(envelope.Data))
	for _, row := range envelope.Data {
		options = append(options, domain.SalesChannelOption{
			ID:             row.ID,
			PropertyID:     propertyID,
			DisplayName:    row.Name,
			CommissionRate: row.CommissionRate,
		})
	}
	return options, envelope.Total, nil
}

// UnitTypeCapacity fetches the PMS-declared occupancy ceiling for one unit type.
func (c *Client) UnitTypeCapacity(ctx context.Context, unitTypeID int64) (*domain.CapacityProfile, error) {
	var row unitTypeRow
	path := fmt.Sprintf("/unit-types/%d", unitTypeID)
	if err := c.get(ctx, path, nil, &row); err != nil {
		return nil, err
	}
	if row.MaxOccupancy == 0 && row.MaxAdults == 0 && row.MaxChildren == 0 {
		// Provider declares no ceiling for this unit type.
		return nil, nil
	}
	return &domain.CapacityProfile{
		UnitTypeID:   unitTypeID,
		MaxOccupancy: row.MaxOccupancy,
		MaxAdults:    row.MaxAdults,
		MaxChildren:  row.MaxChildren,
	}, nil
}

func (c *Client) Rates(ctx context.Context, unitTypeID int64, dr domain.DateRange) ([]domain.RateEntry, error) {
	var envelope ratePage
	path := fmt.Sprintf("/unit-types/%d/rates", unitTypeID)
	err := c.get(ctx, path, rangeParams{
		From: dr.CheckIn.Format(domain.DateFormat),
		To:   dr.CheckOut.Format(domain.DateFormat),
	}, &envelope)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.RateEntry, 0, len(envelope.Data))
	for _, row := range envelope.Data {
		if row.Date.IsZero() {
			continue
		}
		entries = append(entries, domain.RateEntry{
			Date:         row.Date.Time,
			Price:        row.Price,
			CurrencyCode: row.Currency,
		})
	}
	return entries, nil
}

func (c *Client) Restrictions(ctx context.Context, unitTypeID int64, dr domain.DateRange) ([]domain.RestrictionEntry, error) {
	var envelope restrictionPage
	path := fmt.Sprintf("/unit-types/%d/restrictions", unitTypeID)
	err := c.get(ctx, path, rangeParams{
		From: dr.CheckIn.Format(domain.DateFormat),
		To:   dr.CheckOut.Format(domain.DateFormat),
	}, &envelope)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.RestrictionEntry, 0, len(envelope.Data))
	for _, row := range envelope.Data {
		if row.Date.IsZero() {
			continue
		}
		entries = append(entries, domain.RestrictionEntry{
			Date:              row.Date.Time,
			MinStay:           row.MinStay,
			MaxStay:           row.MaxStay,
			ClosedToArrival:   row.ClosedToArrival,
			ClosedToDeparture: row.ClosedToDeparture,
		})
	}
	return entries, nil
}

func (c *Client) Availability(ctx context.Context, unitTypeID int64, dr domain.DateRange) ([]domain.AvailabilityEntry, error) {
	var envelope availabilityPage
	path := fmt.Sprintf("/unit-types/%d/availability", unitTypeID)
	err := c.get(ctx, path, rangeParams{
		From: dr.CheckIn.Format(domain.DateFormat),
		To:   dr.CheckOut.Format(domain.DateFormat),
	}, &envelope)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.AvailabilityEntry, 0, len(envelope.Data))
	for _, row := range envelope.Data {
		if row.Date.IsZero() {
			continue
		}
		entries = append(entries, domain.AvailabilityEntry{
			Date:              row.Date.Time,
			UnitsAvailable:    row.UnitsAvailable,
			ClosedToArrival:   row.ClosedToArrival,
			ClosedToDeparture: row.ClosedToDeparture,
		})
	}
	return entries, nil
}

// CreateReservation posts the normalized booking body and hands the raw reply
// back to the submission pipeline for success/error mapping.
func (c *Client) CreateReservation(ctx context.Context, payload *ReservationPayload) (*Reply, error) {
	if c.apiKey == "" {
		return nil, ErrNoCredential
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("pms: failed to marshal reservation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/reservations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("pms: failed to create request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pms: reservation request failed: %w", err)
	}
	defer resp.Body.Close()

	return readReply(resp)
}

// Forward issues a raw GET against an upstream path with the caller's query
// parameters forwarded verbatim and the credential header injected. Used by
// the pass-through proxy endpoint.
func (c *Client) Forward(ctx context.Context, path string, params url.Values) (*Reply, error) {
	if c.apiKey == "" {
		return nil, ErrNoCredential
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("pms: failed to create request: %w", err)
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pms: GET %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	return readReply(resp)
}

func readReply(resp *http.Response) (*Reply, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("pms: failed to read response body: %w", err)
	}
	return &Reply{
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
