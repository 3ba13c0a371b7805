package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/lodgeline/booking-engine/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// NoopBus is used when no broker is configured; the engine must run without one.
type NoopBus struct{}

func (NoopBus) Publish(ctx context.Context, subject string, data interface{}) error {
	logger.DebugContext(ctx, "Event dropped (no broker configured)", "subject", subject)
	return nil
}

func (NoopBus) Close() error { return nil }

// Subjects
const (
	ReservationSubmitted = "reservation.submitted"
	ReservationFailed    = "reservation.failed"
	CatalogRefreshed     = "catalog.refreshed"
)

type ReservationSubmittedEvent struct {
	ConfirmationID string    `json:"confirmation_id"`
	UnitTypeID     int64     `json:"unit_type_id"`
	SalesChannelID int64     `json:"sales_channel_id"`
	CheckIn        string    `json:"check_in"`
	CheckOut       string    `json:"check_out"`
	GuestEmail     string    `json:"guest_email"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

type ReservationFailedEvent struct {
	UnitTypeID int64     `json:"unit_type_id"`
	StatusCode int       `json:"status_code"`
	Message    string    `json:"message"`
	FailedAt   time.Time `json:"failed_at"`
}

type CatalogRefreshedEvent struct {
	Properties  int       `json:"properties"`
	RefreshedAt time.Time `json:"refreshed_at"`
}
