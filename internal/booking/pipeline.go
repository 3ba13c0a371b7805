package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/lodgeline/booking-engine/internal/domain"
	"github.com/lodgeline/booking-engine/internal/platform/mailer"
	"github.com/lodgeline/booking-engine/internal/platform/pms"
	"github.com/lodgeline/booking-engine/pkg/events"
	"github.com/lodgeline/booking-engine/pkg/logger"
)

// ReservationSubmitter is the slice of the PMS client the pipeline needs.
type ReservationSubmitter interface {
	CreateReservation(ctx context.Context, payload *pms.ReservationPayload) (*pms.Reply, error)
}

// Pipeline normalizes a completed booking form into the provider's reservation
// schema, submits it and maps the outcome into a uniform result.
type Pipeline struct {
	client                ReservationSubmitter
	bus                   events.Publisher
	mail                  mailer.Service
	idempotency           *idempotencyStore
	inflight              singleflight.Group
	defaultSalesChannelID int64
	now                   func() time.Time
}

func NewPipeline(client ReservationSubmitter, bus events.Publisher, mail mailer.Service,
	defaultSalesChannelID int64, idempotencyTTL time.Duration) *Pipeline {

	if bus == nil {
		bus = events.NoopBus{}
	}
	if mail == nil {
		mail = mailer.NewDevMailer()
	}
	return &Pipeline{
		client:                client,
		bus:                   bus,
		mail:                  mail,
		idempotency:           newIdempotencyStore(idempotencyTTL),
		defaultSalesChannelID: defaultSalesChannelID,
		now:                   time.Now,
	}
}

// Submit runs the normalization steps in order, validates required fields,
// posts to the provider and maps success/error payloads. A replayed
// idempotency key returns the original result without re-submitting;
// concurrent submissions with the same key collapse into one upstream call.
func (p *Pipeline) Submit(ctx context.Context, form *domain.ReservationForm, idempotencyKey string) *domain.ReservationResult {
	if idempotencyKey == "" {
		return p.submit(ctx, form, "")
	}

	v, _, _ := p.inflight.Do(hashKey(idempotencyKey), func() (interface{}, error) {
		if result, ok := p.idempotency.get(idempotencyKey); ok {
			logger.InfoContext(ctx, "idempotency key replayed, returning original result",
				"confirmation_id", result.ConfirmationID)
			return result, nil
		}
		return p.submit(ctx, form, idempotencyKey), nil
	})
	return v.(*domain.ReservationResult)
}

func (p *Pipeline) submit(ctx context.Context, form *domain.ReservationForm, idempotencyKey string) *domain.ReservationResult {
	payload, missing := p.normalize(form)
	if len(missing) > 0 {
		return &domain.ReservationResult{
			Success:       false,
			StatusCode:    http.StatusUnprocessableEntity,
			MissingFields: missing,
			ErrorMessage:  "missing required fields: " + strings.Join(missing, ", "),
		}
	}

	reply, err := p.client.CreateReservation(ctx, payload)
	if err != nil {
		if errors.Is(err, pms.ErrNoCredential) {
			return &domain.ReservationResult{
				Success:      false,
				StatusCode:   http.StatusInternalServerError,
				ErrorMessage: "reservation cannot proceed: PMS credential not configured",
			}
		}
		logger.ErrorContext(ctx, "reservation submission failed", "error", err)
		return &domain.ReservationResult{
			Success:      false,
			StatusCode:   http.StatusBadGateway,
			ErrorMessage: "reservation submission failed: " + err.Error(),
		}
	}

	if reply.StatusCode < 200 || reply.StatusCode >= 300 {
		message := ExtractProviderMessage(reply.Body)
		result := &domain.ReservationResult{
			Success:      false,
			StatusCode:   reply.StatusCode,
			ErrorMessage: fmt.Sprintf("%s: %s", reply.Status, message),
		}
		p.publishFailure(ctx, payload, reply.StatusCode, message)
		return result
	}

	result := &domain.ReservationResult{
		Success:         true,
		StatusCode:      reply.StatusCode,
		ConfirmationID:  confirmationID(reply.Body),
		ProviderPayload: reply.Body,
	}

	if idempotencyKey != "" {
		p.idempotency.put(idempotencyKey, result)
	}

	p.publishSuccess(ctx, payload, result.ConfirmationID)
	p.sendConfirmation(ctx, payload, result.ConfirmationID)

	return result
}

// normalize applies the form-to-provider coercion rules and reports any
// required field still missing afterwards. The routing property id never
// reaches the outgoing payload.
func (p *Pipeline) normalize(form *domain.ReservationForm) (*pms.ReservationPayload, []string) {
	children := make([]pms.ChildPayload, 0, len(form.Children))
	for _, child := range form.Children {
		// Age 0 or a non-numeric age means the row was never filled in.
		if child.Age.Int() > 0 {
			children = append(children, pms.ChildPayload{Age: child.Age.Int()})
		}
	}

	adults := form.Adults.Int()
	persons := form.Persons.Int()
	if persons == 0 {
		persons = adults + len(children)
	}

	rooms := form.Rooms.Int()
	if rooms == 0 {
		rooms = 1
	}

	salesChannelID := form.SalesChannelID.Int64()
	if salesChannelID == 0 {
		salesChannelID = p.defaultSalesChannelID
	}

	payload := &pms.ReservationPayload{
		UnitTypeID:     form.UnitTypeID.Int64(),
		Arrival:        strings.TrimSpace(form.CheckIn),
		Departure:      strings.TrimSpace(form.CheckOut),
		Adults:         adults,
		Persons:        persons,
		Rooms:          rooms,
		Children:       children,
		FirstName:      strings.TrimSpace(form.FirstName),
		LastName:       strings.TrimSpace(form.LastName),
		Email:          strings.ToLower(strings.TrimSpace(form.Email)),
		Phone:          strings.TrimSpace(form.Phone),
		Address:        form.Address,
		City:           form.City,
		Country:        form.Country,
		Zip:            form.Zip,
		CardHolderName: form.CardHolderName,
		CardNumber:     form.CardNumber,
		ExpiryMonth:    form.ExpiryMonth,
		ExpiryYear:     NormalizeExpiryYear(form.ExpiryYear, p.now()),
		SalesChannelID: salesChannelID,
		Note:           form.Note,
	}

	var missing []string
	if payload.UnitTypeID == 0 {
		missing = append(missing, "unit_type_id")
	}
	if payload.Arrival == "" {
		missing = append(missing, "check_in")
	}
	if payload.Departure == "" {
		missing = append(missing, "check_out")
	}
	if payload.Adults == 0 {
		missing = append(missing, "adults")
	}
	if payload.FirstName == "" {
		missing = append(missing, "first_name")
	}
	if payload.LastName == "" {
		missing = append(missing, "last_name")
	}
	if payload.Email == "" {
		missing = append(missing, "email")
	}

	return payload, missing
}

// NormalizeExpiryYear expands a 2-digit card expiry year to 4 digits. A value
// more than ten years past the current year's last two digits is treated as
// previous-century. The boundary is asymmetric around century rollovers; it is
// kept as-is for provider compatibility.
func NormalizeExpiryYear(year string, now time.Time) string {
	year = strings.TrimSpace(year)
	if len(year) != 2 {
		return year
	}
	n, err := strconv.Atoi(year)
	if err != nil {
		return year
	}

	century := now.Year() / 100
	boundary := now.Year()%100 + 10
	if n > boundary {
		century--
	}
	return fmt.Sprintf("%d%02d", century, n)
}

// confirmationID prefers the provider's reservation id, then its public id,
// then a locally generated fallback.
func confirmationID(body []byte) string {
	var created struct {
		ID       int64  `json:"id"`
		PublicID string `json:"public_id"`
	}
	if err := json.Unmarshal(body, &created); err == nil {
		if created.ID > 0 {
			return strconv.FormatInt(created.ID, 10)
		}
		if created.PublicID != "" {
			return created.PublicID
		}
	}
	return uuid.New().String()
}

func (p *Pipeline) publishSuccess(ctx context.Context, payload *pms.ReservationPayload, confirmationID string) {
	event := events.ReservationSubmittedEvent{
		ConfirmationID: confirmationID,
		UnitTypeID:     payload.UnitTypeID,
		SalesChannelID: payload.SalesChannelID,
		CheckIn:        payload.Arrival,
		CheckOut:       payload.Departure,
		GuestEmail:     payload.Email,
		SubmittedAt:    p.now(),
	}
	if err := p.bus.Publish(ctx, events.ReservationSubmitted, event); err != nil {
		logger.ErrorContext(ctx, "failed to publish reservation submitted event",
			"error", err, "confirmation_id", confirmationID)
	}
}

func (p *Pipeline) publishFailure(ctx context.Context, payload *pms.ReservationPayload, statusCode int, message string) {
	event := events.ReservationFailedEvent{
		UnitTypeID: payload.UnitTypeID,
		StatusCode: statusCode,
		Message:    message,
		FailedAt:   p.now(),
	}
	if err := p.bus.Publish(ctx, events.ReservationFailed, event); err != nil {
		logger.ErrorContext(ctx, "failed to publish reservation failed event", "error", err)
	}
}

func (p *Pipeline) sendConfirmation(ctx context.Context, payload *pms.ReservationPayload, confirmationID string) {
	guestName := strings.TrimSpace(payload.FirstName + " " + payload.LastName)
	if err := p.mail.SendConfirmation(payload.Email, guestName, confirmationID, payload.Arrival, payload.Departure); err != nil {
		logger.ErrorContext(ctx, "failed to send confirmation mail",
			"error", err, "confirmation_id", confirmationID)
	}
}
