package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FlexInt decodes JSON numbers and numeric strings alike. Booking forms arrive
// with either, depending on the input widget. Anything non-numeric decodes to 0.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Fail closed: a non-numeric value becomes zero rather than an error.
		*f = 0
		return nil
	}
	*f = FlexInt(n)
	return nil
}

func (f FlexInt) Int64() int64 { return int64(f) }
func (f FlexInt) Int() int     { return int(f) }

// ChildForm is one child row as submitted by the booking form.
type ChildForm struct {
	Age FlexInt `json:"age"`
}

// GuestComposition is the validated guest breakdown for a stay.
type GuestComposition struct {
	Adults    int   `json:"adults"`
	ChildAges []int `json:"child_ages"`
}

func (g GuestComposition) Persons() int {
	return g.Adults + len(g.ChildAges)
}

// ReservationForm is the raw booking form as received from the presentation
// layer. Identifiers and counts may arrive as numeric strings.
type ReservationForm struct {
	PropertyID     FlexInt     `json:"property_id"`
	UnitTypeID     FlexInt     `json:"unit_type_id"`
	CheckIn        string      `json:"check_in"`
	CheckOut       string      `json:"check_out"`
	Adults         FlexInt     `json:"adults"`
	Persons        FlexInt     `json:"persons"`
	Rooms          FlexInt     `json:"rooms"`
	Children       []ChildForm `json:"children"`
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	Email          string      `json:"email"`
	Phone          string      `json:"phone"`
	Address        string      `json:"address"`
	City           string      `json:"city"`
	Country        string      `json:"country"`
	Zip            string      `json:"zip"`
	CardHolderName string      `json:"card_holder_name"`
	CardNumber     string      `json:"card_number"`
	ExpiryMonth    string      `json:"expiry_month"`
	ExpiryYear     string      `json:"expiry_year"`
	SalesChannelID FlexInt     `json:"sales_channel_id"`
	Note           string      `json:"note"`
}

// ReservationResult is the uniform outcome of a submission attempt.
type ReservationResult struct {
	Success         bool            `json:"success"`
	ConfirmationID  string          `json:"confirmation_id,omitempty"`
	ProviderPayload json.RawMessage `json:"provider_payload,omitempty"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	StatusCode      int             `json:"status_code,omitempty"`
	MissingFields   []string        `json:"missing_fields,omitempty"`
}
