package booking

import (
	"fmt"

	"github.com/lodgeline/booking-engine/internal/domain"
)

const defaultMaxGuestsPerRoom = 4

// Validator checks a candidate booking against PMS-declared stay and capacity
// limits. It only reports violations; blocking submission is the caller's job.
type Validator struct {
	maxGuestsPerRoom int
}

func NewValidator(maxGuestsPerRoom int) *Validator {
	if maxGuestsPerRoom <= 0 {
		maxGuestsPerRoom = defaultMaxGuestsPerRoom
	}
	return &Validator{maxGuestsPerRoom: maxGuestsPerRoom}
}

// Validate evaluates every rule independently and collects all violations;
// nothing short-circuits.
func (v *Validator) Validate(quote *domain.PricingQuote, guests domain.GuestComposition, rooms int, capacity *domain.CapacityProfile) []string {
	var violations []string

	if quote != nil && quote.MinStay > 0 && quote.Nights < quote.MinStay {
		violations = append(violations,
			fmt.Sprintf("minimum stay is %d nights, selected %d", quote.MinStay, quote.Nights))
	}

	persons := guests.Persons()

	if capacity != nil {
		if capacity.MaxOccupancy > 0 && persons > capacity.MaxOccupancy {
			violations = append(violations,
				fmt.Sprintf("unit allows at most %d guests, got %d", capacity.MaxOccupancy, persons))
		}
		if capacity.MaxAdults > 0 && guests.Adults > capacity.MaxAdults {
			violations = append(violations,
				fmt.Sprintf("unit allows at most %d adults, got %d", capacity.MaxAdults, guests.Adults))
		}
		if capacity.MaxChildren > 0 && len(guests.ChildAges) > capacity.MaxChildren {
			violations = append(violations,
				fmt.Sprintf("unit allows at most %d children, got %d", capacity.MaxChildren, len(guests.ChildAges)))
		}
		return violations
	}

	// No declared ceiling: fall back to a coarse per-room heuristic.
	needed := (persons + v.maxGuestsPerRoom - 1) / v.maxGuestsPerRoom
	if rooms < needed {
		violations = append(violations,
			fmt.Sprintf("at least %d rooms required for %d guests, selected %d", needed, persons, rooms))
	}

	return violations
}
