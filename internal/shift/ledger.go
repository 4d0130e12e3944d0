// Package shift holds one operator's work period: the trip ledger, the
// analytics projection computed from it, and the step-wise session
// workflow that owns both.
package shift

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/evzone/fleet-backoffice/internal/apperr"
	"github.com/evzone/fleet-backoffice/internal/models"
)

// partPaymentEpsilon is the tolerance when checking that part-payment
// splits sum to the trip amount.
const partPaymentEpsilon = 0.01

// Ledger is the ordered set of trips within one shift, indexed by trip id.
// It is mutated sequentially by the owning session; it carries no locking
// of its own.
type Ledger struct {
	trips []models.Trip
	index map[string]int
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{index: make(map[string]int)}
}

// Append validates and adds a trip. A missing id is assigned; a missing
// timestamp defaults to now. Invalid trips are rejected without touching
// the ledger.
func (l *Ledger) Append(trip models.Trip) (*models.Trip, error) {
	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}
	if trip.Timestamp.IsZero() {
		trip.Timestamp = time.Now()
	}
	if trip.Status == "" {
		trip.Status = models.TripCompleted
	}
	if err := validateTrip(&trip); err != nil {
		return nil, err
	}
	if _, exists := l.index[trip.ID]; exists {
		return nil, apperr.NewValidation("id", "trip id already exists in ledger")
	}

	l.trips = append(l.trips, trip)
	l.index[trip.ID] = len(l.trips) - 1
	return &trip, nil
}

// Amend applies a partial update to an existing trip. The amended trip must
// still pass full validation; otherwise the original is kept.
func (l *Ledger) Amend(id string, patch models.TripPatch) (*models.Trip, error) {
	pos, ok := l.index[id]
	if !ok {
		return nil, &apperr.NotFoundError{Resource: "trip", Key: id}
	}

	amended := l.trips[pos]
	applyPatch(&amended, patch)
	if err := validateTrip(&amended); err != nil {
		return nil, err
	}

	l.trips[pos] = amended
	return &amended, nil
}

// Remove deletes a trip from the ledger.
func (l *Ledger) Remove(id string) error {
	pos, ok := l.index[id]
	if !ok {
		return &apperr.NotFoundError{Resource: "trip", Key: id}
	}

	l.trips = append(l.trips[:pos], l.trips[pos+1:]...)
	delete(l.index, id)
	for i := pos; i < len(l.trips); i++ {
		l.index[l.trips[i].ID] = i
	}
	return nil
}

// Trips returns a copy of the ledger in insertion order.
func (l *Ledger) Trips() []models.Trip {
	out := make([]models.Trip, len(l.trips))
	copy(out, l.trips)
	return out
}

// Len returns the number of trips in the ledger.
func (l *Ledger) Len() int { return len(l.trips) }

func validateTrip(trip *models.Trip) error {
	if !contains(models.TripModes, trip.Mode) {
		return apperr.NewValidation("mode", fmt.Sprintf("unknown trip mode %q", trip.Mode))
	}
	if !contains(models.PaymentModes, trip.PaymentMode) {
		return apperr.NewValidation("paymentMode", fmt.Sprintf("unknown payment mode %q", trip.PaymentMode))
	}
	if !contains(models.TripStatuses, trip.Status) {
		return apperr.NewValidation("status", fmt.Sprintf("unknown trip status %q", trip.Status))
	}
	if trip.Amount <= 0 {
		return apperr.NewValidation("amount", "amount must be greater than zero")
	}
	if trip.Tip < 0 {
		return apperr.NewValidation("tip", "tip must not be negative")
	}
	if trip.Distance < 0 {
		return apperr.NewValidation("distance", "distance must not be negative")
	}
	if trip.PartPayment != nil && trip.PartPayment.Enabled {
		var sum float64
		for _, p := range trip.PartPayment.Payments {
			if !contains(models.PaymentModes, p.Mode) {
				return apperr.NewValidation("partPayment", fmt.Sprintf("unknown payment mode %q in split", p.Mode))
			}
			sum += p.Amount
		}
		if math.Abs(sum-trip.Amount) > partPaymentEpsilon {
			return apperr.NewValidation("partPayment", "part payment amounts must sum to total amount")
		}
	}
	return nil
}

func applyPatch(trip *models.Trip, patch models.TripPatch) {
	if patch.Mode != nil {
		trip.Mode = *patch.Mode
	}
	if patch.Amount != nil {
		trip.Amount = *patch.Amount
	}
	if patch.Tip != nil {
		trip.Tip = *patch.Tip
	}
	if patch.PaymentMode != nil {
		trip.PaymentMode = *patch.PaymentMode
	}
	if patch.Status != nil {
		trip.Status = *patch.Status
	}
	if patch.StartLocation != nil {
		trip.StartLocation = *patch.StartLocation
	}
	if patch.EndLocation != nil {
		trip.EndLocation = *patch.EndLocation
	}
	if patch.Distance != nil {
		trip.Distance = *patch.Distance
	}
	if patch.Duration != nil {
		trip.Duration = *patch.Duration
	}
	if patch.PartPayment != nil {
		trip.PartPayment = patch.PartPayment
	}
	if patch.Customer != nil {
		trip.Customer = patch.Customer
	}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
