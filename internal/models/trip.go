package models

import "time"

// Booking channels a trip can come through.
const (
	ModeUber       = "UBER"
	ModeRapido     = "Rapido"
	ModeOffice     = "Office"
	ModeAirport    = "Airport"
	ModeRental     = "Rental"
	ModeOutstation = "Outstation"
)

// TripModes is the fixed set of booking channels accepted by the ledger.
var TripModes = []string{ModeUber, ModeRapido, ModeOffice, ModeAirport, ModeRental, ModeOutstation}

// Payment instruments.
const (
	PaymentCash         = "Cash"
	PaymentUPIQR        = "UPI - QR"
	PaymentUber         = "Uber"
	PaymentBankTransfer = "Bank Transfer"
	PaymentCard         = "Card"
)

// PaymentModes is the fixed set of payment instruments accepted by the ledger.
var PaymentModes = []string{PaymentCash, PaymentUPIQR, PaymentUber, PaymentBankTransfer, PaymentCard}

// Trip statuses.
const (
	TripActive    = "active"
	TripCompleted = "completed"
	TripCancelled = "cancelled"
	TripPending   = "pending"
	TripDisputed  = "disputed"
)

// TripStatuses is the fixed set of trip statuses accepted by the ledger.
var TripStatuses = []string{TripActive, TripCompleted, TripCancelled, TripPending, TripDisputed}

// SubPayment is one split of a part-paid fare.
type SubPayment struct {
	Mode   string  `bson:"mode" json:"mode"`
	Amount float64 `bson:"amount" json:"amount"`
	Status string  `bson:"status" json:"status"`
}

// PartPayment splits a single fare across multiple payment instruments.
// When enabled, the split amounts must sum to the trip amount.
type PartPayment struct {
	Enabled  bool         `bson:"enabled" json:"enabled"`
	Payments []SubPayment `bson:"payments" json:"payments"`
}

// Customer is optional rider info attached to a trip.
type Customer struct {
	Name  string `bson:"name,omitempty" json:"name,omitempty"`
	Phone string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// Trip is one fare event within a shift. Trips are mutable while the shift
// is open; the shift workflow freezes them after close.
type Trip struct {
	ID            string       `bson:"id" json:"id"`
	Mode          string       `bson:"mode" json:"mode"`
	Amount        float64      `bson:"amount" json:"amount"`
	Tip           float64      `bson:"tip" json:"tip"`
	PaymentMode   string       `bson:"payment_mode" json:"paymentMode"`
	Status        string       `bson:"status" json:"status"`
	StartLocation string       `bson:"start_location,omitempty" json:"startLocation,omitempty"`
	EndLocation   string       `bson:"end_location,omitempty" json:"endLocation,omitempty"`
	Distance      float64      `bson:"distance" json:"distance"` // in kilometers
	Duration      float64      `bson:"duration" json:"duration"` // in minutes
	Timestamp     time.Time    `bson:"timestamp" json:"timestamp"`
	PartPayment   *PartPayment `bson:"part_payment,omitempty" json:"partPayment,omitempty"`
	Customer      *Customer    `bson:"customer,omitempty" json:"customer,omitempty"`
}

// Total is the full fare for the trip including tip.
func (t *Trip) Total() float64 {
	return t.Amount + t.Tip
}

// TripPatch is a partial update applied to an existing trip. Nil fields
// are left unchanged.
type TripPatch struct {
	Mode          *string      `json:"mode,omitempty"`
	Amount        *float64     `json:"amount,omitempty"`
	Tip           *float64     `json:"tip,omitempty"`
	PaymentMode   *string      `json:"paymentMode,omitempty"`
	Status        *string      `json:"status,omitempty"`
	StartLocation *string      `json:"startLocation,omitempty"`
	EndLocation   *string      `json:"endLocation,omitempty"`
	Distance      *float64     `json:"distance,omitempty"`
	Duration      *float64     `json:"duration,omitempty"`
	PartPayment   *PartPayment `json:"partPayment,omitempty"`
	Customer      *Customer    `json:"customer,omitempty"`
}
