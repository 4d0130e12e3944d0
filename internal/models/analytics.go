package models

// HourlyBucket is one hour-of-day bucket in the earnings histogram. Only
// hours with at least one trip appear; the slice is sparse, not a dense
// 24-slot array.
type HourlyBucket struct {
	Hour     int     `json:"hour"` // local hour of day, 0-23
	Trips    int     `json:"trips"`
	Earnings float64 `json:"earnings"`
}

// PaymentBreakdown splits earnings across the three observed buckets.
// Part-paid fares contribute each split individually.
type PaymentBreakdown struct {
	Cash    float64 `json:"cash"`
	Digital float64 `json:"digital"`
	Pending float64 `json:"pending"`
}

// ModeStat is the per-booking-channel rollup.
type ModeStat struct {
	Mode       string  `json:"mode"`
	Count      int     `json:"count"`
	Earnings   float64 `json:"earnings"`
	Percentage float64 `json:"percentage"` // of total trips, unrounded
}

// Efficiency holds the derived shift-efficiency ratios. UtilizationRate is
// hard-capped at 100.
type Efficiency struct {
	TripsPerHour    float64 `json:"tripsPerHour"`
	EarningsPerHour float64 `json:"earningsPerHour"`
	EarningsPerKm   float64 `json:"earningsPerKm"`
	UtilizationRate float64 `json:"utilizationRate"`
}

// Analytics is the derived summary of a shift's trip ledger. It is a pure
// projection: recomputed from scratch on every ledger mutation, never
// patched incrementally.
type Analytics struct {
	TotalEarnings    float64          `json:"totalEarnings"`
	TotalTrips       int              `json:"totalTrips"`
	AverageTrip      float64          `json:"averageTrip"`
	HighestTrip      float64          `json:"highestTrip"`
	HourlyEarnings   []HourlyBucket   `json:"hourlyEarnings"`
	PaymentBreakdown PaymentBreakdown `json:"paymentBreakdown"`
	TripModeStats    []ModeStat       `json:"tripModeStats"`
	Efficiency       Efficiency       `json:"efficiency"`
}
