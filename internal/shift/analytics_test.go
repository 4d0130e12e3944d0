package shift

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/evzone/fleet-backoffice/internal/models"
)

func shiftStartingAt(start time.Time, planned int) models.ShiftData {
	return models.ShiftData{
		VehicleNumber:     "KA01 EV 1234",
		ShiftType:         models.ShiftMorning,
		StartTime:         start,
		TotalTripsPlanned: planned,
		OdometerStart:     1200,
	}
}

func TestComputeAnalytics_EmptyTrips(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local)
	analytics := ComputeAnalytics(nil, shiftStartingAt(now.Add(-2*time.Hour), 4), now)

	assert.Equal(t, 0, analytics.TotalTrips)
	assert.Equal(t, 0.0, analytics.TotalEarnings)
	assert.Equal(t, 0.0, analytics.AverageTrip)
	assert.Equal(t, 0.0, analytics.HighestTrip)
	assert.Empty(t, analytics.HourlyEarnings)
	assert.Empty(t, analytics.TripModeStats)
	assert.Equal(t, 0.0, analytics.Efficiency.EarningsPerKm)
	assert.Equal(t, 0.0, analytics.Efficiency.UtilizationRate)
}

func TestComputeAnalytics_TwoTripShift(t *testing.T) {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.Local)
	start := day.Add(9 * time.Hour)
	now := start.Add(2 * time.Hour)

	trips := []models.Trip{
		{
			ID: "t1", Mode: models.ModeUber, Amount: 100, Tip: 20,
			PaymentMode: models.PaymentCash, Status: models.TripCompleted,
			Timestamp: day.Add(9*time.Hour + 15*time.Minute),
		},
		{
			ID: "t2", Mode: models.ModeAirport, Amount: 200, Tip: 0,
			PaymentMode: models.PaymentUPIQR, Status: models.TripCompleted,
			Timestamp: day.Add(9*time.Hour + 40*time.Minute),
		},
	}

	analytics := ComputeAnalytics(trips, shiftStartingAt(start, 4), now)

	assert.Equal(t, 320.0, analytics.TotalEarnings)
	assert.Equal(t, 2, analytics.TotalTrips)
	assert.Equal(t, 160.0, analytics.AverageTrip)
	assert.Equal(t, 200.0, analytics.HighestTrip)

	assert.Equal(t, 120.0, analytics.PaymentBreakdown.Cash)
	assert.Equal(t, 200.0, analytics.PaymentBreakdown.Digital)
	assert.Equal(t, 0.0, analytics.PaymentBreakdown.Pending)

	assert.Equal(t, 50.0, analytics.Efficiency.UtilizationRate)
	assert.Equal(t, 1.0, analytics.Efficiency.TripsPerHour)
	assert.Equal(t, 160.0, analytics.Efficiency.EarningsPerHour)

	// Both trips in the 09:00 hour, single sparse bucket.
	assert.Len(t, analytics.HourlyEarnings, 1)
	assert.Equal(t, 9, analytics.HourlyEarnings[0].Hour)
	assert.Equal(t, 320.0, analytics.HourlyEarnings[0].Earnings)
	assert.Equal(t, 2, analytics.HourlyEarnings[0].Trips)
}

func TestComputeAnalytics_Deterministic(t *testing.T) {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.Local)
	now := day.Add(18 * time.Hour)
	trips := []models.Trip{
		{ID: "a", Mode: models.ModeUber, Amount: 150, PaymentMode: models.PaymentUber, Status: models.TripCompleted, Timestamp: day.Add(10 * time.Hour), Distance: 12},
		{ID: "b", Mode: models.ModeRapido, Amount: 90, Tip: 10, PaymentMode: models.PaymentCash, Status: models.TripCompleted, Timestamp: day.Add(11 * time.Hour), Distance: 8},
		{ID: "c", Mode: models.ModeUber, Amount: 60, PaymentMode: models.PaymentUPIQR, Status: models.TripPending, Timestamp: day.Add(11*time.Hour + 30*time.Minute), Distance: 5},
	}
	data := shiftStartingAt(day.Add(9*time.Hour), 10)

	first := ComputeAnalytics(trips, data, now)
	second := ComputeAnalytics(trips, data, now)
	assert.Equal(t, first, second)
}

func TestComputeAnalytics_PendingBucket(t *testing.T) {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.Local)
	trips := []models.Trip{
		{ID: "p", Mode: models.ModeOffice, Amount: 75, PaymentMode: models.PaymentBankTransfer, Status: models.TripPending, Timestamp: day.Add(14 * time.Hour)},
	}
	analytics := ComputeAnalytics(trips, shiftStartingAt(day.Add(13*time.Hour), 2), day.Add(15*time.Hour))

	assert.Equal(t, 75.0, analytics.PaymentBreakdown.Pending)
	assert.Equal(t, 0.0, analytics.PaymentBreakdown.Cash)
	assert.Equal(t, 0.0, analytics.PaymentBreakdown.Digital)
}

func TestComputeAnalytics_PartPaymentSplits(t *testing.T) {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.Local)
	trips := []models.Trip{
		{
			ID: "split", Mode: models.ModeRental, Amount: 300, Tip: 0,
			PaymentMode: models.PaymentUPIQR, Status: models.TripCompleted,
			Timestamp: day.Add(16 * time.Hour),
			PartPayment: &models.PartPayment{
				Enabled: true,
				Payments: []models.SubPayment{
					{Mode: models.PaymentCash, Amount: 100, Status: models.TripCompleted},
					{Mode: models.PaymentUPIQR, Amount: 150, Status: models.TripCompleted},
					{Mode: models.PaymentBankTransfer, Amount: 50, Status: models.TripPending},
				},
			},
		},
	}
	analytics := ComputeAnalytics(trips, shiftStartingAt(day.Add(15*time.Hour), 2), day.Add(17*time.Hour))

	assert.Equal(t, 100.0, analytics.PaymentBreakdown.Cash)
	assert.Equal(t, 150.0, analytics.PaymentBreakdown.Digital)
	assert.Equal(t, 50.0, analytics.PaymentBreakdown.Pending)
}

func TestComputeAnalytics_UtilizationCappedAt100(t *testing.T) {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.Local)
	var trips []models.Trip
	for i := 0; i < 6; i++ {
		trips = append(trips, models.Trip{
			ID: string(rune('a' + i)), Mode: models.ModeUber, Amount: 50,
			PaymentMode: models.PaymentCash, Status: models.TripCompleted,
			Timestamp: day.Add(time.Duration(9+i) * time.Hour),
		})
	}

	// 6 trips against 2 planned would be 300%; the rate must cap at 100.
	analytics := ComputeAnalytics(trips, shiftStartingAt(day.Add(9*time.Hour), 2), day.Add(17*time.Hour))
	assert.Equal(t, 100.0, analytics.Efficiency.UtilizationRate)

	// Zero planned trips must not divide by zero either.
	analytics = ComputeAnalytics(trips, shiftStartingAt(day.Add(9*time.Hour), 0), day.Add(17*time.Hour))
	assert.Equal(t, 100.0, analytics.Efficiency.UtilizationRate)
}

func TestComputeAnalytics_ShortShiftFlooredToOneHour(t *testing.T) {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.Local)
	trips := []models.Trip{
		{ID: "q", Mode: models.ModeUber, Amount: 120, PaymentMode: models.PaymentCard, Status: models.TripCompleted, Timestamp: day.Add(9 * time.Hour)},
	}

	// 10 minutes into the shift: divisor floors at one hour.
	analytics := ComputeAnalytics(trips, shiftStartingAt(day.Add(9*time.Hour), 4), day.Add(9*time.Hour+10*time.Minute))
	assert.Equal(t, 1.0, analytics.Efficiency.TripsPerHour)
	assert.Equal(t, 120.0, analytics.Efficiency.EarningsPerHour)
}

func TestComputeAnalytics_EarningsPerKm(t *testing.T) {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.Local)
	trips := []models.Trip{
		{ID: "k1", Mode: models.ModeUber, Amount: 100, PaymentMode: models.PaymentCash, Status: models.TripCompleted, Timestamp: day.Add(9 * time.Hour), Distance: 10},
		{ID: "k2", Mode: models.ModeUber, Amount: 100, PaymentMode: models.PaymentCash, Status: models.TripCompleted, Timestamp: day.Add(10 * time.Hour), Distance: 10},
	}
	analytics := ComputeAnalytics(trips, shiftStartingAt(day.Add(9*time.Hour), 4), day.Add(11*time.Hour))
	assert.Equal(t, 10.0, analytics.Efficiency.EarningsPerKm)
}

func TestComputeAnalytics_ModeStats(t *testing.T) {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.Local)
	trips := []models.Trip{
		{ID: "m1", Mode: models.ModeUber, Amount: 100, PaymentMode: models.PaymentCash, Status: models.TripCompleted, Timestamp: day.Add(9 * time.Hour)},
		{ID: "m2", Mode: models.ModeUber, Amount: 100, PaymentMode: models.PaymentCash, Status: models.TripCompleted, Timestamp: day.Add(10 * time.Hour)},
		{ID: "m3", Mode: models.ModeAirport, Amount: 200, PaymentMode: models.PaymentUPIQR, Status: models.TripCompleted, Timestamp: day.Add(11 * time.Hour)},
		{ID: "m4", Mode: models.ModeRapido, Amount: 50, PaymentMode: models.PaymentCash, Status: models.TripCompleted, Timestamp: day.Add(12 * time.Hour)},
	}
	analytics := ComputeAnalytics(trips, shiftStartingAt(day.Add(9*time.Hour), 8), day.Add(13*time.Hour))

	assert.Len(t, analytics.TripModeStats, 3)
	byMode := make(map[string]models.ModeStat)
	for _, stat := range analytics.TripModeStats {
		byMode[stat.Mode] = stat
	}
	assert.Equal(t, 2, byMode[models.ModeUber].Count)
	assert.Equal(t, 200.0, byMode[models.ModeUber].Earnings)
	assert.Equal(t, 50.0, byMode[models.ModeUber].Percentage)
	assert.Equal(t, 25.0, byMode[models.ModeAirport].Percentage)
	assert.Equal(t, 25.0, byMode[models.ModeRapido].Percentage)
}
