package shift

import (
	"sort"
	"time"

	"github.com/evzone/fleet-backoffice/internal/models"
)

// ComputeAnalytics derives the full analytics summary from a trip set and
// shift metadata. It is deterministic and side-effect free: the same inputs
// always yield the identical value, which is what makes recompute-on-every-
// mutation safe. now stands in for the shift end while the shift is open.
func ComputeAnalytics(trips []models.Trip, shiftData models.ShiftData, now time.Time) models.Analytics {
	analytics := models.Analytics{
		HourlyEarnings: []models.HourlyBucket{},
		TripModeStats:  []models.ModeStat{},
	}
	if len(trips) == 0 {
		return analytics
	}

	var totalDistance float64
	hourly := make(map[int]*models.HourlyBucket)
	modes := make(map[string]*models.ModeStat)

	for i := range trips {
		trip := &trips[i]
		total := trip.Total()

		analytics.TotalEarnings += total
		if total > analytics.HighestTrip {
			analytics.HighestTrip = total
		}
		totalDistance += trip.Distance

		hour := trip.Timestamp.Local().Hour()
		bucket, ok := hourly[hour]
		if !ok {
			bucket = &models.HourlyBucket{Hour: hour}
			hourly[hour] = bucket
		}
		bucket.Trips++
		bucket.Earnings += total

		stat, ok := modes[trip.Mode]
		if !ok {
			stat = &models.ModeStat{Mode: trip.Mode}
			modes[trip.Mode] = stat
		}
		stat.Count++
		stat.Earnings += total

		addToBreakdown(&analytics.PaymentBreakdown, trip)
	}

	analytics.TotalTrips = len(trips)
	analytics.AverageTrip = analytics.TotalEarnings / float64(analytics.TotalTrips)

	// Sparse hourly buckets, ascending by hour for stable output.
	for _, bucket := range hourly {
		analytics.HourlyEarnings = append(analytics.HourlyEarnings, *bucket)
	}
	sort.Slice(analytics.HourlyEarnings, func(i, j int) bool {
		return analytics.HourlyEarnings[i].Hour < analytics.HourlyEarnings[j].Hour
	})

	for _, stat := range modes {
		stat.Percentage = float64(stat.Count) / float64(analytics.TotalTrips) * 100
		analytics.TripModeStats = append(analytics.TripModeStats, *stat)
	}
	sort.Slice(analytics.TripModeStats, func(i, j int) bool {
		return analytics.TripModeStats[i].Mode < analytics.TripModeStats[j].Mode
	})

	analytics.Efficiency = computeEfficiency(&analytics, shiftData, totalDistance, now)
	return analytics
}

// addToBreakdown distributes a trip across the cash/digital/pending
// buckets. Part-paid fares contribute each split individually, classified
// by the split's own mode and status; the tip follows the trip-level
// classification. Everything that is neither cash nor pending lands in
// digital, including Uber and bank-transfer settlements.
func addToBreakdown(breakdown *models.PaymentBreakdown, trip *models.Trip) {
	if trip.PartPayment != nil && trip.PartPayment.Enabled {
		for _, split := range trip.PartPayment.Payments {
			classify(breakdown, split.Mode, split.Status, split.Amount)
		}
		if trip.Tip > 0 {
			classify(breakdown, trip.PaymentMode, trip.Status, trip.Tip)
		}
		return
	}
	classify(breakdown, trip.PaymentMode, trip.Status, trip.Total())
}

func classify(breakdown *models.PaymentBreakdown, mode, status string, amount float64) {
	switch {
	case mode == models.PaymentCash:
		breakdown.Cash += amount
	case status == models.TripPending:
		breakdown.Pending += amount
	default:
		breakdown.Digital += amount
	}
}

func computeEfficiency(analytics *models.Analytics, shiftData models.ShiftData, totalDistance float64, now time.Time) models.Efficiency {
	// Floor the divisor at one hour so short shifts don't blow up the
	// per-hour ratios.
	hours := shiftData.DurationHours(now)
	if hours < 1 {
		hours = 1
	}

	eff := models.Efficiency{
		TripsPerHour:    float64(analytics.TotalTrips) / hours,
		EarningsPerHour: analytics.TotalEarnings / hours,
	}
	if totalDistance > 0 {
		eff.EarningsPerKm = analytics.TotalEarnings / totalDistance
	}

	planned := shiftData.TotalTripsPlanned
	if planned < 1 {
		planned = 1
	}
	utilization := float64(analytics.TotalTrips) / float64(planned) * 100
	if utilization > 100 {
		utilization = 100
	}
	eff.UtilizationRate = utilization
	return eff
}
