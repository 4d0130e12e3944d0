package models

import "time"

// Shift types.
const (
	ShiftMorning = "morning"
	ShiftEvening = "evening"
	ShiftNight   = "night"
	ShiftFullDay = "full-day"
)

// ShiftData is one shift's envelope. EndTime, OdometerEnd and the closing
// BatteryLevel are set exactly once, at shift close.
type ShiftData struct {
	VehicleNumber     string     `bson:"vehicle_number" json:"vehicleNumber"`
	ShiftType         string     `bson:"shift_type" json:"shiftType"`
	VehicleCategory   string     `bson:"vehicle_category" json:"vehicleCategory"`
	StartTime         time.Time  `bson:"start_time" json:"startTime"`
	EndTime           *time.Time `bson:"end_time,omitempty" json:"endTime,omitempty"`
	TotalTripsPlanned int        `bson:"total_trips_planned" json:"totalTripsPlanned"`
	OdometerStart     float64    `bson:"odometer_start" json:"odometerStart"`
	OdometerEnd       float64    `bson:"odometer_end,omitempty" json:"odometerEnd,omitempty"`
	BatteryLevel      int        `bson:"battery_level" json:"batteryLevel"`
}

// DurationHours returns the shift duration in hours, using now when the
// shift has not ended yet.
func (s *ShiftData) DurationHours(now time.Time) float64 {
	end := now
	if s.EndTime != nil {
		end = *s.EndTime
	}
	return end.Sub(s.StartTime).Hours()
}
