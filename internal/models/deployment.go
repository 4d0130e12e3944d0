package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

// Deployment statuses. A deployment is created directly into in_progress
// on checkout; completed and cancelled are terminal.
const (
	DeploymentScheduled  = "scheduled"
	DeploymentInProgress = "in_progress"
	DeploymentCompleted  = "completed"
	DeploymentCancelled  = "cancelled"
)

// Deployment purposes.
const (
	PurposeOffice = "Office"
	PurposePilot  = "Pilot"
)

// OutData is the checkout snapshot recorded when a vehicle goes OUT.
type OutData struct {
	Odometer   float64         `bson:"odometer" json:"odometer"`
	Supervisor string          `bson:"supervisor" json:"supervisor"`
	Checklist  map[string]bool `bson:"checklist" json:"checklist"`
}

// InData is the return snapshot recorded when a vehicle comes back IN.
type InData struct {
	ReturnOdometer float64         `bson:"return_odometer" json:"returnOdometer"`
	Supervisor     string          `bson:"supervisor" json:"supervisor"`
	Checklist      map[string]bool `bson:"checklist" json:"checklist"`
}

// Deployment is one OUT/IN cycle for a vehicle. It references the vehicle
// by registration number; VehicleDetails is a display-only snapshot taken
// at checkout. At most one deployment per registration may be in_progress
// at any time, enforced by a partial unique index at the store layer.
type Deployment struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DeploymentID        string             `bson:"deployment_id" json:"deploymentId"`
	VehicleRegistration string             `bson:"vehicle_registration" json:"vehicleRegistration"`
	VehicleDetails      VehicleDetails     `bson:"vehicle_details" json:"vehicleDetails"`
	PilotID             string             `bson:"pilot_id" json:"pilotId"`
	Purpose             string             `bson:"purpose" json:"purpose"` // "Office" or "Pilot"
	Status              string             `bson:"status" json:"status"`
	OutTimestamp        time.Time          `bson:"out_timestamp" json:"outTimestamp"`
	OutData             OutData            `bson:"out_data" json:"outData"`
	InTimestamp         *time.Time         `bson:"in_timestamp,omitempty" json:"inTimestamp,omitempty"`
	InData              *InData            `bson:"in_data,omitempty" json:"inData,omitempty"`
	DurationMinutes     float64            `bson:"duration_minutes,omitempty" json:"durationMinutes,omitempty"`
	TotalKms            float64            `bson:"total_kms,omitempty" json:"totalKms,omitempty"`
	ChecklistMismatches []string           `bson:"checklist_mismatches,omitempty" json:"checklistMismatches,omitempty"`
	CancelReason        string             `bson:"cancel_reason,omitempty" json:"cancelReason,omitempty"`
	CreatedAt           time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsOpen reports whether the deployment still holds the vehicle.
func (d *Deployment) IsOpen() bool {
	return d.Status == DeploymentScheduled || d.Status == DeploymentInProgress
}

// TripSummary is returned to the caller after a successful check-in.
type TripSummary struct {
	DeploymentID        string         `json:"deploymentId"`
	VehicleRegistration string         `json:"vehicleRegistration"`
	VehicleDetails      VehicleDetails `json:"vehicleDetails"`
	OutTimestamp        time.Time      `json:"outTimestamp"`
	InTimestamp         time.Time      `json:"inTimestamp"`
	DurationMinutes     float64        `json:"durationMinutes"`
	TotalKms            float64        `json:"totalKms"`
	ChecklistMismatches []string       `json:"checklistMismatches,omitempty"`
}
