package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

// Vehicle statuses in the fleet registry.
const (
	VehicleActive   = "active"
	VehicleInactive = "inactive"
)

// VehicleReference is the canonical shape of a fleet vehicle record.
// The registry stores vehicles under two historical field-naming schemes;
// the registry resolver normalizes both to this struct, and nothing past
// that boundary sees the legacy field names.
type VehicleReference struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RegistrationNumber string             `bson:"registrationNumber" json:"registrationNumber"`
	VehicleID          string             `bson:"vehicleId" json:"vehicleId"`
	Brand              string             `bson:"brand" json:"brand"`
	Model              string             `bson:"model" json:"model"`
	CurrentHub         string             `bson:"currentHub" json:"currentHub"`
	Status             string             `bson:"status" json:"status"` // "active" or "inactive"
	CreatedAt          time.Time          `bson:"created_at,omitempty" json:"created_at,omitempty"`
}

// IsActive reports whether the vehicle may be deployed.
func (v *VehicleReference) IsActive() bool {
	return v.Status == VehicleActive
}

// VehicleDetails is the display snapshot cached on a deployment at
// checkout time. It is refreshed at creation only and is not authoritative;
// the registration number remains the reference.
type VehicleDetails struct {
	VehicleID string `bson:"vehicle_id" json:"vehicleId"`
	Brand     string `bson:"brand" json:"brand"`
	Model     string `bson:"model" json:"model"`
}
