// Package registry resolves human-entered registration numbers against the
// external fleet registry. The registry has accumulated two field-naming
// schemes for the same logical vehicle record; this package is the single
// normalization boundary, and the legacy spellings must never leak past it.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/evzone/fleet-backoffice/internal/apperr"
	"github.com/evzone/fleet-backoffice/internal/db"
	"github.com/evzone/fleet-backoffice/internal/models"
)

// Resolver resolves registration numbers to canonical vehicle records.
type Resolver struct {
	vehicles db.VehicleCollection
	log      *log.Entry
}

// NewResolver creates a resolver backed by the given registry collection.
func NewResolver(vehicles db.VehicleCollection) *Resolver {
	return &Resolver{
		vehicles: vehicles,
		log:      log.WithField("component", "registry"),
	}
}

// Resolve looks up a registration number case-insensitively and returns the
// canonical vehicle record. Unknown registrations return a NotFoundError
// carrying a human suggestion.
func (r *Resolver) Resolve(ctx context.Context, registration string) (*models.VehicleReference, error) {
	registration = strings.TrimSpace(registration)
	if registration == "" {
		return nil, apperr.NewValidation("registrationNumber", "registration number is required")
	}

	doc, err := r.vehicles.FindByRegistration(ctx, registration)
	if err != nil {
		if errors.Is(err, db.ErrVehicleNotFound) {
			return nil, &apperr.NotFoundError{
				Resource:   "vehicle",
				Key:        registration,
				Suggestion: fmt.Sprintf("no vehicle matches %q; check the registration number or add the vehicle to the fleet registry", registration),
			}
		}
		return nil, fmt.Errorf("registry lookup for %s: %w", registration, err)
	}

	vehicle := normalize(doc)
	if vehicle.RegistrationNumber == "" {
		// Document matched the filter but carries no usable registration
		// field under any known spelling.
		r.log.WithField("registration", registration).Warn("registry document missing registration field")
		return nil, &apperr.NotFoundError{
			Resource:   "vehicle",
			Key:        registration,
			Suggestion: "the matching registry document is malformed; re-register the vehicle",
		}
	}
	return vehicle, nil
}

// ValidateForDeployment resolves a registration and checks the vehicle is
// deployable. Failures are reported as VehicleValidationError with a
// suggestion the UI can show verbatim.
func (r *Resolver) ValidateForDeployment(ctx context.Context, registration string) (*models.VehicleReference, error) {
	vehicle, err := r.Resolve(ctx, registration)
	if err != nil {
		var nf *apperr.NotFoundError
		if errors.As(err, &nf) {
			return nil, &apperr.VehicleValidationError{
				Registration: registration,
				Message:      "vehicle not found in fleet registry",
				Suggestion:   nf.Suggestion,
			}
		}
		return nil, err
	}

	if !vehicle.IsActive() {
		return nil, &apperr.VehicleValidationError{
			Registration: registration,
			Message:      "vehicle is not active",
			Suggestion:   fmt.Sprintf("vehicle %s is marked %s in the registry; reactivate it before deploying", vehicle.RegistrationNumber, vehicle.Status),
		}
	}
	return vehicle, nil
}

// Field spellings per canonical field, newest scheme first.
var fieldAliases = map[string][]string{
	"registrationNumber": {"registrationNumber", "registration_number", "RegistrationNumber"},
	"vehicleId":          {"vehicleId", "vehicle_id", "VehicleId", "VehicleID"},
	"brand":              {"brand", "Brand"},
	"model":              {"model", "Model"},
	"currentHub":         {"currentHub", "current_hub", "CurrentHub"},
	"status":             {"status", "Status"},
}

// normalize maps a raw registry document, in either naming scheme, to the
// canonical VehicleReference shape.
func normalize(doc bson.M) *models.VehicleReference {
	vehicle := &models.VehicleReference{
		RegistrationNumber: pickString(doc, fieldAliases["registrationNumber"]),
		VehicleID:          pickString(doc, fieldAliases["vehicleId"]),
		Brand:              pickString(doc, fieldAliases["brand"]),
		Model:              pickString(doc, fieldAliases["model"]),
		CurrentHub:         pickString(doc, fieldAliases["currentHub"]),
		Status:             strings.ToLower(pickString(doc, fieldAliases["status"])),
	}
	if id, ok := doc["_id"].(primitive.ObjectID); ok {
		vehicle.ID = id
	}
	return vehicle
}

// pickString returns the first non-empty string value among the candidate
// keys.
func pickString(doc bson.M, keys []string) string {
	for _, key := range keys {
		if v, ok := doc[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
