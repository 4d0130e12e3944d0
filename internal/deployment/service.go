// Package deployment implements the vehicle OUT/IN lifecycle. A deployment
// is created directly into in_progress on checkout and reconciled on
// check-in with computed duration, distance and checklist mismatches.
package deployment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/evzone/fleet-backoffice/internal/apperr"
	"github.com/evzone/fleet-backoffice/internal/db"
	"github.com/evzone/fleet-backoffice/internal/models"
	"github.com/evzone/fleet-backoffice/internal/registry"
)

// Service drives the deployment state machine:
//
//	scheduled -> in_progress -> completed
//	scheduled | in_progress  -> cancelled
//
// Checkout creates directly into in_progress; completed and cancelled are
// terminal.
type Service struct {
	deployments db.DeploymentCollection
	resolver    *registry.Resolver
	now         func() time.Time
	log         *log.Entry
}

// NewService creates a deployment service.
func NewService(deployments db.DeploymentCollection, resolver *registry.Resolver) *Service {
	return &Service{
		deployments: deployments,
		resolver:    resolver,
		now:         time.Now,
		log:         log.WithField("component", "deployment"),
	}
}

// CheckOutRequest carries the checkout (OUT) input.
type CheckOutRequest struct {
	Registration string
	PilotID      string
	Purpose      string
	OutData      models.OutData
}

// CheckOut validates the vehicle against the registry and opens a new
// deployment. The one-open-deployment-per-vehicle invariant is enforced by
// the store's conditional insert, so two concurrent checkouts for the same
// registration cannot both succeed.
func (s *Service) CheckOut(ctx context.Context, req CheckOutRequest) (*models.Deployment, error) {
	if req.Purpose != models.PurposeOffice && req.Purpose != models.PurposePilot {
		return nil, apperr.NewValidation("purpose", "purpose must be Office or Pilot")
	}
	if req.PilotID == "" {
		return nil, apperr.NewValidation("pilotId", "pilot id is required")
	}

	vehicle, err := s.resolver.ValidateForDeployment(ctx, req.Registration)
	if err != nil {
		return nil, err
	}

	deployment := models.Deployment{
		DeploymentID:        uuid.NewString(),
		VehicleRegistration: vehicle.RegistrationNumber,
		VehicleDetails: models.VehicleDetails{
			VehicleID: vehicle.VehicleID,
			Brand:     vehicle.Brand,
			Model:     vehicle.Model,
		},
		PilotID:      req.PilotID,
		Purpose:      req.Purpose,
		Status:       models.DeploymentInProgress,
		OutTimestamp: s.now(),
		OutData:      req.OutData,
	}

	if err := s.deployments.Insert(ctx, deployment); err != nil {
		if errors.Is(err, db.ErrVehicleDeployed) {
			return nil, &apperr.ConflictError{
				Message: fmt.Sprintf("vehicle %s is already deployed", vehicle.RegistrationNumber),
			}
		}
		return nil, fmt.Errorf("insert deployment: %w", err)
	}

	s.log.WithFields(log.Fields{
		"deployment_id": deployment.DeploymentID,
		"registration":  deployment.VehicleRegistration,
		"pilot_id":      deployment.PilotID,
	}).Info("vehicle checked out")
	return &deployment, nil
}

// CheckIn closes an open deployment. Duration is computed in minutes and
// total kms from the odometer delta; an odometer that went backwards is a
// hard validation error and the deployment stays open. All validation runs
// before the single conditional update, so a failed check-in never leaves
// the deployment partially completed.
func (s *Service) CheckIn(ctx context.Context, deploymentID string, inData models.InData) (*models.TripSummary, error) {
	open, err := s.deployments.FindByDeploymentID(ctx, deploymentID)
	if err != nil {
		if errors.Is(err, db.ErrDeploymentNotFound) {
			return nil, &apperr.NotFoundError{Resource: "deployment", Key: deploymentID}
		}
		return nil, fmt.Errorf("find deployment: %w", err)
	}
	if open.Status != models.DeploymentInProgress {
		return nil, &apperr.NotFoundError{
			Resource:   "open deployment",
			Key:        deploymentID,
			Suggestion: fmt.Sprintf("deployment is %s; only in_progress deployments can be checked in", open.Status),
		}
	}

	totalKms := inData.ReturnOdometer - open.OutData.Odometer
	if totalKms < 0 {
		return nil, apperr.NewValidation("returnOdometer",
			fmt.Sprintf("return odometer %.1f is below checkout odometer %.1f", inData.ReturnOdometer, open.OutData.Odometer))
	}

	inTime := s.now()
	update := models.Deployment{
		InTimestamp:         &inTime,
		InData:              &inData,
		DurationMinutes:     inTime.Sub(open.OutTimestamp).Minutes(),
		TotalKms:            totalKms,
		ChecklistMismatches: checklistMismatches(open.OutData.Checklist, inData.Checklist),
	}

	completed, err := s.deployments.Complete(ctx, deploymentID, update)
	if err != nil {
		if errors.Is(err, db.ErrDeploymentNotFound) {
			// Lost a race with another check-in or a cancellation.
			return nil, &apperr.NotFoundError{Resource: "open deployment", Key: deploymentID}
		}
		return nil, fmt.Errorf("complete deployment: %w", err)
	}

	s.log.WithFields(log.Fields{
		"deployment_id": deploymentID,
		"registration":  completed.VehicleRegistration,
		"total_kms":     completed.TotalKms,
	}).Info("vehicle checked in")

	return &models.TripSummary{
		DeploymentID:        completed.DeploymentID,
		VehicleRegistration: completed.VehicleRegistration,
		VehicleDetails:      completed.VehicleDetails,
		OutTimestamp:        completed.OutTimestamp,
		InTimestamp:         *completed.InTimestamp,
		DurationMinutes:     completed.DurationMinutes,
		TotalKms:            completed.TotalKms,
		ChecklistMismatches: completed.ChecklistMismatches,
	}, nil
}

// Cancel aborts a scheduled or in_progress deployment. Terminal deployments
// reject the transition with an InvalidStateError.
func (s *Service) Cancel(ctx context.Context, deploymentID, reason string) (*models.Deployment, error) {
	existing, err := s.deployments.FindByDeploymentID(ctx, deploymentID)
	if err != nil {
		if errors.Is(err, db.ErrDeploymentNotFound) {
			return nil, &apperr.NotFoundError{Resource: "deployment", Key: deploymentID}
		}
		return nil, fmt.Errorf("find deployment: %w", err)
	}
	if !existing.IsOpen() {
		return nil, &apperr.InvalidStateError{Current: existing.Status, Attempt: "cancel"}
	}

	cancelled, err := s.deployments.Cancel(ctx, deploymentID, reason)
	if err != nil {
		if errors.Is(err, db.ErrDeploymentNotFound) {
			return nil, &apperr.InvalidStateError{Current: models.DeploymentCompleted, Attempt: "cancel"}
		}
		return nil, fmt.Errorf("cancel deployment: %w", err)
	}

	s.log.WithFields(log.Fields{
		"deployment_id": deploymentID,
		"reason":        reason,
	}).Info("deployment cancelled")
	return cancelled, nil
}

// Active returns all in_progress deployments.
func (s *Service) Active(ctx context.Context) ([]models.Deployment, error) {
	return s.deployments.FindByStatus(ctx, models.DeploymentInProgress)
}

// checklistMismatches lists checklist items present at checkout but missing
// or false at check-in.
func checklistMismatches(out, in map[string]bool) []string {
	var mismatches []string
	for item, present := range out {
		if !present {
			continue
		}
		if !in[item] {
			mismatches = append(mismatches, item)
		}
	}
	sort.Strings(mismatches)
	return mismatches
}
