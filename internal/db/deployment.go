package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/evzone/fleet-backoffice/internal/models"
)

var (
	// ErrVehicleDeployed is returned when the partial unique index rejects
	// a second open deployment for the same registration.
	ErrVehicleDeployed = errors.New("vehicle already deployed")
	// ErrDeploymentNotFound is returned when no deployment matches the
	// requested id (and status, for conditional updates).
	ErrDeploymentNotFound = errors.New("deployment not found")
)

// DeploymentCollection defines the interface for deployment persistence.
// Completion and cancellation are single conditional updates keyed on the
// current status, so a lost race surfaces as ErrDeploymentNotFound instead
// of a double transition.
type DeploymentCollection interface {
	Insert(ctx context.Context, deployment models.Deployment) error
	FindByDeploymentID(ctx context.Context, deploymentID string) (*models.Deployment, error)
	FindOpenByRegistration(ctx context.Context, registration string) (*models.Deployment, error)
	Complete(ctx context.Context, deploymentID string, update models.Deployment) (*models.Deployment, error)
	Cancel(ctx context.Context, deploymentID, reason string) (*models.Deployment, error)
	FindByStatus(ctx context.Context, status string) ([]models.Deployment, error)
}

// MongoDeploymentCollection implements DeploymentCollection for MongoDB.
type MongoDeploymentCollection struct {
	Collection *mongo.Collection
}

// Insert inserts a new deployment. The partial unique index on
// (vehicle_registration, status=in_progress) makes this the atomic
// check-then-set for the one-open-deployment-per-vehicle invariant.
func (c *MongoDeploymentCollection) Insert(ctx context.Context, deployment models.Deployment) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	deployment.CreatedAt = time.Now()
	deployment.UpdatedAt = time.Now()

	_, err := c.Collection.InsertOne(ctx, deployment)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrVehicleDeployed
		}
		return err
	}
	return nil
}

// FindByDeploymentID finds a deployment by its deployment id.
func (c *MongoDeploymentCollection) FindByDeploymentID(ctx context.Context, deploymentID string) (*models.Deployment, error) {
	var deployment models.Deployment
	err := c.Collection.FindOne(ctx, bson.M{"deployment_id": deploymentID}).Decode(&deployment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDeploymentNotFound
		}
		return nil, err
	}
	return &deployment, nil
}

// FindOpenByRegistration finds the in_progress deployment for a vehicle,
// if any.
func (c *MongoDeploymentCollection) FindOpenByRegistration(ctx context.Context, registration string) (*models.Deployment, error) {
	var deployment models.Deployment
	err := c.Collection.FindOne(ctx, bson.M{
		"vehicle_registration": registration,
		"status":               models.DeploymentInProgress,
	}).Decode(&deployment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDeploymentNotFound
		}
		return nil, err
	}
	return &deployment, nil
}

// Complete transitions an in_progress deployment to completed in a single
// conditional update. If the deployment is no longer in_progress the update
// matches nothing and ErrDeploymentNotFound is returned, leaving prior
// state untouched.
func (c *MongoDeploymentCollection) Complete(ctx context.Context, deploymentID string, update models.Deployment) (*models.Deployment, error) {
	filter := bson.M{
		"deployment_id": deploymentID,
		"status":        models.DeploymentInProgress,
	}
	set := bson.M{
		"status":               models.DeploymentCompleted,
		"in_timestamp":         update.InTimestamp,
		"in_data":              update.InData,
		"duration_minutes":     update.DurationMinutes,
		"total_kms":            update.TotalKms,
		"checklist_mismatches": update.ChecklistMismatches,
		"updated_at":           time.Now(),
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var completed models.Deployment
	err := c.Collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&completed)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDeploymentNotFound
		}
		return nil, err
	}
	return &completed, nil
}

// Cancel transitions a scheduled or in_progress deployment to cancelled in
// a single conditional update.
func (c *MongoDeploymentCollection) Cancel(ctx context.Context, deploymentID, reason string) (*models.Deployment, error) {
	filter := bson.M{
		"deployment_id": deploymentID,
		"status":        bson.M{"$in": []string{models.DeploymentScheduled, models.DeploymentInProgress}},
	}
	set := bson.M{
		"status":        models.DeploymentCancelled,
		"cancel_reason": reason,
		"updated_at":    time.Now(),
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var cancelled models.Deployment
	err := c.Collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&cancelled)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDeploymentNotFound
		}
		return nil, err
	}
	return &cancelled, nil
}

// FindByStatus returns all deployments in the given status, newest first.
func (c *MongoDeploymentCollection) FindByStatus(ctx context.Context, status string) ([]models.Deployment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "out_timestamp", Value: -1}})
	cursor, err := c.Collection.Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var deployments []models.Deployment
	if err := cursor.All(ctx, &deployments); err != nil {
		return nil, err
	}
	return deployments, nil
}
