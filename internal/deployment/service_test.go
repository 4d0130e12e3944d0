package deployment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/evzone/fleet-backoffice/internal/apperr"
	"github.com/evzone/fleet-backoffice/internal/db"
	"github.com/evzone/fleet-backoffice/internal/models"
	"github.com/evzone/fleet-backoffice/internal/registry"
)

// MockDeploymentCollection is a mock implementation of db.DeploymentCollection.
type MockDeploymentCollection struct {
	mock.Mock
}

func (m *MockDeploymentCollection) Insert(ctx context.Context, deployment models.Deployment) error {
	args := m.Called(ctx, deployment)
	return args.Error(0)
}

func (m *MockDeploymentCollection) FindByDeploymentID(ctx context.Context, deploymentID string) (*models.Deployment, error) {
	args := m.Called(ctx, deploymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deployment), args.Error(1)
}

func (m *MockDeploymentCollection) FindOpenByRegistration(ctx context.Context, registration string) (*models.Deployment, error) {
	args := m.Called(ctx, registration)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deployment), args.Error(1)
}

func (m *MockDeploymentCollection) Complete(ctx context.Context, deploymentID string, update models.Deployment) (*models.Deployment, error) {
	args := m.Called(ctx, deploymentID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deployment), args.Error(1)
}

func (m *MockDeploymentCollection) Cancel(ctx context.Context, deploymentID, reason string) (*models.Deployment, error) {
	args := m.Called(ctx, deploymentID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deployment), args.Error(1)
}

func (m *MockDeploymentCollection) FindByStatus(ctx context.Context, status string) ([]models.Deployment, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Deployment), args.Error(1)
}

// memoryVehicles is an in-memory registry backing the resolver in tests.
type memoryVehicles struct {
	docs []bson.M
}

func (f *memoryVehicles) FindByRegistration(ctx context.Context, registration string) (bson.M, error) {
	for _, doc := range f.docs {
		if v, ok := doc["registrationNumber"].(string); ok && strings.EqualFold(v, registration) {
			return doc, nil
		}
	}
	return nil, db.ErrVehicleNotFound
}

func (f *memoryVehicles) FindAll(ctx context.Context) ([]bson.M, error) {
	return f.docs, nil
}

func testResolver() *registry.Resolver {
	return registry.NewResolver(&memoryVehicles{docs: []bson.M{
		{
			"registrationNumber": "KA01 EV 1234",
			"vehicleId":          "EVZ-1001",
			"brand":              "Tata",
			"model":              "Tigor EV",
			"status":             "active",
		},
		{
			"registrationNumber": "KA01 EV 9999",
			"vehicleId":          "EVZ-1002",
			"brand":              "MG",
			"model":              "ZS EV",
			"status":             "inactive",
		},
	}})
}

func checkOutRequest() CheckOutRequest {
	return CheckOutRequest{
		Registration: "KA01 EV 1234",
		PilotID:      "EMP-42",
		Purpose:      models.PurposeOffice,
		OutData: models.OutData{
			Odometer:   1200,
			Supervisor: "S. Rao",
			Checklist:  map[string]bool{"charging_cable": true, "fire_extinguisher": true},
		},
	}
}

func TestCheckOut(t *testing.T) {
	deployments := new(MockDeploymentCollection)
	deployments.On("Insert", mock.Anything, mock.AnythingOfType("models.Deployment")).Return(nil)

	service := NewService(deployments, testResolver())
	deployment, err := service.CheckOut(context.Background(), checkOutRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, deployment.DeploymentID)
	assert.Equal(t, "KA01 EV 1234", deployment.VehicleRegistration)
	assert.Equal(t, "EVZ-1001", deployment.VehicleDetails.VehicleID)
	assert.Equal(t, models.DeploymentInProgress, deployment.Status)
	assert.False(t, deployment.OutTimestamp.IsZero())
	deployments.AssertExpectations(t)
}

func TestCheckOut_VehicleAlreadyDeployed(t *testing.T) {
	deployments := new(MockDeploymentCollection)
	deployments.On("Insert", mock.Anything, mock.AnythingOfType("models.Deployment")).Return(db.ErrVehicleDeployed)

	service := NewService(deployments, testResolver())
	_, err := service.CheckOut(context.Background(), checkOutRequest())

	assert.True(t, apperr.IsConflict(err))
	assert.Contains(t, err.Error(), "already deployed")
}

func TestCheckOut_InactiveVehicle(t *testing.T) {
	deployments := new(MockDeploymentCollection)

	service := NewService(deployments, testResolver())
	req := checkOutRequest()
	req.Registration = "KA01 EV 9999"
	_, err := service.CheckOut(context.Background(), req)

	var vve *apperr.VehicleValidationError
	require.ErrorAs(t, err, &vve)
	// Validation failures never reach the store.
	deployments.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestCheckOut_InputValidation(t *testing.T) {
	service := NewService(new(MockDeploymentCollection), testResolver())

	req := checkOutRequest()
	req.Purpose = "Joyride"
	_, err := service.CheckOut(context.Background(), req)
	assert.True(t, apperr.IsValidation(err))

	req = checkOutRequest()
	req.PilotID = ""
	_, err = service.CheckOut(context.Background(), req)
	assert.True(t, apperr.IsValidation(err))
}

func openDeployment() *models.Deployment {
	return &models.Deployment{
		DeploymentID:        "dep-1",
		VehicleRegistration: "KA01 EV 1234",
		VehicleDetails:      models.VehicleDetails{VehicleID: "EVZ-1001", Brand: "Tata", Model: "Tigor EV"},
		PilotID:             "EMP-42",
		Purpose:             models.PurposeOffice,
		Status:              models.DeploymentInProgress,
		OutTimestamp:        time.Now().Add(-90 * time.Minute),
		OutData: models.OutData{
			Odometer:  1200,
			Checklist: map[string]bool{"charging_cable": true, "fire_extinguisher": true},
		},
	}
}

func TestCheckIn(t *testing.T) {
	open := openDeployment()
	inTime := time.Now()
	completed := *open
	completed.Status = models.DeploymentCompleted
	completed.InTimestamp = &inTime
	completed.DurationMinutes = 90
	completed.TotalKms = 42
	completed.ChecklistMismatches = []string{"fire_extinguisher"}

	deployments := new(MockDeploymentCollection)
	deployments.On("FindByDeploymentID", mock.Anything, "dep-1").Return(open, nil)
	deployments.On("Complete", mock.Anything, "dep-1", mock.AnythingOfType("models.Deployment")).
		Run(func(args mock.Arguments) {
			update := args.Get(2).(models.Deployment)
			assert.Equal(t, 42.0, update.TotalKms)
			assert.Equal(t, []string{"fire_extinguisher"}, update.ChecklistMismatches)
			assert.InDelta(t, 90, update.DurationMinutes, 1)
		}).
		Return(&completed, nil)

	service := NewService(deployments, testResolver())
	summary, err := service.CheckIn(context.Background(), "dep-1", models.InData{
		ReturnOdometer: 1242,
		Checklist:      map[string]bool{"charging_cable": true},
	})
	require.NoError(t, err)

	assert.Equal(t, "dep-1", summary.DeploymentID)
	assert.Equal(t, 42.0, summary.TotalKms)
	assert.Equal(t, []string{"fire_extinguisher"}, summary.ChecklistMismatches)
	deployments.AssertExpectations(t)
}

func TestCheckIn_OdometerRegression(t *testing.T) {
	deployments := new(MockDeploymentCollection)
	deployments.On("FindByDeploymentID", mock.Anything, "dep-1").Return(openDeployment(), nil)

	service := NewService(deployments, testResolver())
	_, err := service.CheckIn(context.Background(), "dep-1", models.InData{ReturnOdometer: 1100})

	assert.True(t, apperr.IsValidation(err))
	// The deployment must stay open.
	deployments.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckIn_NotFound(t *testing.T) {
	deployments := new(MockDeploymentCollection)
	deployments.On("FindByDeploymentID", mock.Anything, "missing").Return(nil, db.ErrDeploymentNotFound)

	service := NewService(deployments, testResolver())
	_, err := service.CheckIn(context.Background(), "missing", models.InData{ReturnOdometer: 1300})
	assert.True(t, apperr.IsNotFound(err))
}

func TestCheckIn_AlreadyCompleted(t *testing.T) {
	done := openDeployment()
	done.Status = models.DeploymentCompleted

	deployments := new(MockDeploymentCollection)
	deployments.On("FindByDeploymentID", mock.Anything, "dep-1").Return(done, nil)

	service := NewService(deployments, testResolver())
	_, err := service.CheckIn(context.Background(), "dep-1", models.InData{ReturnOdometer: 1300})

	assert.True(t, apperr.IsNotFound(err))
	deployments.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckIn_LostRace(t *testing.T) {
	deployments := new(MockDeploymentCollection)
	deployments.On("FindByDeploymentID", mock.Anything, "dep-1").Return(openDeployment(), nil)
	deployments.On("Complete", mock.Anything, "dep-1", mock.AnythingOfType("models.Deployment")).
		Return(nil, db.ErrDeploymentNotFound)

	service := NewService(deployments, testResolver())
	_, err := service.CheckIn(context.Background(), "dep-1", models.InData{ReturnOdometer: 1300})
	assert.True(t, apperr.IsNotFound(err))
}

func TestCancel(t *testing.T) {
	open := openDeployment()
	cancelled := *open
	cancelled.Status = models.DeploymentCancelled

	deployments := new(MockDeploymentCollection)
	deployments.On("FindByDeploymentID", mock.Anything, "dep-1").Return(open, nil)
	deployments.On("Cancel", mock.Anything, "dep-1", "pilot unavailable").Return(&cancelled, nil)

	service := NewService(deployments, testResolver())
	result, err := service.Cancel(context.Background(), "dep-1", "pilot unavailable")
	require.NoError(t, err)
	assert.Equal(t, models.DeploymentCancelled, result.Status)
	deployments.AssertExpectations(t)
}

func TestCancel_TerminalState(t *testing.T) {
	done := openDeployment()
	done.Status = models.DeploymentCompleted

	deployments := new(MockDeploymentCollection)
	deployments.On("FindByDeploymentID", mock.Anything, "dep-1").Return(done, nil)

	service := NewService(deployments, testResolver())
	_, err := service.Cancel(context.Background(), "dep-1", "too late")

	var ise *apperr.InvalidStateError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, models.DeploymentCompleted, ise.Current)
	deployments.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything, mock.Anything)
}

func TestActive(t *testing.T) {
	deployments := new(MockDeploymentCollection)
	deployments.On("FindByStatus", mock.Anything, models.DeploymentInProgress).
		Return([]models.Deployment{*openDeployment()}, nil)

	service := NewService(deployments, testResolver())
	active, err := service.Active(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 1)
}
