package shift

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evzone/fleet-backoffice/internal/apperr"
	"github.com/evzone/fleet-backoffice/internal/models"
)

func startedSession(t *testing.T) *Session {
	t.Helper()
	sess := NewSession()
	require.NoError(t, sess.Identify("EMP-42"))
	require.NoError(t, sess.StartShift(models.ShiftData{
		VehicleNumber:     "KA01 EV 1234",
		ShiftType:         models.ShiftMorning,
		TotalTripsPlanned: 4,
		OdometerStart:     1200,
	}))
	return sess
}

func TestSession_WorkflowOrder(t *testing.T) {
	sess := NewSession()
	assert.Equal(t, StepEmployeeID, sess.Step())

	// Cannot start a shift before identifying.
	err := sess.StartShift(models.ShiftData{VehicleNumber: "KA01 EV 1234"})
	var ise *apperr.InvalidStateError
	assert.ErrorAs(t, err, &ise)

	require.NoError(t, sess.Identify("EMP-42"))
	assert.Equal(t, StepStartShift, sess.Step())

	// Cannot record trips before the shift starts.
	_, err = sess.AddTrip(validTrip())
	assert.ErrorAs(t, err, &ise)

	require.NoError(t, sess.StartShift(models.ShiftData{VehicleNumber: "KA01 EV 1234"}))
	assert.Equal(t, StepActiveShift, sess.Step())

	// Identify is not a legal transition from an active shift.
	assert.ErrorAs(t, sess.Identify("EMP-43"), &ise)
}

func TestSession_Identify_RequiresEmployeeID(t *testing.T) {
	sess := NewSession()
	assert.True(t, apperr.IsValidation(sess.Identify("")))
}

func TestSession_TripMutationsRecomputeAnalytics(t *testing.T) {
	sess := startedSession(t)

	added, err := sess.AddTrip(validTrip())
	require.NoError(t, err)
	assert.Equal(t, 1, sess.Analytics().TotalTrips)
	assert.Equal(t, 160.0, sess.Analytics().TotalEarnings)

	amount := 200.0
	_, err = sess.AmendTrip(added.ID, models.TripPatch{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, 210.0, sess.Analytics().TotalEarnings)

	require.NoError(t, sess.RemoveTrip(added.ID))
	assert.Equal(t, 0, sess.Analytics().TotalTrips)
	assert.Equal(t, 0.0, sess.Analytics().TotalEarnings)
}

func TestSession_EndShift(t *testing.T) {
	sess := startedSession(t)
	_, err := sess.AddTrip(validTrip())
	require.NoError(t, err)

	require.NoError(t, sess.EndShift(1260, 40))
	assert.Equal(t, StepAnalytics, sess.Step())

	data := sess.ShiftData()
	require.NotNil(t, data.EndTime)
	assert.Equal(t, 1260.0, data.OdometerEnd)
	assert.Equal(t, 40, data.BatteryLevel)

	// EndTime is frozen: a second end is rejected.
	var ise *apperr.InvalidStateError
	assert.ErrorAs(t, sess.EndShift(1300, 30), &ise)

	// The ledger is frozen after close too.
	_, err = sess.AddTrip(validTrip())
	assert.ErrorAs(t, err, &ise)
}

func TestSession_EndShift_OdometerRegression(t *testing.T) {
	sess := startedSession(t)
	err := sess.EndShift(1100, 40)
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, StepActiveShift, sess.Step())
}

func TestSession_SoftResetKeepsIdentity(t *testing.T) {
	sess := startedSession(t)
	_, err := sess.AddTrip(validTrip())
	require.NoError(t, err)

	sess.Reset()
	assert.Equal(t, "EMP-42", sess.EmployeeID())
	assert.Equal(t, StepStartShift, sess.Step())
	assert.Empty(t, sess.Trips())
	assert.Equal(t, 0, sess.Analytics().TotalTrips)
}

func TestSession_ClearWipesIdentity(t *testing.T) {
	sess := startedSession(t)
	sess.Clear()
	assert.Equal(t, "", sess.EmployeeID())
	assert.Equal(t, StepEmployeeID, sess.Step())
}

func TestSession_Export(t *testing.T) {
	sess := startedSession(t)
	_, err := sess.AddTrip(validTrip())
	require.NoError(t, err)

	export := sess.Export()
	assert.Equal(t, "EMP-42", export.EmployeeID)
	assert.Len(t, export.Trips, 1)
	assert.Equal(t, 160.0, export.Analytics.TotalEarnings)
	assert.False(t, export.ExportedAt.IsZero())
}

func TestSession_StateRoundTrip(t *testing.T) {
	sess := startedSession(t)
	added, err := sess.AddTrip(validTrip())
	require.NoError(t, err)

	restored := Restore(sess.State())
	assert.Equal(t, "EMP-42", restored.EmployeeID())
	assert.Equal(t, StepActiveShift, restored.Step())
	require.Len(t, restored.Trips(), 1)
	assert.Equal(t, added.ID, restored.Trips()[0].ID)

	// Analytics is recomputed on restore, not persisted.
	assert.Equal(t, sess.Analytics().TotalEarnings, restored.Analytics().TotalEarnings)

	// The restored session stays usable.
	_, err = restored.AddTrip(validTrip())
	assert.NoError(t, err)
}

func TestSession_StartShift_DefaultsStartTime(t *testing.T) {
	sess := NewSession()
	require.NoError(t, sess.Identify("EMP-42"))

	before := time.Now()
	require.NoError(t, sess.StartShift(models.ShiftData{VehicleNumber: "KA01 EV 1234"}))
	data := sess.ShiftData()
	assert.False(t, data.StartTime.Before(before))
	assert.Nil(t, data.EndTime)
}
