package shift

import (
	"sync"
	"time"

	"github.com/evzone/fleet-backoffice/internal/apperr"
	"github.com/evzone/fleet-backoffice/internal/models"
)

// Step is one stage of the shift workflow.
type Step string

const (
	StepEmployeeID  Step = "employee-id"
	StepStartShift  Step = "start-shift"
	StepActiveShift Step = "active-shift"
	StepAnalytics   Step = "analytics"
)

// transitions is the fixed workflow table. Anything not listed here is
// rejected; there are no ad hoc step checks elsewhere.
var transitions = map[Step][]Step{
	StepEmployeeID:  {StepStartShift},
	StepStartShift:  {StepActiveShift},
	StepActiveShift: {StepAnalytics},
	StepAnalytics:   {},
}

func canTransition(from, to Step) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Session is one operator's shift envelope: identity, shift metadata, the
// trip ledger and the last analytics snapshot. A session has a single
// logical actor; the mutex only guards against the HTTP layer calling in
// from concurrent requests of the same operator. Every ledger mutation
// synchronously recomputes analytics before returning, so callers never
// observe partial state.
type Session struct {
	mu           sync.Mutex
	employeeID   string
	step         Step
	shiftData    models.ShiftData
	ledger       *Ledger
	analytics    models.Analytics
	shiftStarted bool
	shiftEnded   bool
	now          func() time.Time
}

// NewSession creates a session at the identity step.
func NewSession() *Session {
	return &Session{
		step:   StepEmployeeID,
		ledger: NewLedger(),
		now:    time.Now,
	}
}

// Identify records the operator's employee id and advances to the
// start-shift step.
func (s *Session) Identify(employeeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if employeeID == "" {
		return apperr.NewValidation("employeeId", "employee id is required")
	}
	if !canTransition(s.step, StepStartShift) {
		return &apperr.InvalidStateError{Current: string(s.step), Attempt: "identify"}
	}
	s.employeeID = employeeID
	s.step = StepStartShift
	return nil
}

// StartShift records the shift metadata and opens the active-shift step.
func (s *Session) StartShift(data models.ShiftData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.employeeID == "" {
		return &apperr.InvalidStateError{Current: string(s.step), Attempt: "start shift"}
	}
	if !canTransition(s.step, StepActiveShift) {
		return &apperr.InvalidStateError{Current: string(s.step), Attempt: "start shift"}
	}
	if data.VehicleNumber == "" {
		return apperr.NewValidation("vehicleNumber", "vehicle number is required")
	}
	if data.StartTime.IsZero() {
		data.StartTime = s.now()
	}
	data.EndTime = nil

	s.shiftData = data
	s.shiftStarted = true
	s.shiftEnded = false
	s.step = StepActiveShift
	s.recompute()
	return nil
}

// AddTrip appends a trip to the ledger and recomputes analytics.
func (s *Session) AddTrip(trip models.Trip) (*models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireActive("add trip"); err != nil {
		return nil, err
	}
	added, err := s.ledger.Append(trip)
	if err != nil {
		return nil, err
	}
	s.recompute()
	return added, nil
}

// AmendTrip applies a partial update to a trip and recomputes analytics.
func (s *Session) AmendTrip(id string, patch models.TripPatch) (*models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireActive("amend trip"); err != nil {
		return nil, err
	}
	amended, err := s.ledger.Amend(id, patch)
	if err != nil {
		return nil, err
	}
	s.recompute()
	return amended, nil
}

// RemoveTrip deletes a trip from the ledger and recomputes analytics.
func (s *Session) RemoveTrip(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireActive("remove trip"); err != nil {
		return err
	}
	if err := s.ledger.Remove(id); err != nil {
		return err
	}
	s.recompute()
	return nil
}

// EndShift freezes the shift. EndTime, OdometerEnd and the closing battery
// level are set exactly once; the final analytics snapshot is taken and the
// session advances to the analytics step.
func (s *Session) EndShift(odometerEnd float64, batteryLevel int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireActive("end shift"); err != nil {
		return err
	}
	if !canTransition(s.step, StepAnalytics) {
		return &apperr.InvalidStateError{Current: string(s.step), Attempt: "end shift"}
	}
	if odometerEnd > 0 && odometerEnd < s.shiftData.OdometerStart {
		return apperr.NewValidation("odometerEnd", "end odometer must not be below start odometer")
	}

	end := s.now()
	s.shiftData.EndTime = &end
	s.shiftData.OdometerEnd = odometerEnd
	s.shiftData.BatteryLevel = batteryLevel
	s.shiftEnded = true
	s.step = StepAnalytics
	s.recompute()
	return nil
}

// Reset is the soft reset: the employee identity is kept, everything else
// returns to the start-shift step.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shiftData = models.ShiftData{}
	s.ledger = NewLedger()
	s.analytics = models.Analytics{HourlyEarnings: []models.HourlyBucket{}, TripModeStats: []models.ModeStat{}}
	s.shiftStarted = false
	s.shiftEnded = false
	if s.employeeID != "" {
		s.step = StepStartShift
	} else {
		s.step = StepEmployeeID
	}
}

// Clear is the full session clear: identity included.
func (s *Session) Clear() {
	s.mu.Lock()
	s.employeeID = ""
	s.mu.Unlock()
	s.Reset()
}

// Step returns the current workflow step.
func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// EmployeeID returns the operator identity, if set.
func (s *Session) EmployeeID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.employeeID
}

// Analytics returns the last computed analytics snapshot.
func (s *Session) Analytics() models.Analytics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analytics
}

// ShiftData returns a copy of the current shift metadata.
func (s *Session) ShiftData() models.ShiftData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shiftData
}

// Trips returns a copy of the ledger.
func (s *Session) Trips() []models.Trip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Trips()
}

// Export is the flat, read-only serialization offered for download.
type Export struct {
	EmployeeID string           `json:"employeeId"`
	ShiftData  models.ShiftData `json:"shiftData"`
	Trips      []models.Trip    `json:"trips"`
	Analytics  models.Analytics `json:"analytics"`
	ExportedAt time.Time        `json:"exportedAt"`
}

// Export returns the flat JSON snapshot of the session.
func (s *Session) Export() Export {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Export{
		EmployeeID: s.employeeID,
		ShiftData:  s.shiftData,
		Trips:      s.ledger.Trips(),
		Analytics:  s.analytics,
		ExportedAt: s.now(),
	}
}

// State is the persistable snapshot of a session, used for crash recovery.
type State struct {
	EmployeeID   string           `json:"employeeId"`
	Step         Step             `json:"step"`
	ShiftData    models.ShiftData `json:"shiftData"`
	Trips        []models.Trip    `json:"trips"`
	ShiftStarted bool             `json:"shiftStarted"`
	ShiftEnded   bool             `json:"shiftEnded"`
	SavedAt      time.Time        `json:"savedAt"`
}

// State captures the session for persistence.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		EmployeeID:   s.employeeID,
		Step:         s.step,
		ShiftData:    s.shiftData,
		Trips:        s.ledger.Trips(),
		ShiftStarted: s.shiftStarted,
		ShiftEnded:   s.shiftEnded,
		SavedAt:      s.now(),
	}
}

// Restore rebuilds a session from a persisted state. Analytics is not part
// of the snapshot: it is a pure projection and is recomputed here.
func Restore(state State) *Session {
	s := NewSession()
	s.employeeID = state.EmployeeID
	s.step = state.Step
	s.shiftData = state.ShiftData
	s.shiftStarted = state.ShiftStarted
	s.shiftEnded = state.ShiftEnded
	for _, trip := range state.Trips {
		// Trips were validated on the way in; a snapshot that no longer
		// validates drops the offending trip rather than the session.
		_, _ = s.ledger.Append(trip)
	}
	s.recompute()
	return s
}

func (s *Session) requireActive(attempt string) error {
	if s.step != StepActiveShift || !s.shiftStarted || s.shiftEnded {
		return &apperr.InvalidStateError{Current: string(s.step), Attempt: attempt}
	}
	return nil
}

// recompute refreshes the analytics projection from scratch. Called after
// every mutation; callers hold the lock.
func (s *Session) recompute() {
	s.analytics = ComputeAnalytics(s.ledger.Trips(), s.shiftData, s.now())
}
