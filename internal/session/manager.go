package session

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/evzone/fleet-backoffice/internal/shift"
)

// Manager is the in-process registry of live shift sessions, keyed by
// employee id and backed by the Redis store for recovery. Sessions are
// created lazily: a request for an unknown employee first tries the
// persisted snapshot, then falls back to a fresh session.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*shift.Session
	store    *Store
	now      func() time.Time
	log      *log.Entry
}

// NewManager creates a session manager on the given store.
func NewManager(store *Store) *Manager {
	return &Manager{
		sessions: make(map[string]*shift.Session),
		store:    store,
		now:      time.Now,
		log:      log.WithField("component", "session"),
	}
}

// Get returns the live session for an employee, recovering it from the
// store when the process has restarted. The store applies the 24-hour
// staleness rule on load.
func (m *Manager) Get(ctx context.Context, employeeID string) (*shift.Session, error) {
	m.mu.RLock()
	existing, ok := m.sessions[employeeID]
	m.mu.RUnlock()
	if ok {
		return existing, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[employeeID]; ok {
		return existing, nil
	}

	sess, err := m.recover(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	m.sessions[employeeID] = sess
	return sess, nil
}

// Persist snapshots a session to the store and refreshes the remembered
// identity.
func (m *Manager) Persist(ctx context.Context, sess *shift.Session) error {
	state := sess.State()
	if state.EmployeeID == "" {
		return nil
	}
	if err := m.store.SaveState(ctx, state); err != nil {
		return err
	}
	return m.store.RememberEmployee(ctx, state.EmployeeID)
}

// Drop removes the live session and its snapshot, after a full clear.
func (m *Manager) Drop(ctx context.Context, employeeID string) error {
	m.mu.Lock()
	delete(m.sessions, employeeID)
	m.mu.Unlock()
	return m.store.ClearState(ctx, employeeID)
}

// LastEmployee returns the remembered employee id, if any.
func (m *Manager) LastEmployee(ctx context.Context) (string, error) {
	return m.store.LastEmployee(ctx)
}

func (m *Manager) recover(ctx context.Context, employeeID string) (*shift.Session, error) {
	state, err := m.store.LoadState(ctx, employeeID, m.now())
	if errors.Is(err, ErrNoSnapshot) {
		sess := shift.NewSession()
		if err := sess.Identify(employeeID); err != nil {
			return nil, err
		}
		return sess, nil
	}
	if err != nil {
		return nil, err
	}

	m.log.WithFields(log.Fields{
		"employee_id":   employeeID,
		"step":          state.Step,
		"shift_started": state.ShiftStarted,
	}).Info("recovered shift session")
	return shift.Restore(state), nil
}
