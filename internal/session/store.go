// Package session keeps live shift sessions and their crash-recovery
// snapshots. Redis is the persisted-session store: it remembers the
// last-used employee id across browser sessions and holds a full snapshot
// of each shift session.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/evzone/fleet-backoffice/internal/shift"
)

const (
	lastEmployeeKey  = "backoffice:last_employee"
	snapshotKeyBase  = "backoffice:shift_session:"
	identityTTL      = 7 * 24 * time.Hour
	snapshotTTL      = 48 * time.Hour
	shiftStaleAfter  = 24 * time.Hour
)

// ErrNoSnapshot is returned when no persisted session exists for an
// employee.
var ErrNoSnapshot = errors.New("no session snapshot")

// Store persists session state in Redis.
type Store struct {
	client *redis.Client
}

// NewStore creates a session store on the given Redis client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// RememberEmployee stores the last-used employee id with a 7-day expiry.
func (s *Store) RememberEmployee(ctx context.Context, employeeID string) error {
	return s.client.Set(ctx, lastEmployeeKey, employeeID, identityTTL).Err()
}

// LastEmployee returns the remembered employee id, or "" when none is
// stored or it has expired.
func (s *Store) LastEmployee(ctx context.Context) (string, error) {
	id, err := s.client.Get(ctx, lastEmployeeKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read last employee: %w", err)
	}
	return id, nil
}

// SaveState snapshots a session for crash recovery.
func (s *Store) SaveState(ctx context.Context, state shift.State) error {
	if state.EmployeeID == "" {
		return errors.New("cannot snapshot a session without an employee id")
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	return s.client.Set(ctx, snapshotKeyBase+state.EmployeeID, payload, snapshotTTL).Err()
}

// LoadState returns the persisted session for an employee, applying the
// staleness rule: a recovered shift whose StartTime is more than 24 hours
// in the past is discarded back to the initial step, keeping only the
// identity.
func (s *Store) LoadState(ctx context.Context, employeeID string, now time.Time) (shift.State, error) {
	payload, err := s.client.Get(ctx, snapshotKeyBase+employeeID).Bytes()
	if errors.Is(err, redis.Nil) {
		return shift.State{}, ErrNoSnapshot
	}
	if err != nil {
		return shift.State{}, fmt.Errorf("read session snapshot: %w", err)
	}

	var state shift.State
	if err := json.Unmarshal(payload, &state); err != nil {
		return shift.State{}, fmt.Errorf("decode session snapshot: %w", err)
	}

	if state.ShiftStarted && now.Sub(state.ShiftData.StartTime) > shiftStaleAfter {
		return freshState(state.EmployeeID), nil
	}
	return state, nil
}

// ClearState removes the persisted session for an employee.
func (s *Store) ClearState(ctx context.Context, employeeID string) error {
	return s.client.Del(ctx, snapshotKeyBase+employeeID).Err()
}

// freshState is a session reduced to its identity: the recovered shift was
// stale, so everything else resets to the initial step's successor.
func freshState(employeeID string) shift.State {
	return shift.State{
		EmployeeID: employeeID,
		Step:       shift.StepStartShift,
	}
}
