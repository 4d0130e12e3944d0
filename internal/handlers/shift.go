package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/evzone/fleet-backoffice/internal/models"
	"github.com/evzone/fleet-backoffice/internal/session"
	"github.com/evzone/fleet-backoffice/internal/shift"
)

// ShiftHandler exposes the shift-session workflow over HTTP. Each mutation
// runs against the live session and is snapshotted to the session store
// before the response is written.
type ShiftHandler struct {
	sessions *session.Manager
}

// NewShiftHandler creates a shift handler.
func NewShiftHandler(sessions *session.Manager) *ShiftHandler {
	return &ShiftHandler{sessions: sessions}
}

// sessionView is the session state returned from every workflow endpoint.
type sessionView struct {
	EmployeeID string           `json:"employeeId"`
	Step       shift.Step       `json:"step"`
	ShiftData  models.ShiftData `json:"shiftData"`
	Trips      []models.Trip    `json:"trips"`
	Analytics  models.Analytics `json:"analytics"`
}

func viewOf(s *shift.Session) sessionView {
	return sessionView{
		EmployeeID: s.EmployeeID(),
		Step:       s.Step(),
		ShiftData:  s.ShiftData(),
		Trips:      s.Trips(),
		Analytics:  s.Analytics(),
	}
}

type identifyRequest struct {
	EmployeeID string `json:"employeeId" validate:"required"`
}

// Identify starts (or recovers) the session for an employee.
func (h *ShiftHandler) Identify(w http.ResponseWriter, r *http.Request) {
	var req identifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sess, err := h.sessions.Get(r.Context(), req.EmployeeID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.sessions.Persist(r.Context(), sess); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

// LastEmployee returns the remembered employee id, if it has not expired.
func (h *ShiftHandler) LastEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID, err := h.sessions.LastEmployee(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"employeeId": employeeID})
}

type startShiftRequest struct {
	VehicleNumber     string  `json:"vehicleNumber" validate:"required"`
	ShiftType         string  `json:"shiftType" validate:"required"`
	VehicleCategory   string  `json:"vehicleCategory"`
	TotalTripsPlanned int     `json:"totalTripsPlanned" validate:"gte=0"`
	OdometerStart     float64 `json:"odometerStart" validate:"gte=0"`
	BatteryLevel      int     `json:"batteryLevel" validate:"gte=0,lte=100"`
	StartTime         *time.Time `json:"startTime,omitempty"`
}

// StartShift records shift metadata and opens the active-shift step.
func (h *ShiftHandler) StartShift(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(sess *shift.Session) error {
		var req startShiftRequest
		if err := decodeJSON(r, &req); err != nil {
			return err
		}
		data := models.ShiftData{
			VehicleNumber:     req.VehicleNumber,
			ShiftType:         req.ShiftType,
			VehicleCategory:   req.VehicleCategory,
			TotalTripsPlanned: req.TotalTripsPlanned,
			OdometerStart:     req.OdometerStart,
			BatteryLevel:      req.BatteryLevel,
		}
		if req.StartTime != nil {
			data.StartTime = *req.StartTime
		}
		return sess.StartShift(data)
	})
}

// AddTrip appends a trip to the session's ledger.
func (h *ShiftHandler) AddTrip(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(sess *shift.Session) error {
		var trip models.Trip
		if err := decodeJSON(r, &trip); err != nil {
			return err
		}
		_, err := sess.AddTrip(trip)
		return err
	})
}

// AmendTrip applies a partial update to a trip.
func (h *ShiftHandler) AmendTrip(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(sess *shift.Session) error {
		var patch models.TripPatch
		if err := decodeJSON(r, &patch); err != nil {
			return err
		}
		_, err := sess.AmendTrip(mux.Vars(r)["tripId"], patch)
		return err
	})
}

// RemoveTrip deletes a trip from the ledger.
func (h *ShiftHandler) RemoveTrip(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(sess *shift.Session) error {
		return sess.RemoveTrip(mux.Vars(r)["tripId"])
	})
}

type endShiftRequest struct {
	OdometerEnd  float64 `json:"odometerEnd" validate:"gte=0"`
	BatteryLevel int     `json:"batteryLevel" validate:"gte=0,lte=100"`
}

// EndShift freezes the shift and takes the final analytics snapshot.
func (h *ShiftHandler) EndShift(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(sess *shift.Session) error {
		var req endShiftRequest
		if err := decodeJSON(r, &req); err != nil {
			return err
		}
		return sess.EndShift(req.OdometerEnd, req.BatteryLevel)
	})
}

// Analytics returns the last computed analytics snapshot.
func (h *ShiftHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	employeeID := mux.Vars(r)["employeeId"]
	sess, err := h.sessions.Get(r.Context(), employeeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Analytics())
}

// Export serves the flat JSON snapshot for download.
func (h *ShiftHandler) Export(w http.ResponseWriter, r *http.Request) {
	employeeID := mux.Vars(r)["employeeId"]
	sess, err := h.sessions.Get(r.Context(), employeeID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="shift-export.json"`)
	writeJSON(w, http.StatusOK, sess.Export())
}

// Reset performs the soft reset, or the full session clear with ?full=true.
func (h *ShiftHandler) Reset(w http.ResponseWriter, r *http.Request) {
	employeeID := mux.Vars(r)["employeeId"]
	sess, err := h.sessions.Get(r.Context(), employeeID)
	if err != nil {
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("full") == "true" {
		sess.Clear()
		if err := h.sessions.Drop(r.Context(), employeeID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, viewOf(sess))
		return
	}

	sess.Reset()
	if err := h.sessions.Persist(r.Context(), sess); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

// withSession runs a mutation against the employee's session and persists
// the result before responding.
func (h *ShiftHandler) withSession(w http.ResponseWriter, r *http.Request, fn func(*shift.Session) error) {
	employeeID := mux.Vars(r)["employeeId"]
	sess, err := h.sessions.Get(r.Context(), employeeID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := fn(sess); err != nil {
		writeError(w, err)
		return
	}
	if err := h.sessions.Persist(r.Context(), sess); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}
