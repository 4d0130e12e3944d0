package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/evzone/fleet-backoffice/internal/apperr"
	"github.com/evzone/fleet-backoffice/internal/deployment"
	"github.com/evzone/fleet-backoffice/internal/models"
)

// DeploymentHandler exposes the vehicle OUT/IN lifecycle.
type DeploymentHandler struct {
	service *deployment.Service
}

// NewDeploymentHandler creates a deployment handler.
func NewDeploymentHandler(service *deployment.Service) *DeploymentHandler {
	return &DeploymentHandler{service: service}
}

type checkOutRequest struct {
	Registration string          `json:"registration" validate:"required"`
	PilotID      string          `json:"pilotId" validate:"required"`
	Purpose      string          `json:"purpose" validate:"required"`
	Odometer     float64         `json:"odometer" validate:"gte=0"`
	Supervisor   string          `json:"supervisor"`
	Checklist    map[string]bool `json:"checklist"`
}

// CheckOut opens a new deployment (vehicle OUT).
func (h *DeploymentHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	var req checkOutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	dep, err := h.service.CheckOut(r.Context(), deployment.CheckOutRequest{
		Registration: req.Registration,
		PilotID:      req.PilotID,
		Purpose:      req.Purpose,
		OutData: models.OutData{
			Odometer:   req.Odometer,
			Supervisor: req.Supervisor,
			Checklist:  req.Checklist,
		},
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dep)
}

type checkInRequest struct {
	ReturnOdometer float64         `json:"returnOdometer" validate:"gte=0"`
	Supervisor     string          `json:"supervisor"`
	Checklist      map[string]bool `json:"checklist"`
}

// CheckIn closes a deployment (vehicle IN) and returns the trip summary.
func (h *DeploymentHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	deploymentID := mux.Vars(r)["id"]

	var req checkInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	summary, err := h.service.CheckIn(r.Context(), deploymentID, models.InData{
		ReturnOdometer: req.ReturnOdometer,
		Supervisor:     req.Supervisor,
		Checklist:      req.Checklist,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// Cancel aborts an open deployment.
func (h *DeploymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	deploymentID := mux.Vars(r)["id"]

	var req cancelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	dep, err := h.service.Cancel(r.Context(), deploymentID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dep)
}

// Active lists all in_progress deployments.
func (h *DeploymentHandler) Active(w http.ResponseWriter, r *http.Request) {
	deployments, err := h.service.Active(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if deployments == nil {
		deployments = []models.Deployment{}
	}
	writeJSON(w, http.StatusOK, deployments)
}

// asVehicleValidation unwraps a VehicleValidationError, if err is one.
func asVehicleValidation(err error) (*apperr.VehicleValidationError, bool) {
	var vve *apperr.VehicleValidationError
	if errors.As(err, &vve) {
		return vve, true
	}
	return nil, false
}
