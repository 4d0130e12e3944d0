package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/evzone/fleet-backoffice/internal/registry"
)

// VehicleHandler exposes registry lookups.
type VehicleHandler struct {
	resolver *registry.Resolver
}

// NewVehicleHandler creates a vehicle handler.
func NewVehicleHandler(resolver *registry.Resolver) *VehicleHandler {
	return &VehicleHandler{resolver: resolver}
}

// Resolve returns the canonical vehicle record for a registration number.
func (h *VehicleHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	registration := mux.Vars(r)["registration"]
	vehicle, err := h.resolver.Resolve(r.Context(), registration)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

// ValidateForDeployment reports whether a vehicle may be deployed. The
// response mirrors the resolver contract: {valid, vehicle} on success,
// {valid, error, suggestion} on failure.
func (h *VehicleHandler) ValidateForDeployment(w http.ResponseWriter, r *http.Request) {
	registration := mux.Vars(r)["registration"]
	vehicle, err := h.resolver.ValidateForDeployment(r.Context(), registration)
	if err != nil {
		if vve, ok := asVehicleValidation(err); ok {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"valid":      false,
				"error":      vve.Message,
				"suggestion": vve.Suggestion,
			})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":   true,
		"vehicle": vehicle,
	})
}
