package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"github.com/evzone/fleet-backoffice/internal/apperr"
)

// validate checks request DTO shapes before domain validation runs.
var validate = validator.New()

// errorResponse is the uniform error body. Suggestion is present only when
// the failing component could offer one.
type errorResponse struct {
	Error      string `json:"error"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps the error taxonomy to HTTP statuses. Every failure is
// scoped to the one operation that raised it; nothing here aborts anything
// beyond the current request.
func writeError(w http.ResponseWriter, err error) {
	var (
		ve  *apperr.ValidationError
		ce  *apperr.ConflictError
		ne  *apperr.NotFoundError
		vve *apperr.VehicleValidationError
		ise *apperr.InvalidStateError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Error()})
	case errors.As(err, &vve):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: vve.Error(), Suggestion: vve.Suggestion})
	case errors.As(err, &ce):
		writeJSON(w, http.StatusConflict, errorResponse{Error: ce.Error()})
	case errors.As(err, &ne):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: ne.Error(), Suggestion: ne.Suggestion})
	case errors.As(err, &ise):
		writeJSON(w, http.StatusConflict, errorResponse{Error: ise.Error()})
	default:
		log.WithError(err).Error("internal error")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// decodeJSON decodes a request body into dst and runs DTO validation.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.NewValidation("body", "invalid JSON")
	}
	if err := validate.Struct(dst); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return apperr.NewValidation("body", "invalid request")
		}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperr.NewValidation(verrs[0].Field(), "failed "+verrs[0].Tag()+" validation")
		}
		return apperr.NewValidation("body", err.Error())
	}
	return nil
}
