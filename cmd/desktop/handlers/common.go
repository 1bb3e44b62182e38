// Package handlers provides the REST handlers behind the localhost API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/hotshotfinger/geprekpos/backend/internal/errors"
)

// validate is shared by every handler; validator instances cache struct
// metadata and are safe for concurrent use.
var validate = validator.New()

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps an error to a JSON error body. AppError codes choose the
// HTTP status; anything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := apperrors.ErrInternal
	message := err.Error()

	if appErr, ok := err.(*apperrors.AppError); ok {
		code = appErr.Code
		message = appErr.Message
		status = statusFor(appErr.Code)
	}

	writeJSON(w, status, map[string]interface{}{
		"error":   message,
		"code":    string(code),
		"details": err.Error(),
	})
}

func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrValidation, apperrors.ErrInvalid, apperrors.ErrExpressionInvalid,
		apperrors.ErrAutoPostConfig, apperrors.ErrMutationInvalid, apperrors.ErrBackupCorrupted:
		return http.StatusBadRequest
	case apperrors.ErrNotFound, apperrors.ErrSaleNotFound, apperrors.ErrProductNotFound,
		apperrors.ErrNoteNotFound, apperrors.ErrQueueItemNotFound:
		return http.StatusNotFound
	case apperrors.ErrDrainInProgress:
		return http.StatusConflict
	case apperrors.ErrStockInsufficient:
		return http.StatusUnprocessableEntity
	case apperrors.ErrGatewayRejected:
		return http.StatusBadGateway
	case apperrors.ErrGatewayUnreachable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeAndValidate decodes a JSON request body into dst and runs the
// validator tags on it.
func decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.Wrap(apperrors.ErrInvalid, "invalid request body", err)
	}
	if err := validate.Struct(dst); err != nil {
		return apperrors.Wrap(apperrors.ErrValidation, "request failed validation", err)
	}
	return nil
}
