package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/coralpointe/association-portal/internal/authz"
	"github.com/coralpointe/association-portal/internal/middleware"
	"github.com/coralpointe/association-portal/internal/utils"
)

var validate = validator.New()

// decodeAndValidate parses the JSON body into dst and runs the
// validator tags. A false return means the error response was already
// written.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Failed to read request body", nil, err)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Malformed JSON payload", nil, err)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation failed", err.Error())
		return false
	}
	return true
}

// requireActor pulls the trusted actor from the request context. A
// false return means the 401 was already written.
func requireActor(w http.ResponseWriter, r *http.Request) (authz.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No actor in context", nil)
		return authz.Actor{}, false
	}
	return actor, true
}

// pathUUID parses a {var} route parameter as a UUID.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Malformed "+name, nil, err)
		return uuid.Nil, false
	}
	return id, true
}

// parseAmount parses a decimal-string money field from a DTO.
func parseAmount(w http.ResponseWriter, raw string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Malformed amount", nil, err)
		return decimal.Decimal{}, false
	}
	return amount, true
}

// decimalField parses a named money field, wrapping the field name into
// the error for the caller's 400 message.
func decimalField(raw, name string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("malformed %s: %w", name, err)
	}
	return d, nil
}

// respondServiceError maps the service layer's sentinel errors onto the
// wire taxonomy. Anything unrecognized falls through as a 500.
func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	var forbidden *authz.ForbiddenError
	switch {
	case errors.As(err, &forbidden):
		utils.RespondErrorWithCode(w, http.StatusForbidden, utils.ErrCodeForbidden, "Insufficient permissions", forbidden.Missing, err)
	case errors.Is(err, utils.ErrForbidden):
		utils.RespondErrorWithCode(w, http.StatusForbidden, utils.ErrCodeForbidden, "Access denied", nil, err)
	case errors.Is(err, utils.ErrUnitNotFound):
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeUnitNotFound, "Unit not found", nil, err)
	case errors.Is(err, utils.ErrInvalidFund):
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidFund, "Unknown or unsupported fund", nil, err)
	case errors.Is(err, utils.ErrNegativeCharge):
		utils.RespondErrorWithCode(w, http.StatusUnprocessableEntity, utils.ErrCodeNegativeCharge, "Posting would drive a balance negative", nil, err)
	case errors.Is(err, utils.ErrTransferProhibited):
		utils.RespondErrorWithCode(w, http.StatusUnprocessableEntity, utils.ErrCodeTransferProhibited, "Transfer prohibited between these funds", nil, err)
	case errors.Is(err, utils.ErrAlreadyAllocated):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeAlreadyAllocated, "Payment already allocated", nil, err)
	case errors.Is(err, utils.ErrRowVersionConflict):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeRowVersionConflict, "Concurrent update, retry", nil, err)
	case errors.Is(err, utils.ErrInvoiceNotPending):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeConflict, "Invoice already decided", nil, err)
	case errors.Is(err, utils.ErrPaymentNotCompleted):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeConflict, "Payment is not completed", nil, err)
	default:
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, fallback, nil, err)
	}
}
