package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/John-Robertt/subrules/internal/model"
	"github.com/John-Robertt/subrules/internal/render"
	"github.com/John-Robertt/subrules/internal/rules"
	"github.com/John-Robertt/subrules/internal/transform"
)

// APIError is used by the HTTP layer for request validation and a few
// HTTP-specific errors.
type APIError struct {
	Status   int
	AppError model.AppError
	Cause    error
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *APIError) Unwrap() error { return e.Cause }

func apiError(status int, app model.AppError, cause error) error {
	return &APIError{Status: status, AppError: app, Cause: cause}
}

func requestError(code, message, hint string) error {
	return apiError(http.StatusBadRequest, model.AppError{
		Code:    code,
		Message: message,
		Stage:   "validate_request",
		Hint:    hint,
	}, nil)
}

// statusFor maps an error to its HTTP status and AppError. Transform and
// render failures are user content errors (422).
func statusFor(err error) (int, model.AppError) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status, ae.AppError
	}

	var te *transform.Error
	if errors.As(err, &te) {
		return http.StatusUnprocessableEntity, te.AppError
	}

	var pe *rules.ParseError
	if errors.As(err, &pe) {
		return http.StatusUnprocessableEntity, pe.AppError
	}

	var re *render.RenderError
	if errors.As(err, &re) {
		return http.StatusUnprocessableEntity, re.AppError
	}

	return http.StatusInternalServerError, model.AppError{
		Code:    "INTERNAL_ERROR",
		Message: "服务端内部错误",
		Stage:   "internal",
		Hint:    err.Error(),
	}
}

func writeErrorFromErr(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	status, app := statusFor(err)
	WriteError(w, r, status, app)
}
