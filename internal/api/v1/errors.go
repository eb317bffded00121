package v1

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/danielgtaylor/huma/v2"
)

// ErrorBody is the error payload of every failed request:
// {"message": ..., "errors": {"Field": [...]}, "statusCode": ...}.
type ErrorBody struct {
	Message    string              `json:"message"`
	Errors     map[string][]string `json:"errors,omitempty"`
	StatusCode int                 `json:"statusCode"`
}

func (e *ErrorBody) Error() string  { return e.Message }
func (e *ErrorBody) GetStatus() int { return e.StatusCode }

// Add appends a message for field.
func (e *ErrorBody) Add(field, msg string) {
	if e.Errors == nil {
		e.Errors = map[string][]string{}
	}
	e.Errors[field] = append(e.Errors[field], msg)
}

// Default messages per status.
const (
	msgValidation = "Se encontraron errores de validación"
	msgServer     = "Error interno del servidor"
)

var errorsOnce sync.Once //nolint:gochecknoglobals // huma.NewError is process-wide

// UseErrorBody replaces huma's problem+json errors with ErrorBody. Schema
// validation failures are reported as 400 with one entry per field.
func UseErrorBody() {
	errorsOnce.Do(func() {
		huma.NewError = newError
	})
}

func newError(status int, msg string, errs ...error) huma.StatusError {
	if status == http.StatusUnprocessableEntity {
		status = http.StatusBadRequest
		msg = msgValidation
	}
	body := &ErrorBody{Message: msg, StatusCode: status}

	localized := map[string]bool{}
	for _, err := range errs {
		var fm fieldMessage
		if errors.As(err, &fm) {
			localized[fieldName(fm.Location)] = true
		}
	}

	for _, err := range errs {
		if err == nil {
			continue
		}
		var detailer huma.ErrorDetailer
		if errors.As(err, &detailer) {
			d := detailer.ErrorDetail()
			field := fieldName(d.Location)
			var fm fieldMessage
			if localized[field] && !errors.As(err, &fm) {
				continue
			}
			body.Add(field, d.Message)
			continue
		}
		if status >= http.StatusInternalServerError {
			// Internal causes stay out of responses.
			continue
		}
		body.Add("general", err.Error())
	}
	return body
}

// fieldName turns a huma location such as "body.stateId" into "StateId".
func fieldName(location string) string {
	if _, rest, ok := strings.Cut(location, "."); ok {
		location = rest
	}
	if location == "" || location == "body" {
		return "general"
	}
	return strings.ToUpper(location[:1]) + location[1:]
}

// validationError builds a 400 body from field messages collected by a
// handler.
func validationError(fields map[string][]string) error {
	return &ErrorBody{Message: msgValidation, Errors: fields, StatusCode: http.StatusBadRequest}
}

// badRequest is a 400 without field details.
func badRequest(msg string) error {
	return &ErrorBody{Message: msg, StatusCode: http.StatusBadRequest}
}
