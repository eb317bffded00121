package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gosuda/taskboard/internal/domain"
)

// Kind classifies a failed request.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindPermission    Kind = "permission"
	KindNotFound      Kind = "not_found"
	KindServer        Kind = "server"
	KindConnectivity  Kind = "connectivity"
	KindUnexpected    Kind = "unexpected"
)

// FieldError is one entry of the API's validation error map. Value is the raw
// JSON value, usually an array of strings.
type FieldError struct {
	Field string
	Value json.RawMessage
}

// Messages returns the string messages held by the field.
func (f FieldError) Messages() []string {
	var out []string
	for _, v := range flatten(f.Value) {
		var s string
		if json.Unmarshal(v, &s) == nil {
			out = append(out, s)
		}
	}
	return out
}

// Error is returned for every failed request. Message is the user-facing
// text that was notified.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Fields     []FieldError
	Err        error

	notified bool
	expired  bool
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("apiclient: %s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("apiclient: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("apiclient: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is maps the kind onto the domain sentinel errors.
func (e *Error) Is(target error) bool {
	switch target {
	case domain.ErrValidation:
		return e.Kind == KindValidation
	case domain.ErrUnauthorized:
		return e.Kind == KindAuthorization
	case domain.ErrForbidden:
		return e.Kind == KindPermission
	case domain.ErrNotFound:
		return e.Kind == KindNotFound
	case domain.ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// FieldMessages returns the string messages for a field, or nil.
func (e *Error) FieldMessages(field string) []string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Messages()
		}
	}
	return nil
}

// AsError unwraps err into an *Error.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Notified reports whether err already produced a user notification.
func Notified(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.notified
}

// SessionExpired reports whether err is a 401 that ended the session.
func SessionExpired(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.expired
}

// MessageOf returns the user-facing message carried by err, or fallback.
func MessageOf(err error, fallback string) string {
	if apiErr, ok := AsError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusBadRequest:
		return KindValidation
	case status == http.StatusUnauthorized:
		return KindAuthorization
	case status == http.StatusForbidden:
		return KindPermission
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= http.StatusInternalServerError:
		return KindServer
	default:
		return KindUnexpected
	}
}

// errorBody is the ASP.NET-style error payload.
type errorBody struct {
	Message string
	// HasErrors is true when the errors member is present and truthy.
	HasErrors bool
	Fields    []FieldError
}

func parseErrorBody(raw []byte) errorBody {
	var body errorBody
	if len(bytes.TrimSpace(raw)) == 0 {
		return body
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return body
	}

	if m, ok := top["message"]; ok {
		var s string
		if json.Unmarshal(m, &s) == nil {
			body.Message = s
		}
	}

	if e, ok := top["errors"]; ok && truthy(e) {
		body.HasErrors = true
		body.Fields = orderedFields(e)
	}
	return body
}

// firstMessage is the first flattened value of the error map when it is a
// string.
func (b errorBody) firstMessage() (string, bool) {
	for _, f := range b.Fields {
		vals := flatten(f.Value)
		if len(vals) == 0 {
			continue
		}
		var s string
		if json.Unmarshal(vals[0], &s) == nil {
			return s, true
		}
		return "", false
	}
	return "", false
}

// orderedFields decodes a JSON object into its members in document order.
// An array is treated as an object keyed by index.
func orderedFields(raw json.RawMessage) []FieldError {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}

	var fields []FieldError
	switch tok {
	case json.Delim('{'):
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return fields
			}
			key, _ := keyTok.(string)
			var val json.RawMessage
			if err := dec.Decode(&val); err != nil {
				return fields
			}
			fields = append(fields, FieldError{Field: key, Value: val})
		}
	case json.Delim('['):
		for i := 0; dec.More(); i++ {
			var val json.RawMessage
			if err := dec.Decode(&val); err != nil {
				return fields
			}
			fields = append(fields, FieldError{Field: fmt.Sprint(i), Value: val})
		}
	}
	return fields
}

// flatten returns the elements of a JSON array, or the value itself.
func flatten(raw json.RawMessage) []json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []json.RawMessage{raw}
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil
	}
	return elems
}

func truthy(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}
