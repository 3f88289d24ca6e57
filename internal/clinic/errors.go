package clinic

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// NetworkError means no response was received from the API.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: connection failed: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// NotFoundError is a 404 answer.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: not found", e.Path)
}

// ValidationError is a 4xx answer other than 404. Fields carries the
// per-field messages when the API sent them.
type ValidationError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("validation failed (HTTP %d): %s", e.Status, e.Message)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("validation failed (HTTP %d): %s", e.Status, strings.Join(parts, "; "))
}

// ServerError is a 5xx answer.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (HTTP %d): %s", e.Status, e.Message)
}

// SchemaError is returned when a payload does not have the shape declared
// for its endpoint.
type SchemaError struct {
	Endpoint   string
	Violations []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("unexpected payload from %s: %s", e.Endpoint, strings.Join(e.Violations, "; "))
}

// errorBody covers the shapes the API uses for failures: Spring's default
// error document, the {success,message} maps of the auth endpoints and
// bean validation output (either a field map or a list).
type errorBody struct {
	Message string          `json:"message"`
	Mensaje string          `json:"mensaje"`
	Error   string          `json:"error"`
	Errors  json.RawMessage `json:"errors"`
}

type fieldError struct {
	Field          string `json:"field"`
	DefaultMessage string `json:"defaultMessage"`
	Message        string `json:"message"`
}

func parseErrorBody(body []byte) (string, map[string]string) {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return strings.TrimSpace(string(body)), nil
	}

	msg := eb.Message
	if msg == "" {
		msg = eb.Mensaje
	}
	if msg == "" {
		msg = eb.Error
	}

	var fields map[string]string
	if len(eb.Errors) > 0 {
		var asMap map[string]string
		var asList []fieldError
		if err := json.Unmarshal(eb.Errors, &asMap); err == nil {
			fields = asMap
		} else if err := json.Unmarshal(eb.Errors, &asList); err == nil {
			fields = make(map[string]string, len(asList))
			for _, fe := range asList {
				m := fe.DefaultMessage
				if m == "" {
					m = fe.Message
				}
				if fe.Field != "" {
					fields[fe.Field] = m
				}
			}
		}
	}
	return msg, fields
}

// statusError maps a non-2xx response to the error taxonomy.
func statusError(path string, status int, body []byte) error {
	msg, fields := parseErrorBody(body)
	switch {
	case status == http.StatusNotFound:
		return &NotFoundError{Path: path}
	case status >= 500:
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &ServerError{Status: status, Message: msg}
	default:
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &ValidationError{Status: status, Message: msg, Fields: fields}
	}
}

// Describe turns an error into the message shown to the user. Field
// messages from the API win over its general message; fallback is used
// when the API gave nothing useful.
func Describe(err error, fallback string) string {
	var netErr *NetworkError
	var valErr *ValidationError
	var nfErr *NotFoundError
	var schemaErr *SchemaError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &netErr):
		return "Error de conexión con el servidor"
	case errors.As(err, &valErr):
		if len(valErr.Fields) > 0 {
			keys := make([]string, 0, len(valErr.Fields))
			for k := range valErr.Fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			return valErr.Fields[keys[0]]
		}
		if valErr.Message != "" && valErr.Message != http.StatusText(valErr.Status) {
			return valErr.Message
		}
		return fallback
	case errors.As(err, &nfErr):
		return fallback
	case errors.As(err, &schemaErr):
		return "Respuesta inesperada del servidor"
	default:
		return fallback
	}
}

// FieldErrors returns the API's per-field messages, if err carries any.
func FieldErrors(err error) map[string]string {
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr.Fields
	}
	return nil
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var nfErr *NotFoundError
	return errors.As(err, &nfErr)
}
