// Package httputil translates domain results and errors into HTTP responses.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "custos/pkg/domain-errors"
)

// statusByCode maps taxonomy codes to HTTP statuses.
var statusByCode = map[dErrors.Code]int{
	dErrors.CodeNotFound:     http.StatusNotFound,
	dErrors.CodeConflict:     http.StatusConflict,
	dErrors.CodeValidation:   http.StatusUnprocessableEntity,
	dErrors.CodeUnauthorized: http.StatusUnauthorized,
	dErrors.CodeForbidden:    http.StatusForbidden,
	dErrors.CodeBusiness:     http.StatusBadRequest,
	dErrors.CodeInternal:     http.StatusInternalServerError,
}

// ErrorBody is the error envelope written to clients.
type ErrorBody struct {
	Error            string              `json:"error"`
	ErrorDescription string              `json:"error_description,omitempty"`
	Fields           map[string][]string `json:"fields,omitempty"`
}

// WriteError renders any error as the error envelope. Internal errors (and
// anything that is not a domain error) are reported as internal_error with
// the description redacted; everything else echoes its message, and
// validation errors additionally carry their field map.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		code = dErrors.CodeInternal
		status = http.StatusInternalServerError
	}

	body := ErrorBody{Error: string(code)}
	if code != dErrors.CodeInternal {
		var dErr *dErrors.Error
		if errors.As(err, &dErr) {
			body.ErrorDescription = dErr.Message
		}
		body.Fields = dErrors.FieldsOf(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// maxBodyBytes caps request bodies; nothing in this API needs more.
const maxBodyBytes = 1 << 20

// DecodeJSON reads a JSON request body into T, rejecting unknown fields,
// trailing garbage, and oversized payloads with validation errors.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var payload T

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&payload); err != nil {
		return payload, dErrors.Wrap(err, dErrors.CodeValidation, "request body is not valid JSON for this operation")
	}
	if dec.More() {
		return payload, dErrors.New(dErrors.CodeValidation, "request body contains more than one JSON value")
	}
	return payload, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
