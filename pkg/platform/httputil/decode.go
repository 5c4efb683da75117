package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "arq/pkg/domain-errors"
	"arq/pkg/requestcontext"
)

// MaxJSONBodyBytes caps a decoded body when no BodyLimit middleware ran
// first; the router's own limits are tighter.
const MaxJSONBodyBytes = 1 << 20

var (
	errBodyInvalid  = dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	errBodyTooLarge = dErrors.New(dErrors.CodeBadRequest, "request body too large")
	errBodyTrailing = dErrors.New(dErrors.CodeBadRequest, "request body must be a single JSON object")
)

// Normalizer trims and canonicalises fields before validation.
type Normalizer interface {
	Normalize()
}

// Validator reports the first problem with a decoded request.
type Validator interface {
	Validate() error
}

// DecodeJSON reads exactly one JSON value from the body into a new T. On
// failure it writes a 400 and returns false; the cause is logged with the
// request ID, never echoed to the client.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	ctx := r.Context()
	var req T

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxJSONBodyBytes))
	err := dec.Decode(&req)
	if err == nil && dec.Decode(&struct{}{}) != io.EOF {
		err = errBodyTrailing
	}
	if err == nil {
		return &req, true
	}

	logger.WarnContext(ctx, "failed to decode request body",
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		WriteError(w, errBodyTooLarge)
	case errors.Is(err, errBodyTrailing):
		WriteError(w, errBodyTrailing)
	default:
		WriteError(w, errBodyInvalid)
	}
	return nil, false
}

// Prepare normalizes then validates req when it implements those steps.
// Errors without a domain code are reported as validation failures.
func Prepare(req any) error {
	if n, ok := req.(Normalizer); ok {
		n.Normalize()
	}
	v, ok := req.(Validator)
	if !ok {
		return nil
	}
	err := v.Validate()
	if err == nil {
		return nil
	}
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return dErrors.New(dErrors.CodeValidation, err.Error())
}

// DecodeAndPrepare is DecodeJSON followed by Prepare, writing the error
// response for either step:
//
//	req, ok := httputil.DecodeAndPrepare[models.LoginRequest](w, r, h.logger)
//	if !ok {
//	    return
//	}
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	req, ok := DecodeJSON[T](w, r, logger)
	if !ok {
		return nil, false
	}
	if err := Prepare(req); err != nil {
		ctx := r.Context()
		logger.WarnContext(ctx, "invalid request",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		WriteError(w, err)
		return nil, false
	}
	return req, true
}
