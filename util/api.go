package util

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/mail"

	"github.com/bwise1/civic_reports/util/tracing"
	"github.com/bwise1/civic_reports/util/values"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// StatusCode returns the status code represented
// by the specified status. Note that this function
// returns a status code of 200 by default
func StatusCode(status string) int {
	switch status {
	case values.Error:
		return http.StatusInternalServerError
	case values.Created:
		return http.StatusCreated
	case values.BadRequestBody:
		return http.StatusBadRequest
	case values.Unprocessable:
		return http.StatusUnprocessableEntity
	case values.NotAllowed:
		return http.StatusForbidden
	case values.Conflict:
		return http.StatusConflict
	case values.NotFound:
		return http.StatusNotFound
	case values.NotAuthorised, values.TokenExpired:
		return http.StatusUnauthorized
	case values.BadGateway:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}

// DecodeJSONBody ...
func DecodeJSONBody(tc *tracing.Context, body io.ReadCloser, target interface{}) error {
	if body == nil {
		return fmt.Errorf("missing request body for request: %v", tc)
	}
	defer func() {
		_ = body.Close()
	}()

	if err := json.NewDecoder(body).Decode(target); err != nil {
		return errors.Wrapf(err, "Error parsing json body for request: %v", tc)
	}

	return nil
}

// TracingFromContext returns the tracing context set by the request
// tracing middleware, or an empty one.
func TracingFromContext(ctx context.Context) tracing.Context {
	tc, _ := ctx.Value(values.ContextTracingKey).(tracing.Context)
	return tc
}

func ValidEmail(email string) error {
	if email == "" {
		return errors.New("invalid email address")
	}
	_, err := mail.ParseAddress(email)
	return err
}

func GenerateUUID() uuid.UUID {
	return uuid.New()
}
