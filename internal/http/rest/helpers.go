package rest

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/bwise1/civic_reports/internal/http/backend"
	"github.com/bwise1/civic_reports/internal/session"
	"github.com/bwise1/civic_reports/internal/store"
	"github.com/bwise1/civic_reports/util"
	"github.com/bwise1/civic_reports/util/tracing"
	"github.com/bwise1/civic_reports/util/values"
	"github.com/getsentry/sentry-go"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

type ServerResponse struct {
	Message    string      `json:"message"`
	Status     string      `json:"status"`
	StatusCode int         `json:"-"`
	Data       interface{} `json:"data,omitempty"`
}

func respondWithError(err error, message, status string, tc *tracing.Context) *ServerResponse {
	log.Printf("⚠️ [%v] %s: %v", tc, message, err)
	if status == values.Error {
		sentry.CaptureException(errors.Wrapf(err, "%s (%v)", message, tc))
	}
	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
	}
}

func writeErrorResponse(w http.ResponseWriter, err error, status, message string) {
	log.Printf("⚠️ %s: %v", message, err)
	resp := ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
	}
	respByte, _ := json.Marshal(resp)
	writeJSONResponse(w, respByte, resp.StatusCode)
}

func writeJSONResponse(w http.ResponseWriter, content []byte, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(content); err != nil {
		log.Printf("unable to write json response: %v", err)
	}
}

func ok(message string, data interface{}) *ServerResponse {
	return &ServerResponse{
		Message:    message,
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       data,
	}
}

// statusFor maps a store, session or gateway error to a response status and
// a message fit for the UI.
func statusFor(err error) (string, string) {
	switch {
	case errors.Is(err, store.ErrVoteInFlight), errors.Is(err, store.ErrSubmitInFlight):
		return values.Conflict, err.Error()
	case errors.Is(err, store.ErrUnknownReport), errors.Is(err, store.ErrImageIndex):
		return values.NotFound, err.Error()
	case errors.Is(err, store.ErrTooManyImages):
		return values.Unprocessable, err.Error()
	case errors.Is(err, store.ErrClosed), errors.Is(err, session.ErrUnknownSession),
		errors.Is(err, session.ErrInvalidToken):
		return values.NotAuthorised, "session is no longer active"
	case errors.Is(err, session.ErrTokenExpired):
		return values.TokenExpired, "session expired"
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return values.Unprocessable, verrs.Error()
	}

	msg := backend.MessageOf(err)
	switch backend.KindOf(err) {
	case backend.KindNetwork:
		return values.BadGateway, "backend is unreachable"
	case backend.KindProtocol:
		return values.BadGateway, "backend sent an unexpected response"
	case backend.KindValidation:
		if msg == "" {
			msg = "request rejected by backend"
		}
		return values.Unprocessable, msg
	case backend.KindConflict:
		if msg == "" {
			msg = "vote conflicts with the backend state"
		}
		return values.Conflict, msg
	}
	return values.Error, "unexpected error"
}

// respondWithStoreError is respondWithError with the status derived from
// err.
func respondWithStoreError(err error, tc *tracing.Context) *ServerResponse {
	status, message := statusFor(err)
	return respondWithError(err, message, status, tc)
}
