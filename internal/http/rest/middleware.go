package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/bwise1/civic_reports/internal/model"
	"github.com/bwise1/civic_reports/internal/session"
	"github.com/bwise1/civic_reports/util"
	"github.com/bwise1/civic_reports/util/tracing"
	"github.com/bwise1/civic_reports/util/values"
	"github.com/lucsky/cuid"
)

// RequestTracing handles the request tracing context
func RequestTracing(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestSource := r.Header.Get(values.HeaderRequestSource)
		if requestSource == "" {
			// Browsers cannot set headers on websocket upgrades.
			requestSource = r.URL.Query().Get("source")
		}
		if requestSource == "" {
			errM := errors.New("X-Request-Source is empty")

			writeErrorResponse(w, errM, values.BadRequestBody, errM.Error())
			return
		}

		requestID := r.Header.Get(values.HeaderRequestID)
		if requestID == "" {
			requestID = cuid.New()
		}
		w.Header().Set(values.HeaderRequestID, requestID)

		tracingContext := tracing.Context{
			RequestID:     requestID,
			RequestSource: requestSource,
		}

		ctx = context.WithValue(ctx, values.ContextTracingKey, tracingContext)
		next.ServeHTTP(w, r.WithContext(ctx))
	}

	return http.HandlerFunc(fn)
}

// RequireSession rejects requests without a valid session cookie.
func (api *API) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := api.resolveSession(r)
		if err != nil {
			if errors.Is(err, session.ErrTokenExpired) {
				writeErrorResponse(w, err, values.TokenExpired, "token-expired")
				return
			}
			writeErrorResponse(w, err, values.NotAuthorised, "not-authorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), values.ContextSessionKey, sess)))
	})
}

// EnsureSession resolves the session cookie and opens an anonymous session
// when there is none, so the map can be browsed before logging in.
func (api *API) EnsureSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := api.resolveSession(r)
		if err != nil {
			sess, err = api.Deps.Sessions.Open()
			if err != nil {
				writeErrorResponse(w, err, values.Error, "unable to open session")
				return
			}
			if err := api.setSessionCookie(w, sess); err != nil {
				api.Deps.Sessions.Close(sess.ID)
				writeErrorResponse(w, err, values.Error, "unable to issue session")
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), values.ContextSessionKey, sess)))
	})
}

// RequireAgency restricts a route to sessions logged in with an agency
// account. It must run after RequireSession.
func (api *API) RequireAgency(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sessionFrom(r).AccountType() != model.AccountAgency {
			writeErrorResponse(w, errors.New("agency account required"), values.NotAllowed, "agency-only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (api *API) resolveSession(r *http.Request) (*session.Session, error) {
	cookie, err := r.Cookie(api.Config.SessionCookie)
	if err != nil {
		return nil, session.ErrInvalidToken
	}
	return api.Deps.Sessions.Resolve(cookie.Value)
}

func (api *API) setSessionCookie(w http.ResponseWriter, sess *session.Session) error {
	token, expiresAt, err := api.Deps.Sessions.Issue(sess)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     api.Config.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   api.Config.Environment == "production",
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (api *API) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     api.Config.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func sessionFrom(r *http.Request) *session.Session {
	return r.Context().Value(values.ContextSessionKey).(*session.Session)
}

func tracingFrom(r *http.Request) tracing.Context {
	return util.TracingFromContext(r.Context())
}
