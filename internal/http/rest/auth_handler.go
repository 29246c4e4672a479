package rest

import (
	"net/http"

	"github.com/bwise1/civic_reports/internal/model"
	"github.com/bwise1/civic_reports/util"
	"github.com/bwise1/civic_reports/util/values"
	"github.com/go-chi/chi/v5"
)

func (api *API) AuthRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Group(func(r chi.Router) {
		r.Use(api.EnsureSession)
		r.Method(http.MethodPost, "/login", Handler(api.Login))
		r.Method(http.MethodPost, "/signup", Handler(api.Signup))
	})
	mux.Group(func(r chi.Router) {
		r.Use(api.RequireSession)
		r.Method(http.MethodPost, "/logout", Handler(api.Logout))
	})

	return mux
}

func (api *API) Login(w http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingFrom(r)

	var req model.LoginRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}

	sess := sessionFrom(r)
	resp, err := api.Deps.Sessions.Login(r.Context(), sess, req)
	if err != nil {
		return respondWithStoreError(err, &tc)
	}

	// Extend the cookie now that the session carries an identity.
	if err := api.setSessionCookie(w, sess); err != nil {
		return respondWithError(err, "unable to issue session", values.Error, &tc)
	}
	return ok("login successful", resp)
}

func (api *API) Signup(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingFrom(r)

	var req model.SignupRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}

	if err := api.Deps.Sessions.Signup(r.Context(), sessionFrom(r), req); err != nil {
		return respondWithStoreError(err, &tc)
	}
	return &ServerResponse{
		Message:    "registration successful",
		Status:     values.Created,
		StatusCode: util.StatusCode(values.Created),
	}
}

func (api *API) Logout(w http.ResponseWriter, r *http.Request) *ServerResponse {
	api.Deps.Sessions.Close(sessionFrom(r).ID)
	api.clearSessionCookie(w)
	return ok("logged out", nil)
}
