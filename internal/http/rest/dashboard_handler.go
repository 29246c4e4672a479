package rest

import (
	"net/http"

	"github.com/bwise1/civic_reports/internal/model"
	"github.com/bwise1/civic_reports/util"
	"github.com/bwise1/civic_reports/util/values"
	"github.com/go-chi/chi/v5"
)

func (api *API) DashboardRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Group(func(r chi.Router) {
		r.Use(api.RequireSession)
		r.Use(api.RequireAgency)
		r.Method(http.MethodGet, "/stats", Handler(api.GetStats))
		r.Method(http.MethodGet, "/users", Handler(api.ListUsers))
		r.Method(http.MethodPost, "/reports/{reportID}/assign", Handler(api.AssignTask))
	})

	return mux
}

func (api *API) GetStats(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingFrom(r)
	st := sessionFrom(r).Store

	if !st.Loaded() {
		if _, err := st.Load(r.Context()); err != nil {
			return respondWithStoreError(err, &tc)
		}
	}
	return ok("statistics computed", st.Stats())
}

func (api *API) ListUsers(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingFrom(r)

	users, err := sessionFrom(r).Store.ListUsers(r.Context())
	if err != nil {
		return respondWithStoreError(err, &tc)
	}
	return ok("users fetched", users)
}

func (api *API) AssignTask(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingFrom(r)

	var req model.AssignTaskRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}

	reportID := chi.URLParam(r, "reportID")
	if err := sessionFrom(r).Store.AssignTask(r.Context(), reportID, req.AssignedTo); err != nil {
		return respondWithStoreError(err, &tc)
	}
	return ok("task assigned", map[string]string{"report_id": reportID, "assigned_to": req.AssignedTo})
}
