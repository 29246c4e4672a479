package rest

import (
	"net/http"

	"github.com/bwise1/civic_reports/internal/model"
	"github.com/bwise1/civic_reports/util"
	"github.com/bwise1/civic_reports/util/values"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

func (api *API) ReportRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Group(func(r chi.Router) {
		r.Use(api.EnsureSession)
		r.Method(http.MethodGet, "/", Handler(api.GetReports))
		r.Method(http.MethodGet, "/filter", Handler(api.FilterReports))
		r.Method(http.MethodPost, "/{reportID}/votes", Handler(api.VoteOnReport))

		r.Method(http.MethodGet, "/draft", Handler(api.GetDraft))
		r.Method(http.MethodPut, "/draft", Handler(api.UpdateDraft))
		r.Method(http.MethodPost, "/draft/images", Handler(api.AttachDraftImages))
		r.Method(http.MethodDelete, "/draft/images/{index}", Handler(api.RemoveDraftImage))
		r.Method(http.MethodPost, "/draft/submit", Handler(api.SubmitDraft))
	})

	return mux
}

func (api *API) GetReports(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingFrom(r)
	st := sessionFrom(r).Store

	if !st.Loaded() {
		if _, err := st.Load(r.Context()); err != nil {
			return respondWithStoreError(err, &tc)
		}
	}
	return ok("reports fetched", st.Snapshot().Reports)
}

func (api *API) FilterReports(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingFrom(r)

	location := r.URL.Query().Get("location")
	if !util.NotBlank(location) {
		return respondWithError(errors.New("location is empty"), "location is required", values.BadRequestBody, &tc)
	}

	reports, err := sessionFrom(r).Store.FilterReports(r.Context(), location)
	if err != nil {
		return respondWithStoreError(err, &tc)
	}
	return ok("reports fetched", reports)
}

// VoteOnReport applies a thumbs-up or thumbs-down click. A rolled back vote
// answers with the error status and the restored report.
func (api *API) VoteOnReport(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingFrom(r)

	var req model.VoteIntentRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, "kind must be up or down", values.BadRequestBody, &tc)
	}

	reportID := chi.URLParam(r, "reportID")
	outcome, err := sessionFrom(r).Store.ApplyVoteIntent(r.Context(), reportID, req.Kind)
	if err != nil {
		resp := respondWithStoreError(err, &tc)
		if outcome.ReportID != "" {
			resp.Data = outcome
		}
		return resp
	}
	return ok("vote recorded", outcome)
}
