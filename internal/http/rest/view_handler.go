package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (api *API) ViewRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Group(func(r chi.Router) {
		r.Use(api.EnsureSession)
		r.Method(http.MethodGet, "/", Handler(api.GetView))
		r.Method(http.MethodPost, "/refresh", Handler(api.RefreshView))
	})

	return mux
}

// GetView returns the session's snapshot, loading it on first access.
func (api *API) GetView(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingFrom(r)
	st := sessionFrom(r).Store

	if !st.Loaded() {
		snap, err := st.Load(r.Context())
		if err != nil {
			return respondWithStoreError(err, &tc)
		}
		return ok("view loaded", snap)
	}
	return ok("view fetched", st.Snapshot())
}

func (api *API) RefreshView(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingFrom(r)

	snap, err := sessionFrom(r).Store.Load(r.Context())
	if err != nil {
		return respondWithStoreError(err, &tc)
	}
	return ok("view loaded", snap)
}
