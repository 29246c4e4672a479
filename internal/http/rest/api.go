package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bwise1/civic_reports/config"
	deps "github.com/bwise1/civic_reports/internal/debs"
	"github.com/bwise1/civic_reports/internal/http/backend"
	"github.com/bwise1/civic_reports/internal/store"
	"github.com/bwise1/civic_reports/util/values"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const (
	defaultIdleTimeout    = time.Minute
	defaultReadTimeout    = 5 * time.Second
	defaultWriteTimeout   = 30 * time.Second
	writeTimeoutMargin    = 5 * time.Second
	defaultShutdownPeriod = 30 * time.Second
)

type Handler func(w http.ResponseWriter, r *http.Request) *ServerResponse

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := h(w, r)
	respByte, err := json.Marshal(resp)
	if err != nil {
		writeErrorResponse(w, err, values.Error, "unable to marshal server response")
		return
	}
	writeJSONResponse(w, respByte, resp.StatusCode)
}

type API struct {
	Server *http.Server
	Config *config.Config
	Deps   *deps.Dependencies
}

func (api *API) Serve() error {
	api.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", api.Config.Port),
		IdleTimeout:  defaultIdleTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: writeTimeout(api.Config.BackendTimeout),
		Handler:      api.setUpServerHandler(),
	}
	return api.Server.ListenAndServe()
}

// writeTimeout leaves room for the slowest vote: both calls of a compound
// transition timing out, then the compensating call.
func writeTimeout(backendTimeout time.Duration) time.Duration {
	if backendTimeout <= 0 {
		backendTimeout = backend.DefaultTimeout
	}
	slowestVote := 2*backendTimeout + store.CompensationTimeout + writeTimeoutMargin
	if slowestVote < defaultWriteTimeout {
		return defaultWriteTimeout
	}
	return slowestVote
}

func (api *API) setUpServerHandler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)
	mux.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   api.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", values.HeaderRequestSource, values.HeaderRequestID},
		AllowCredentials: true,
	}))
	mux.Use(RequestTracing)

	mux.Get("/",
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("civic reports gateway"))
		},
	)

	mux.Mount("/auth", api.AuthRoutes())
	mux.Mount("/view", api.ViewRoutes())
	mux.Mount("/reports", api.ReportRoutes())
	mux.Mount("/dashboard", api.DashboardRoutes())
	mux.With(api.RequireSession).Get("/ws", api.StreamEvents)

	return mux
}

func (api *API) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownPeriod)
	defer cancel()

	if api.Server == nil {
		return nil
	}
	return api.Server.Shutdown(ctx)
}
