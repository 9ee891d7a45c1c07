package webd

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/gorilla/mux"
	"github.com/olahol/melody"
	"github.com/rotblauer/fleetd/geo/aggregate"
	"github.com/rotblauer/fleetd/params"
	"github.com/rotblauer/fleetd/state"
)

type WebDaemon struct {
	Config *params.WebDaemonConfig

	logger         *slog.Logger
	started        time.Time
	store          *state.Store
	memo           *aggregate.Memo
	melodyInstance *melody.Melody
	populatedSub   event.Subscription
	server         *http.Server
}

// NewWebDaemon opens the run store under the configured data dir.
// The store is held until Close.
func NewWebDaemon(config *params.WebDaemonConfig) (*WebDaemon, error) {
	if config == nil {
		config = params.DefaultWebDaemonConfig()
	}
	store, err := state.Open(config.DataDir, false)
	if err != nil {
		return nil, err
	}
	memo, err := aggregate.NewMemo(params.DefaultAggregateMemoSize)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &WebDaemon{
		Config:  config,
		logger:  slog.With("d", "web"),
		started: time.Now(),
		store:   store,
		memo:    memo,
	}, nil
}

// Run starts the HTTP server and waits for it,
// returning any server error.
func (s *WebDaemon) Run() error {
	router := s.NewRouter()
	l, err := net.Listen(s.Config.Network, s.Config.Address)
	if err != nil {
		return err
	}
	s.server = &http.Server{Handler: router}
	s.logger.Info("Starting web daemon", "network", s.Config.Network, "address", l.Addr().String())
	err = s.server.Serve(l)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Close stops the server, the websocket hub and the broadcaster, then closes the store.
func (s *WebDaemon) Close() error {
	if s.server != nil {
		_ = s.server.Close()
	}
	if s.populatedSub != nil {
		s.populatedSub.Unsubscribe()
	}
	if s.melodyInstance != nil {
		_ = s.melodyInstance.Close()
	}
	return s.store.Close()
}

func (s *WebDaemon) NewRouter() *mux.Router {
	s.initMelody()

	router := mux.NewRouter().StrictSlash(false)
	router.Use(loggingMiddleware)

	router.Path("/socket").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = s.melodyInstance.HandleRequest(w, r)
	})

	apiRoutes := router.NewRoute().Subrouter()

	// All API routes use permissive CORS settings.
	apiRoutes.Use(permissiveCorsMiddleware)

	// /ping is a simple server healthcheck endpoint
	apiRoutes.Path("/ping").HandlerFunc(pingPong)
	apiRoutes.Path("/status").HandlerFunc(s.statusReport).Methods(http.MethodGet)

	apiJSONRoutes := apiRoutes.NewRoute().Subrouter()
	apiJSONRoutes.Use(contentTypeMiddlewareFunc("application/json"))

	apiJSONRoutes.Path("/runs").HandlerFunc(s.handleListRuns).Methods(http.MethodGet)
	apiJSONRoutes.Path("/runs/live").HandlerFunc(s.handleLiveRuns).Methods(http.MethodGet)
	apiJSONRoutes.Path("/runs/{id}").HandlerFunc(s.handleGetRun).Methods(http.MethodGet)
	apiJSONRoutes.Path("/runs/{id}/route").HandlerFunc(s.handleRunRoute).Methods(http.MethodGet)
	apiJSONRoutes.Path("/aggregates").HandlerFunc(s.handleListAggregates).Methods(http.MethodGet)
	apiJSONRoutes.Path("/aggregates/{vehicle}/{shift}/{date}/route").HandlerFunc(s.handleAggregateRoute).Methods(http.MethodGet)
	apiJSONRoutes.Path("/vehicles/{vehicle}/last").HandlerFunc(handleLastKnown).Methods(http.MethodGet)
	apiJSONRoutes.Path("/kpis").HandlerFunc(s.handleKPIs).Methods(http.MethodGet)

	apiGeoJSONRoutes := apiRoutes.NewRoute().Subrouter()
	apiGeoJSONRoutes.Use(contentTypeMiddlewareFunc("application/geo+json"))
	apiGeoJSONRoutes.Path("/runs/{id}/route.geojson").HandlerFunc(s.handleRunRouteGeoJSON).Methods(http.MethodGet)
	apiGeoJSONRoutes.Path("/aggregates/{vehicle}/{shift}/{date}/route.geojson").HandlerFunc(s.handleAggregateRouteGeoJSON).Methods(http.MethodGet)

	authenticatedAPIRoutes := apiJSONRoutes.NewRoute().Subrouter()
	authenticatedAPIRoutes.Use(tokenAuthenticationMiddleware)

	authenticatedAPIRoutes.Path("/populate").HandlerFunc(s.handlePopulate).Methods(http.MethodPost)
	authenticatedAPIRoutes.Path("/runs/{id}/locations").HandlerFunc(s.handleAppendLocations).Methods(http.MethodPost)

	return router
}
