package webd

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rotblauer/fleetd/api"
	"github.com/rotblauer/fleetd/conceptual"
	"github.com/rotblauer/fleetd/params"
	"github.com/rotblauer/fleetd/rundb/cache"
	"github.com/rotblauer/fleetd/state"
	"github.com/rotblauer/fleetd/types/runtrack"
	"github.com/tidwall/gjson"
)

func pingPong(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

type webDaemonStatus struct {
	StartedAt time.Time               `json:"started_at"`
	Uptime    string                  `json:"uptime"`
	Config    *params.WebDaemonConfig `json:"config"`
	WSOpen    bool                    `json:"ws_open"`
	WSConns   int                     `json:"ws_conns"`
}

func (s *WebDaemon) statusReport(w http.ResponseWriter, r *http.Request) {
	st := webDaemonStatus{
		StartedAt: s.started,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		WSOpen:    !s.melodyInstance.IsClosed(),
		WSConns:   s.melodyInstance.Len(),
		Config:    s.Config,
	}
	j, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		s.logger.Error("Failed to marshal config", "error", err)
		http.Error(w, "Failed to marshal config", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(j)
	if err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

// parseDay reads a YYYY-MM-DD query param as the start of that day in loc.
func parseDay(r *http.Request, name string, loc *time.Location) (time.Time, bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, false, nil
	}
	t, err := time.ParseInLocation(runtrack.RunKeyDateLayout, v, loc)
	return t, true, err
}

// requestFilter builds a run filter from the status, vehicle, from and to query params.
// The to day is inclusive.
func requestFilter(r *http.Request) (runtrack.RunFilter, error) {
	q := r.URL.Query()
	filter := runtrack.RunFilter{
		Status:    runtrack.RunStatus(q.Get("status")),
		VehicleID: conceptual.VehicleID(q.Get("vehicle")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return filter, errors.New("unknown status")
	}
	from, ok, err := parseDay(r, "from", params.DefaultLocation)
	if err != nil {
		return filter, err
	}
	if ok {
		filter.From = from
	}
	to, ok, err := parseDay(r, "to", params.DefaultLocation)
	if err != nil {
		return filter, err
	}
	if ok {
		filter.To = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return filter, nil
}

func (s *WebDaemon) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filter, err := requestFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	runs, err := s.store.ListRuns(filter)
	if err != nil {
		s.logger.Error("Failed to list runs", "error", err)
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []*runtrack.Run{}
	}
	writeJSON(w, runs)
}

// handleLiveRuns lists every in-progress run followed by the runs completed today.
func (s *WebDaemon) handleLiveRuns(w http.ResponseWriter, r *http.Request) {
	live, err := s.store.ListRuns(runtrack.RunFilter{Status: runtrack.RunInProgress})
	if err != nil {
		s.logger.Error("Failed to list runs", "error", err)
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}
	today, _ := runtrack.DayFilter("", time.Now().In(params.DefaultLocation).Format(runtrack.RunKeyDateLayout), params.DefaultLocation)
	today.Status = runtrack.RunCompleted
	done, err := s.store.ListRuns(today)
	if err != nil {
		s.logger.Error("Failed to list runs", "error", err)
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, api.MergeLive(live, done))
}

// getRequestRun loads the run named by the {id} route var,
// writing the error response itself when it cannot.
func (s *WebDaemon) getRequestRun(w http.ResponseWriter, r *http.Request) (*runtrack.Run, bool) {
	id := conceptual.RunID(mux.Vars(r)["id"])
	if id.IsEmpty() {
		http.Error(w, "Missing run", http.StatusBadRequest)
		return nil, false
	}
	run, err := s.store.GetRun(id)
	if errors.Is(err, state.ErrRunNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		s.logger.Error("Failed to get run", "run", id, "error", err)
		http.Error(w, "Failed to get run", http.StatusInternalServerError)
		return nil, false
	}
	return run, true
}

func (s *WebDaemon) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.getRequestRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, run)
}

func routeOptions(r *http.Request) api.RouteOptions {
	return api.RouteOptions{
		Now:       time.Now(),
		Highlight: r.URL.Query().Get("highlight"),
		Location:  params.DefaultLocation,
	}
}

func (s *WebDaemon) handleRunRoute(w http.ResponseWriter, r *http.Request) {
	run, ok := s.getRequestRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, api.RouteForRun(run, routeOptions(r)))
}

func (s *WebDaemon) handleRunRouteGeoJSON(w http.ResponseWriter, r *http.Request) {
	run, ok := s.getRequestRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, api.RouteForRun(run, routeOptions(r)).FeatureCollection())
}

// handleListAggregates groups the filtered runs into their per vehicle, shift and day aggregates.
func (s *WebDaemon) handleListAggregates(w http.ResponseWriter, r *http.Request) {
	filter, err := requestFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	aggs, err := api.Aggregates(s.store, filter, params.DefaultLocation)
	if err != nil {
		s.logger.Error("Failed to aggregate runs", "error", err)
		http.Error(w, "Failed to aggregate runs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, aggs)
}

func (s *WebDaemon) getRequestAggregate(w http.ResponseWriter, r *http.Request) (*runtrack.AggregatedRun, bool) {
	vars := mux.Vars(r)
	key, err := runtrack.ParseRunKey(vars["vehicle"] + "/" + vars["shift"] + "/" + vars["date"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	agg, err := api.LoadAggregate(s.store, key, params.DefaultLocation, s.memo)
	if errors.Is(err, api.ErrNoRuns) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		s.logger.Error("Failed to load aggregate", "key", key, "error", err)
		http.Error(w, "Failed to load aggregate", http.StatusInternalServerError)
		return nil, false
	}
	return agg, true
}

func (s *WebDaemon) handleAggregateRoute(w http.ResponseWriter, r *http.Request) {
	agg, ok := s.getRequestAggregate(w, r)
	if !ok {
		return
	}
	writeJSON(w, api.RouteForAggregate(agg, routeOptions(r)))
}

func (s *WebDaemon) handleAggregateRouteGeoJSON(w http.ResponseWriter, r *http.Request) {
	agg, ok := s.getRequestAggregate(w, r)
	if !ok {
		return
	}
	writeJSON(w, api.RouteForAggregate(agg, routeOptions(r)).FeatureCollection())
}

func handleLastKnown(w http.ResponseWriter, r *http.Request) {
	vehicle := conceptual.VehicleID(mux.Vars(r)["vehicle"])
	last, ok := cache.GetLastKnown(vehicle)
	if !ok {
		http.Error(w, "No position for vehicle", http.StatusNotFound)
		return
	}
	writeJSON(w, last)
}

type kpiReport struct {
	api.KPIs
	From string `json:"from"`
	To   string `json:"to"`
}

// handleKPIs reports the history KPIs between the from and to days, inclusive.
// Both default to today.
func (s *WebDaemon) handleKPIs(w http.ResponseWriter, r *http.Request) {
	loc := params.DefaultLocation
	now := time.Now().In(loc)
	from, ok, err := parseDay(r, "from", loc)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !ok {
		from = now
	}
	to, ok, err := parseDay(r, "to", loc)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !ok {
		to = now
	}
	runs, err := s.store.ListRuns(runtrack.RunFilter{Status: runtrack.RunCompleted})
	if err != nil {
		s.logger.Error("Failed to list runs", "error", err)
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}
	k := api.ComputeKPIs(runs, from, to, loc)
	k.RunsPerDay = api.RunsPerDay(runs, now, params.DefaultRunsPerDayWindow, loc)
	writeJSON(w, kpiReport{
		KPIs: k,
		From: from.Format(runtrack.RunKeyDateLayout),
		To:   to.Format(runtrack.RunKeyDateLayout),
	})
}

func (s *WebDaemon) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if r.Body == nil {
		http.Error(w, "Please send a request body", http.StatusBadRequest)
		return nil, false
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error("Failed to read request body", "error", err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return nil, false
	}
	if !gjson.ValidBytes(body) {
		http.Error(w, "Invalid JSON", http.StatusUnprocessableEntity)
		return nil, false
	}
	return body, true
}

// handlePopulate upserts one run, or an array of runs, as the tracking client posts them.
// Nothing is stored unless every run decodes.
func (s *WebDaemon) handlePopulate(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	var runs []*runtrack.Run
	if gjson.ParseBytes(body).IsArray() {
		if err := json.Unmarshal(body, &runs); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
	} else {
		run := &runtrack.Run{}
		if err := json.Unmarshal(body, run); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		runs = append(runs, run)
	}

	stored := make([]*runtrack.Run, 0, len(runs))
	for _, run := range runs {
		res, err := api.Populate(s.store, run)
		if errors.Is(err, api.ErrStore) {
			s.logger.Error("Failed to populate", "run", run.ID, "error", err)
			http.Error(w, "Failed to populate", http.StatusInternalServerError)
			return
		}
		if err != nil {
			s.logger.Warn("Rejected run", "run", run.ID, "error", err)
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		stored = append(stored, res)
	}
	s.logger.Info("Populated", "runs", len(stored))
	writeJSON(w, stored)
}

// handleAppendLocations adds a JSON array of pings to a stored run.
func (s *WebDaemon) handleAppendLocations(w http.ResponseWriter, r *http.Request) {
	id := conceptual.RunID(mux.Vars(r)["id"])
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	points := []runtrack.LocationPoint{}
	if err := json.Unmarshal(body, &points); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	run, err := api.AppendLocations(s.store, id, points)
	if errors.Is(err, state.ErrRunNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("Failed to append locations", "run", id, "error", err)
		http.Error(w, "Failed to append locations", http.StatusInternalServerError)
		return
	}
	writeJSON(w, api.RouteForRun(run, routeOptions(r)))
}
