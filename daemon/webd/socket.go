package webd

import (
	"encoding/json"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/olahol/melody"
	"github.com/rotblauer/fleetd/api"
	"github.com/rotblauer/fleetd/events"
	"github.com/rotblauer/fleetd/metrics/influxdb"
	"github.com/rotblauer/fleetd/params"
	"github.com/rotblauer/fleetd/rundb/cache"
	"github.com/rotblauer/fleetd/types/runtrack"
)

type websocketAction string

var websocketActionRoute websocketAction = "route"

type broadcastRoute struct {
	Action websocketAction `json:"action"`
	Route  *api.RouteView  `json:"route"`
}

// initMelody sets up the websocket hub and the broadcaster
// that pushes a recomputed route view for every populated run.
func (s *WebDaemon) initMelody() {
	if s.melodyInstance != nil {
		return
	}
	s.melodyInstance = melody.New()

	// Bring new clients up to date with the latest view of every recent run.
	s.melodyInstance.HandleConnect(func(session *melody.Session) {
		s.logger.Info("Websocket connected", "remote", session.Request.RemoteAddr)
		for _, item := range cache.LastRouteTTLCache.Items() {
			if err := session.Write(item.Value()); err != nil {
				s.logger.Warn("Failed to replay route", "run", item.Key(), "error", err)
			}
		}
	})

	// Clients have nothing to tell us. Log and drop.
	s.melodyInstance.HandleMessage(func(session *melody.Session, msg []byte) {
		s.logger.Debug("Websocket message", "remote", session.Request.RemoteAddr, "message", string(msg))
	})

	s.melodyInstance.HandleDisconnect(func(session *melody.Session) {
		s.logger.Info("Websocket disconnected", "remote", session.Request.RemoteAddr)
	})

	s.melodyInstance.HandleError(func(session *melody.Session, e error) {
		s.logger.Warn("Websocket error", "remote", session.Request.RemoteAddr, "error", e)
	})

	populated := make(chan *runtrack.Run, 16)
	s.populatedSub = events.RunPopulatedFeed.Subscribe(populated)
	go func() {
		for {
			select {
			case r := <-populated:
				s.broadcastRoute(r)
			case err, ok := <-s.populatedSub.Err():
				if ok {
					s.logger.Error("RunPopulatedFeed subscription failed", "error", err)
				}
				return
			}
		}
	}()
}

func (s *WebDaemon) broadcastRoute(r *runtrack.Run) {
	view := api.RouteForRun(r, api.RouteOptions{Now: time.Now(), Location: params.DefaultLocation})
	b, err := json.Marshal(broadcastRoute{Action: websocketActionRoute, Route: view})
	if err != nil {
		s.logger.Error("Failed to marshal route", "run", r.ID, "error", err)
		return
	}
	cache.LastRouteTTLCache.Set(r.ID, b, ttlcache.DefaultTTL)
	if err := s.melodyInstance.Broadcast(b); err != nil {
		s.logger.Warn("Failed to broadcast route", "run", r.ID, "error", err)
	}
	if s.Config.ExportInflux {
		if err := influxdb.ExportSegments(influxdb.DefaultConfig(), view); err != nil {
			s.logger.Warn("Failed to export segments", "run", r.ID, "error", err)
		}
	}
}
