package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evdnx/goldpilot/engine"
	"github.com/evdnx/goldpilot/logger"
	"github.com/evdnx/goldpilot/store"
)

// server exposes Prometheus metrics and the engine's day state over HTTP.
type server struct {
	http *http.Server
	eng  *engine.Engine
	log  logger.Logger
}

type status struct {
	Time     time.Time      `json:"time"`
	State    store.DayState `json:"state"`
	Exposure float64        `json:"exposure_lots"`
}

func newServer(addr string, eng *engine.Engine, log logger.Logger) *server {
	s := &server{eng: eng, log: log}
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	return r
}

func (s *server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	st := s.eng.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status{Time: time.Now().UTC(), State: st, Exposure: st.Exposure.Lots()}); err != nil {
		s.log.Warn("status_encode_failed", logger.Err(err))
	}
}

func (s *server) serve() {
	s.log.Info("http_listening", logger.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Error("http_server_failed", logger.Err(err))
	}
}

func (s *server) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		s.log.Warn("http_shutdown_failed", logger.Err(err))
	}
}
