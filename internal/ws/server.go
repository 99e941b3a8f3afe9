package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plume-sim/backend/internal/config"
	"github.com/plume-sim/backend/internal/observability"
	"github.com/plume-sim/backend/internal/session"
	"github.com/plume-sim/backend/internal/sim"
)

type Server struct {
	ctrl           *session.Controller
	broadcaster    *Broadcaster
	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
	authToken      string
	startedAt      time.Time
}

func NewServer(cfg *config.Config, ctrl *session.Controller, broadcaster *Broadcaster) *Server {
	s := &Server{
		ctrl:           ctrl,
		broadcaster:    broadcaster,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
		authToken:      cfg.Server.AuthToken,
		startedAt:      time.Now(),
	}

	for _, origin := range cfg.Server.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/model", s.op("delete", s.handleModel))
	mux.HandleFunc("/api/model/spheroid", s.op("create_spheroid", s.handleCreateSpheroid))
	mux.HandleFunc("/api/model/turbulent", s.op("create_turbulent", s.handleCreateTurbulent))
	mux.HandleFunc("/api/model/config", s.op("get_config", s.handleConfig))
	mux.HandleFunc("/api/model/count", s.op("get_count", s.handleCount))
	mux.HandleFunc("/api/model/source", s.op("source", s.handleSource))
	mux.HandleFunc("/api/model/limits", s.op("set_limits", s.handleLimits))
	mux.HandleFunc("/api/model/counts", s.op("set_counts", s.handleCounts))
	mux.HandleFunc("/api/model/save", s.op("save", s.handleSave))
	mux.HandleFunc("/api/model/load", s.op("load", s.handleLoad))
	mux.HandleFunc("/api/wind", s.op("wind", s.handleWind))
	mux.HandleFunc("/api/health", s.op("health", s.handleHealth))
	mux.Handle("/metrics", promhttp.Handler())
}

// statusRecorder captures the response status for the request metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// op wraps an operation handler with auth and request metrics.
func (s *Server) op(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authorize(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			observability.RecordRequest(name, http.StatusUnauthorized, 0)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		observability.RecordRequest(name, rec.status, time.Since(start))
	}
}

// Every operation responds with a success flag; operation-level failures
// (no model, rejected parameters, bad files) stay HTTP 200 with
// success=false so callers have one result shape to handle.
type opResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, opResult{Success: true})
}

func writeFailure(w http.ResponseWriter, err error) {
	writeJSON(w, opResult{Success: false, Error: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, fmt.Sprintf("bad request: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

type createSpheroidRequest struct {
	Count  int         `json:"count"`
	Source sim.Vector3 `json:"source"`
	Sigma  sim.Vector3 `json:"sigma"`
	Bounds sim.Bounds  `json:"bounds"`
}

func (s *Server) handleCreateSpheroid(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req createSpheroidRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.ctrl.CreateSpheroid(sim.SpheroidParams{
		Count:  req.Count,
		Source: req.Source,
		Sigma:  req.Sigma,
		Bounds: req.Bounds,
	}); err != nil {
		writeFailure(w, err)
		return
	}
	writeOK(w)
}

type createTurbulentRequest struct {
	Count      int         `json:"count"`
	MaxPerTick int         `json:"maxPerTick"`
	Source     sim.Vector3 `json:"source"`
	Sigma      float64     `json:"sigma"`
	Bounds     sim.Bounds  `json:"bounds"`
}

func (s *Server) handleCreateTurbulent(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req createTurbulentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.ctrl.CreateTurbulent(sim.TurbulentParams{
		Count:      req.Count,
		MaxPerTick: req.MaxPerTick,
		Source:     req.Source,
		Sigma:      req.Sigma,
		Bounds:     req.Bounds,
	}); err != nil {
		writeFailure(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodDelete) {
		return
	}
	s.ctrl.Delete()
	writeOK(w)
}

type configResponse struct {
	Success bool       `json:"success"`
	Config  sim.Config `json:"config"`
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, configResponse{Success: true, Config: s.ctrl.ConfigSnapshot()})
}

type countResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, countResponse{Success: true, Count: s.ctrl.Count()})
}

type sourceResponse struct {
	Success  bool        `json:"success"`
	Position sim.Vector3 `json:"position"`
}

func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, sourceResponse{Success: true, Position: s.ctrl.Source()})
	case http.MethodPost:
		var req sim.Vector3
		if !decodeBody(w, r, &req) {
			return
		}
		if err := s.ctrl.SetSource(req); err != nil {
			writeFailure(w, err)
			return
		}
		writeOK(w)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req sim.Bounds
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.ctrl.SetLimits(req); err != nil {
		writeFailure(w, err)
		return
	}
	writeOK(w)
}

type countsRequest struct {
	ParticleCount int `json:"particleCount"`
	MaxPerTick    int `json:"maxPerTick"`
}

func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req countsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.ctrl.SetCounts(req.ParticleCount, req.MaxPerTick); err != nil {
		writeFailure(w, err)
		return
	}
	writeOK(w)
}

type saveRequest struct {
	Dir  string `json:"dir"`
	Name string `json:"name"`
}

type saveResponse struct {
	Success bool   `json:"success"`
	Path    string `json:"path"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req saveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	path, err := s.ctrl.Persist(req.Dir, req.Name)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, saveResponse{Success: true, Path: path})
}

type loadRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req loadRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.ctrl.Load(req.Path); err != nil {
		writeFailure(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) handleWind(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req sim.Vector3
	if !decodeBody(w, r, &req) {
		return
	}
	s.ctrl.SetWind(req)
	writeOK(w)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	log.Printf("Observer connected: %s", r.RemoteAddr)
	c := s.broadcaster.AddClient(conn)

	go func() {
		defer func() {
			s.broadcaster.RemoveClient(c)
			log.Printf("Observer disconnected: %s", r.RemoteAddr)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) authorize(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}

	if r.URL.Query().Get("token") == s.authToken {
		return true
	}

	if r.Header.Get("X-Plume-Sim-Token") == s.authToken {
		return true
	}

	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.authToken {
		return true
	}

	return false
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := parsed.Host
	if host == "" {
		return false
	}

	if host == r.Host {
		return true
	}

	if strings.HasPrefix(host, "localhost:") || host == "localhost" {
		return true
	}
	if strings.HasPrefix(host, "127.0.0.1:") || host == "127.0.0.1" {
		return true
	}
	if strings.HasPrefix(host, "[::1]:") || host == "::1" {
		return true
	}

	return false
}

func ListenAndServe(host string, port int, mux *http.ServeMux) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	log.Printf("Server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
