package httpapi

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"

	"tickerboard/internal/metrics"
	"tickerboard/internal/page"
	"tickerboard/internal/widget"
)

// maxBody bounds request bodies of the control endpoints.
const maxBody = 1 << 10

// Options names the render targets laid out on the host page.
type Options struct {
	Title  string
	Tracks []string
	Grid   string
}

// Server serves the widget HTTP API.
type Server struct {
	page    *page.Page
	hub     http.Handler
	ctl     Controller
	metrics *metrics.Metrics
	opts    Options
	log     *slog.Logger
}

// NewServer creates the widget HTTP server. hub serves the websocket feed.
func NewServer(p *page.Page, hub http.Handler, ctl Controller, m *metrics.Metrics, opts Options, log *slog.Logger) *Server {
	if opts.Title == "" {
		opts.Title = "tickerboard"
	}
	if hub == nil {
		hub = http.NotFoundHandler()
	}
	return &Server{
		page:    p,
		hub:     hub,
		ctl:     ctl,
		metrics: m,
		opts:    opts,
		log:     log.With("component", "httpapi"),
	}
}

// RegisterRoutes registers all routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/widget", s.handleWidget)
	mux.HandleFunc("POST /api/visibility", s.handleVisibility)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /ws", s.hub)
	mux.Handle("GET /metrics", s.metrics.Handler())
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

type indexData struct {
	Title  string
	Tracks []template.HTML
	Keys   []string
	Grid   string
	Body   template.HTML
	Scroll float64
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.page.Snapshot()

	// Fragments in the page were produced by html/template, so they are
	// embedded as-is.
	data := indexData{
		Title: s.opts.Title,
		Keys:  s.opts.Tracks,
		Grid:  s.opts.Grid,
		Body:  template.HTML(snap.Targets[s.opts.Grid].HTML),
	}
	for _, k := range s.opts.Tracks {
		t := snap.Targets[k]
		data.Tracks = append(data.Tracks, template.HTML(t.HTML))
		if t.ScrollSeconds > data.Scroll {
			data.Scroll = t.ScrollSeconds
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, data); err != nil {
		s.log.Error("rendering index", "error", err)
	}
}

func (s *Server) handleWidget(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, toWidgetJSON(s.page.Snapshot(), s.ctl))
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	var req VisibilityJSON
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Visible == nil {
		writeError(w, http.StatusBadRequest, "visible is required")
		return
	}
	s.ctl.SetVisible(*req.Visible)
	v := s.ctl.Visible()
	writeJSON(w, VisibilityJSON{Visible: &v})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.ctl.Refresh(r.Context(), widget.TriggerManual); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(RefreshJSON{OK: false, Cycles: s.ctl.Cycles(), Error: err.Error()})
		return
	}
	writeJSON(w, RefreshJSON{OK: true, Cycles: s.ctl.Cycles()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok", "state": s.ctl.State().String()})
}
