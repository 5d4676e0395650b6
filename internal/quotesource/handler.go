package quotesource

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"tickerboard/internal/domain"
)

// RegisterRoutes registers the backend contract on the given mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/quotes", s.handleQuotes)
	mux.HandleFunc("GET /api/intraday/{ticker}", s.handleIntraday)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Handler returns an http.Handler serving the backend contract.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func (s *Service) handleQuotes(w http.ResponseWriter, r *http.Request) {
	resp, err := s.Quotes(r.Context())
	if err != nil {
		s.log.Error("quotes", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleIntraday(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")
	series, err := s.Intraday(r.Context(), ticker)
	switch {
	case errors.Is(err, ErrNoData):
		writeJSON(w, http.StatusNotFound, domain.IntradaySeries{OK: false, Msg: "no data"})
	case err != nil:
		s.log.Warn("intraday", "ticker", ticker, "error", err)
		writeJSON(w, http.StatusInternalServerError, domain.IntradaySeries{OK: false, Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, series)
	}
}
