package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pbaille/gemrank/internal/domain"
	"github.com/pbaille/gemrank/internal/ranker"
	"github.com/pbaille/gemrank/internal/store"
	"go.uber.org/zap"
)

const (
	maxRankBody     = 1 << 20
	shutdownTimeout = 5 * time.Second
)

// Server handles HTTP requests for stored runs and offline ranking
type Server struct {
	store *store.Store
	addr  string
	log   *zap.Logger
}

// New creates a new API server
func New(s *store.Store, addr string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{store: s, addr: addr, log: log}
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(withCORS)

	r.Get("/health", s.health)

	// Runs
	r.Get("/runs", s.listRuns)
	r.Get("/runs/{id}", s.getRun)
	r.Get("/values/recurring", s.recurringValues)

	// Ranking without persistence
	r.Post("/rank", s.rank)

	return r
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting server", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// withCORS adds CORS headers for frontend development
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20, 1)
	offset := queryInt(r, "offset", 0, 0)

	runs, err := s.store.ListRuns(limit, offset)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if runs == nil {
		runs = []domain.Run{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":   runs,
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) recurringValues(w http.ResponseWriter, r *http.Request) {
	values, err := s.store.RecurringValues(queryInt(r, "limit", 20, 1))
	if err != nil {
		s.internalError(w, err)
		return
	}
	if values == nil {
		values = []domain.RankedEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"values": values})
}

// RankRequest is the request body for ranking observations
type RankRequest struct {
	PhraseResults [][]string        `json:"phrase_results"`
	DateStats     []domain.DateStat `json:"date_stats"`
	MinimumCount  *int              `json:"minimum_count,omitempty"`
	Ranked        *bool             `json:"ranked,omitempty"`
	TierThreshold *int              `json:"tier_threshold,omitempty"`
}

// RankResponse is the response for ranking observations
type RankResponse struct {
	Ranked      []domain.RankedEntry `json:"ranked"`
	Significant []domain.RankedEntry `json:"significant"`
	Notable     []domain.RankedEntry `json:"notable"`
	Total       int                  `json:"total"`
	Summary     domain.Summary       `json:"summary"`
}

func (s *Server) rank(w http.ResponseWriter, r *http.Request) {
	var req RankRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRankBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	minimum := ranker.DefaultMinimumCount
	if req.MinimumCount != nil {
		minimum = *req.MinimumCount
	}
	sorted := true
	if req.Ranked != nil {
		sorted = *req.Ranked
	}
	threshold := ranker.DefaultTierThreshold
	if req.TierThreshold != nil {
		threshold = *req.TierThreshold
	}

	rk := ranker.New(req.PhraseResults, req.DateStats)
	entries := rk.Rank(minimum, sorted)
	tiers := ranker.Classify(entries, threshold, ranker.DefaultMinimumCount)

	writeJSON(w, http.StatusOK, RankResponse{
		Ranked:      nonNil(entries),
		Significant: nonNil(tiers.Significant),
		Notable:     nonNil(tiers.Notable),
		Total:       rk.Total(),
		Summary:     ranker.Summarize(entries),
	})
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error("Request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}

func queryInt(r *http.Request, key string, def, min int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= min {
			return n
		}
	}
	return def
}

func nonNil(e []domain.RankedEntry) []domain.RankedEntry {
	if e == nil {
		return []domain.RankedEntry{}
	}
	return e
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
