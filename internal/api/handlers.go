package api

import (
	"io"
	"net/http"

	"github.com/runnerr0/dnslens/internal/engine"
	"github.com/runnerr0/dnslens/internal/errors"
)

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := engine.NormalizeListParams(engine.ListParams{
		Domain:     q.Get("domain"),
		Prediction: q.Get("prediction"),
		Page:       q.Get("page"),
		Limit:      q.Get("limit"),
		Sort:       q.Get("sort"),
		Direction:  q.Get("direction"),
	})

	res, err := s.engine.List(r.Context(), req)
	if err != nil {
		s.respondWithEngineError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.metrics.RejectedBatches.Inc()
			respondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		respondWithError(w, http.StatusBadRequest, "Could not read request body")
		return
	}

	n, err := s.engine.Ingest(r.Context(), body)
	if err != nil {
		if errors.IsValidation(err) {
			s.metrics.RejectedBatches.Inc()
		}
		s.respondWithEngineError(w, r, err)
		return
	}

	s.metrics.IngestedRecords.Add(float64(n))
	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Summarize(r.Context())
	if err != nil {
		s.respondWithEngineError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", "error", err)
		respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
