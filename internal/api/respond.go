package api

import (
	"encoding/json"
	"net/http"

	"github.com/runnerr0/dnslens/internal/errors"
)

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithEngineError maps a classified engine error to a status code.
// Only validation failures expose their message, plus the offending record's
// index when one element of an upload sank the batch.
func (s *Server) respondWithEngineError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.IsValidation(err) {
		body := map[string]any{"error": validationMessage(err)}
		if i, ok := errors.RecordIndex(err); ok {
			body["index"] = i
		}
		respondWithJSON(w, http.StatusBadRequest, body)
		return
	}

	s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "kind", errors.GetKind(err).String(), "error", err)
	respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
}

// validationMessage returns the outermost message, which for a batch that is
// not an array is the bare "Expected an array of log objects.".
func validationMessage(err error) string {
	var e *errors.Error
	if errors.As(err, &e) && e.Err == nil {
		return e.Message
	}
	return err.Error()
}
