package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

// writeError writes the JSON error envelope.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	payload := map[string]any{
		"error":   code,
		"message": sanitize(message, 512),
		"status":  status,
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		payload["request_id"] = id
	}
	writeJSON(w, status, payload)
}

// decodeBody decodes a bounded JSON body into v, rejecting unknown fields.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return eris.Wrap(err, "api: decode body")
	}
	return nil
}

// staffView reports whether the caller asked for staff-only fields.
func staffView(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("view"), "staff")
}

func sanitize(value string, limit int) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.TrimSpace(value)
	if len(value) > limit {
		value = value[:limit]
	}
	return value
}
