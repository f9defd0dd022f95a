package httpd

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wardenauth/warden"
)

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// fail maps engine errors onto the wire contract. Storage trouble is a
// 500; anything unrecognized is treated the same way rather than leaking
// internals.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, status int) {
	if errors.Is(err, warden.ErrStorage) || status == 0 {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		s.respond(w, http.StatusInternalServerError, map[string]string{"message": "internal error"})
		return
	}
	s.respond(w, status, nil)
}
