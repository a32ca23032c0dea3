package server

import (
	"errors"
	"net/http"

	"github.com/ByLCY/textstamp/layout"
	"github.com/ByLCY/textstamp/renderer"
)

// requestError 标记由请求参数引起的错误。
type requestError struct{ err error }

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error { return &requestError{err: err} }

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var (
		re *requestError
		fe *layout.FontError
		ue *renderer.UnsupportedFormatError
	)
	switch {
	case errors.As(err, &re), errors.As(err, &ue):
		return http.StatusBadRequest
	case errors.As(err, &fe):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "id", requestIDFrom(r.Context()), "err", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, map[string]string{
		"error":      err.Error(),
		"request_id": requestIDFrom(r.Context()),
	})
}
