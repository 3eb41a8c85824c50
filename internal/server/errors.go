package server

import (
	"errors"
	"net/http"

	searchindex "github.com/kamusis/docidx/internal/search/index"
)

var (
	// ErrInvalidInput marks a request the client must fix.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoIndex is returned while no index has been loaded.
	ErrNoIndex = errors.New("no index loaded")
)

// HTTPStatusCode maps an error to the status code reported to clients.
func HTTPStatusCode(err error) int {
	switch {
	case errors.Is(err, searchindex.ErrOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoIndex):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
