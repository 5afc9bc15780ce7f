package buckler

import (
	"errors"
	"net/http"

	"github.com/hazyhaar/sf6scout/buckler/internal/browser"
)

var (
	// ErrClientInput marks a missing or malformed request parameter.
	ErrClientInput = errors.New("buckler: invalid input")
	// ErrConfiguration marks a missing credential; no session is opened.
	ErrConfiguration = errors.New("buckler: credential not configured")
	// ErrNavigationTimeout marks a page load that outlived its bound.
	ErrNavigationTimeout = browser.ErrNavigationTimeout
	// ErrNoSearchInput marks a fighters page without a usable search box.
	ErrNoSearchInput = errors.New("buckler: search input not found")
	// ErrNoPlayers marks a search that matched nobody. The Scout itself
	// returns an empty list; transports decide whether that is an error.
	ErrNoPlayers = errors.New("buckler: no player found")
)

// StatusCode maps an operation error to an HTTP status.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrClientInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoSearchInput), errors.Is(err, ErrNoPlayers):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
