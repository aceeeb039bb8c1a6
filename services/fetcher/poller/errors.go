package poller

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoData signals a successful call that returned no feed entries
var ErrNoData = errors.New("no data in this period")

var errInvalidNumWorkers = errors.New("invalid number of workers")
var errInvalidMaxAttempts = errors.New("invalid retry max attempts")
var errEmptyBaseURL = errors.New("empty base URL")

type errStatusNotOK int

func (e errStatusNotOK) Error() string {
	return fmt.Sprintf("non-2xx HTTP status code: %d %s", int(e), http.StatusText(int(e)))
}

type errMalformedPayload string

func (e errMalformedPayload) Error() string {
	return "malformed feed payload: " + string(e)
}
