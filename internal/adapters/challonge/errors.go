package challonge

import (
	"fmt"
	"net/http"
	"time"
)

var ErrNotFound = fmt.Errorf("not found")

type APIError struct {
	Status     int
	Body       string
	RetryAfter time.Duration // sólo en 429
}

func (e *APIError) Error() string {
	if e.Status == http.StatusTooManyRequests {
		return fmt.Sprintf("challonge api rate limited (retry after %s): %s", e.RetryAfter, e.Body)
	}
	return fmt.Sprintf("challonge api status %d: %s", e.Status, e.Body)
}

func (e *APIError) RateLimited() bool { return e.Status == http.StatusTooManyRequests }
