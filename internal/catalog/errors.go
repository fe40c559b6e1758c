package catalog

import (
	"errors"
	"fmt"
)

// ConfigurationError means the source cannot be used in this session. It is
// terminal: no retry is offered.
type ConfigurationError struct {
	Field string
}

func (e *ConfigurationError) Error() string {
	field := e.Field
	if field == "" {
		field = "api_key"
	}
	return fmt.Sprintf("TMDB API key is not configured (set %s in the config file, TMDB_API_KEY or --api-key)", field)
}

// FetchError wraps a failed page request. The dataset is left untouched and
// the user may retry with refresh or load more.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("could not load page %d", e.Page)
	}
	return fmt.Sprintf("could not load page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsTerminal reports whether err ends the session's ability to fetch.
func IsTerminal(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
