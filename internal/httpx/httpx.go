package httpx

import (
	"errors"
	"net/http"
	"time"
)

const (
	DefaultTimeout  = 10 * time.Second
	DefaultRetryMax = 2
	DefaultAgent    = "tmdb-tui/1.0 (+https://github.com/sebastiantruijens/tmdb-tui)"
)

// Transport sets a fixed User-Agent and retries failed round trips a bounded
// number of times. Only replayable requests (GET/HEAD without a body) are
// retried; HTTP error statuses are responses, not failures, and are returned
// as-is.
type Transport struct {
	Base http.RoundTripper

	// RetryMax is the number of retries after the first attempt.
	RetryMax int

	UserAgent string
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	max := t.RetryMax
	if max < 0 || !canRetry {
		max = 0
	}

	var lastErr error
	for attempt := 0; attempt <= max; attempt++ {
		r := req.Clone(req.Context())
		if r.Header.Get("User-Agent") == "" && t.UserAgent != "" {
			r.Header.Set("User-Agent", t.UserAgent)
		}

		resp, err := base.RoundTrip(r)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if req.Context().Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// NewClient returns a client with a total timeout and the retrying
// Transport. Zero values fall back to the package defaults; a negative
// retryMax disables retries.
func NewClient(timeout time.Duration, retryMax int, userAgent string) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultAgent
	}
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		MaxIdleConnsPerHost:   4,
	}
	return &http.Client{
		Transport: &Transport{
			Base:      base,
			RetryMax:  retryMax,
			UserAgent: userAgent,
		},
		Timeout: timeout,
	}
}
