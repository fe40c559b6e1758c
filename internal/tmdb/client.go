// Package tmdb is a client for The Movie Database: the v3 JSON API for movie
// lists, and the public website for the extra facts shown in the detail pane.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/sebastiantruijens/tmdb-tui/internal/catalog"
	"github.com/sebastiantruijens/tmdb-tui/internal/httpx"
	"github.com/sebastiantruijens/tmdb-tui/internal/logging"
	"github.com/sebastiantruijens/tmdb-tui/internal/metrics"
)

const (
	DefaultBaseURL = "https://api.themoviedb.org/3"
	DefaultWebURL  = "https://www.themoviedb.org"
	ImageBaseURL   = "https://image.tmdb.org/t/p/w500"
	DefaultList    = "popular"
)

// Lists are the movie lists the API can page through.
var Lists = []string{"popular", "top_rated", "now_playing", "upcoming"}

// ErrMissingAPIKey is returned before any request is made when no key is set.
var ErrMissingAPIKey = errors.New("tmdb: api key is not configured")

// HTTPStatusError means TMDB answered with a non-2xx status.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Options configures a Client. Empty fields take the package defaults.
type Options struct {
	APIKey  string
	BaseURL string
	WebURL  string
	List    string

	HTTPClient *http.Client

	// RateLimit is the maximum number of requests per second; 0 disables
	// pacing.
	RateLimit float64

	Metrics *metrics.Metrics
}

// Client talks to TMDB. It is safe for concurrent use.
type Client struct {
	apiKey  string
	baseURL string
	webURL  string
	list    string

	client  *http.Client
	limiter *rate.Limiter
	metrics *metrics.Metrics
}

var _ catalog.Source = (*Client)(nil)

// New creates a client.
func New(opts Options) *Client {
	c := &Client{
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		webURL:  strings.TrimRight(opts.WebURL, "/"),
		list:    opts.List,
		client:  opts.HTTPClient,
		metrics: opts.Metrics,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.webURL == "" {
		c.webURL = DefaultWebURL
	}
	if c.list == "" {
		c.list = DefaultList
	}
	if c.client == nil {
		c.client = httpx.NewClient(httpx.DefaultTimeout, httpx.DefaultRetryMax, "")
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return c
}

// ValidList reports whether name is one of Lists.
func ValidList(name string) bool {
	return slices.Contains(Lists, name)
}

// HasCredential reports whether an API key is configured.
func (c *Client) HasCredential() bool {
	return c.apiKey != ""
}

type listResponse struct {
	Page         int           `json:"page"`
	Results      []movieResult `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

type movieResult struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	OriginalTitle string   `json:"original_title"`
	PosterPath    string   `json:"poster_path"`
	ReleaseDate   string   `json:"release_date"`
	VoteAverage   *float64 `json:"vote_average"`
	Overview      string   `json:"overview"`
}

type errorResponse struct {
	StatusMessage string `json:"status_message"`
}

// Page fetches one page of the configured list.
func (c *Client) Page(ctx context.Context, number int) (catalog.Page, error) {
	if !c.HasCredential() {
		return catalog.Page{}, ErrMissingAPIKey
	}
	if number < 1 {
		return catalog.Page{}, fmt.Errorf("tmdb: invalid page number %d", number)
	}

	endpoint := "movie/" + c.list
	u, err := url.Parse(c.baseURL + "/" + endpoint)
	if err != nil {
		return catalog.Page{}, err
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(number))
	u.RawQuery = q.Encode()
	redacted := u.String()
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	resp, err := c.get(ctx, endpoint, u.String(), redacted, "application/json")
	if err != nil {
		return catalog.Page{}, err
	}
	defer resp.Body.Close()

	var body listResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return catalog.Page{}, fmt.Errorf("decode %s: %w", endpoint, err)
	}

	page := catalog.Page{
		Number:     number,
		TotalPages: body.TotalPages,
		Movies:     make([]catalog.Movie, 0, len(body.Results)),
	}
	for _, r := range body.Results {
		page.Movies = append(page.Movies, r.normalize())
	}
	logging.For(ctx).WithFields(logrus.Fields{
		"endpoint":    endpoint,
		"page":        number,
		"results":     len(body.Results),
		"total_pages": body.TotalPages,
	}).Debug("tmdb page received")
	return page, nil
}

func (r movieResult) normalize() catalog.Movie {
	title := r.Title
	if strings.TrimSpace(title) == "" {
		title = r.OriginalTitle
	}
	score := 0.0
	if r.VoteAverage != nil {
		score = *r.VoteAverage
	}
	return catalog.Movie{
		ID:          r.ID,
		Title:       cleanText(title),
		PosterPath:  strings.TrimSpace(r.PosterPath),
		ReleaseDate: strings.TrimSpace(r.ReleaseDate),
		Score:       score,
		Overview:    cleanText(r.Overview),
	}
}

// get performs a paced GET. A non-2xx response is closed and returned as a
// *HTTPStatusError. redacted is the URL safe to put in errors and logs.
func (c *Client) get(ctx context.Context, endpoint, rawURL, redacted, accept string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(endpoint, 0, time.Since(start))
		var uerr *url.Error
		if errors.As(err, &uerr) {
			// url.Error repeats the full URL, api key included.
			return nil, fmt.Errorf("GET %s: %w", redacted, uerr.Err)
		}
		return nil, err
	}
	c.metrics.ObserveRequest(endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		statusErr := &HTTPStatusError{URL: redacted, StatusCode: resp.StatusCode}
		var body errorResponse
		if json.NewDecoder(resp.Body).Decode(&body) == nil {
			statusErr.Message = body.StatusMessage
		}
		logging.For(ctx).WithField("url", redacted).WithError(statusErr).Warn("tmdb request failed")
		return nil, statusErr
	}
	return resp, nil
}

// PosterURL returns the image URL for a poster path, or "" if there is none.
func PosterURL(path string) string {
	if path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return ImageBaseURL + path
}

// WebURL returns the public TMDB page of a movie.
func (c *Client) WebURL(id int) string {
	return fmt.Sprintf("%s/movie/%d", c.webURL, id)
}
