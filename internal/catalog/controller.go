package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sebastiantruijens/tmdb-tui/internal/logging"
	"github.com/sebastiantruijens/tmdb-tui/internal/metrics"
)

// Mode says how a fetched page is merged into the dataset.
type Mode int

const (
	// Replace drops the current dataset in favour of the fetched page.
	Replace Mode = iota
	// Append adds the fetched records, skipping IDs already present.
	Append
)

func (m Mode) String() string {
	if m == Append {
		return "append"
	}
	return "replace"
}

// EmptyState distinguishes the reasons a display list can be empty.
type EmptyState int

const (
	EmptyNone EmptyState = iota
	// EmptyNoData means nothing has been fetched (yet).
	EmptyNoData
	// EmptyNoMatches means records exist but the query excludes all of them.
	EmptyNoMatches
)

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	Display      []Movie
	Total        int
	Page         int
	HasMore      bool
	LoadingFirst bool
	LoadingMore  bool
	Err          error
	Query        Query
	Empty        EmptyState
}

// Loading reports whether any fetch is in flight.
func (s Snapshot) Loading() bool { return s.LoadingFirst || s.LoadingMore }

// Fetch is a page request that has been admitted by the controller but not
// yet resolved. Run may be called from any goroutine; the Result must be
// handed back to Apply on the goroutine that owns the controller.
type Fetch struct {
	Page int
	Mode Mode

	id         string
	generation uint64
	source     Source
}

// ID is the request id used to correlate log lines for this fetch.
func (f *Fetch) ID() string { return f.id }

// Run performs the network call.
func (f *Fetch) Run(ctx context.Context) Result {
	ctx = logging.ContextWithID(ctx, f.id)
	done := logging.Track(ctx, fmt.Sprintf("fetch page %d (%s)", f.Page, f.Mode))
	defer done()

	page, err := f.source.Page(ctx, f.Page)
	return Result{Fetch: f, Page: page, Err: err}
}

// Result is a resolved Fetch.
type Result struct {
	Fetch *Fetch
	Page  Page
	Err   error
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the log entry used by the controller.
func WithLogger(entry *logrus.Entry) Option {
	return func(c *Controller) { c.log = entry }
}

// WithMetrics records page outcomes and dataset size.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// Controller owns the fetched dataset, the pagination cursor, loading and
// error status, and the query parameters. It is not safe for concurrent
// use: every method must be called from the single goroutine that handles
// events (the bubbletea Update loop). Only Fetch.Run leaves that goroutine.
type Controller struct {
	source  Source
	log     *logrus.Entry
	metrics *metrics.Metrics

	movies  []Movie
	ids     map[int]struct{}
	version uint64

	page         int
	hasMore      bool
	loadingFirst bool
	loadingMore  bool
	err          error

	// generation is bumped by Refresh; results of fetches begun under an
	// older generation are discarded.
	generation uint64

	query Query
	memo  displayMemo
}

type displayMemo struct {
	valid   bool
	version uint64
	query   Query
	display []Movie
}

// New returns a controller with an empty dataset and hasMore set.
func New(source Source, opts ...Option) *Controller {
	c := &Controller{
		source:  source,
		log:     logrus.NewEntry(logrus.StandardLogger()),
		ids:     make(map[int]struct{}),
		hasMore: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("component", "catalog")
	return c
}

// Start begins the first page load.
func (c *Controller) Start() (*Fetch, error) {
	return c.Begin(1, Replace)
}

// Begin admits a fetch of page in the given mode. It returns (nil, nil) when
// the request is a no-op: nothing more to load, or a fetch already in flight.
// A missing credential fails immediately with a *ConfigurationError and no
// network call is made.
func (c *Controller) Begin(page int, mode Mode) (*Fetch, error) {
	if !c.source.HasCredential() {
		c.err = &ConfigurationError{}
		return nil, c.err
	}
	if page < 1 {
		return nil, fmt.Errorf("catalog: invalid page number %d", page)
	}
	if !c.hasMore || c.loadingFirst || c.loadingMore {
		return nil, nil
	}

	if mode == Replace {
		c.loadingFirst = true
	} else {
		c.loadingMore = true
	}

	f := &Fetch{
		Page:       page,
		Mode:       mode,
		id:         uuid.NewString(),
		generation: c.generation,
		source:     c.source,
	}
	c.log.WithFields(logrus.Fields{
		"request_id": f.id,
		"page":       page,
		"mode":       mode.String(),
	}).Debug("fetch started")
	return f, nil
}

// LoadMore requests the page after the current one. Manual and proximity
// triggers both go through here so they share one guard.
func (c *Controller) LoadMore() (*Fetch, error) {
	return c.Begin(c.page+1, Append)
}

// Refresh empties the dataset, resets pagination and starts over at page 1.
// Any fetch still in flight is orphaned and its result discarded by Apply.
func (c *Controller) Refresh() (*Fetch, error) {
	c.generation++
	c.movies = nil
	c.ids = make(map[int]struct{})
	c.version++
	c.page = 0
	c.hasMore = true
	c.loadingFirst = false
	c.loadingMore = false
	if !IsTerminal(c.err) {
		c.err = nil
	}
	c.metrics.SetDatasetSize(0)
	return c.Begin(1, Replace)
}

// Apply merges a resolved fetch into the state.
func (c *Controller) Apply(r Result) Snapshot {
	f := r.Fetch
	if f == nil {
		return c.Snapshot()
	}
	entry := c.log.WithFields(logrus.Fields{
		"request_id": f.id,
		"page":       f.Page,
		"mode":       f.Mode.String(),
	})
	if f.generation != c.generation {
		entry.Debug("discarding result from before refresh")
		c.metrics.ObservePage(f.Mode.String(), "stale")
		return c.Snapshot()
	}

	if f.Mode == Replace {
		c.loadingFirst = false
	} else {
		c.loadingMore = false
	}

	if r.Err != nil {
		c.err = &FetchError{Page: f.Page, Err: r.Err}
		entry.WithError(r.Err).Warn("fetch failed")
		c.metrics.ObservePage(f.Mode.String(), "error")
		return c.Snapshot()
	}

	if f.Mode == Replace {
		c.movies = nil
		c.ids = make(map[int]struct{}, len(r.Page.Movies))
	}
	added := c.merge(r.Page.Movies)
	c.page = f.Page
	c.hasMore = f.Page < r.Page.TotalPages
	c.err = nil
	c.version++

	entry.WithFields(logrus.Fields{
		"added":       added,
		"total":       len(c.movies),
		"total_pages": r.Page.TotalPages,
		"has_more":    c.hasMore,
	}).Info("page applied")
	c.metrics.ObservePage(f.Mode.String(), "ok")
	c.metrics.SetDatasetSize(len(c.movies))
	return c.Snapshot()
}

func (c *Controller) merge(movies []Movie) int {
	added := 0
	for _, m := range movies {
		if _, ok := c.ids[m.ID]; ok {
			continue
		}
		c.ids[m.ID] = struct{}{}
		c.movies = append(c.movies, m)
		added++
	}
	return added
}

// FetchPage runs Begin, the request and Apply in one call. It blocks for the
// duration of the request.
func (c *Controller) FetchPage(ctx context.Context, page int, mode Mode) (Snapshot, error) {
	f, err := c.Begin(page, mode)
	if err != nil || f == nil {
		return c.Snapshot(), err
	}
	res := f.Run(ctx)
	snap := c.Apply(res)
	if res.Err != nil {
		return snap, snap.Err
	}
	return snap, nil
}

// ToggleRating selects a rating bucket, or clears it if it is already active.
func (c *Controller) ToggleRating(rating int) Snapshot {
	c.query = c.query.WithRating(rating)
	return c.Snapshot()
}

// SetSearch sets the title search term.
func (c *Controller) SetSearch(term string) Snapshot {
	c.query.Search = term
	return c.Snapshot()
}

// SetSort sets the sort key.
func (c *Controller) SetSort(key SortKey) Snapshot {
	c.query.Sort = key
	return c.Snapshot()
}

// CycleSort advances the sort key.
func (c *Controller) CycleSort() Snapshot {
	return c.SetSort(c.query.Sort.Next())
}

// SetDirection sets the sort direction.
func (c *Controller) SetDirection(d Direction) Snapshot {
	c.query.Direction = d
	return c.Snapshot()
}

// ToggleDirection flips the sort direction.
func (c *Controller) ToggleDirection() Snapshot {
	return c.SetDirection(c.query.Direction.Toggle())
}

// ClearFilters drops the rating bucket and search term. Sorting is kept.
func (c *Controller) ClearFilters() Snapshot {
	c.query.Rating = 0
	c.query.Search = ""
	return c.Snapshot()
}

// Query returns the current query parameters.
func (c *Controller) Query() Query { return c.query }

// Display returns the derived display list. The result is cached until the
// dataset or the query changes; callers must not modify it.
func (c *Controller) Display() []Movie {
	if c.memo.valid && c.memo.version == c.version && c.memo.query == c.query {
		return c.memo.display
	}
	c.memo = displayMemo{
		valid:   true,
		version: c.version,
		query:   c.query,
		display: Derive(c.movies, c.query),
	}
	return c.memo.display
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	display := c.Display()
	s := Snapshot{
		Display:      display,
		Total:        len(c.movies),
		Page:         c.page,
		HasMore:      c.hasMore,
		LoadingFirst: c.loadingFirst,
		LoadingMore:  c.loadingMore,
		Err:          c.err,
		Query:        c.query,
	}
	if len(display) == 0 {
		if len(c.movies) == 0 {
			s.Empty = EmptyNoData
		} else {
			s.Empty = EmptyNoMatches
		}
	}
	return s
}
