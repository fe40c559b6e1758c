package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebastiantruijens/tmdb-tui/internal/catalog"
	"github.com/sebastiantruijens/tmdb-tui/internal/tmdb"
)

// moviesPerPage is larger than the number of cards that fit in the default
// 80x24 window, so a fresh page never trips the proximity trigger on its own.
const moviesPerPage = 5

type stubSource struct {
	noCredential bool
	totalPages   int
	empty        bool
	errs         map[int]error
	calls        []int
}

func (s *stubSource) HasCredential() bool { return !s.noCredential }

func (s *stubSource) Page(_ context.Context, number int) (catalog.Page, error) {
	s.calls = append(s.calls, number)
	if err := s.errs[number]; err != nil {
		return catalog.Page{}, err
	}
	page := catalog.Page{Number: number, TotalPages: s.totalPages}
	if s.empty {
		return page, nil
	}
	for i := 1; i <= moviesPerPage; i++ {
		id := moviesPerPage*(number-1) + i
		page.Movies = append(page.Movies, catalog.Movie{
			ID:          id,
			Title:       fmt.Sprintf("Movie %d", id),
			ReleaseDate: fmt.Sprintf("20%02d-01-01", id),
			Score:       float64(id%10) + 0.5,
			Overview:    fmt.Sprintf("Overview of movie %d.", id),
		})
	}
	return page, nil
}

type stubDetails struct {
	details tmdb.Details
	err     error
}

func (s stubDetails) Details(_ context.Context, id int) (tmdb.Details, error) {
	return s.details, s.err
}

func (s stubDetails) WebURL(id int) string {
	return fmt.Sprintf("https://www.themoviedb.org/movie/%d", id)
}

func newTestModel(src *stubSource, details DetailSource) (Model, *catalog.Controller) {
	c := catalog.New(src)
	m := NewModel(context.Background(), Options{
		Catalog: c,
		Details: details,
		Ratings: []int{8, 7, 6},
		Margin:  0,
	})
	return m, c
}

// runCmd executes cmd and flattens batches. Commands that wait on a timer
// (spinner ticks, cursor blink, notice fade) are abandoned after a short
// grace period.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, runCmd(c)...)
			}
			return out
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// drain feeds page and detail results back into the model until no more
// arrive. It reports whether a quit was requested.
func drain(t *testing.T, m Model, cmd tea.Cmd) (Model, bool) {
	t.Helper()
	queue := runCmd(cmd)
	quit := false
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 100, "model kept producing messages")
		msg := queue[0]
		queue = queue[1:]
		switch msg.(type) {
		case tea.QuitMsg:
			quit = true
		case pageMsg, detailsMsg, openBrowserMsg:
			next, c := m.Update(msg)
			m = next.(Model)
			queue = append(queue, runCmd(c)...)
		}
	}
	return m, quit
}

func start(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = drain(t, m, m.Init())
	return m
}

func press(t *testing.T, m Model, keys ...string) (Model, bool) {
	t.Helper()
	quit := false
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "end":
			msg = tea.KeyMsg{Type: tea.KeyEnd}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, cmd := m.Update(msg)
		var q bool
		m, q = drain(t, next.(Model), cmd)
		quit = quit || q
	}
	return m, quit
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m, _ = press(t, m, string(r))
	}
	return m
}

func TestModel_InitLoadsFirstPage(t *testing.T) {
	src := &stubSource{totalPages: 3}
	m, c := newTestModel(src, nil)

	m = start(t, m)

	assert.Equal(t, []int{1}, src.calls)
	snap := c.Snapshot()
	assert.Equal(t, 1, snap.Page)
	assert.Len(t, snap.Display, moviesPerPage)
	assert.False(t, snap.Loading())

	view := m.View()
	assert.Contains(t, view, "Movie 1")
	assert.Contains(t, view, "5 of 5 shown · page 1")
}

func TestModel_EndKeyLoadsNextPage(t *testing.T) {
	src := &stubSource{totalPages: 2}
	m, c := newTestModel(src, nil)
	m = start(t, m)

	m, _ = press(t, m, "end")

	assert.Equal(t, []int{1, 2}, src.calls)
	snap := c.Snapshot()
	assert.Equal(t, 2, snap.Page)
	assert.Len(t, snap.Display, 2*moviesPerPage)
	assert.False(t, snap.HasMore)

	// Nothing left: the trigger stays quiet.
	m, _ = press(t, m, "end")
	assert.Equal(t, []int{1, 2}, src.calls)
	assert.Contains(t, m.View(), "end of list")
}

func TestModel_ManualLoadMore(t *testing.T) {
	src := &stubSource{totalPages: 3}
	m, c := newTestModel(src, nil)
	m = start(t, m)

	m, _ = press(t, m, "m")

	assert.Equal(t, []int{1, 2}, src.calls)
	assert.Equal(t, 2, c.Snapshot().Page)
	assert.Equal(t, 0, m.cursor, "loading more keeps the cursor")
}

func TestModel_RatingFilter(t *testing.T) {
	src := &stubSource{totalPages: 1}
	m, c := newTestModel(src, nil)
	m = start(t, m)

	m, _ = press(t, m, "4")
	assert.Equal(t, 0, c.Query().Rating, "4 is not an offered bucket")

	m, _ = press(t, m, "8")
	assert.Equal(t, 8, c.Query().Rating)
	// Scores are id%10 + 0.5, so nothing on page 1 lands in [8, 9).
	assert.Empty(t, c.Display())
	assert.Contains(t, m.View(), "No movies match the current filters")

	m, _ = press(t, m, "8")
	assert.Equal(t, 0, c.Query().Rating)
	assert.Len(t, c.Display(), moviesPerPage)

	_, _ = press(t, m, "3")
	assert.Equal(t, 0, c.Query().Rating)
}

func TestModel_RatingFilterMatches(t *testing.T) {
	src := &stubSource{totalPages: 1}
	m, c := newTestModel(src, nil)
	m.ratings = []int{3}
	m = start(t, m)

	_, _ = press(t, m, "3")

	require.Len(t, c.Display(), 1)
	assert.Equal(t, 3, c.Display()[0].ID)
}

func TestModel_Search(t *testing.T) {
	src := &stubSource{totalPages: 1}
	m, c := newTestModel(src, nil)
	m = start(t, m)

	m, _ = press(t, m, "/")
	require.Equal(t, focusSearch, m.focus)

	m = typeText(t, m, "movie 4")
	assert.Equal(t, "movie 4", c.Query().Search)
	require.Len(t, c.Display(), 1)
	assert.Equal(t, 4, c.Display()[0].ID)

	m, _ = press(t, m, "esc")
	assert.Equal(t, focusList, m.focus)
	assert.Equal(t, "movie 4", c.Query().Search, "leaving the box keeps the term")
	assert.Contains(t, m.View(), "Search: movie 4")

	// Keys typed in the search box are not list commands.
	m, _ = press(t, m, "/")
	m = typeText(t, m, "q")
	assert.Equal(t, "movie 4q", c.Query().Search)
	assert.Empty(t, c.Display())

	m, _ = press(t, m, "esc", "c")
	assert.Empty(t, c.Query().Search)
	assert.Len(t, c.Display(), moviesPerPage)
	assert.Empty(t, m.search.Value())
}

func TestModel_SortKeys(t *testing.T) {
	src := &stubSource{totalPages: 1}
	m, c := newTestModel(src, nil)
	m = start(t, m)

	m, _ = press(t, m, "s")
	assert.Equal(t, catalog.SortReleaseDate, c.Query().Sort)
	m, _ = press(t, m, "s")
	assert.Equal(t, catalog.SortScore, c.Query().Sort)

	m, _ = press(t, m, "d")
	assert.Equal(t, catalog.Descending, c.Query().Direction)
	assert.Equal(t, []int{5, 4, 3, 2, 1}, ids(c.Display()))
	assert.Contains(t, m.View(), "Rating ↓ descending")
}

func TestModel_EmptyDataset(t *testing.T) {
	src := &stubSource{totalPages: 1, empty: true}
	m, c := newTestModel(src, nil)
	m = start(t, m)

	assert.Equal(t, catalog.EmptyNoData, c.Snapshot().Empty)
	assert.Contains(t, m.View(), "No movies to display")
}

func TestModel_MissingKeyShowsConfigurationError(t *testing.T) {
	src := &stubSource{noCredential: true, totalPages: 1}
	m, _ := newTestModel(src, nil)
	m = start(t, m)

	assert.Empty(t, src.calls)
	view := m.View()
	assert.Contains(t, view, "Configuration error")
	assert.Contains(t, view, "TMDB_API_KEY")

	// Refresh cannot clear a configuration error.
	m, _ = press(t, m, "r")
	assert.Empty(t, src.calls)
	assert.Contains(t, m.View(), "Configuration error")
}

func TestModel_FetchErrorThenRetry(t *testing.T) {
	src := &stubSource{totalPages: 3, errs: map[int]error{2: errors.New("boom")}}
	m, c := newTestModel(src, nil)
	m = start(t, m)

	m, _ = press(t, m, "end")
	snap := c.Snapshot()
	require.Error(t, snap.Err)
	assert.Len(t, snap.Display, moviesPerPage, "loaded movies survive a failed page")
	assert.Contains(t, m.View(), "could not load page 2")

	// Scrolling does not retry on its own.
	m, _ = press(t, m, "end")
	assert.Equal(t, []int{1, 2}, src.calls)

	delete(src.errs, 2)
	m, _ = press(t, m, "m")
	assert.Equal(t, []int{1, 2, 2}, src.calls)
	assert.NoError(t, c.Snapshot().Err)
	assert.NotContains(t, m.View(), "could not load page")
}

func TestModel_Refresh(t *testing.T) {
	src := &stubSource{totalPages: 3}
	m, c := newTestModel(src, nil)
	m = start(t, m)
	m, _ = press(t, m, "m", "down", "down")
	require.Equal(t, 2, c.Snapshot().Page)

	m, _ = press(t, m, "r")

	assert.Equal(t, []int{1, 2, 1}, src.calls)
	snap := c.Snapshot()
	assert.Equal(t, 1, snap.Page)
	assert.Len(t, snap.Display, moviesPerPage)
	assert.Equal(t, 0, m.cursor)
}

func TestModel_RefreshDropsInFlightPage(t *testing.T) {
	src := &stubSource{totalPages: 3}
	m, c := newTestModel(src, nil)
	m = start(t, m)

	// Start a load-more but hold its result back.
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	m = next.(Model)
	var stale []tea.Msg
	for _, msg := range runCmd(cmd) {
		if _, ok := msg.(pageMsg); ok {
			stale = append(stale, msg)
		}
	}
	require.Len(t, stale, 1)

	m, _ = press(t, m, "r")
	require.Equal(t, 1, c.Snapshot().Page)

	next, _ = m.Update(stale[0])
	m = next.(Model)
	assert.Equal(t, 1, c.Snapshot().Page, "page 2 from before the refresh is dropped")
	assert.Len(t, c.Display(), moviesPerPage)
}

func TestModel_Details(t *testing.T) {
	src := &stubSource{totalPages: 1}
	details := stubDetails{details: tmdb.Details{
		Tagline: "A tagline worth reading.",
		Genres:  []string{"Drama", "Action"},
		Runtime: "2h 35m",
	}}
	m, _ := newTestModel(src, details)
	m = start(t, m)

	m, _ = press(t, m, "down", "enter")

	require.Equal(t, focusDetail, m.focus)
	require.NotNil(t, m.detailMovie)
	assert.Equal(t, 2, m.detailMovie.ID)
	assert.False(t, m.detailLoading)
	view := m.View()
	assert.Contains(t, view, "Movie 2 (2002)")
	assert.Contains(t, view, "A tagline worth reading.")
	assert.Contains(t, view, "Drama, Action")
	assert.Contains(t, view, "https://www.themoviedb.org/movie/2")

	m, _ = press(t, m, "esc")
	assert.Equal(t, focusList, m.focus)
	assert.Nil(t, m.detailMovie)
}

func TestModel_DetailsError(t *testing.T) {
	src := &stubSource{totalPages: 1}
	m, _ := newTestModel(src, stubDetails{err: errors.New("status 404")})
	m = start(t, m)

	m, _ = press(t, m, "enter")

	assert.Contains(t, m.View(), "Could not load details: status 404")
	assert.Contains(t, m.View(), "Overview of movie 1.")
}

func TestModel_OpenInBrowser(t *testing.T) {
	var opened []string
	orig := openURL
	openURL = func(url string) error {
		opened = append(opened, url)
		return nil
	}
	t.Cleanup(func() { openURL = orig })

	src := &stubSource{totalPages: 1}
	m, _ := newTestModel(src, stubDetails{})
	m = start(t, m)

	_, _ = press(t, m, "down", "down", "o")

	assert.Equal(t, []string{"https://www.themoviedb.org/movie/3"}, opened)
}

func TestModel_Quit(t *testing.T) {
	src := &stubSource{totalPages: 1}
	m, _ := newTestModel(src, nil)
	m = start(t, m)

	_, quit := press(t, m, "q")
	assert.True(t, quit)
}

func TestModel_WindowResizeFillsScreen(t *testing.T) {
	src := &stubSource{totalPages: 4}
	m, c := newTestModel(src, nil)
	m = start(t, m)
	require.Equal(t, 1, c.Snapshot().Page)

	// Room for 13 cards: pages load until the window is covered.
	next, cmd := m.Update(tea.WindowSizeMsg{Width: 100, Height: 60})
	m, _ = drain(t, next.(Model), cmd)

	assert.Equal(t, 3, c.Snapshot().Page)
	assert.Equal(t, []int{1, 2, 3}, src.calls)
	assert.Equal(t, 12, m.lastVisible())
}

func TestWrapText(t *testing.T) {
	got := wrapText("the quick brown fox jumps over the lazy dog", 10)
	for _, line := range strings.Split(got, "\n") {
		assert.LessOrEqual(t, len(line), 10)
	}
	assert.Equal(t, "the quick brown fox jumps over the lazy dog", strings.Join(strings.Fields(got), " "))
	assert.Equal(t, "abc", wrapText("abc", 0))
}

func TestTeaser(t *testing.T) {
	assert.Equal(t, "short", teaser("short", 10))
	assert.Equal(t, "abcde...", teaser("abcdefghij", 5))
}

func TestListTitle(t *testing.T) {
	assert.Equal(t, "Top Rated", listTitle("top_rated"))
	assert.Equal(t, "Popular", listTitle("popular"))
}

func ids(movies []catalog.Movie) []int {
	out := make([]int, len(movies))
	for i, m := range movies {
		out[i] = m.ID
	}
	return out
}
