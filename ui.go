package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sebastiantruijens/tmdb-tui/internal/catalog"
	"github.com/sebastiantruijens/tmdb-tui/internal/tmdb"
)

// Styling constants
var (
	// Colors
	primaryColor   = lipgloss.Color("#01B4E4") // TMDB light blue
	secondaryColor = lipgloss.Color("#F5F5F1") // Light cream color
	accentColor    = lipgloss.Color("#564D4D") // Dark gray
	scoreColor     = lipgloss.Color("#90CEA1") // TMDB green

	// Text styles
	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true)

	normalTextStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	mutedTextStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	scoreStyle = lipgloss.NewStyle().
			Foreground(scoreColor).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	// Card styles
	cardTitleStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true)

	cardSelectedTitleStyle = lipgloss.NewStyle().
				Foreground(primaryColor).
				Bold(true)

	cardMetaStyle = lipgloss.NewStyle().
			Foreground(scoreColor)

	// Filter control
	buttonStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Padding(0, 1)

	activeButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#0D253F")).
				Background(primaryColor).
				Bold(true).
				Padding(0, 1)

	searchStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), false, false, false, true).
			BorderForeground(primaryColor).
			PaddingLeft(1)
)

// chromeHeight is the number of lines around the list: header (title,
// blank, filter/sort, search, blank) and footer (blank, status, help).
const chromeHeight = 8

// noticeFadeDelay is how long a one-off notice stays in the status line.
const noticeFadeDelay = 3 * time.Second

// Focus regions
const (
	focusList = iota
	focusSearch
	focusDetail
)

// DetailSource loads the extra facts for the detail pane.
type DetailSource interface {
	Details(ctx context.Context, id int) (tmdb.Details, error)
	WebURL(id int) string
}

// Options wires a Model to its collaborators.
type Options struct {
	Catalog   *catalog.Controller
	Details   DetailSource
	Ratings   []int
	Margin    int
	ListTitle string
}

// Model represents the application state. All catalogue state lives in the
// controller; the model only keeps what the screen needs (cursor, focus,
// widget state).
type Model struct {
	ctx       context.Context
	catalog   *catalog.Controller
	details   DetailSource
	trigger   catalog.Trigger
	ratings   []int
	listTitle string

	keys     keyMap
	help     help.Model
	search   textinput.Model
	spinner  spinner.Model
	viewport viewport.Model

	focus  int
	cursor int
	offset int

	detailMovie   *catalog.Movie
	detail        *tmdb.Details
	detailErr     error
	detailLoading bool

	notice string
	width  int
	height int
}

// NewModel creates a new application model
func NewModel(ctx context.Context, opts Options) Model {
	// Set up text input for search
	ti := textinput.New()
	ti.Placeholder = "Filter by title..."
	ti.Prompt = "/ "
	ti.CharLimit = 100
	ti.Width = 40

	// Set up spinner for loading states
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	// Set up viewport for scrollable content
	vp := viewport.New(80, 16)
	vp.Style = lipgloss.NewStyle().BorderForeground(accentColor)

	ratings := opts.Ratings
	if len(ratings) == 0 {
		ratings = []int{8, 7, 6}
	}
	listTitle := opts.ListTitle
	if listTitle == "" {
		listTitle = "Popular"
	}

	h := help.New()
	h.Width = 80

	return Model{
		ctx:       ctx,
		catalog:   opts.Catalog,
		details:   opts.Details,
		trigger:   catalog.Trigger{Margin: opts.Margin},
		ratings:   ratings,
		listTitle: listTitle,
		keys:      defaultKeyMap(),
		help:      h,
		search:    ti,
		spinner:   sp,
		viewport:  vp,
		width:     80,
		height:    24,
	}
}

// Init starts loading the first page
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(m.catalog.Start()), m.spinner.Tick)
}

// Update handles messages and user input
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.focus {
		case focusSearch:
			return m.updateSearch(msg)
		case focusDetail:
			return m.updateDetail(msg)
		default:
			return m.updateList(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 6
		if m.detailMovie != nil {
			m.viewport.SetContent(m.formatMovieDetails())
		}
		m.ensureCursorVisible()
		return m, m.maybeLoadMore()

	case spinner.TickMsg:
		if !m.catalog.Snapshot().Loading() && !m.detailLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pageMsg:
		m.catalog.Apply(msg.result)
		m.ensureCursorVisible()
		// Page, hasMore and the loading flags just changed: look again.
		return m, m.maybeLoadMore()

	case detailsMsg:
		if m.detailMovie == nil || m.detailMovie.ID != msg.id {
			return m, nil
		}
		m.detailLoading = false
		m.detailErr = msg.err
		if msg.err == nil {
			d := msg.details
			m.detail = &d
		}
		m.viewport.SetContent(m.formatMovieDetails())
		return m, nil

	case openBrowserMsg:
		if msg.err != nil {
			cmd := m.flash(fmt.Sprintf("failed to open browser: %v", msg.err))
			return m, cmd
		}
		return m, nil

	case noticeFadeMsg:
		if msg.notice == m.notice {
			m.notice = ""
		}
		return m, nil
	}

	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	display := m.catalog.Display()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(display)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.PageUp):
		m.cursor -= m.visibleCount()
	case key.Matches(msg, m.keys.PageDown):
		m.cursor += m.visibleCount()
	case key.Matches(msg, m.keys.Home):
		m.cursor = 0
	case key.Matches(msg, m.keys.End):
		m.cursor = len(display) - 1

	case key.Matches(msg, m.keys.Search):
		m.focus = focusSearch
		cmd := m.search.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Rating):
		rating, ok := m.ratingForKey(msg.String())
		if !ok {
			return m, nil
		}
		m.catalog.ToggleRating(rating)
		m.resetCursor()
	case key.Matches(msg, m.keys.Sort):
		m.catalog.CycleSort()
		m.resetCursor()
	case key.Matches(msg, m.keys.Order):
		m.catalog.ToggleDirection()
		m.resetCursor()
	case key.Matches(msg, m.keys.Clear):
		m.catalog.ClearFilters()
		m.search.SetValue("")
		m.resetCursor()

	case key.Matches(msg, m.keys.LoadMore):
		return m.loadMore()
	case key.Matches(msg, m.keys.Refresh):
		f, err := m.catalog.Refresh()
		m.resetCursor()
		if err != nil {
			return m, nil
		}
		return m, tea.Batch(m.fetch(f, nil), m.spinner.Tick)

	case key.Matches(msg, m.keys.Details):
		if len(display) == 0 {
			return m, nil
		}
		return m.openDetail(display[m.cursor])
	case key.Matches(msg, m.keys.Open):
		if len(display) == 0 || m.details == nil {
			return m, nil
		}
		return m, openBrowserCmd(m.details.WebURL(display[m.cursor].ID))

	default:
		return m, nil
	}

	m.ensureCursorVisible()
	return m, m.maybeLoadMore()
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "down", "up":
		m.focus = focusList
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.catalog.Query().Search {
		m.catalog.SetSearch(m.search.Value())
		m.resetCursor()
	}
	return m, tea.Batch(cmd, m.maybeLoadMore())
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		m.focus = focusList
		m.detailMovie = nil
		m.detail = nil
		m.detailErr = nil
		m.detailLoading = false
		return m, nil
	case key.Matches(msg, m.keys.Open):
		if m.detailMovie != nil && m.details != nil {
			return m, openBrowserCmd(m.details.WebURL(m.detailMovie.ID))
		}
		return m, nil
	}

	// Handle viewport scrolling
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) openDetail(movie catalog.Movie) (tea.Model, tea.Cmd) {
	m.focus = focusDetail
	m.detailMovie = &movie
	m.detail = nil
	m.detailErr = nil
	m.viewport.GotoTop()

	if m.details == nil {
		m.viewport.SetContent(m.formatMovieDetails())
		return m, nil
	}

	m.detailLoading = true
	m.viewport.SetContent(m.formatMovieDetails())
	source, ctx, id := m.details, m.ctx, movie.ID
	return m, tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			d, err := source.Details(ctx, id)
			return detailsMsg{id: id, details: d, err: err}
		},
	)
}

// loadMore is the manual load-more key. It goes through the same guard as
// the proximity trigger.
func (m Model) loadMore() (tea.Model, tea.Cmd) {
	f, err := m.catalog.LoadMore()
	if err != nil {
		return m, nil
	}
	if f == nil {
		snap := m.catalog.Snapshot()
		switch {
		case snap.Loading():
			cmd := m.flash("Already loading...")
			return m, cmd
		case !snap.HasMore:
			cmd := m.flash("No more movies to load.")
			return m, cmd
		}
		return m, nil
	}
	return m, tea.Batch(m.fetch(f, nil), m.spinner.Tick)
}

// maybeLoadMore fires the proximity trigger for the current window.
func (m Model) maybeLoadMore() tea.Cmd {
	f, err := m.catalog.MaybeLoadMore(m.trigger, m.lastVisible())
	if f == nil || err != nil {
		return nil
	}
	return tea.Batch(m.fetch(f, nil), m.spinner.Tick)
}

// fetch turns an admitted page request into a command. Errors from Begin
// are already recorded in the controller and shown by View.
func (m Model) fetch(f *catalog.Fetch, _ error) tea.Cmd {
	if f == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		return pageMsg{result: f.Run(ctx)}
	}
}

func (m *Model) flash(notice string) tea.Cmd {
	m.notice = notice
	return tea.Tick(noticeFadeDelay, func(time.Time) tea.Msg {
		return noticeFadeMsg{notice: notice}
	})
}

func (m Model) ratingForKey(k string) (int, bool) {
	for _, r := range m.ratings {
		if k == fmt.Sprint(r) {
			return r, true
		}
	}
	return 0, false
}

func (m Model) visibleCount() int {
	n := (m.height - chromeHeight) / cardHeight
	if n < 1 {
		n = 1
	}
	return n
}

// lastVisible is the index of the last card on screen, -1 for an empty list.
func (m Model) lastVisible() int {
	total := len(m.catalog.Display())
	last := m.offset + m.visibleCount() - 1
	if last > total-1 {
		last = total - 1
	}
	return last
}

func (m *Model) resetCursor() {
	m.cursor = 0
	m.offset = 0
}

func (m *Model) ensureCursorVisible() {
	total := len(m.catalog.Display())
	if m.cursor > total-1 {
		m.cursor = total - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	visible := m.visibleCount()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	if m.offset > total-visible {
		m.offset = total - visible
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// View renders the current UI
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("🎬 TMDB · " + m.listTitle))
	sb.WriteString("\n\n")

	if m.focus == focusDetail {
		sb.WriteString(m.viewport.View())
		sb.WriteString("\n\n")
		if m.notice != "" {
			sb.WriteString(mutedTextStyle.Render(m.notice))
			sb.WriteString("\n")
		}
		sb.WriteString(m.help.View(detailHelp{keys: m.keys}))
		return m.frame(sb.String())
	}

	snap := m.catalog.Snapshot()

	if catalog.IsTerminal(snap.Err) {
		sb.WriteString(errorStyle.Render("Configuration error: " + snap.Err.Error()))
		sb.WriteString("\n\n")
		sb.WriteString(normalTextStyle.Render("Press q to quit."))
		return m.frame(sb.String())
	}

	sb.WriteString(renderFilter(snap.Query.Rating, m.ratings))
	sb.WriteString("   ")
	sb.WriteString(renderSort(snap.Query))
	sb.WriteString("\n")
	sb.WriteString(m.renderSearch(snap.Query.Search))
	sb.WriteString("\n\n")

	sb.WriteString(m.renderList(snap))
	sb.WriteString("\n\n")

	sb.WriteString(m.renderStatus(snap))
	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))

	return m.frame(sb.String())
}

func (m Model) frame(s string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		MaxHeight(m.height).
		Render(s)
}

func (m Model) renderSearch(term string) string {
	if m.focus == focusSearch {
		return searchStyle.Render(m.search.View())
	}
	if strings.TrimSpace(term) == "" {
		return mutedTextStyle.Render("Press / to search by title")
	}
	return subtitleStyle.Render("Search: ") + normalTextStyle.Render(term)
}

func (m Model) renderList(snap catalog.Snapshot) string {
	if len(snap.Display) == 0 {
		switch {
		case snap.LoadingFirst:
			return m.spinner.View() + " " + normalTextStyle.Render("Loading movies...")
		case snap.Empty == catalog.EmptyNoMatches:
			return normalTextStyle.Render("No movies match the current filters.")
		default:
			return normalTextStyle.Render("No movies to display")
		}
	}

	end := m.offset + m.visibleCount()
	if end > len(snap.Display) {
		end = len(snap.Display)
	}
	cards := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		cards = append(cards, renderCard(snap.Display[i], i == m.cursor, m.width))
	}
	return strings.Join(cards, "\n\n")
}

func (m Model) renderStatus(snap catalog.Snapshot) string {
	var parts []string

	switch {
	case snap.LoadingFirst:
		parts = append(parts, m.spinner.View()+" Loading movies...")
	case snap.LoadingMore:
		parts = append(parts, m.spinner.View()+" Loading more...")
	}

	if snap.Err != nil {
		parts = append(parts, errorStyle.Render("Error: "+snap.Err.Error())+
			mutedTextStyle.Render(" (m to retry, r to refresh)"))
	}

	if snap.Total > 0 {
		counts := fmt.Sprintf("%d of %d shown · page %d", len(snap.Display), snap.Total, snap.Page)
		if !snap.HasMore {
			counts += " · end of list"
		}
		parts = append(parts, mutedTextStyle.Render(counts))
	}

	if m.notice != "" {
		parts = append(parts, mutedTextStyle.Render(m.notice))
	}
	return strings.Join(parts, "  ")
}

// Format movie details for display
func (m Model) formatMovieDetails() string {
	if m.detailMovie == nil {
		return "No movie details available"
	}
	movie := m.detailMovie

	var sb strings.Builder

	// Title and year
	year := "N/A"
	if t := movie.Released(); !t.IsZero() {
		year = fmt.Sprint(t.Year())
	}
	sb.WriteString(titleStyle.Render(movie.Title + " (" + year + ")"))
	sb.WriteString("\n\n")

	// Score and release
	sb.WriteString(subtitleStyle.Render("Rating:"))
	sb.WriteString(" ")
	sb.WriteString(scoreStyle.Render(fmt.Sprintf("%.1f / 10", movie.Score)))
	sb.WriteString("\n")
	released := movie.ReleaseDate
	if released == "" {
		released = "unknown"
	}
	sb.WriteString(subtitleStyle.Render("Released:"))
	sb.WriteString(" ")
	sb.WriteString(normalTextStyle.Render(released))
	sb.WriteString("\n\n")

	// Limit the line width to viewport width minus padding
	maxWidth := m.viewport.Width - 8
	if maxWidth < 20 {
		maxWidth = 60 // Fallback if viewport width is too small
	}

	switch {
	case m.detailLoading:
		sb.WriteString(m.spinner.View())
		sb.WriteString(" ")
		sb.WriteString(normalTextStyle.Render("Loading details..."))
		sb.WriteString("\n\n")
	case m.detailErr != nil:
		sb.WriteString(errorStyle.Render("Could not load details: " + m.detailErr.Error()))
		sb.WriteString("\n\n")
	case m.detail != nil && !m.detail.Empty():
		d := m.detail
		if d.Tagline != "" {
			sb.WriteString(normalTextStyle.Italic(true).Render(wrapText(d.Tagline, maxWidth)))
			sb.WriteString("\n\n")
		}
		facts := []struct{ label, value string }{
			{"Genres:", d.GenreList()},
			{"Runtime:", d.Runtime},
			{"Certification:", d.Certification},
		}
		for _, f := range facts {
			if f.value == "" {
				continue
			}
			sb.WriteString(subtitleStyle.Render(f.label))
			sb.WriteString(" ")
			sb.WriteString(normalTextStyle.Render(f.value))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	// Overview, wrapped to the viewport
	sb.WriteString(subtitleStyle.Render("Overview:"))
	sb.WriteString("\n")
	overview := movie.Overview
	if overview == "" {
		overview = "No description available."
	}
	sb.WriteString(normalTextStyle.Render(wrapText(overview, maxWidth)))
	sb.WriteString("\n\n")

	// Links
	sb.WriteString(subtitleStyle.Render("More Info:"))
	sb.WriteString("\n")
	if m.details != nil {
		sb.WriteString(normalTextStyle.Render(m.details.WebURL(movie.ID)))
		sb.WriteString("\n")
	}
	if poster := tmdb.PosterURL(movie.PosterPath); poster != "" {
		sb.WriteString(mutedTextStyle.Render("Poster: " + poster))
	}

	return sb.String()
}

// wrapText wraps text to fit within a given width
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	var lineLength int

	words := strings.Fields(text)
	for i, word := range words {
		// Break words longer than a whole line
		for len([]rune(word)) > width {
			if lineLength > 0 {
				result.WriteString("\n")
				lineLength = 0
			}
			r := []rune(word)
			result.WriteString(string(r[:width-1]) + "-\n")
			word = string(r[width-1:])
		}

		n := len([]rune(word))
		if lineLength > 0 && lineLength+1+n > width {
			result.WriteString("\n")
			lineLength = 0
		} else if i > 0 && lineLength > 0 {
			result.WriteString(" ")
			lineLength++
		}

		result.WriteString(word)
		lineLength += n
	}

	return result.String()
}

// Custom message types
type pageMsg struct {
	result catalog.Result
}

type detailsMsg struct {
	id      int
	details tmdb.Details
	err     error
}

type openBrowserMsg struct {
	err error
}

type noticeFadeMsg struct {
	notice string
}

func openBrowserCmd(url string) tea.Cmd {
	return func() tea.Msg {
		return openBrowserMsg{err: openURL(url)}
	}
}
