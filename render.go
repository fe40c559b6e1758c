package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/sebastiantruijens/tmdb-tui/internal/catalog"
)

const (
	// cardHeight is the number of lines one card takes, separator included.
	cardHeight = 4
	// overviewLimit matches the teaser length on the TMDB list pages.
	overviewLimit = 175
)

// renderCard draws one movie. It only reads the record.
func renderCard(m catalog.Movie, selected bool, width int) string {
	if width < 20 {
		width = 20
	}
	inner := width - 4

	marker := "  "
	titleStyle := cardTitleStyle
	if selected {
		marker = "> "
		titleStyle = cardSelectedTitleStyle
	}

	title := m.Title
	if title == "" {
		title = "Untitled"
	}
	title = ansi.Truncate(title, inner, "…")

	released := m.ReleaseDate
	if released == "" {
		released = "release date unknown"
	}
	meta := fmt.Sprintf("%s  ★ %.1f", released, m.Score)

	overview := m.Overview
	if overview == "" {
		overview = "No description available."
	}
	overview = teaser(overview, overviewLimit)
	overview = ansi.Truncate(overview, inner, "…")

	lines := []string{
		marker + titleStyle.Render(title),
		"  " + cardMetaStyle.Render(meta),
		"  " + normalTextStyle.Render(overview),
	}
	return strings.Join(lines, "\n")
}

// teaser cuts s to at most limit runes and appends "...".
func teaser(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return strings.TrimSpace(string(r[:limit])) + "..."
}

// renderFilter draws the rating buttons. The active bucket is highlighted;
// pressing its digit again clears it.
func renderFilter(active int, ratings []int) string {
	buttons := make([]string, 0, len(ratings))
	for _, r := range ratings {
		label := fmt.Sprintf("%d+", r)
		if r == active {
			buttons = append(buttons, activeButtonStyle.Render(label))
		} else {
			buttons = append(buttons, buttonStyle.Render(label))
		}
	}
	return subtitleStyle.Render("Rating: ") + lipgloss.JoinHorizontal(lipgloss.Top, buttons...)
}

// renderSort describes the active sort.
func renderSort(q catalog.Query) string {
	if q.Sort == catalog.SortNone {
		return subtitleStyle.Render("Sort: ") + normalTextStyle.Render("none")
	}
	arrow := "↑"
	if q.Direction == catalog.Descending {
		arrow = "↓"
	}
	return subtitleStyle.Render("Sort: ") + normalTextStyle.Render(fmt.Sprintf("%s %s %s", q.Sort, arrow, strings.ToLower(q.Direction.String())))
}
