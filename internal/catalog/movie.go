package catalog

import (
	"context"
	"time"
)

// ReleaseDateLayout is the date format the remote source uses for release dates.
const ReleaseDateLayout = "2006-01-02"

// Movie is one record of the catalogue. Records are never mutated after a
// Source returns them; the display list is built from copies of the slice,
// not of the records.
type Movie struct {
	ID          int
	Title       string
	PosterPath  string
	ReleaseDate string
	Score       float64
	Overview    string
}

// Released parses the release date. A missing or malformed date yields the
// zero time so it sorts before every real date.
func (m Movie) Released() time.Time {
	t, err := time.Parse(ReleaseDateLayout, m.ReleaseDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Page is one page of results as reported by a Source.
type Page struct {
	Number     int
	TotalPages int
	Movies     []Movie
}

// Source provides pages of movies. Page numbers are 1-based.
type Source interface {
	// HasCredential reports whether the source is configured well enough to
	// be called at all. The controller never calls Page when it is false.
	HasCredential() bool
	Page(ctx context.Context, number int) (Page, error)
}
