package catalog

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Derive computes the display list from a dataset and query. It is pure: the
// input slice is not reordered and the result never aliases it.
//
// The steps run in a fixed order: rating bucket, then title search, then a
// stable sort. Changing the order changes results for ties.
func Derive(movies []Movie, q Query) []Movie {
	out := make([]Movie, 0, len(movies))

	lower := cases.Lower(language.Und)
	term := lower.String(strings.TrimSpace(q.Search))

	for _, m := range movies {
		if q.Rating > 0 && !inBucket(m.Score, q.Rating) {
			continue
		}
		if term != "" && !strings.Contains(lower.String(m.Title), term) {
			continue
		}
		out = append(out, m)
	}

	if q.Sort == SortNone {
		return out
	}

	compare := comparator(q.Sort)
	if q.Direction == Descending {
		asc := compare
		compare = func(a, b Movie) int { return -asc(a, b) }
	}
	slices.SortStableFunc(out, compare)
	return out
}

// inBucket reports whether score lies in [rating, rating+1).
func inBucket(score float64, rating int) bool {
	lo := float64(rating)
	return score >= lo && score < lo+1
}

func comparator(key SortKey) func(a, b Movie) int {
	switch key {
	case SortScore:
		return func(a, b Movie) int { return cmp.Compare(a.Score, b.Score) }
	case SortReleaseDate:
		return func(a, b Movie) int { return a.Released().Compare(b.Released()) }
	default:
		return func(Movie, Movie) int { return 0 }
	}
}
