package catalog

// SortKey selects the field the display list is ordered by.
type SortKey int

const (
	// SortNone keeps dataset order.
	SortNone SortKey = iota
	// SortReleaseDate orders by parsed release date.
	SortReleaseDate
	// SortScore orders by score.
	SortScore
)

func (k SortKey) String() string {
	switch k {
	case SortReleaseDate:
		return "Release date"
	case SortScore:
		return "Rating"
	default:
		return "None"
	}
}

// Next cycles none -> release date -> score -> none.
func (k SortKey) Next() SortKey {
	switch k {
	case SortNone:
		return SortReleaseDate
	case SortReleaseDate:
		return SortScore
	default:
		return SortNone
	}
}

// Direction is the sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "Descending"
	}
	return "Ascending"
}

// Toggle flips the direction.
func (d Direction) Toggle() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

// Query holds the client-side view parameters. None of it is ever sent to
// the Source.
type Query struct {
	// Rating is the lower bound of the active one-point score bucket, or 0
	// when no rating filter is active.
	Rating    int
	Search    string
	Sort      SortKey
	Direction Direction
}

// WithRating selects a rating bucket. Selecting the bucket that is already
// active clears the filter.
func (q Query) WithRating(rating int) Query {
	if rating <= 0 || rating == q.Rating {
		q.Rating = 0
		return q
	}
	q.Rating = rating
	return q
}
