package catalog

// DefaultPrefetchMargin is how many rows before the end of the list the
// proximity trigger fires.
const DefaultPrefetchMargin = 3

// Trigger decides when the end of the rendered list is close enough to
// start loading the next page. The sentinel is the last row of the display
// list; firing Margin rows early hides request latency.
type Trigger struct {
	Margin int
}

// Near reports whether lastVisible (index of the last row on screen) is
// within Margin rows of the end of a list of total rows. An empty list is
// always near its end.
func (t Trigger) Near(lastVisible, total int) bool {
	if total == 0 {
		return true
	}
	margin := t.Margin
	if margin < 0 {
		margin = 0
	}
	return lastVisible >= total-1-margin
}

// MaybeLoadMore is the proximity path into LoadMore. It stays quiet after a
// failed fetch so a broken network is not retried in a loop; a manual load
// more or refresh resumes it.
func (c *Controller) MaybeLoadMore(t Trigger, lastVisible int) (*Fetch, error) {
	if c.err != nil {
		return nil, nil
	}
	if !t.Near(lastVisible, len(c.Display())) {
		return nil, nil
	}
	return c.LoadMore()
}
