package tmdb

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Details are facts shown on a movie's public page that the list endpoints
// do not return.
type Details struct {
	URL           string
	Tagline       string
	Genres        []string
	Runtime       string
	Certification string
}

// Details fetches and parses the public TMDB page of a movie. It needs no
// API key.
func (c *Client) Details(ctx context.Context, id int) (Details, error) {
	pageURL := c.WebURL(id)
	resp, err := c.get(ctx, "web/movie", pageURL, pageURL, "text/html")
	if err != nil {
		return Details{}, err
	}
	defer resp.Body.Close()

	return ParseDetails(resp.Body, pageURL)
}

// ParseDetails extracts Details from a movie page. Missing facts are left
// empty; only an unreadable document is an error.
func ParseDetails(r io.Reader, pageURL string) (Details, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Details{}, fmt.Errorf("parse movie page: %w", err)
	}

	d := Details{URL: pageURL}

	d.Tagline = cleanText(doc.Find(".tagline").First().Text())

	doc.Find(".facts .genres a").Each(func(_ int, s *goquery.Selection) {
		if g := cleanText(s.Text()); g != "" {
			d.Genres = append(d.Genres, g)
		}
	})

	d.Runtime = cleanText(doc.Find(".facts .runtime").First().Text())
	d.Certification = cleanText(doc.Find(".facts .certification").First().Text())
	return d, nil
}

// Empty reports whether nothing useful was found.
func (d Details) Empty() bool {
	return d.Tagline == "" && len(d.Genres) == 0 && d.Runtime == "" && d.Certification == ""
}

// GenreList joins the genres for display.
func (d Details) GenreList() string {
	return strings.Join(d.Genres, ", ")
}
