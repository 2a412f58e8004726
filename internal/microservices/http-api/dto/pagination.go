package dto

import (
	"net/url"
	"strconv"
)

// Paginated is the page-number envelope of every list endpoint.
type Paginated[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NewPaginated builds the envelope; next and previous keep every other query
// parameter of the current request URL.
func NewPaginated[T any](results []T, count int64, page, limit int, current *url.URL) Paginated[T] {
	p := Paginated[T]{Count: count, Results: results}
	if p.Results == nil {
		p.Results = []T{}
	}

	// page*limit < count, without the multiplication
	if limit > 0 && page > 0 && int64(page) <= (count-1)/int64(limit) {
		next := pageURL(current, page+1)
		p.Next = &next
	}
	if page > 1 {
		prev := pageURL(current, page-1)
		p.Previous = &prev
	}
	return p
}

func pageURL(current *url.URL, page int) string {
	u := *current
	q := u.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
