package inkpress

import (
	"fmt"
	"strconv"
	"strings"
)

// Paginate slices posts into the requested page. rawPage comes straight
// from the query string: absent, non-numeric, zero, or negative values
// fall back to page 1, and anything beyond the last page is clamped to
// it. Out-of-range requests degrade to the nearest valid page instead
// of erroring.
//
// With zero posts the single valid page is page 1, empty, with neither
// navigation link.
func Paginate(posts []Post, perPage int, rawPage string) Page {
	if perPage < 1 {
		perPage = 1
	}
	last := (len(posts) + perPage - 1) / perPage
	if last < 1 {
		last = 1
	}

	number := 1
	if n, err := strconv.Atoi(strings.TrimSpace(rawPage)); err == nil && n > 1 {
		number = n
	}
	if number > last {
		number = last
	}

	start := (number - 1) * perPage
	end := start + perPage
	if end > len(posts) {
		end = len(posts)
	}

	page := Page{
		Posts:  posts[start:end],
		Number: number,
		Last:   last,
	}
	if number > 1 {
		page.Prev = fmt.Sprintf("/?page=%d", number-1)
	}
	if number < last {
		page.Next = fmt.Sprintf("/?page=%d", number+1)
	}
	return page
}
