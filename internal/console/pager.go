package console

import "fmt"

// Pager is the navigation state derived from the current page and total count.
type Pager struct {
	Page         int
	TotalPages   int
	PrevDisabled bool
	NextDisabled bool
	Label        string
}

// NewPager derives pager state. page is zero-based.
func NewPager(page, pageSize, total int) Pager {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	shown := max(totalPages, 1)
	// A page past the end, left over after a filter shrank the result,
	// is labelled as the last page.
	current := min(page+1, shown)
	return Pager{
		Page:         page,
		TotalPages:   totalPages,
		PrevDisabled: page <= 0,
		NextDisabled: page+1 >= totalPages,
		Label:        fmt.Sprintf("Halaman %d dari %d", current, shown),
	}
}
