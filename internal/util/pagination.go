package util

import "strconv"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Page struct {
	Page   int
	Size   int
	Offset int
}

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// Calculate clamps page and size and returns the row window they select.
func Calculate(page, size int) Page {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return Page{Page: page, Size: size, Offset: (page - 1) * size}
}

// Meta is the pagination block returned next to list data.
func Meta(p Page, total int64) map[string]any {
	return map[string]any{
		"page":        p.Page,
		"size":        p.Size,
		"total":       total,
		"total_pages": (total + int64(p.Size) - 1) / int64(p.Size),
		"has_prev":    p.Page > 1,
		"has_next":    int64(p.Offset+p.Size) < total,
	}
}
