// Package paging computes fixed-size page windows over a row sequence and
// keeps the requested page inside the valid range as the row count changes.
package paging

import (
	"fmt"
)

// Config holds the paging parameters.
type Config struct {
	Size int // Rows per page (0 = paging disabled)
	Num  int // Zero-based page number
}

// Info is the paging state published to observers.
type Info struct {
	PageSize   int
	PageNum    int
	TotalRows  int
	TotalPages int
}

// Validate rejects negative values.
func (c Config) Validate() error {
	if c.Size < 0 {
		return fmt.Errorf("page size must be non-negative, got %d", c.Size)
	}
	if c.Num < 0 {
		return fmt.Errorf("page number must be non-negative, got %d", c.Num)
	}
	return nil
}

// IsActive returns true if paging is configured.
func (c Config) IsActive() bool {
	return c.Size > 0
}

// LastPage returns the highest valid page number for total rows.
func (c Config) LastPage(total int) int {
	if c.Size <= 0 {
		return 0
	}
	last := (total+c.Size-1)/c.Size - 1
	if last < 0 {
		return 0
	}
	return last
}

// Clamp returns c with Num forced into [0, LastPage(total)].
func (c Config) Clamp(total int) Config {
	if c.Size <= 0 {
		c.Num = 0
		return c
	}
	if c.Num < 0 {
		c.Num = 0
	}
	if last := c.LastPage(total); c.Num > last {
		c.Num = last
	}
	return c
}

// Bounds returns the half-open row window [start, end) of the current page.
// Without paging the whole sequence is returned.
func (c Config) Bounds(total int) (start, end int) {
	if c.Size <= 0 {
		return 0, total
	}
	start = c.Size * c.Num
	if start > total {
		start = total
	}
	end = start + c.Size
	if end > total {
		end = total
	}
	return start, end
}

// Info describes the current paging state for total rows.
func (c Config) Info(total int) Info {
	pages := 1
	if c.Size > 0 {
		pages = (total + c.Size - 1) / c.Size
		if pages < 1 {
			pages = 1
		}
	}
	return Info{PageSize: c.Size, PageNum: c.Num, TotalRows: total, TotalPages: pages}
}

// Apply slices s to the current page window.
func Apply[T any](c Config, s []T) []T {
	start, end := c.Bounds(len(s))
	return s[start:end]
}
