package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/oakwood-commons/kvgrid/internal/item"
)

// loadCSV reads a header row and one record per line. Cells that parse as
// numbers or booleans are converted; empty cells become nil.
func loadCSV(r io.Reader) ([]any, error) {
	_, items, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = map[string]any(it)
	}
	return out, nil
}

func loadCSVDataset(r io.Reader, opts Options) (*Dataset, error) {
	header, items, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	return newDataset(items, header, opts)
}

func readCSV(r io.Reader) ([]string, []item.Item, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, ErrEmptyInput
		}
		return nil, nil, fmt.Errorf("invalid CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	var items []item.Item
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("invalid CSV: %w", err)
		}
		it := make(item.Item, len(header))
		for i, name := range header {
			it[name] = coerce(rec[i])
		}
		items = append(items, it)
	}
	return header, items, nil
}

func coerce(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// isLikelyCSV wants at least two lines whose first few share the same
// positive comma count, with a header that does not look like YAML.
func isLikelyCSV(input string) bool {
	lines := strings.Split(input, "\n")
	if len(lines) < 2 || strings.Contains(lines[0], ": ") {
		return false
	}
	want := strings.Count(lines[0], ",")
	if want == 0 {
		return false
	}
	for _, line := range lines[1:min(len(lines), 6)] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.Count(line, ",") != want {
			return false
		}
	}
	return true
}
