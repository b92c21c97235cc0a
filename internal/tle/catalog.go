package tle

import (
	"bufio"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ReadCatalog reads consecutive three-line TLE blocks from r, as served by
// CelesTrak in FORMAT=tle. Blocks that fail to parse are skipped with a
// warning log.
func ReadCatalog(r io.Reader, logger *slog.Logger, opts ...Option) ([]*Record, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading TLE data")
	}

	var records []*Record
	for i := 0; i+2 < len(lines); {
		name, line1, line2 := lines[i], lines[i+1], lines[i+2]

		if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
			// Resynchronise on the next line.
			logger.Warn("skipping malformed TLE entry", "line_index", i, "name", strings.TrimSpace(name))
			i++
			continue
		}

		rec, err := ParseLines(name, line1, line2, opts...)
		if err != nil {
			logger.Warn("skipping invalid TLE entry", "line_index", i, "name", strings.TrimSpace(name), "error", err)
			i += 3
			continue
		}
		records = append(records, rec)
		i += 3
	}

	return records, nil
}

// Find returns the first record whose catalog number equals query, or whose
// name matches query case-insensitively. Exact name matches win over
// substring matches. It returns nil when nothing matches.
func Find(records []*Record, query string) *Record {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if n, err := strconv.Atoi(query); err == nil {
		for _, r := range records {
			if r.CatalogNumber() == n {
				return r
			}
		}
	}
	for _, r := range records {
		if strings.EqualFold(r.Name(), query) {
			return r
		}
	}
	q := strings.ToLower(query)
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Name()), q) {
			return r
		}
	}
	return nil
}
