package oui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Marker is the substring identifying assignment lines in the registry
// document. Its presence in a fetched response also confirms the document
// has the expected shape.
const Marker = "(base 16)"

// recordPattern matches one assignment line: six hex digits, padding
// spaces, the base-16 marker, two tabs, then the organization name.
var recordPattern = regexp.MustCompile(`^([0-9A-Fa-f]{6}) +\(base 16\)\t\t(.*)`)

// ErrRegistryShapeChanged is returned when not a single line of the
// registry document parses as an assignment. Zero parsed lines means the
// publisher changed the document format, which must not be mistaken for
// "nothing new to add".
var ErrRegistryShapeChanged = errors.New("no registry lines matched the expected shape")

// Record is one vendor assignment from the registry document.
type Record struct {
	// Prefix is the six hex digit OUI exactly as it appears in the document.
	Prefix string
	// Org is the organization name, trimmed of surrounding whitespace.
	Org string
}

// Stats describes a parse pass over the registry document.
type Stats struct {
	// Matched counts lines that parsed into a Record.
	Matched int
	// Skipped counts marker lines that did not fit the expected shape.
	// They are tolerated, but the count is surfaced for observability.
	Skipped int
}

// ParseRegistry reads the registry document and extracts all vendor
// assignments in document order. Marker lines that fail the pattern are
// skipped and counted. A document yielding zero records is an error.
func ParseRegistry(r io.Reader) ([]Record, Stats, error) {
	var (
		records []Record
		stats   Stats
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, Marker) {
			continue
		}

		match := recordPattern.FindStringSubmatch(line)
		if match == nil {
			stats.Skipped++
			continue
		}

		records = append(records, Record{
			Prefix: match[1],
			Org:    strings.TrimSpace(match[2]),
		})
		stats.Matched++
	}

	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("read registry document: %w", err)
	}

	if stats.Matched == 0 {
		return nil, stats, ErrRegistryShapeChanged
	}

	return records, stats, nil
}
