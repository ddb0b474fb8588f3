package oui

import (
	"bytes"
	"strings"
)

// defaultPrefixCapacity sizes the prefix index for a full nmap table.
const defaultPrefixCapacity = 40000

// Table is the installed lookup table plus an append point. The original
// content is never modified or reordered; new records are only ever added
// at the end.
//
// Membership is decided by an index of exact prefix tokens (the first
// whitespace-delimited field of every line), not by raw substring search,
// so an organization name containing hex characters can never suppress or
// shadow a real prefix.
type Table struct {
	content  []byte
	prefixes map[string]struct{}
	added    int
}

// LoadTable indexes the provided lookup-table content. The content is
// copied, so the caller's buffer may be reused.
func LoadTable(content []byte) *Table {
	t := &Table{
		content:  append([]byte(nil), content...),
		prefixes: make(map[string]struct{}, defaultPrefixCapacity),
	}

	for _, line := range strings.Split(string(content), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		t.prefixes[strings.ToUpper(fields[0])] = struct{}{}
	}

	return t
}

// Has reports whether the prefix is already present in the table.
// The comparison is case-insensitive.
func (t *Table) Has(prefix string) bool {
	_, found := t.prefixes[strings.ToUpper(prefix)]
	return found
}

// Merge appends every record whose prefix is absent from the table, in the
// order given, and returns how many were added. Appended prefixes join the
// index immediately, so duplicates within one registry document are added
// once. The optional callback observes each appended record.
func (t *Table) Merge(records []Record, onAppend func(Record)) int {
	added := 0

	for _, record := range records {
		if t.Has(record.Prefix) {
			continue
		}

		t.append(record)
		added++

		if onAppend != nil {
			onAppend(record)
		}
	}

	return added
}

// append writes one record line to the buffer and indexes its prefix.
func (t *Table) append(record Record) {
	// A table that does not end in a newline would glue the first new
	// record onto its last line.
	if len(t.content) > 0 && !bytes.HasSuffix(t.content, []byte("\n")) {
		t.content = append(t.content, '\n')
	}

	t.content = append(t.content, record.Prefix...)
	t.content = append(t.content, ' ')
	t.content = append(t.content, record.Org...)
	t.content = append(t.content, '\n')

	t.prefixes[strings.ToUpper(record.Prefix)] = struct{}{}
	t.added++
}

// Bytes returns the accumulated table content.
func (t *Table) Bytes() []byte {
	return t.content
}

// Added returns how many records have been appended since the table was loaded.
func (t *Table) Added() int {
	return t.added
}
