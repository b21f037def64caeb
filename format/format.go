// Package format turns raw query service results into transcript entries.
//
// All functions are pure: the same input always yields the same output and
// nothing outside the arguments is read or written.
package format

import (
	"strings"

	"querydesk/models"
)

const (
	// RecordDetailsMarker prefixes text results that carry field:value blocks.
	RecordDetailsMarker = "Record Details:"

	NoRecordsMessage = "No records found."
	NullValue        = "N/A"
)

// Format renders raw as one or more chat entries for query. IDs are left
// at zero; the history assigns them on append.
func Format(query string, raw models.RawResult) []models.ChatEntry {
	if raw.Kind == models.ResultRecords {
		return []models.ChatEntry{{Query: query, Response: formatRecords(raw.Records)}}
	}
	if strings.HasPrefix(raw.Text, RecordDetailsMarker) {
		return formatDetails(query, raw.Text)
	}
	return []models.ChatEntry{{Query: query, Response: raw.Text}}
}

func formatRecords(records []models.Record) string {
	if len(records) == 0 {
		return NoRecordsMessage
	}
	rendered := make([]string, 0, len(records))
	for _, rec := range records {
		rendered = append(rendered, RecordLine(rec))
	}
	return strings.Join(rendered, "\n\n")
}

// RecordLine renders a record as "name: value, name: value".
func RecordLine(rec models.Record) string {
	parts := make([]string, 0, len(rec))
	for _, f := range rec {
		parts = append(parts, f.Name+": "+valueOrNull(f.Value))
	}
	return strings.Join(parts, ", ")
}

func valueOrNull(v *string) string {
	if v == nil {
		return NullValue
	}
	return *v
}

func formatDetails(query, text string) []models.ChatEntry {
	blocks := detailBlocks(text)
	if len(blocks) == 0 {
		// Marker without any block still produces a (blank) turn.
		return []models.ChatEntry{{Query: query, ResponseFields: []models.ResponseField{}}}
	}

	entries := make([]models.ChatEntry, 0, len(blocks))
	for _, block := range blocks {
		fields := ParseFields(block)
		entries = append(entries, models.ChatEntry{
			Query:          query,
			Response:       Sentence(fields),
			ResponseFields: fields,
		})
	}
	return entries
}

// detailBlocks strips the marker and groups the remaining non-blank lines
// into blocks separated by one or more blank lines.
func detailBlocks(text string) [][]string {
	body := strings.TrimPrefix(text, RecordDetailsMarker)
	body = strings.ReplaceAll(body, "\r\n", "\n")

	var blocks [][]string
	var current []string
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

// ParseFields splits each line on its first colon. Lines without a colon or
// with an empty name are skipped.
func ParseFields(lines []string) []models.ResponseField {
	fields := make([]models.ResponseField, 0, len(lines))
	for _, line := range lines {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		fields = append(fields, models.ResponseField{Name: name, Value: strings.TrimSpace(value)})
	}
	return fields
}

// Sentence joins fields as "<name> is <value>. " in order.
func Sentence(fields []models.ResponseField) string {
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(f.Name)
		b.WriteString(" is ")
		b.WriteString(f.Value)
		b.WriteString(". ")
	}
	return b.String()
}

// Lines returns the human readable lines of a result: one per record, one
// per well-formed detail line, or the text split on newlines.
func Lines(raw models.RawResult) []string {
	if raw.Kind == models.ResultRecords {
		if len(raw.Records) == 0 {
			return []string{NoRecordsMessage}
		}
		lines := make([]string, 0, len(raw.Records))
		for _, rec := range raw.Records {
			lines = append(lines, RecordLine(rec))
		}
		return lines
	}
	if strings.HasPrefix(raw.Text, RecordDetailsMarker) {
		var lines []string
		for i, block := range detailBlocks(raw.Text) {
			if i > 0 {
				lines = append(lines, "")
			}
			for _, f := range ParseFields(block) {
				lines = append(lines, f.Name+": "+f.Value)
			}
		}
		return lines
	}
	return strings.Split(raw.Text, "\n")
}

// RecordDetails renders records in the "Record Details:" text form that
// formatDetails parses back.
func RecordDetails(records []models.Record) string {
	var b strings.Builder
	b.WriteString(RecordDetailsMarker)
	for i, rec := range records {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, f := range rec {
			b.WriteString("\n")
			b.WriteString(f.Name)
			b.WriteString(": ")
			b.WriteString(valueOrNull(f.Value))
		}
	}
	return b.String()
}
