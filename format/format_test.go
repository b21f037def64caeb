package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querydesk/models"
)

func rec(pairs ...interface{}) models.Record {
	var r models.Record
	for i := 0; i < len(pairs); i += 2 {
		f := models.Field{Name: pairs[i].(string)}
		if v, ok := pairs[i+1].(string); ok {
			f.Value = models.StringValue(v)
		}
		r = append(r, f)
	}
	return r
}

func TestFormat_Records(t *testing.T) {
	tests := []struct {
		name     string
		raw      models.RawResult
		expected string
	}{
		{
			name:     "empty list",
			raw:      models.RecordsResult(),
			expected: "No records found.",
		},
		{
			name:     "null rendered as N/A",
			raw:      models.RecordsResult(rec("Name", "Acme", "City", nil)),
			expected: "Name: Acme, City: N/A",
		},
		{
			name: "records separated by blank line",
			raw: models.RecordsResult(
				rec("Name", "Acme", "City", "NYC"),
				rec("Name", "Globex", "City", "Springfield"),
			),
			expected: "Name: Acme, City: NYC\n\nName: Globex, City: Springfield",
		},
		{
			name:     "field order preserved",
			raw:      models.RecordsResult(rec("Zeta", "1", "Alpha", "2")),
			expected: "Zeta: 1, Alpha: 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := Format("q", tt.raw)
			require.Len(t, entries, 1)
			assert.Equal(t, "q", entries[0].Query)
			assert.Equal(t, tt.expected, entries[0].Response)
			assert.Nil(t, entries[0].ResponseFields)
		})
	}
}

func TestFormat_RecordDetails(t *testing.T) {
	entries := Format("find acme", models.TextResult("Record Details:\nName: Acme\nCity: NYC"))

	require.Len(t, entries, 1)
	assert.Equal(t, "find acme", entries[0].Query)
	assert.Equal(t, []models.ResponseField{
		{Name: "Name", Value: "Acme"},
		{Name: "City", Value: "NYC"},
	}, entries[0].ResponseFields)
	assert.Equal(t, "Name is Acme. City is NYC. ", entries[0].Response)
}

func TestFormat_RecordDetails_MultipleBlocks(t *testing.T) {
	text := "Record Details:\nName: Acme\nCity: NYC\n\nName: Globex\n   \nName: Initech\nCity: Austin"
	entries := Format("q", models.TextResult(text))

	require.Len(t, entries, 3)
	assert.Equal(t, "Name is Acme. City is NYC. ", entries[0].Response)
	assert.Equal(t, "Name is Globex. ", entries[1].Response)
	assert.Equal(t, "Name is Initech. City is Austin. ", entries[2].Response)
}

func TestFormat_RecordDetails_Malformed(t *testing.T) {
	t.Run("malformed lines skipped", func(t *testing.T) {
		entries := Format("q", models.TextResult("Record Details:\nName: Acme\ngarbage\n: no name\nTime: 10:30"))
		require.Len(t, entries, 1)
		assert.Equal(t, []models.ResponseField{
			{Name: "Name", Value: "Acme"},
			{Name: "Time", Value: "10:30"},
		}, entries[0].ResponseFields)
	})

	t.Run("block without valid lines is retained", func(t *testing.T) {
		entries := Format("q", models.TextResult("Record Details:\nName: Acme\n\njunk\nmore junk"))
		require.Len(t, entries, 2)
		assert.Equal(t, "", entries[1].Response)
		assert.NotNil(t, entries[1].ResponseFields)
		assert.Empty(t, entries[1].ResponseFields)
	})

	t.Run("marker only", func(t *testing.T) {
		entries := Format("q", models.TextResult("Record Details:"))
		require.Len(t, entries, 1)
		assert.Equal(t, "", entries[0].Response)
		assert.Empty(t, entries[0].ResponseFields)
	})
}

func TestFormat_PlainText(t *testing.T) {
	entries := Format("hello", models.TextResult("Hi there.\nHow can I help?"))
	require.Len(t, entries, 1)
	assert.Equal(t, "Hi there.\nHow can I help?", entries[0].Response)
	assert.Nil(t, entries[0].ResponseFields)

	// the marker only counts as a prefix
	entries = Format("q", models.TextResult("See Record Details: below"))
	require.Len(t, entries, 1)
	assert.Equal(t, "See Record Details: below", entries[0].Response)
}

func TestFormat_Idempotent(t *testing.T) {
	inputs := []models.RawResult{
		models.RecordsResult(rec("Name", "Acme", "City", nil)),
		models.TextResult("Record Details:\nName: Acme\n\nName: Globex"),
		models.TextResult("plain"),
	}
	for _, raw := range inputs {
		assert.Equal(t, Format("q", raw), Format("q", raw))
	}
}

func TestLines(t *testing.T) {
	assert.Equal(t, []string{"No records found."}, Lines(models.RecordsResult()))
	assert.Equal(t,
		[]string{"Name: Acme, City: N/A", "Name: Globex, City: X"},
		Lines(models.RecordsResult(rec("Name", "Acme", "City", nil), rec("Name", "Globex", "City", "X"))),
	)
	assert.Equal(t,
		[]string{"Name: Acme", "", "Name: Globex"},
		Lines(models.TextResult("Record Details:\nName: Acme\n\nName: Globex")),
	)
	assert.Equal(t, []string{"a", "b"}, Lines(models.TextResult("a\nb")))
}

func TestRecordDetails_RoundTrip(t *testing.T) {
	records := []models.Record{
		rec("Name", "Acme", "City", nil),
		rec("Name", "Globex", "City", "Springfield"),
	}
	text := RecordDetails(records)
	assert.Equal(t, "Record Details:\nName: Acme\nCity: N/A\n\nName: Globex\nCity: Springfield", text)

	entries := Format("q", models.TextResult(text))
	require.Len(t, entries, 2)
	assert.Equal(t, "Name is Acme. City is N/A. ", entries[0].Response)
	assert.Equal(t, "Name is Globex. City is Springfield. ", entries[1].Response)
}
