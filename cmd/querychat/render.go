package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"querydesk/models"
)

// renderEntries prints answers. Entries carrying fields are shown as a
// two-column table, everything else as plain text.
func renderEntries(w io.Writer, entries []models.ChatEntry) {
	for _, e := range entries {
		if len(e.ResponseFields) == 0 {
			_, _ = fmt.Fprintln(w, e.Response)
			continue
		}

		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Field", "Value"})
		for _, f := range e.ResponseFields {
			t.AppendRow(table.Row{f.Name, f.Value})
		}
		t.Render()
	}
}

func renderHistory(w io.Writer, entries []models.ChatEntry) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "(no history)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Query", "Response"})
	for _, e := range entries {
		t.AppendRow(table.Row{e.ID, e.Query, e.Response})
	}
	t.Render()
}
