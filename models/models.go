package models

import (
	"fmt"
	"time"
)

// ResponseField is one name/value pair parsed from a record details block.
type ResponseField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ChatEntry is one turn of the transcript: a submitted query and its rendered response.
type ChatEntry struct {
	ID             int             `json:"id"`
	Query          string          `json:"query"`
	Response       string          `json:"response"`
	ResponseFields []ResponseField `json:"response_fields,omitempty"`
}

// SubmissionState is the transient state of the query box.
type SubmissionState struct {
	Query        string `json:"query"`
	IsLoading    bool   `json:"is_loading"`
	LastResponse string `json:"last_response,omitempty"`
	LastError    string `json:"last_error,omitempty"`
}

// Field is a single column of a record. A nil Value means null.
type Field struct {
	Name  string  `json:"name"`
	Value *string `json:"value"`
}

// Record is an ordered list of fields.
type Record []Field

type ResultKind string

const (
	ResultRecords ResultKind = "records"
	ResultText    ResultKind = "text"
)

// RawResult is what a query service returns: either records or text.
type RawResult struct {
	Kind    ResultKind `json:"kind"`
	Records []Record   `json:"records,omitempty"`
	Text    string     `json:"text,omitempty"`
}

func RecordsResult(records ...Record) RawResult {
	if records == nil {
		records = []Record{}
	}
	return RawResult{Kind: ResultRecords, Records: records}
}

func TextResult(text string) RawResult {
	return RawResult{Kind: ResultText, Text: text}
}

// StringValue is a helper for building non-null fields.
func StringValue(s string) *string {
	return &s
}

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

type Notification struct {
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	Time     time.Time `json:"time"`
}

type QueryRequest struct {
	Query string `json:"query"`
}

type SubmitResponse struct {
	Entries []ChatEntry     `json:"entries"`
	State   SubmissionState `json:"state"`
	Toasts  []Notification  `json:"toasts,omitempty"`
}

type StateResponse struct {
	State   SubmissionState `json:"state"`
	History []ChatEntry     `json:"history"`
}

type SQLFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type SQLResult struct {
	Columns  []string        `json:"columns"`
	Rows     [][]interface{} `json:"rows"`
	Error    string          `json:"error,omitempty"`
	Filename string          `json:"filename,omitempty"`
}

// Records converts the tabular result to ordered records, keeping nulls as nil.
func (r *SQLResult) Records() []Record {
	records := make([]Record, 0, len(r.Rows))
	for _, row := range r.Rows {
		rec := make(Record, 0, len(r.Columns))
		for i, col := range r.Columns {
			var v *string
			if i < len(row) && row[i] != nil {
				if s, ok := row[i].(string); ok {
					v = StringValue(s)
				} else {
					v = StringValue(fmt.Sprintf("%v", row[i]))
				}
			}
			rec = append(rec, Field{Name: col, Value: v})
		}
		records = append(records, rec)
	}
	return records
}

type ResultFile struct {
	Filename  string          `json:"filename"`
	Query     string          `json:"query,omitempty"`
	Timestamp string          `json:"timestamp"`
	Columns   []string        `json:"columns"`
	Rows      [][]interface{} `json:"rows"`
	RowCount  int             `json:"row_count"`
	Error     string          `json:"error,omitempty"`
}

type ResultFileInfo struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
	Format   string `json:"format"`
}
