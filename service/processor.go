package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"querydesk/config"
	"querydesk/format"
	"querydesk/models"
	"querydesk/validation"
)

const (
	routeRecords = "records"
	routeChat    = "chat"
)

// LanguageModel turns prompts into SQL or conversational answers.
type LanguageModel interface {
	GenerateSQL(ctx context.Context, prompt string, sqlFiles []models.SQLFile) (string, error)
	GenerateChatResponse(ctx context.Context, prompt string) (string, error)
}

type QueryExecutor interface {
	ExecuteQuery(ctx context.Context, query string) (*models.SQLResult, error)
}

// ReferenceSource supplies the example SQL files given to the model.
type ReferenceSource interface {
	GetSQLFiles() ([]models.SQLFile, error)
}

// QueryError is a processing failure with a message meant for the user.
type QueryError struct {
	Message string
	Err     error
}

func (e *QueryError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *QueryError) Unwrap() error       { return e.Err }
func (e *QueryError) UserMessage() string { return e.Message }

// Processor answers free-text queries: data requests become SQL run on
// SQL Server, everything else goes to the language model as chat.
type Processor struct {
	llm        LanguageModel
	executor   QueryExecutor
	refs       ReferenceSource
	results    *ResultsStorage
	shape      string
	saveFormat string
}

type ProcessorOption func(*Processor)

// WithExecutor enables record queries.
func WithExecutor(e QueryExecutor) ProcessorOption {
	return func(p *Processor) { p.executor = e }
}

func WithReferences(r ReferenceSource) ProcessorOption {
	return func(p *Processor) { p.refs = r }
}

// WithResultsStorage saves every record query result in format.
func WithResultsStorage(r *ResultsStorage, format string) ProcessorOption {
	return func(p *Processor) {
		p.results = r
		p.saveFormat = format
	}
}

// WithResultShape selects how record results are returned:
// config.ShapeRecords (a record list) or config.ShapeDetails ("Record Details:" text).
func WithResultShape(shape string) ProcessorOption {
	return func(p *Processor) { p.shape = shape }
}

func NewProcessor(llm LanguageModel, opts ...ProcessorOption) *Processor {
	p := &Processor{llm: llm, shape: config.ShapeRecords, saveFormat: FormatJSON}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) ProcessQuery(ctx context.Context, query string) (models.RawResult, error) {
	if validation.IsBlank(query) {
		return models.RawResult{}, &QueryError{Message: "Please enter a valid query."}
	}
	query = strings.TrimSpace(query)

	route := routeChat
	if validation.IsRecordQuery(query) {
		route = routeRecords
	}

	var (
		raw models.RawResult
		err error
	)
	if route == routeRecords {
		raw, err = p.processRecords(ctx, query)
	} else {
		raw, err = p.processChat(ctx, query)
	}

	status := "success"
	if err != nil {
		status = "error"
		log.Printf("[PROCESSOR] %s query failed: %v", route, err)
	}
	queriesTotal.WithLabelValues(route, status).Inc()
	return raw, err
}

func (p *Processor) processRecords(ctx context.Context, query string) (models.RawResult, error) {
	if p.executor == nil {
		return models.RawResult{}, &QueryError{Message: "Record queries are unavailable because SQL Server is not configured."}
	}

	var sqlFiles []models.SQLFile
	if p.refs != nil {
		files, err := p.refs.GetSQLFiles()
		if err != nil {
			log.Printf("[PROCESSOR] Error loading reference SQL files: %v", err)
		}
		sqlFiles = files
	}

	sql, err := p.llm.GenerateSQL(ctx, query, sqlFiles)
	if err != nil {
		return models.RawResult{}, &QueryError{Message: "Could not translate the request into a database query.", Err: err}
	}
	if !IsReadOnly(sql) {
		return models.RawResult{}, &QueryError{Message: "The generated query was rejected because it is not read-only."}
	}
	log.Printf("[PROCESSOR] SQL generated, length: %d", len(sql))

	result, err := p.executor.ExecuteQuery(ctx, sql)
	if err != nil {
		return models.RawResult{}, &QueryError{Message: "The database query failed.", Err: err}
	}

	if p.results != nil {
		if filename, err := p.results.Save(result, sql, p.saveFormat); err != nil {
			log.Printf("[PROCESSOR] Error saving result: %v", err)
		} else {
			log.Printf("[PROCESSOR] Result saved to %s", filename)
		}
	}

	records := result.Records()
	recordsReturned.Observe(float64(len(records)))
	if p.shape == config.ShapeDetails && len(records) > 0 {
		return models.TextResult(format.RecordDetails(records)), nil
	}
	return models.RecordsResult(records...), nil
}

func (p *Processor) processChat(ctx context.Context, query string) (models.RawResult, error) {
	if !validation.IsValidPrompt(query) {
		return models.RawResult{}, &QueryError{Message: "The request appears to be invalid or gibberish. Please provide a meaningful message."}
	}
	answer, err := p.llm.GenerateChatResponse(ctx, query)
	if err != nil {
		return models.RawResult{}, err
	}
	return models.TextResult(answer), nil
}
