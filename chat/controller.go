// Package chat holds the query box state machine and the transcript it
// appends to.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"querydesk/format"
	"querydesk/models"
	"querydesk/notify"
	"querydesk/validation"
)

// QueryService answers a free-text query with records or text.
type QueryService interface {
	ProcessQuery(ctx context.Context, query string) (models.RawResult, error)
}

// Snapshot is an immutable view of a controller. Version grows by one with
// every state change, so observers can drop snapshots delivered late.
type Snapshot struct {
	Version uint64
	State   models.SubmissionState
	History History
}

// Observer is called after every state change, outside the controller lock.
type Observer func(Snapshot)

// Controller drives one query box: it validates input, runs at most one
// query at a time and appends formatted results to the history.
type Controller struct {
	svc      QueryService
	notifier notify.Notifier

	mu        sync.Mutex
	version   uint64
	state     models.SubmissionState
	history   History
	observers []Observer
}

type Option func(*Controller)

// WithHistory seeds the transcript, e.g. from persisted entries.
func WithHistory(entries []models.ChatEntry) Option {
	return func(c *Controller) {
		c.history = NewHistory(entries)
	}
}

func WithObserver(o Observer) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, o)
	}
}

func NewController(svc QueryService, notifier notify.Notifier, opts ...Option) *Controller {
	if notifier == nil {
		notifier = notify.LogSink{}
	}
	c := &Controller{svc: svc, notifier: notifier}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers an observer for subsequent state changes.
func (c *Controller) Subscribe(o Observer) {
	c.mu.Lock()
	c.observers = append(c.observers, o)
	c.mu.Unlock()
}

func (c *Controller) State() models.SubmissionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) History() History {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Restore replaces the history, renumbering entries from 1.
func (c *Controller) Restore(entries []models.ChatEntry) {
	c.mu.Lock()
	c.history = NewHistory(entries)
	snap := c.changedLocked()
	c.mu.Unlock()
	c.publish(snap)
}

// OnInputChange sets the current query text.
func (c *Controller) OnInputChange(text string) {
	c.mu.Lock()
	c.state.Query = text
	snap := c.changedLocked()
	c.mu.Unlock()
	c.publish(snap)
}

// OnSubmit sends the current query to the service and appends the
// formatted result. It returns the entries appended by this submission.
//
// Errors are *ValidationError for an empty query, ErrBusy when a query is
// already running, and *ServiceError when the service failed. After a
// service call, IsLoading is false and Query is empty on every path.
func (c *Controller) OnSubmit(ctx context.Context) ([]models.ChatEntry, error) {
	c.mu.Lock()
	if c.state.IsLoading {
		c.mu.Unlock()
		submissionsTotal.WithLabelValues(outcomeBusy).Inc()
		return nil, ErrBusy
	}
	if validation.IsBlank(c.state.Query) {
		c.state.LastError = EmptyQueryMessage
		snap := c.changedLocked()
		c.mu.Unlock()

		submissionsTotal.WithLabelValues(outcomeValidation).Inc()
		c.notifier.Notify("Error", EmptyQueryMessage, models.SeverityError)
		c.publish(snap)
		return nil, &ValidationError{Message: EmptyQueryMessage}
	}

	// The query is captured before the lock is released so later input
	// changes cannot alter what this submission records.
	query := c.state.Query
	c.state.IsLoading = true
	c.state.LastResponse = ""
	c.state.LastError = ""
	snap := c.changedLocked()
	c.mu.Unlock()
	c.publish(snap)

	requestID := uuid.New().String()
	log.Printf("[QUERY] %s submitting query (length %d)", requestID, len(query))

	start := time.Now()
	raw, callErr := c.process(ctx, query)
	submissionDuration.Observe(time.Since(start).Seconds())

	var (
		added  []models.ChatEntry
		svcErr *ServiceError
	)

	c.mu.Lock()
	if callErr != nil {
		svcErr = newServiceError(callErr)
		c.state.LastError = svcErr.Message
	} else {
		c.history, added = c.history.Append(format.Format(query, raw)...)
		if len(added) > 0 {
			c.state.LastResponse = added[len(added)-1].Response
		}
	}
	c.state.IsLoading = false
	c.state.Query = ""
	snap = c.changedLocked()
	c.mu.Unlock()

	if svcErr != nil {
		log.Printf("[QUERY] %s failed after %v: %v", requestID, time.Since(start), callErr)
		submissionsTotal.WithLabelValues(outcomeService).Inc()
		c.notifier.Notify("Error", svcErr.Message, models.SeverityError)
		c.publish(snap)
		return nil, svcErr
	}

	log.Printf("[QUERY] %s completed in %v, %d entries appended", requestID, time.Since(start), len(added))
	submissionsTotal.WithLabelValues(outcomeSuccess).Inc()
	entriesAppended.Add(float64(len(added)))
	c.notifier.Notify("Success", "Query processed", models.SeveritySuccess)
	c.publish(snap)
	return added, nil
}

// OnClearHistory empties the transcript. Query and loading state are kept.
func (c *Controller) OnClearHistory() {
	c.mu.Lock()
	c.history = History{}
	snap := c.changedLocked()
	c.mu.Unlock()

	c.notifier.Notify("Success", "Chat history cleared", models.SeveritySuccess)
	c.publish(snap)
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{Version: c.version, State: c.state, History: c.history}
}

// changedLocked records a state change and returns the resulting snapshot.
func (c *Controller) changedLocked() Snapshot {
	c.version++
	return c.snapshotLocked()
}

// process calls the query service, turning a panic into an error so the
// submission still completes.
func (c *Controller) process(ctx context.Context, query string) (raw models.RawResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("query service panicked: %v", r)
		}
	}()
	return c.svc.ProcessQuery(ctx, query)
}

func (c *Controller) publish(snap Snapshot) {
	c.mu.Lock()
	observers := make([]Observer, len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	for _, o := range observers {
		o(snap)
	}
}

// IsValidation reports whether err came from input validation.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsServiceFailure reports whether err came from the query service.
func IsServiceFailure(err error) bool {
	var s *ServiceError
	return errors.As(err, &s)
}
