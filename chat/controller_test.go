package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querydesk/models"
	"querydesk/notify"
)

type fakeService struct {
	mu      sync.Mutex
	calls   []string
	result  models.RawResult
	err     error
	release chan struct{}
	started chan struct{}
}

func (f *fakeService) ProcessQuery(ctx context.Context, query string) (models.RawResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.result, f.err
}

func (f *fakeService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type messageError struct{ msg string }

func (e messageError) Error() string       { return "backend: " + e.msg }
func (e messageError) UserMessage() string { return e.msg }

func textResult(s string) models.RawResult { return models.TextResult(s) }

func TestOnSubmit_WhitespaceNeverCallsService(t *testing.T) {
	for _, input := range []string{"", " ", "\t", "\n  \r\n", "   \t  "} {
		svc := &fakeService{result: textResult("x")}
		rec := notify.NewRecorder()
		c := NewController(svc, rec)

		c.OnInputChange(input)
		entries, err := c.OnSubmit(context.Background())

		require.Error(t, err)
		assert.True(t, IsValidation(err))
		assert.Nil(t, entries)
		assert.Empty(t, svc.Calls())
		assert.Equal(t, 0, c.History().Len())

		state := c.State()
		assert.False(t, state.IsLoading)
		assert.Equal(t, input, state.Query)
		assert.Equal(t, EmptyQueryMessage, state.LastError)

		toasts := rec.Drain()
		require.Len(t, toasts, 1)
		assert.Equal(t, models.SeverityError, toasts[0].Severity)
	}
}

func TestOnSubmit_Success(t *testing.T) {
	svc := &fakeService{result: models.RecordsResult(models.Record{
		{Name: "Name", Value: models.StringValue("Acme")},
		{Name: "City"},
	})}
	rec := notify.NewRecorder()
	c := NewController(svc, rec)

	c.OnInputChange("find acme")
	entries, err := c.OnSubmit(context.Background())

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ChatEntry{ID: 1, Query: "find acme", Response: "Name: Acme, City: N/A"}, entries[0])
	assert.Equal(t, []string{"find acme"}, svc.Calls())

	state := c.State()
	assert.False(t, state.IsLoading)
	assert.Equal(t, "", state.Query)
	assert.Equal(t, "Name: Acme, City: N/A", state.LastResponse)
	assert.Empty(t, state.LastError)

	toasts := rec.Drain()
	require.Len(t, toasts, 1)
	assert.Equal(t, models.SeveritySuccess, toasts[0].Severity)
}

func TestOnSubmit_IDsContinueAcrossSubmissions(t *testing.T) {
	svc := &fakeService{result: textResult("Record Details:\nName: A\n\nName: B")}
	c := NewController(svc, notify.NewRecorder())

	c.OnInputChange("first")
	first, err := c.OnSubmit(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 1, first[0].ID)
	assert.Equal(t, 2, first[1].ID)

	svc.result = textResult("plain")
	c.OnInputChange("second")
	second, err := c.OnSubmit(context.Background())
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 3, second[0].ID)

	all := c.History().Entries()
	require.Len(t, all, 3)
	for i, e := range all {
		assert.Equal(t, i+1, e.ID)
	}
}

func TestOnSubmit_QuerySnapshotSurvivesInputChange(t *testing.T) {
	svc := &fakeService{
		result:  textResult("ok"),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := NewController(svc, notify.NewRecorder())
	c.OnInputChange("original")

	type outcome struct {
		entries []models.ChatEntry
		err     error
	}
	done := make(chan outcome)
	go func() {
		entries, err := c.OnSubmit(context.Background())
		done <- outcome{entries, err}
	}()

	<-svc.started
	assert.True(t, c.State().IsLoading)

	c.OnInputChange("typed while loading")

	_, err := c.OnSubmit(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	close(svc.release)
	res := <-done

	require.NoError(t, res.err)
	require.Len(t, res.entries, 1)
	assert.Equal(t, "original", res.entries[0].Query)
	assert.Equal(t, []string{"original"}, svc.Calls())

	state := c.State()
	assert.False(t, state.IsLoading)
	assert.Equal(t, "", state.Query)
}

func TestOnSubmit_ServiceFailure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{
			name:    "structured message",
			err:     messageError{msg: "timeout"},
			message: "timeout",
		},
		{
			name:    "wrapped structured message",
			err:     errors.Join(errors.New("transport"), messageError{msg: "timeout"}),
			message: "timeout",
		},
		{
			name:    "blank structured message falls back",
			err:     messageError{msg: "  "},
			message: GenericFailureMessage,
		},
		{
			name:    "plain error falls back",
			err:     errors.New("connection refused"),
			message: GenericFailureMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{err: tt.err}
			rec := notify.NewRecorder()
			c := NewController(svc, rec)

			c.OnInputChange("report")
			entries, err := c.OnSubmit(context.Background())

			require.Error(t, err)
			assert.True(t, IsServiceFailure(err))
			assert.ErrorIs(t, err, tt.err)
			assert.Nil(t, entries)
			assert.Equal(t, 0, c.History().Len())

			state := c.State()
			assert.False(t, state.IsLoading)
			assert.Equal(t, "", state.Query)
			assert.Equal(t, tt.message, state.LastError)

			toasts := rec.Drain()
			require.Len(t, toasts, 1)
			assert.Equal(t, models.SeverityError, toasts[0].Severity)
			assert.True(t, strings.Contains(toasts[0].Message, tt.message))
		})
	}
}

func TestOnClearHistory(t *testing.T) {
	svc := &fakeService{result: textResult("ok")}
	rec := notify.NewRecorder()
	c := NewController(svc, rec)

	for _, q := range []string{"a", "b"} {
		c.OnInputChange(q)
		_, err := c.OnSubmit(context.Background())
		require.NoError(t, err)
	}
	require.Equal(t, 2, c.History().Len())
	rec.Drain()

	c.OnInputChange("pending text")
	c.OnClearHistory()

	assert.Equal(t, 0, c.History().Len())
	assert.Equal(t, "pending text", c.State().Query)
	assert.False(t, c.State().IsLoading)

	toasts := rec.Drain()
	require.Len(t, toasts, 1)
	assert.Equal(t, models.SeveritySuccess, toasts[0].Severity)

	entries, err := c.OnSubmit(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].ID)
}

func TestObservers(t *testing.T) {
	svc := &fakeService{result: textResult("ok")}

	var mu sync.Mutex
	var seen []Snapshot
	c := NewController(svc, notify.NewRecorder(), WithObserver(func(s Snapshot) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	}))

	c.OnInputChange("hello")
	_, err := c.OnSubmit(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	// input change, loading, completion
	require.Len(t, seen, 3)
	assert.Equal(t, "hello", seen[0].State.Query)
	assert.True(t, seen[1].State.IsLoading)
	assert.False(t, seen[2].State.IsLoading)
	assert.Equal(t, 1, seen[2].History.Len())
	assert.Equal(t, 0, seen[1].History.Len())
	assert.Equal(t, []uint64{1, 2, 3}, []uint64{seen[0].Version, seen[1].Version, seen[2].Version})
}

func TestSnapshotVersion(t *testing.T) {
	c := NewController(&fakeService{result: textResult("ok")}, notify.NewRecorder(),
		WithHistory([]models.ChatEntry{{Query: "seed"}}))
	assert.Equal(t, uint64(0), c.Snapshot().Version)

	c.OnInputChange("a")
	v := c.Snapshot().Version
	assert.Equal(t, v, c.Snapshot().Version, "reads do not change the version")

	c.OnClearHistory()
	assert.Greater(t, c.Snapshot().Version, v)
}

type panickingService struct {
	panics int
}

func (p *panickingService) ProcessQuery(context.Context, string) (models.RawResult, error) {
	if p.panics > 0 {
		p.panics--
		panic("nil map write")
	}
	return textResult("recovered"), nil
}

func TestOnSubmit_ServicePanicReturnsToIdle(t *testing.T) {
	rec := notify.NewRecorder()
	c := NewController(&panickingService{panics: 1}, rec)

	c.OnInputChange("report")
	_, err := c.OnSubmit(context.Background())
	require.Error(t, err)
	assert.True(t, IsServiceFailure(err))
	assert.ErrorContains(t, err, "nil map write")

	state := c.State()
	assert.False(t, state.IsLoading)
	assert.Empty(t, state.Query)
	assert.Equal(t, GenericFailureMessage, state.LastError)
	assert.Equal(t, 0, c.History().Len())

	c.OnInputChange("report again")
	entries, err := c.OnSubmit(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "recovered", entries[0].Response)
}

func TestRestore(t *testing.T) {
	c := NewController(&fakeService{result: textResult("new")}, nil,
		WithHistory([]models.ChatEntry{{ID: 7, Query: "old", Response: "r"}}))

	entries := c.History().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].ID)

	c.OnInputChange("next")
	added, err := c.OnSubmit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, added[0].ID)

	c.Restore(nil)
	assert.Equal(t, 0, c.History().Len())
}

func TestOnSubmit_PassesContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	svc := &ctxService{}
	c := NewController(svc, nil)
	c.OnInputChange("q")
	_, err := c.OnSubmit(ctx)
	require.NoError(t, err)
	assert.Equal(t, ctx, svc.got)
}

type ctxService struct{ got context.Context }

func (s *ctxService) ProcessQuery(ctx context.Context, query string) (models.RawResult, error) {
	s.got = ctx
	return models.TextResult("ok"), nil
}
