// Package client calls a querydesk server's query endpoint.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"querydesk/models"
)

const processPath = "/api/query/process"

// Error is a non-2xx answer from the server. Message is the server's
// user-facing message, if any.
type Error struct {
	StatusCode int
	Message    string
	Detail     string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Detail
	}
	return fmt.Sprintf("query service returned %d: %s", e.StatusCode, msg)
}

func (e *Error) UserMessage() string {
	return e.Message
}

// Remote is a query service reached over HTTP.
type Remote struct {
	baseURL    string
	userID     string
	httpClient *http.Client
}

func NewRemote(baseURL, userID string, timeout time.Duration) *Remote {
	return &Remote{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userID:     userID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (r *Remote) ProcessQuery(ctx context.Context, query string) (models.RawResult, error) {
	body, err := json.Marshal(models.QueryRequest{Query: query})
	if err != nil {
		return models.RawResult{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+processPath, bytes.NewReader(body))
	if err != nil {
		return models.RawResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.userID != "" {
		req.Header.Set("X-User-ID", r.userID)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return models.RawResult{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.RawResult{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Error  string `json:"error"`
			Detail string `json:"detail"`
		}
		_ = json.Unmarshal(data, &errBody)
		return models.RawResult{}, &Error{StatusCode: resp.StatusCode, Message: errBody.Error, Detail: errBody.Detail}
	}

	var raw models.RawResult
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.RawResult{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if raw.Kind != models.ResultRecords && raw.Kind != models.ResultText {
		return models.RawResult{}, fmt.Errorf("unknown result kind %q", raw.Kind)
	}
	return raw, nil
}
