package ai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"querydesk/cache"
	"querydesk/config"
	"querydesk/models"
)

const (
	defaultMinInterval = 500 * time.Millisecond
	defaultRetryDelay  = 2 * time.Second
	maxRetries         = 3
)

// ErrEmptyCompletion is returned when the model answers with no choices.
var ErrEmptyCompletion = errors.New("no response from AI model")

// APIError is a non-2xx answer from the model endpoint.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Code == "" && e.Message == "" {
		return fmt.Sprintf("API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("API error (status %d): %s - %s (request_id: %s)", e.StatusCode, e.Code, e.Message, e.RequestID)
}

func (e *APIError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type AIService struct {
	apiKey     string
	modelName  string
	apiURL     string
	cache      *cache.Cache
	httpClient *http.Client

	requestMutex       sync.Mutex
	lastRequestTime    time.Time
	minRequestInterval time.Duration
	retryBaseDelay     time.Duration
}

type DashScopeRequest struct {
	Model string `json:"model"`
	Input struct {
		Messages []DashScopeMessage `json:"messages"`
	} `json:"input"`
}

type DashScopeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type DashScopeResponse struct {
	Output struct {
		Choices []struct {
			Message DashScopeMessage `json:"message"`
		} `json:"choices"`
	} `json:"output"`
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
}

func New(cfg config.LLMConfig, c *cache.Cache) (*AIService, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("LLM API URL is not configured")
	}
	if c == nil {
		c = cache.New(0)
	}
	return &AIService{
		apiKey:             cfg.APIKey,
		modelName:          cfg.ModelName,
		apiURL:             cfg.APIURL,
		cache:              c,
		httpClient:         &http.Client{Timeout: cfg.Timeout},
		minRequestInterval: defaultMinInterval,
		retryBaseDelay:     defaultRetryDelay,
	}, nil
}

func (a *AIService) Close() error {
	a.httpClient.CloseIdleConnections()
	return nil
}

// rateLimit spaces requests at least minRequestInterval apart.
func (a *AIService) rateLimit(ctx context.Context) error {
	a.requestMutex.Lock()
	defer a.requestMutex.Unlock()

	if wait := a.minRequestInterval - time.Since(a.lastRequestTime); wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	a.lastRequestTime = time.Now()
	return nil
}

// complete sends messages and returns the first choice, retrying network
// errors, 429 and 5xx with exponential backoff.
func (a *AIService) complete(ctx context.Context, messages []DashScopeMessage) (string, error) {
	reqBody := DashScopeRequest{Model: a.modelName}
	reqBody.Input.Messages = messages

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := a.retryBaseDelay * time.Duration(1<<uint(attempt-1))
			log.Printf("[AI] retrying after %v (attempt %d/%d): %v", delay, attempt, maxRetries, lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		if err := a.rateLimit(ctx); err != nil {
			return "", err
		}

		content, err := a.send(ctx, jsonData)
		if err == nil {
			return content, nil
		}
		lastErr = err

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.retryable() {
			return "", err
		}
		if errors.Is(err, ErrEmptyCompletion) || ctx.Err() != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (a *AIService) send(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var parsed DashScopeResponse
	decodeErr := json.Unmarshal(data, &parsed)

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Code, apiErr.Message, apiErr.RequestID = parsed.Code, parsed.Message, parsed.RequestID
		}
		return "", apiErr
	}
	if decodeErr != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", decodeErr)
	}
	if parsed.Code != "" && parsed.Code != "Success" {
		return "", &APIError{StatusCode: resp.StatusCode, Code: parsed.Code, Message: parsed.Message, RequestID: parsed.RequestID}
	}
	if len(parsed.Output.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return parsed.Output.Choices[0].Message.Content, nil
}

// referenceDigest identifies a set of reference files, so cached SQL is
// dropped once the references change.
func referenceDigest(sqlFiles []models.SQLFile) string {
	h := sha256.New()
	for _, f := range sqlFiles {
		h.Write([]byte(f.Name))
		h.Write([]byte{0})
		h.Write([]byte(f.Content))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// GenerateSQL translates a natural language request to SQL. Results are
// cached per prompt and reference file set.
func (a *AIService) GenerateSQL(ctx context.Context, userPrompt string, sqlFiles []models.SQLFile) (string, error) {
	cacheKey := "sql_prompt:" + referenceDigest(sqlFiles) + ":" + userPrompt
	if cached, ok := a.cache.GetString(cacheKey); ok {
		return cached, nil
	}

	response, err := a.complete(ctx, []DashScopeMessage{{Role: "user", Content: BuildSQLPrompt(userPrompt, sqlFiles)}})
	if err != nil {
		return "", fmt.Errorf("failed to generate SQL: %w", err)
	}

	sql := stripFences(response)
	if sql == "" {
		return "", fmt.Errorf("generated SQL query is empty")
	}
	a.cache.SetDefault(cacheKey, sql)
	return sql, nil
}

// GenerateChatResponse answers a conversational message. Results are cached per prompt.
func (a *AIService) GenerateChatResponse(ctx context.Context, userPrompt string) (string, error) {
	cacheKey := "chat_prompt:" + userPrompt
	if cached, ok := a.cache.GetString(cacheKey); ok {
		return cached, nil
	}

	response, err := a.complete(ctx, []DashScopeMessage{{Role: "user", Content: BuildChatPrompt(userPrompt)}})
	if err != nil {
		return "", fmt.Errorf("failed to generate chat response: %w", err)
	}

	answer := stripFences(response)
	if strings.TrimSpace(answer) != "" {
		a.cache.SetDefault(cacheKey, answer)
	}
	return answer, nil
}
