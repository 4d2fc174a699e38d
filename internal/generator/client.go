package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/oliveagle/jsonpath"

	"github.com/examforge/examforge/internal/model"
)

// ClientConfig configures the generation HTTP client
type ClientConfig struct {
	Endpoint      string
	APIKey        string
	Timeout       time.Duration
	QuestionsPath string // JSONPath to the items array in the provider response
}

// Client calls the generation provider over HTTP. The items array is
// extracted from the response with a configurable JSONPath so envelope
// differences between providers don't require code changes.
type Client struct {
	httpClient    *http.Client
	endpoint      string
	apiKey        string
	timeout       time.Duration
	questionsPath string
	breaker       *CircuitBreaker
}

// NewClient creates a generation client
func NewClient(cfg ClientConfig) *Client {
	path := cfg.QuestionsPath
	if path == "" {
		path = "$.questions"
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		endpoint:      cfg.Endpoint,
		apiKey:        cfg.APIKey,
		timeout:       cfg.Timeout,
		questionsPath: path,
		breaker:       NewCircuitBreaker(),
	}
}

// produceRequest is the provider request body
type produceRequest struct {
	Section    model.Section    `json:"section"`
	Difficulty model.Difficulty `json:"difficulty"`
	Count      int              `json:"count"`
}

// generatedItem is the provider item shape; composite sections carry a
// passage plus questions, plain sections a single prompt.
type generatedItem struct {
	Prompt      string              `json:"prompt,omitempty"`
	Choices     []string            `json:"choices,omitempty"`
	Answer      int                 `json:"answer"`
	Explanation string              `json:"explanation,omitempty"`
	Passage     string              `json:"passage,omitempty"`
	Questions   []model.SubQuestion `json:"questions,omitempty"`
}

// Produce implements Source
func (c *Client) Produce(ctx context.Context, section model.Section, difficulty model.Difficulty, count int) ([]model.Question, error) {
	if count <= 0 {
		return nil, nil
	}

	if !c.breaker.CanAttempt() {
		return nil, fmt.Errorf("%w: provider circuit open", model.ErrGenerationFailed)
	}

	items, err := c.call(ctx, section, difficulty, count)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, err
	}

	c.breaker.RecordSuccess()
	return items, nil
}

func (c *Client) call(ctx context.Context, section model.Section, difficulty model.Difficulty, count int) ([]model.Question, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(produceRequest{
		Section:    section,
		Difficulty: difficulty,
		Count:      count,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request: %v", model.ErrGenerationFailed, err)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", model.ErrGenerationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Covers timeouts and context expiry; a slow provider must not
		// stall the whole job.
		return nil, fmt.Errorf("%w: %v", model.ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	// Limit response read to 4MB
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", model.ErrGenerationFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: provider returned status %d", model.ErrGenerationFailed, resp.StatusCode)
	}

	items, err := c.extractItems(respBody, section, difficulty)
	if err != nil {
		return nil, err
	}

	slog.Debug("Generation call completed",
		"section", section,
		"difficulty", difficulty,
		"requested", count,
		"produced", len(items),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return items, nil
}

// extractItems pulls the items array out of the provider response via
// JSONPath and maps each entry to a Question.
func (c *Client) extractItems(respBody []byte, section model.Section, difficulty model.Difficulty) ([]model.Question, error) {
	var doc interface{}
	if err := json.Unmarshal(respBody, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid provider response: %v", model.ErrGenerationFailed, err)
	}

	raw, err := jsonpath.JsonPathLookup(doc, c.questionsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: response missing %s: %v", model.ErrGenerationFailed, c.questionsPath, err)
	}

	entries, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an array", model.ErrGenerationFailed, c.questionsPath)
	}

	questions := make([]model.Question, 0, len(entries))
	for _, entry := range entries {
		encoded, err := json.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to re-encode item: %v", model.ErrGenerationFailed, err)
		}

		var item generatedItem
		if err := json.Unmarshal(encoded, &item); err != nil {
			return nil, fmt.Errorf("%w: malformed item: %v", model.ErrGenerationFailed, err)
		}

		questions = append(questions, model.Question{
			ID:           uuid.New().String(),
			Section:      section,
			Difficulty:   difficulty,
			Prompt:       item.Prompt,
			Choices:      item.Choices,
			Answer:       item.Answer,
			Explanation:  item.Explanation,
			Passage:      item.Passage,
			SubQuestions: item.Questions,
			Source:       model.SourceGenerated,
		})
	}

	return questions, nil
}
