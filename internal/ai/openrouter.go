package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/edgard/tgharvest/internal/aggregate"
)

// openRouterValidator talks to an OpenAI-compatible chat completions
// endpoint over plain HTTP.
type openRouterValidator struct {
	httpClient  *http.Client
	log         *slog.Logger
	baseURL     string
	apiToken    string
	model       string
	instruction string
	temperature float32
	maxTokens   int
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

func newOpenRouter(cfg Config, log *slog.Logger) (*openRouterValidator, error) {
	if cfg.Token == "" {
		return nil, errors.New("api token is required for openrouter")
	}
	if cfg.Model == "" {
		return nil, errors.New("model is required for openrouter")
	}

	return &openRouterValidator{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		log:         log.With("component", "ai_openrouter"),
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		apiToken:    cfg.Token,
		model:       cfg.Model,
		instruction: cfg.Instruction,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (v *openRouterValidator) Validate(ctx context.Context, user *aggregate.SenderAggregate) (bool, error) {
	prompt, err := buildPrompt(v.instruction, user)
	if err != nil {
		return false, err
	}

	apiRequest := chatCompletionRequest{
		Model:       v.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: v.temperature,
		MaxTokens:   v.maxTokens,
	}
	reqBody, err := json.Marshal(apiRequest)
	if err != nil {
		return false, fmt.Errorf("failed to marshal completion request: %w", err)
	}

	url := v.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return false, fmt.Errorf("failed to create completion request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+v.apiToken)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	startTime := time.Now()
	httpResp, err := v.httpClient.Do(httpReq)
	if err != nil {
		return false, fmt.Errorf("failed to call completion API: %w", err)
	}
	defer func() {
		if err := httpResp.Body.Close(); err != nil {
			v.log.Warn("failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read completion response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		v.log.Error("completion API error", "status_code", httpResp.StatusCode, "response", string(respBody))
		var errResp chatCompletionResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != nil {
			return false, fmt.Errorf("completion API error (%d): %s", httpResp.StatusCode, errResp.Error.Message)
		}
		return false, fmt.Errorf("completion API request failed with status code %d", httpResp.StatusCode)
	}

	var apiResponse chatCompletionResponse
	if err := json.Unmarshal(respBody, &apiResponse); err != nil {
		return false, fmt.Errorf("failed to parse completion response: %w", err)
	}
	if apiResponse.Error != nil {
		return false, fmt.Errorf("completion API returned an error: %s", apiResponse.Error.Message)
	}
	if len(apiResponse.Choices) == 0 || apiResponse.Choices[0].Message.Content == "" {
		return false, errors.New("no response choices returned")
	}

	valid, err := parseVerdict(apiResponse.Choices[0].Message.Content)
	if err != nil {
		return false, err
	}

	v.log.Debug("validation verdict",
		"sender_id", user.SenderID,
		"valid", valid,
		"api_ms", time.Since(startTime).Milliseconds())

	return valid, nil
}
