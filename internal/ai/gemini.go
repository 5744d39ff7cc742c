package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/edgard/tgharvest/internal/aggregate"
)

// geminiValidator renders verdicts through the Google Gemini SDK.
type geminiValidator struct {
	client      *genai.Client
	log         *slog.Logger
	model       string
	instruction string
	temperature float32
	maxTokens   int
}

func newGemini(ctx context.Context, cfg Config, log *slog.Logger) (*geminiValidator, error) {
	if cfg.Token == "" {
		return nil, errors.New("api token is required for gemini")
	}
	if cfg.Model == "" {
		return nil, errors.New("model is required for gemini")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Token,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiValidator{
		client:      client,
		log:         log.With("component", "ai_gemini"),
		model:       cfg.Model,
		instruction: cfg.Instruction,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (v *geminiValidator) Validate(ctx context.Context, user *aggregate.SenderAggregate) (bool, error) {
	prompt, err := buildPrompt(v.instruction, user)
	if err != nil {
		return false, err
	}

	temperature := v.temperature
	genConfig := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  int32(v.maxTokens),
		ResponseMIMEType: "application/json",
	}
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := v.client.Models.GenerateContent(ctx, v.model, contents, genConfig)
	if err != nil {
		return false, fmt.Errorf("failed to call gemini API: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return false, errors.New("no response candidates returned")
	}

	valid, err := parseVerdict(resp.Text())
	if err != nil {
		return false, err
	}

	v.log.Debug("validation verdict", "sender_id", user.SenderID, "valid", valid)

	return valid, nil
}
