// Package ai decides whether an aggregated sender looks like a genuine
// gambling-interested user. Two interchangeable backends are provided, an
// OpenAI-compatible chat completions API and the Gemini API.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/edgard/tgharvest/internal/aggregate"
)

const recentMessages = 5

// Validator renders a boolean verdict for one sender aggregate.
type Validator interface {
	Validate(ctx context.Context, user *aggregate.SenderAggregate) (bool, error)
}

// Config selects and parameterizes a validation backend.
type Config struct {
	Provider    string
	Token       string
	BaseURL     string
	Model       string
	Instruction string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// New builds the validator named by cfg.Provider.
func New(ctx context.Context, cfg Config, log *slog.Logger) (Validator, error) {
	switch cfg.Provider {
	case "openrouter":
		return newOpenRouter(cfg, log)
	case "gemini":
		return newGemini(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}

type summaryMessage struct {
	MessageID string `json:"message_id"`
	Date      string `json:"date"`
	Text      string `json:"message_text"`
	Keywords  string `json:"gaming_keywords"`
}

type userSummary struct {
	Username       string           `json:"username"`
	Name           string           `json:"name"`
	Bio            string           `json:"bio"`
	CommonGroups   string           `json:"common_groups"`
	Group          string           `json:"group"`
	GroupID        string           `json:"group_id"`
	MessagesCount  int              `json:"messages_count"`
	RecentMessages []summaryMessage `json:"recent_messages"`
}

// buildPrompt renders the instruction followed by a JSON summary of the
// sender. The aggregate's message list is in ingestion order, newest first,
// so the most recent messages are its head.
func buildPrompt(instruction string, user *aggregate.SenderAggregate) (string, error) {
	summary := userSummary{
		Username:      user.Username,
		Name:          user.Name,
		Bio:           user.Bio,
		CommonGroups:  user.CommonGroups,
		Group:         user.Group,
		GroupID:       user.GroupID,
		MessagesCount: len(user.Messages),
	}
	recent := user.Messages
	if len(recent) > recentMessages {
		recent = recent[:recentMessages]
	}
	for _, msg := range recent {
		summary.RecentMessages = append(summary.RecentMessages, summaryMessage{
			MessageID: msg.MessageID,
			Date:      msg.Date,
			Text:      msg.Text,
			Keywords:  msg.Keywords,
		})
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("failed to encode user summary: %w", err)
	}
	return instruction + "\n\nUser data:\n" + string(data), nil
}

type verdict struct {
	Valid bool `json:"valid"`
}

// parseVerdict extracts the {"valid": bool} object from a model reply,
// tolerating markdown code fences around the JSON.
func parseVerdict(reply string) (bool, error) {
	s := strings.TrimSpace(reply)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	var v verdict
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return false, fmt.Errorf("failed to parse model verdict: %w", err)
	}
	return v.Valid, nil
}
