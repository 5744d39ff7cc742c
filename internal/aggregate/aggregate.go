// Package aggregate regroups persisted per-message records by sender and
// carries the sender-keyed JSON artifact consumed by validation and upload.
package aggregate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/edgard/tgharvest/internal/export"
)

// MessageRecord is one message inside a sender aggregate.
type MessageRecord struct {
	MessageID string `json:"message_id"`
	Date      string `json:"date"`
	Text      string `json:"message_text"`
	Keywords  string `json:"message_gaming_keywords"`
}

// SenderAggregate collects every message of one sender. Sender-level fields
// are frozen from the first record seen for that sender; later records only
// append messages.
type SenderAggregate struct {
	SenderID     string          `json:"sender_id"`
	Username     string          `json:"sender_username"`
	Name         string          `json:"sender_name"`
	Bio          string          `json:"sender_bio"`
	CommonGroups string          `json:"sender_common_groups"`
	Group        string          `json:"group"`
	GroupID      string          `json:"group_id"`
	Messages     []MessageRecord `json:"messages"`
	AIValidated  bool            `json:"ai_validated,omitempty"`
}

// Build regroups header-keyed rows into sender aggregates. Rows without a
// sender id are skipped. Pure function of its input.
func Build(header []string, rows [][]string) map[string]*SenderAggregate {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	users := make(map[string]*SenderAggregate)
	for _, row := range rows {
		senderID := field(row, "sender_id")
		if senderID == "" {
			continue
		}

		agg, ok := users[senderID]
		if !ok {
			username := field(row, "sender_username")
			if username != "" && !strings.HasPrefix(username, "@") {
				username = "@" + username
			}
			agg = &SenderAggregate{
				SenderID:     senderID,
				Username:     username,
				Name:         field(row, "sender_name"),
				Bio:          field(row, "sender_bio"),
				CommonGroups: field(row, "sender_common_groups"),
				Group:        field(row, "group"),
				GroupID:      field(row, "group_id"),
			}
			users[senderID] = agg
		}

		agg.Messages = append(agg.Messages, MessageRecord{
			MessageID: field(row, "message_id"),
			Date:      field(row, "date"),
			Text:      field(row, "message_text"),
			Keywords:  field(row, "message_gaming_keywords"),
		})
	}
	return users
}

// ReadFile aggregates a message export file.
func ReadFile(path string, d export.Dialect) (map[string]*SenderAggregate, error) {
	r, closer, err := export.OpenReader(path, d)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]*SenderAggregate{}, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		rows = append(rows, row)
	}
	return Build(header, rows), nil
}

// FilterByKeyword keeps the aggregates that have at least one message with
// a non-empty keyword summary. Pure function of its input.
func FilterByKeyword(users map[string]*SenderAggregate) map[string]*SenderAggregate {
	kept := make(map[string]*SenderAggregate)
	for id, agg := range users {
		for _, msg := range agg.Messages {
			if strings.TrimSpace(msg.Keywords) != "" {
				kept[id] = agg
				break
			}
		}
	}
	return kept
}

// FilterValidated keeps the aggregates the classifier accepted. Pure
// function of its input.
func FilterValidated(users map[string]*SenderAggregate) map[string]*SenderAggregate {
	kept := make(map[string]*SenderAggregate)
	for id, agg := range users {
		if agg.AIValidated {
			kept[id] = agg
		}
	}
	return kept
}

// Save writes the sender-keyed artifact as indented JSON.
func Save(path string, users map[string]*SenderAggregate) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode aggregates: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Load reads a previously saved artifact.
func Load(path string) (map[string]*SenderAggregate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var users map[string]*SenderAggregate
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return users, nil
}
