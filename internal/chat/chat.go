// Package chat defines the boundary to the remote chat platform. The core
// pipeline consumes these capability interfaces only; the concrete MTProto
// transport is supplied by the deployment and classified into the types
// below at the boundary, so nothing downstream inspects raw payloads.
package chat

import (
	"context"
	"strings"
	"time"
)

// SenderKind is the closed classification of a message author. The adapter
// decides the kind once when translating raw platform payloads.
type SenderKind int

const (
	SenderUser SenderKind = iota
	SenderBot
	SenderChannel
)

// Sender identifies the author of a message or a group participant.
type Sender struct {
	ID         int64
	AccessHash int64
	Kind       SenderKind
	Username   string
	FirstName  string
	LastName   string
}

// DisplayName joins the non-empty name parts with a single space.
func (s *Sender) DisplayName() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{s.FirstName, s.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Dialog is a chat the connected account participates in.
type Dialog struct {
	ID         int64
	AccessHash int64
	Title      string
	IsGroup    bool
}

// Message is one message fetched from a group's history. Sender is nil for
// channel posts with no user attribution.
type Message struct {
	ID         int64
	Date       time.Time
	Sender     *Sender
	Text       string
	GroupID    int64
	GroupTitle string
}

// History iterates a group's message history in the platform's native
// newest-first order. It is finite and not restartable: a second pass
// requires a new History from the client.
type History interface {
	// Next returns the next message. ok is false once the history is
	// exhausted. A flood-wait condition surfaces as *FloodWaitError; the
	// caller is expected to sleep and call Next again.
	Next(ctx context.Context) (msg *Message, ok bool, err error)
}

// InviteTarget identifies a user to invite into a group, either by username
// or by id plus access hash.
type InviteTarget struct {
	Username   string
	UserID     int64
	AccessHash int64
}

// Client is the capability surface the pipeline needs from the platform.
// Every method is a suspension point and honors context cancellation.
type Client interface {
	Connect(ctx context.Context) error
	IsAuthorized(ctx context.Context) (bool, error)
	SendCode(ctx context.Context, phone string) error
	SignIn(ctx context.Context, phone, code string) error

	// ListDialogs returns up to limit dialogs for the connected account.
	// A limit of zero or less means no cap.
	ListDialogs(ctx context.Context, limit int) ([]Dialog, error)

	// StreamMessages opens the history of a group, newest-first.
	StreamMessages(ctx context.Context, groupID int64) (History, error)

	// GetParticipants returns the member list of a group.
	GetParticipants(ctx context.Context, groupID int64) ([]Sender, error)

	// GetFullProfile returns the bio text of a user, or "" when the
	// profile has none.
	GetFullProfile(ctx context.Context, userID int64) (string, error)

	// InviteToGroup adds one user to a group. Reports ErrPeerFlood,
	// ErrPrivacyRestricted and *FloodWaitError per the platform's policy.
	InviteToGroup(ctx context.Context, group Dialog, target InviteTarget) error

	Close() error
}
