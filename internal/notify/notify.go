// Package notify sends short completion notices to a Telegram chat through
// the Bot API. The notifier is optional and turns into a no-op when no bot
// token or chat id is configured.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
)

// Notifier delivers run summaries to a configured chat.
type Notifier struct {
	bot    *bot.Bot
	log    *slog.Logger
	chatID int64
}

// New builds a notifier. An empty token or zero chat id yields a disabled
// notifier whose Send does nothing.
func New(token string, chatID int64, log *slog.Logger) (*Notifier, error) {
	n := &Notifier{
		log:    log.With("component", "notify"),
		chatID: chatID,
	}
	if token == "" || chatID == 0 {
		return n, nil
	}

	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot client: %w", err)
	}
	n.bot = b
	return n, nil
}

// Enabled reports whether notifications will actually be delivered.
func (n *Notifier) Enabled() bool {
	return n.bot != nil
}

// Send delivers one message. Delivery failures are logged, not returned, so
// a flaky bot token never fails a finished run.
func (n *Notifier) Send(ctx context.Context, text string) {
	if n.bot == nil {
		return
	}
	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: n.chatID,
		Text:   text,
	})
	if err != nil {
		n.log.Warn("failed to send notification", "error", err)
		return
	}
	n.log.Debug("notification sent", "chat_id", n.chatID)
}
