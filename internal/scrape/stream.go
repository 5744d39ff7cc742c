package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edgard/tgharvest/internal/chat"
)

// sleepFunc is a context-aware sleep, replaceable in tests.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Stream drains a group's history newest-first, keeping only messages
// inside a window. Because the source is ordered newest-first, the first
// timestamp before the window start is a safe early exit.
type Stream struct {
	client chat.Client
	log    *slog.Logger
	sleep  sleepFunc
}

// NewStream returns a stream over the given platform client.
func NewStream(client chat.Client, log *slog.Logger) *Stream {
	return &Stream{
		client: client,
		log:    log.With("component", "stream"),
		sleep:  sleepCtx,
	}
}

// Collect fetches every in-window message of the group, in the source's
// newest-first order. On any remote failure the partial result is
// discarded and the whole fetch fails; there is no checkpoint-resume.
func (s *Stream) Collect(ctx context.Context, groupID int64, w Window) ([]chat.Message, error) {
	hist, err := s.client.StreamMessages(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to open message history: %w", err)
	}

	var messages []chat.Message
	for {
		msg, ok, err := s.next(ctx, hist)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch messages: %w", err)
		}
		if !ok {
			break
		}

		if msg.Date.Before(w.Start) {
			break
		}
		if msg.Date.After(w.End) {
			// Newer than the window end (clock skew between window
			// issuance and the first message); skip without stopping.
			continue
		}

		messages = append(messages, *msg)
		if len(messages)%100 == 0 {
			s.log.Info("Fetching messages...",
				"count", len(messages),
				"latest", msg.Date.UTC().Format("2006-01-02 15:04:05"))
		}
	}

	return messages, nil
}

// next advances the history, sleeping out flood-wait conditions for as long
// as the source keeps demanding them.
func (s *Stream) next(ctx context.Context, hist chat.History) (*chat.Message, bool, error) {
	for {
		msg, ok, err := hist.Next(ctx)
		if err != nil {
			if fw, isWait := chat.AsFloodWait(err); isWait {
				s.log.Warn("Flood wait signaled, sleeping", "wait", fw.Wait)
				if serr := s.sleep(ctx, fw.Wait); serr != nil {
					return nil, false, serr
				}
				continue
			}
			return nil, false, err
		}
		return msg, ok, nil
	}
}
