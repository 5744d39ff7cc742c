package scrape

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/edgard/tgharvest/internal/chat"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeHistory replays a scripted sequence of results.
type fakeHistory struct {
	steps []historyStep
	pos   int
}

type historyStep struct {
	msg *chat.Message
	err error
}

func (h *fakeHistory) Next(context.Context) (*chat.Message, bool, error) {
	if h.pos >= len(h.steps) {
		return nil, false, nil
	}
	step := h.steps[h.pos]
	h.pos++
	if step.err != nil {
		return nil, false, step.err
	}
	return step.msg, true, nil
}

// fakeClient scripts the platform surface for one test.
type fakeClient struct {
	chat.Client

	history      *fakeHistory
	historyErr   error
	dialogs      []chat.Dialog
	dialogsErr   error
	dialogCalls  int
	participants []chat.Sender
	bios         map[int64]string
	bioErr       error
	bioCalls     int
	inviteErrs   []error
	inviteCalls  int
}

func (c *fakeClient) StreamMessages(context.Context, int64) (chat.History, error) {
	if c.historyErr != nil {
		return nil, c.historyErr
	}
	return c.history, nil
}

func (c *fakeClient) ListDialogs(context.Context, int) ([]chat.Dialog, error) {
	c.dialogCalls++
	if c.dialogsErr != nil {
		return nil, c.dialogsErr
	}
	return c.dialogs, nil
}

func (c *fakeClient) GetParticipants(context.Context, int64) ([]chat.Sender, error) {
	return c.participants, nil
}

func (c *fakeClient) GetFullProfile(_ context.Context, userID int64) (string, error) {
	c.bioCalls++
	if c.bioErr != nil {
		return "", c.bioErr
	}
	return c.bios[userID], nil
}

func (c *fakeClient) InviteToGroup(context.Context, chat.Dialog, chat.InviteTarget) error {
	i := c.inviteCalls
	c.inviteCalls++
	if i < len(c.inviteErrs) {
		return c.inviteErrs[i]
	}
	return nil
}

// memSink records rows in memory.
type memSink struct {
	header []string
	rows   [][]string
	rowErr error
}

func (s *memSink) WriteHeader(columns []string) error {
	s.header = columns
	return nil
}

func (s *memSink) WriteRow(fields []string) error {
	if s.rowErr != nil {
		return s.rowErr
	}
	s.rows = append(s.rows, fields)
	return nil
}

// recordingSleep captures requested sleep durations without waiting.
type recordingSleep struct {
	slept []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.slept = append(r.slept, d)
	return ctx.Err()
}

var errRemote = errors.New("remote failure")

func msgAt(id int64, date time.Time, sender *chat.Sender, text string) *chat.Message {
	return &chat.Message{ID: id, Date: date, Sender: sender, Text: text}
}
