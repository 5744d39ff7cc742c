package scrape

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/edgard/tgharvest/internal/chat"
)

func TestCollectKeepsOnlyWindowedMessages(t *testing.T) {
	t.Parallel()

	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	w := Window{Start: end.Add(-24 * time.Hour), End: end}

	client := &fakeClient{history: &fakeHistory{steps: []historyStep{
		{msg: msgAt(4, end.Add(time.Minute), nil, "too new")},
		{msg: msgAt(3, end.Add(-time.Hour), nil, "in window")},
		{msg: msgAt(2, end.Add(-23*time.Hour), nil, "also in window")},
		{msg: msgAt(1, end.Add(-25*time.Hour), nil, "too old, stops the stream")},
		{msg: msgAt(0, end.Add(-48*time.Hour), nil, "never reached")},
	}}}

	got, err := NewStream(client, testLogger()).Collect(context.Background(), 1, w)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2", len(got))
	}
	if got[0].ID != 3 || got[1].ID != 2 {
		t.Errorf("got ids %d, %d, want 3, 2", got[0].ID, got[1].ID)
	}
	if client.history.pos != 4 {
		t.Errorf("history advanced %d steps, want 4 (early stop)", client.history.pos)
	}
}

func TestCollectSleepsOutFloodWait(t *testing.T) {
	t.Parallel()

	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	w := Window{Start: end.Add(-24 * time.Hour), End: end}

	client := &fakeClient{history: &fakeHistory{steps: []historyStep{
		{msg: msgAt(2, end.Add(-time.Hour), nil, "first")},
		{err: &chat.FloodWaitError{Wait: 7 * time.Second}},
		{msg: msgAt(1, end.Add(-2*time.Hour), nil, "second")},
	}}}

	stream := NewStream(client, testLogger())
	rec := &recordingSleep{}
	stream.sleep = rec.sleep

	got, err := stream.Collect(context.Background(), 1, w)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2", len(got))
	}
	if len(rec.slept) != 1 || rec.slept[0] != 7*time.Second {
		t.Errorf("slept %v, want one 7s wait", rec.slept)
	}
}

func TestCollectDiscardsPartialResultOnFailure(t *testing.T) {
	t.Parallel()

	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	w := Window{Start: end.Add(-24 * time.Hour), End: end}

	client := &fakeClient{history: &fakeHistory{steps: []historyStep{
		{msg: msgAt(2, end.Add(-time.Hour), nil, "fetched before the failure")},
		{err: errRemote},
	}}}

	got, err := NewStream(client, testLogger()).Collect(context.Background(), 1, w)
	if !errors.Is(err, errRemote) {
		t.Fatalf("err = %v, want wrapped remote failure", err)
	}
	if got != nil {
		t.Errorf("got %d messages, want none on failure", len(got))
	}
}

func TestCollectFailsWhenHistoryCannotOpen(t *testing.T) {
	t.Parallel()

	client := &fakeClient{historyErr: errRemote}
	_, err := NewStream(client, testLogger()).Collect(context.Background(), 1, Window{})
	if !errors.Is(err, errRemote) {
		t.Fatalf("err = %v, want wrapped remote failure", err)
	}
}
