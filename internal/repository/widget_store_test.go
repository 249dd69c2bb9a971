package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"support-widget/internal/domain"
)

type failingScope struct {
	getErr error
	setErr error
	delErr error
	sets   int
}

func (f *failingScope) Get(context.Context, string) (string, bool, error) {
	return "", false, f.getErr
}

func (f *failingScope) Set(context.Context, string, string) error {
	f.sets++
	return f.setErr
}

func (f *failingScope) Delete(context.Context, string) error {
	return f.delErr
}

func newTestStore(t *testing.T) (*WidgetStore, *MemoryScope, *MemoryScope) {
	t.Helper()
	eph := NewMemoryScope(0, 0)
	dur := NewMemoryScope(0, 0)
	return NewWidgetStore(eph, dur, nil, 0), eph, dur
}

func TestWidgetStore_AppendKeepsLastHundredInOrder(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	store.SaveSessionID(ctx, "s1")

	total := DefaultMaxMessages + 37
	for i := 0; i < total; i++ {
		store.AppendMessage(ctx, domain.Message{Text: fmt.Sprintf("m%d", i), IsBot: i%2 == 0})
	}

	got := store.GetMessages(ctx)
	if len(got) != DefaultMaxMessages {
		t.Fatalf("expected %d messages, got %d", DefaultMaxMessages, len(got))
	}
	for i, msg := range got {
		want := fmt.Sprintf("m%d", total-DefaultMaxMessages+i)
		if msg.Text != want {
			t.Fatalf("message %d: expected %q, got %q", i, want, msg.Text)
		}
	}
}

func TestWidgetStore_MessagesKeyedBySession(t *testing.T) {
	ctx := context.Background()
	store, _, dur := newTestStore(t)

	store.AppendMessage(ctx, domain.Message{Text: "lost"})
	if _, ok, _ := dur.Get(ctx, MessagesKey("")); ok {
		t.Fatalf("append without session id must not write")
	}

	store.SaveSessionID(ctx, "s1")
	store.AppendMessage(ctx, domain.Message{Text: "hello"})
	raw, ok, _ := dur.Get(ctx, "messages:s1")
	if !ok || !strings.Contains(raw, `"version":1`) {
		t.Fatalf("expected versioned log under messages:s1, got %q (found=%v)", raw, ok)
	}

	store.ClearSessionID(ctx)
	if got := store.GetMessages(ctx); len(got) != 0 {
		t.Fatalf("log without session id must read as empty, got %d", len(got))
	}
}

func TestWidgetStore_CorruptDataReadsEmpty(t *testing.T) {
	ctx := context.Background()
	store, _, dur := newTestStore(t)
	store.SaveSessionID(ctx, "s1")

	cases := []string{"not json", `{"version":7,"messages":[]}`, `"str"`, `{"version":1,"messages":`}
	for _, raw := range cases {
		_ = dur.Set(ctx, MessagesKey("s1"), raw)
		if got := store.GetMessages(ctx); len(got) != 0 {
			t.Fatalf("%q: expected empty log, got %d", raw, len(got))
		}
	}

	store.AppendMessage(ctx, domain.Message{Text: "fresh"})
	if got := store.GetMessages(ctx); len(got) != 1 || got[0].Text != "fresh" {
		t.Fatalf("append over corrupt data should start a new log, got %+v", got)
	}
}

func TestDecodeMessageLog_MigratesLegacyArrayAndDropsUnknownSteps(t *testing.T) {
	raw := `[
		{"text":"Welcome","isBot":true,"step":"send_ai_starting_disclaimer","sessionId":"s1"},
		{"text":"???","isBot":true,"step":"send_weather"},
		{"text":"Pick one","isBot":true,"step":"send_user_types","options":[{"id":"student","option_value":"Student"}]}
	]`
	messages, dropped, err := DecodeMessageLog([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dropped != 1 {
		t.Fatalf("expected 1 dropped message, got %d", dropped)
	}
	if len(messages) != 2 || messages[1].Options[0].ID != "student" {
		t.Fatalf("unexpected messages: %+v", messages)
	}
}

func TestWidgetStore_AmendLastMessage(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	store.SaveSessionID(ctx, "s1")
	store.AppendMessage(ctx, domain.Message{Text: "a"})
	store.AppendMessage(ctx, domain.Message{Text: "rate us", IsBot: true, Step: domain.StepRating})

	store.AmendLastMessage(ctx, func(m *domain.Message) {
		m.Rating = &domain.RatingSubmission{Rating: 4, FeedbackOption: "fast"}
	})

	got := store.GetMessages(ctx)
	if got[1].Rating == nil || got[1].Rating.Rating != 4 {
		t.Fatalf("expected rating attached to last message, got %+v", got[1])
	}
	if got[0].Rating != nil {
		t.Fatalf("only the last message should be amended")
	}
}

func TestWidgetStore_StorageFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	eph := NewMemoryScope(0, 0)
	dur := &failingScope{getErr: errors.New("boom"), setErr: ErrQuotaExceeded, delErr: errors.New("boom")}
	store := NewWidgetStore(eph, dur, nil, 0)
	store.SaveSessionID(ctx, "s1")

	store.AppendMessage(ctx, domain.Message{Text: "x"})
	store.AmendLastMessage(ctx, func(m *domain.Message) { m.Text = "y" })
	store.ClearMessages(ctx)
	if got := store.GetMessages(ctx); got != nil {
		t.Fatalf("expected nil messages on read failure, got %+v", got)
	}
	if dur.sets != 1 {
		t.Fatalf("expected a single attempted write, got %d", dur.sets)
	}

	broken := NewWidgetStore(&failingScope{getErr: errors.New("down")}, dur, nil, 0)
	if id := broken.GetSessionID(ctx); id != "" {
		t.Fatalf("expected empty session id on failure, got %q", id)
	}
}
