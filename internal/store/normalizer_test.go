package store

import (
	"testing"
	"time"

	"chat-sync/internal/api"
	"chat-sync/internal/domain"
)

func TestNormalizeSessionFieldFallbacks(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	created := now.Add(-2 * 24 * time.Hour)

	raw := api.SessionRecord{
		SessionID:    "s1",
		SessionTitle: "mi chat",
		Content:      "último mensaje",
		CreatedAt:    created,
	}

	got := NormalizeSession(raw, now)
	if got.ID != "s1" {
		t.Fatalf("expected session_id fallback, got %q", got.ID)
	}
	if got.Title != "mi chat" {
		t.Fatalf("expected sessionTitle fallback, got %q", got.Title)
	}
	if got.Preview != "último mensaje" {
		t.Fatalf("expected content fallback, got %q", got.Preview)
	}
	if !got.UpdatedAt.Equal(created) {
		t.Fatalf("expected created_at fallback for updated_at, got %v", got.UpdatedAt)
	}
	if got.Icon != defaultSessionIcon {
		t.Fatalf("expected default icon, got %q", got.Icon)
	}
}

func TestNormalizeSessionCanonicalFieldsWin(t *testing.T) {
	now := time.Now().UTC()
	raw := api.SessionRecord{
		ID:           "canonical",
		SessionID:    "legacy",
		Title:        "canonical title",
		SessionTitle: "legacy title",
		Preview:      "canonical preview",
		Content:      "legacy preview",
		UpdatedAt:    now,
	}

	got := NormalizeSession(raw, now)
	if got.ID != "canonical" || got.Title != "canonical title" || got.Preview != "canonical preview" {
		t.Fatalf("expected canonical fields to win, got %+v", got)
	}
}

func TestNormalizeSessionDefaultTitle(t *testing.T) {
	now := time.Now().UTC()
	got := NormalizeSession(api.SessionRecord{ID: "s1", Title: "   "}, now)
	if got.Title != domain.DefaultSessionTitle {
		t.Fatalf("expected %q, got %q", domain.DefaultSessionTitle, got.Title)
	}
}

func TestNormalizeSessionGroupBuckets(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		age  time.Duration
		want string
	}{
		{2 * 24 * time.Hour, domain.GroupLast7Days},
		{10 * 24 * time.Hour, domain.GroupLast30Days},
		{90 * 24 * time.Hour, "2026-06"},
	}
	for _, c := range cases {
		got := NormalizeSession(api.SessionRecord{ID: "s1", UpdatedAt: now.Add(-c.age)}, now)
		if got.Group != c.want {
			t.Fatalf("age %v: expected group %q, got %q", c.age, c.want, got.Group)
		}
	}
}

func TestNormalizeSessionIdempotent(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	raw := api.SessionRecord{
		SessionID: "s1",
		Content:   "preview",
		CreatedAt: now.Add(-24 * time.Hour),
	}

	first := NormalizeSession(raw, now)
	second := NormalizeSession(api.SessionRecord{
		ID:        first.ID,
		Title:     first.Title,
		Preview:   first.Preview,
		UserID:    first.UserID,
		Icon:      first.Icon,
		CreatedAt: first.CreatedAt,
		UpdatedAt: first.UpdatedAt,
	}, now)

	if first != second {
		t.Fatalf("expected idempotent normalization:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestNormalizeSessionsPreservesOrder(t *testing.T) {
	now := time.Now().UTC()
	raw := []api.SessionRecord{{ID: "b"}, {ID: "a"}, {ID: "c"}}

	got := NormalizeSessions(raw, now)
	assertIDs(t, got, "b", "a", "c")
}
