package store

import (
	"errors"
	"testing"
)

func TestPagerBeginRejectsWhileBusy(t *testing.T) {
	p := NewPager(25)
	if !p.Begin(1, false) {
		t.Fatalf("expected first begin to proceed")
	}
	if p.State() != PagerLoadingInitial {
		t.Fatalf("expected loading-initial, got %v", p.State())
	}
	if p.Begin(2, false) {
		t.Fatalf("expected begin to be rejected while busy")
	}
}

func TestPagerBeginRejectsPastEnd(t *testing.T) {
	p := NewPager(25)
	if !p.Begin(1, false) {
		t.Fatalf("expected begin to proceed")
	}
	p.Finish(1, 10, false, nil)
	if p.HasMore() {
		t.Fatalf("expected hasMore=false after short page")
	}
	if p.Begin(2, false) {
		t.Fatalf("expected begin page 2 rejected with hasMore=false")
	}
}

func TestPagerForceBypassesGatesWithoutTouchingCursor(t *testing.T) {
	p := NewPager(25)
	if !p.Begin(2, false) {
		t.Fatalf("expected begin to proceed")
	}
	p.Finish(2, 25, false, nil)

	if !p.Begin(5, true) {
		t.Fatalf("expected forced begin to proceed")
	}
	p.Finish(5, 25, true, nil)

	if p.Page() != 2 {
		t.Fatalf("expected forced fetch to leave cursor at 2, got %d", p.Page())
	}
	if p.State() != PagerIdle {
		t.Fatalf("expected idle state, got %v", p.State())
	}
}

func TestPagerForceProceedsWhileBusy(t *testing.T) {
	p := NewPager(25)
	if !p.Begin(2, false) {
		t.Fatalf("expected begin to proceed")
	}
	if !p.Begin(1, true) {
		t.Fatalf("expected forced begin to bypass busy gate")
	}
}

func TestPagerFinishErrorClearsLoading(t *testing.T) {
	p := NewPager(25)
	if !p.Begin(2, false) {
		t.Fatalf("expected begin to proceed")
	}
	p.Finish(2, 0, false, errors.New("boom"))

	if p.State() != PagerErrored {
		t.Fatalf("expected errored state, got %v", p.State())
	}
	if p.Page() != 1 {
		t.Fatalf("expected cursor untouched on error, got %d", p.Page())
	}
	if !p.Begin(1, false) {
		t.Fatalf("expected begin to proceed after error")
	}
}

func TestPagerHasMoreTracksFullPages(t *testing.T) {
	p := NewPager(25)
	p.Begin(1, false)
	p.Finish(1, 25, false, nil)
	if !p.HasMore() {
		t.Fatalf("expected hasMore=true after full page")
	}

	p.Begin(2, false)
	p.Finish(2, 5, false, nil)
	if p.HasMore() {
		t.Fatalf("expected hasMore=false after partial page")
	}
	if p.Page() != 2 {
		t.Fatalf("expected cursor at 2, got %d", p.Page())
	}
}

func TestPagerDefaultsAndInvalidPage(t *testing.T) {
	p := NewPager(0)
	if p.PageSize() != defaultPageSize {
		t.Fatalf("expected default page size, got %d", p.PageSize())
	}
	if p.Begin(0, false) {
		t.Fatalf("expected page 0 rejected")
	}
	if p.Begin(-1, true) {
		t.Fatalf("expected negative page rejected even forced")
	}
}

func TestPagerStateString(t *testing.T) {
	cases := map[PagerState]string{
		PagerIdle:           "idle",
		PagerLoadingInitial: "loading-initial",
		PagerLoadingMore:    "loading-more",
		PagerErrored:        "errored",
		PagerState(99):      "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}
