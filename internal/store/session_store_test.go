package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"chat-sync/internal/api"
)

type listCall struct {
	page     int
	pageSize int
}

type mockSessionAPI struct {
	pages     map[int][]api.SessionRecord
	listCalls []listCall
	listErr   error
	onList    func(page int)

	created    api.SessionRecord
	createErr  error
	lastTitle  string
	updatedID  string
	updateErr  error
	deleted    []string
	deleteErrs map[string]error
}

func (m *mockSessionAPI) ListSessions(_ context.Context, page, pageSize int) ([]api.SessionRecord, error) {
	m.listCalls = append(m.listCalls, listCall{page: page, pageSize: pageSize})
	if m.onList != nil {
		hook := m.onList
		m.onList = nil
		hook(page)
	}
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.pages[page], nil
}

func (m *mockSessionAPI) CreateSession(_ context.Context, title string) (api.SessionRecord, error) {
	m.lastTitle = title
	if m.createErr != nil {
		return api.SessionRecord{}, m.createErr
	}
	return m.created, nil
}

func (m *mockSessionAPI) UpdateSession(_ context.Context, id, title string) error {
	m.updatedID = id
	m.lastTitle = title
	return m.updateErr
}

func (m *mockSessionAPI) DeleteSession(_ context.Context, id string) error {
	if err := m.deleteErrs[id]; err != nil {
		return err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func recordsWithIDs(ids ...string) []api.SessionRecord {
	out := make([]api.SessionRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, api.SessionRecord{ID: id, Title: "t-" + id})
	}
	return out
}

func TestSessionStoreRequestPageLoadsAndNormalizes(t *testing.T) {
	mock := &mockSessionAPI{pages: map[int][]api.SessionRecord{
		1: {{SessionID: "s1", SessionTitle: "legacy"}, {ID: "s2"}},
	}}
	store := NewSessionStore(mock, 25, nil)

	if err := store.RequestPage(context.Background(), 1, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	sessions := store.Sessions()
	assertIDs(t, sessions, "s1", "s2")
	if sessions[0].Title != "legacy" {
		t.Fatalf("expected normalized title, got %q", sessions[0].Title)
	}
	if store.State() != PagerIdle {
		t.Fatalf("expected idle state, got %v", store.State())
	}
	if len(mock.listCalls) != 1 || mock.listCalls[0] != (listCall{page: 1, pageSize: 25}) {
		t.Fatalf("unexpected list calls: %+v", mock.listCalls)
	}
}

func TestSessionStoreRequestPageNoopWhileInFlight(t *testing.T) {
	mock := &mockSessionAPI{pages: map[int][]api.SessionRecord{1: recordsWithIDs("s1")}}
	store := NewSessionStore(mock, 25, nil)

	// El hook corre con el fetch de la página 1 todavía en vuelo: la
	// segunda llamada debe ser no-op sin tocar el backend.
	mock.onList = func(int) {
		if err := store.RequestPage(context.Background(), 1, false); err != nil {
			t.Fatalf("expected nested request to be a no-op, got %v", err)
		}
	}

	if err := store.RequestPage(context.Background(), 1, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(mock.listCalls) != 1 {
		t.Fatalf("expected a single backend call, got %d", len(mock.listCalls))
	}
}

func TestSessionStoreLoadMoreAppendsAndStopsAtEnd(t *testing.T) {
	page1 := make([]api.SessionRecord, 0, 25)
	for i := 1; i <= 25; i++ {
		page1 = append(page1, api.SessionRecord{ID: fmt.Sprintf("s%d", i)})
	}
	mock := &mockSessionAPI{pages: map[int][]api.SessionRecord{
		1: page1,
		2: recordsWithIDs("s26", "s27"),
	}}
	store := NewSessionStore(mock, 25, nil)

	if err := store.RequestPage(context.Background(), 1, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !store.HasMore() {
		t.Fatalf("expected hasMore after full page")
	}

	if err := store.LoadMore(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	sessions := store.Sessions()
	if len(sessions) != 27 {
		t.Fatalf("expected 27 sessions, got %d", len(sessions))
	}
	if sessions[25].ID != "s26" || sessions[26].ID != "s27" {
		t.Fatalf("expected page 2 appended at tail")
	}
	if store.HasMore() {
		t.Fatalf("expected hasMore=false after short page")
	}

	// Con hasMore=false, LoadMore no vuelve al backend.
	calls := len(mock.listCalls)
	if err := store.LoadMore(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(mock.listCalls) != calls {
		t.Fatalf("expected no extra backend call, got %d", len(mock.listCalls)-calls)
	}
}

func TestSessionStoreRequestPageErrorKeepsList(t *testing.T) {
	mock := &mockSessionAPI{pages: map[int][]api.SessionRecord{1: recordsWithIDs("s1", "s2")}}
	store := NewSessionStore(mock, 25, nil)

	if err := store.RequestPage(context.Background(), 1, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	mock.listErr = errors.New("backend down")
	if err := store.RequestPage(context.Background(), 1, false); err == nil {
		t.Fatalf("expected error")
	}

	assertIDs(t, store.Sessions(), "s1", "s2")
	if store.State() != PagerErrored {
		t.Fatalf("expected errored state, got %v", store.State())
	}
}

func TestSessionStoreForcedRefreshKeepsCursor(t *testing.T) {
	mock := &mockSessionAPI{pages: map[int][]api.SessionRecord{
		1: recordsWithIDs("a", "b"),
		2: recordsWithIDs("c", "d"),
		3: recordsWithIDs("e"),
	}}
	store := NewSessionStore(mock, 2, nil)

	if err := store.RequestPage(context.Background(), 1, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := store.LoadMore(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if store.Page() != 2 {
		t.Fatalf("expected cursor at 2, got %d", store.Page())
	}

	// Un refetch forzado de la página 1 no retrocede el cursor.
	if err := store.RequestPage(context.Background(), 1, true); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if store.Page() != 2 {
		t.Fatalf("expected cursor still at 2 after forced fetch, got %d", store.Page())
	}

	if err := store.LoadMore(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	last := mock.listCalls[len(mock.listCalls)-1]
	if last.page != 3 {
		t.Fatalf("expected next load to request page 3, got %d", last.page)
	}
}

func TestSessionStoreCreateSessionResyncsHead(t *testing.T) {
	mock := &mockSessionAPI{
		created: api.SessionRecord{ID: "new", Title: "nueva"},
		pages:   map[int][]api.SessionRecord{1: recordsWithIDs("new", "old")},
	}
	store := NewSessionStore(mock, 25, nil)

	created, err := store.CreateSession(context.Background(), "  nueva  ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created.ID != "new" || created.Title != "nueva" {
		t.Fatalf("expected normalized created session, got %+v", created)
	}
	if mock.lastTitle != "nueva" {
		t.Fatalf("expected trimmed title, got %q", mock.lastTitle)
	}
	if len(mock.listCalls) != 1 || mock.listCalls[0].page != 1 {
		t.Fatalf("expected forced refetch of page 1, got %+v", mock.listCalls)
	}
	assertIDs(t, store.Sessions(), "new", "old")
}

func TestSessionStoreCreateSessionSurvivesResyncFailure(t *testing.T) {
	mock := &mockSessionAPI{
		created: api.SessionRecord{ID: "new"},
		listErr: errors.New("backend down"),
	}
	store := NewSessionStore(mock, 25, nil)

	created, err := store.CreateSession(context.Background(), "t")
	if err != nil {
		t.Fatalf("expected creation to succeed despite resync failure, got %v", err)
	}
	if created.ID != "new" {
		t.Fatalf("expected created session, got %+v", created)
	}
}

func TestSessionStoreUpdateSessionResyncsOwningPage(t *testing.T) {
	page1 := make([]api.SessionRecord, 0, 25)
	for i := 1; i <= 25; i++ {
		page1 = append(page1, api.SessionRecord{ID: fmt.Sprintf("s%d", i)})
	}
	mock := &mockSessionAPI{pages: map[int][]api.SessionRecord{
		1: page1,
		2: recordsWithIDs("s26", "s27"),
	}}
	store := NewSessionStore(mock, 25, nil)

	if err := store.RequestPage(context.Background(), 1, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := store.LoadMore(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// s26 está en el índice 25: cae en la página 2.
	if err := store.UpdateSession(context.Background(), "s26", "renamed"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mock.updatedID != "s26" {
		t.Fatalf("expected update for s26, got %q", mock.updatedID)
	}
	last := mock.listCalls[len(mock.listCalls)-1]
	if last.page != 2 {
		t.Fatalf("expected resync of page 2, got %d", last.page)
	}

	// Una sesión desconocida resyncronea la página 1.
	if err := store.UpdateSession(context.Background(), "missing", "x"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	last = mock.listCalls[len(mock.listCalls)-1]
	if last.page != 1 {
		t.Fatalf("expected resync of page 1 for unknown id, got %d", last.page)
	}
}

func TestSessionStoreUpdateSessionValidation(t *testing.T) {
	store := NewSessionStore(&mockSessionAPI{}, 25, nil)
	if err := store.UpdateSession(context.Background(), "  ", "t"); !errors.Is(err, ErrSessionInvalidInput) {
		t.Fatalf("expected ErrSessionInvalidInput, got %v", err)
	}
}

func TestSessionStoreDeleteSessionsIteratesAndResyncsOnce(t *testing.T) {
	mock := &mockSessionAPI{pages: map[int][]api.SessionRecord{
		1: recordsWithIDs("a", "b", "c", "d"),
	}}
	store := NewSessionStore(mock, 25, nil)

	if err := store.RequestPage(context.Background(), 1, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	calls := len(mock.listCalls)

	mock.pages[1] = recordsWithIDs("a", "d")
	if err := store.DeleteSessions(context.Background(), []string{"b", "c"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(mock.deleted) != 2 || mock.deleted[0] != "b" || mock.deleted[1] != "c" {
		t.Fatalf("expected individual deletes for b and c, got %v", mock.deleted)
	}
	if len(mock.listCalls) != calls+1 {
		t.Fatalf("expected a single resync, got %d", len(mock.listCalls)-calls)
	}
	// b estaba en el índice 1 con pageSize 25: la resincronización apunta
	// a la página 1.
	if mock.listCalls[calls].page != 1 {
		t.Fatalf("expected resync of page 1, got %d", mock.listCalls[calls].page)
	}
	assertIDs(t, store.Sessions(), "a", "d")
}

func TestSessionStoreDeleteSessionsContinuesPastFailures(t *testing.T) {
	mock := &mockSessionAPI{
		pages:      map[int][]api.SessionRecord{1: recordsWithIDs("a", "c")},
		deleteErrs: map[string]error{"b": errors.New("boom")},
	}
	store := NewSessionStore(mock, 25, nil)

	if err := store.RequestPage(context.Background(), 1, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	err := store.DeleteSessions(context.Background(), []string{"b", "c"})
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected first delete error surfaced, got %v", err)
	}
	if len(mock.deleted) != 1 || mock.deleted[0] != "c" {
		t.Fatalf("expected c deleted despite b failing, got %v", mock.deleted)
	}
}

func TestSessionStoreNotConfigured(t *testing.T) {
	var store *SessionStore
	if err := store.RequestPage(context.Background(), 1, false); !errors.Is(err, ErrSessionStoreNotConfigured) {
		t.Fatalf("expected ErrSessionStoreNotConfigured, got %v", err)
	}

	store = NewSessionStore(nil, 25, nil)
	if _, err := store.CreateSession(context.Background(), "t"); !errors.Is(err, ErrSessionStoreNotConfigured) {
		t.Fatalf("expected ErrSessionStoreNotConfigured, got %v", err)
	}
}
