package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientLoginRetainsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode login body: %v", err)
			}
			if body["email"] != "dev@example.com" {
				t.Errorf("unexpected email %q", body["email"])
			}
			json.NewEncoder(w).Encode(TokenPair{AccessToken: "tok-123", RefreshToken: "ref-123"})
		case "/models":
			if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
				t.Errorf("unexpected authorization header %q", got)
			}
			w.Write([]byte(`{"data":[{"model_name":"gpt-5.1","label":"GPT"}]}`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	pair, err := client.Login(context.Background(), "dev@example.com", "devpassword")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pair.AccessToken != "tok-123" {
		t.Fatalf("unexpected pair: %+v", pair)
	}

	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(models) != 1 || models[0].Name != "gpt-5.1" {
		t.Fatalf("unexpected models: %+v", models)
	}
}

func TestClientListSessionsQueryAndUnwrap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sessions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("page_size") != "10" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.Write([]byte(`{"data":[{"session_id":"s1","sessionTitle":"legacy"},{"id":"s2"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	records, err := client.ListSessions(context.Background(), 2, 10)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].SessionID != "s1" || records[0].SessionTitle != "legacy" {
		t.Fatalf("expected raw heterogeneous fields preserved, got %+v", records[0])
	}
}

func TestClientCreateAndUpdateSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/sessions":
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"data":{"id":"new","title":"nueva"}}`))
		case r.Method == http.MethodPut && r.URL.Path == "/sessions/new":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["title"] != "renamed" {
				t.Errorf("unexpected title %q", body["title"])
			}
			w.Write([]byte(`{"data":{"id":"new","title":"renamed"}}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	record, err := client.CreateSession(context.Background(), "nueva")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if record.ID != "new" {
		t.Fatalf("unexpected record: %+v", record)
	}

	if err := client.UpdateSession(context.Background(), "new", "renamed"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestClientDeleteSessionEscapesID(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	if err := client.DeleteSession(context.Background(), "a/b"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotPath != "/sessions/a%2Fb" {
		t.Fatalf("expected escaped id in path, got %q", gotPath)
	}
}

func TestClientListMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sessions/s1/messages" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"data":[{"id":"m1","role":"user","content":"hola"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	messages, err := client.ListMessages(context.Background(), "s1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(messages) != 1 || messages[0].Content != "hola" {
		t.Fatalf("unexpected messages: %+v", messages)
	}
}

func TestClientSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"session not owned"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	err := client.UpdateSession(context.Background(), "s1", "t")
	if err == nil || !strings.Contains(err.Error(), "session not owned") {
		t.Fatalf("expected api error surfaced, got %v", err)
	}
}
