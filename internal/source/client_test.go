package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"crmsync/internal/config"
)

func newTestAPI(t *testing.T, people []map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.PostFormValue("username") == "michael" && r.PostFormValue("password") == "scarn" {
			json.NewEncoder(w).Encode(map[string]any{"token": "tok-123"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"token": nil})
	})

	mux.HandleFunc("GET /people", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var limit, offset int
		fmt.Sscanf(r.URL.Query().Get("limit"), "%d", &limit)
		fmt.Sscanf(r.URL.Query().Get("offset"), "%d", &offset)

		page := []map[string]any{}
		if offset < len(people) {
			end := offset + limit
			if end > len(people) {
				end = len(people)
			}
			page = people[offset:end]
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"data": page})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server, username, password string) *Client {
	return NewClient(config.APIConfig{
		BaseURL:  srv.URL,
		Username: username,
		Password: password,
	}, srv.Client())
}

func TestAuthenticate_Success(t *testing.T) {
	srv := newTestAPI(t, nil)
	c := newTestClient(srv, "michael", "scarn")

	if err := c.Authenticate(context.Background()); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if c.token != "tok-123" {
		t.Fatalf("token = %q, want tok-123", c.token)
	}
}

func TestAuthenticate_NullTokenFails(t *testing.T) {
	srv := newTestAPI(t, nil)
	c := newTestClient(srv, "michael", "wrong")

	err := c.Authenticate(context.Background())
	if !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestFetchPage_PaginatesToEmpty(t *testing.T) {
	people := []map[string]any{
		{"id": "p1"}, {"id": "p2"}, {"id": "p3"},
	}
	srv := newTestAPI(t, people)
	c := newTestClient(srv, "michael", "scarn")
	ctx := context.Background()

	if err := c.Authenticate(ctx); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	page, err := c.FetchPage(ctx, "people", 2, 0)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(page) != 2 || page[0]["id"] != "p1" {
		t.Fatalf("unexpected first page: %v", page)
	}

	page, err = c.FetchPage(ctx, "people", 2, 2)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(page) != 1 || page[0]["id"] != "p3" {
		t.Fatalf("unexpected second page: %v", page)
	}

	page, err = c.FetchPage(ctx, "people", 2, 4)
	if err != nil {
		t.Fatalf("past-the-end page: %v", err)
	}
	if len(page) != 0 {
		t.Fatalf("expected empty page, got %v", page)
	}
}

func TestFetchPage_UnauthorizedIsError(t *testing.T) {
	srv := newTestAPI(t, []map[string]any{{"id": "p1"}})
	c := newTestClient(srv, "michael", "scarn")

	// No Authenticate call: the bearer header is empty.
	if _, err := c.FetchPage(context.Background(), "people", 10, 0); err == nil {
		t.Fatal("expected error for unauthorized fetch")
	}
}
