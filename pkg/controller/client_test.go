package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestClient builds a client pointed at the test server
func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()

	client, err := NewClient(Config{
		Host:     srv.URL,
		Username: "admin",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

// TestClientBasicAuth verifies every request carries HTTP Basic credentials
func TestClientBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(Page{Count: 0, Results: []Object{}})
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	if _, err := client.List(context.Background(), "projects", nil); err != nil {
		t.Fatalf("list failed: %v", err)
	}
}

// TestListAllFollowsPagination verifies ListAll walks every page cursor
func TestListAllFollowsPagination(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/eda/v1/projects/" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		page := r.URL.Query().Get("page")
		switch page {
		case "", "1":
			next := srv.URL + "/api/eda/v1/projects/?page=2"
			json.NewEncoder(w).Encode(Page{
				Count:   3,
				Next:    &next,
				Results: []Object{{"id": float64(1), "name": "a"}, {"id": float64(2), "name": "b"}},
			})
		case "2":
			json.NewEncoder(w).Encode(Page{
				Count:   3,
				Results: []Object{{"id": float64(3), "name": "c"}},
			})
		default:
			t.Errorf("unexpected page: %s", page)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	results, err := client.ListAll(context.Background(), "projects", nil)
	if err != nil {
		t.Fatalf("list all failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[2].String("name") != "c" {
		t.Errorf("expected last result c, got %q", results[2].String("name"))
	}
}

// TestListAppliesFilter verifies filter parameters reach the query string
func TestListAppliesFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("name"); got != "web" {
			t.Errorf("expected name filter web, got %q", got)
		}
		json.NewEncoder(w).Encode(Page{Results: []Object{}})
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	if _, err := client.List(context.Background(), "activations", map[string]string{"name": "web"}); err != nil {
		t.Fatalf("list failed: %v", err)
	}
}

// TestAPIErrorMapping verifies non-2xx responses become typed APIErrors
func TestAPIErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail": "Not found."}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	_, err := client.Get(context.Background(), "users", 42)
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", apiErr.StatusCode)
	}
	if apiErr.Endpoint != "/api/eda/v1/users/42/" {
		t.Errorf("unexpected endpoint: %s", apiErr.Endpoint)
	}
}

// TestCreateUpdateDelete verifies methods and paths for the mutating calls
func TestCreateUpdateDelete(t *testing.T) {
	type seen struct {
		method string
		path   string
	}
	var calls []seen

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, seen{r.Method, r.URL.Path})
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			json.NewEncoder(w).Encode(Object{"id": float64(7), "name": "x"})
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	ctx := context.Background()

	created, err := client.Create(ctx, "activations", map[string]any{"name": "x"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if FormatID(created.ID()) != "7" {
		t.Errorf("expected created id 7, got %v", created.ID())
	}
	if _, err := client.Update(ctx, "users", float64(7), map[string]any{"first_name": "y"}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if err := client.Delete(ctx, "activations", float64(7)); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	want := []seen{
		{http.MethodPost, "/api/eda/v1/activations/"},
		{http.MethodPatch, "/api/eda/v1/users/7/"},
		{http.MethodDelete, "/api/eda/v1/activations/7/"},
	}
	if len(calls) != len(want) {
		t.Fatalf("expected %d calls, got %d", len(want), len(calls))
	}
	for i, c := range calls {
		if c != want[i] {
			t.Errorf("call %d: expected %v, got %v", i, want[i], c)
		}
	}
}

// TestFormatID verifies identifier rendering for both ID shapes
func TestFormatID(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{float64(42), "42"},
		{"0c4c7118-9b53-4bd2-ae0c-bccf17b18ba3", "0c4c7118-9b53-4bd2-ae0c-bccf17b18ba3"},
		{7, "7"},
		{int64(9), "9"},
		{nil, ""},
	}
	for _, c := range cases {
		if got := FormatID(c.in); got != c.want {
			t.Errorf("FormatID(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

// TestConfigBaseURL verifies host normalization
func TestConfigBaseURL(t *testing.T) {
	cases := []struct {
		host string
		want string
	}{
		{"eda.example.com", "https://eda.example.com"},
		{"https://eda.example.com/", "https://eda.example.com"},
		{"http://localhost:8080", "http://localhost:8080"},
	}
	for _, c := range cases {
		cfg := Config{Host: c.host}
		if got := cfg.BaseURL(); got != c.want {
			t.Errorf("BaseURL(%q) = %q, want %q", c.host, got, c.want)
		}
	}
}

// TestConfigValidate verifies required connection fields
func TestConfigValidate(t *testing.T) {
	valid := Config{Host: "eda.example.com", Username: "admin", Password: "secret"}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	for _, cfg := range []Config{
		{Username: "admin", Password: "secret"},
		{Host: "eda.example.com", Password: "secret"},
		{Host: "eda.example.com", Username: "admin"},
	} {
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected validation error for %+v", cfg)
		}
	}
}
