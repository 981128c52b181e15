package trivia

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestAPI(t *testing.T, handler http.HandlerFunc) *HTTPSource {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	src, err := NewHTTPSource(srv.URL+"/api/", srv.Client())
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	return src
}

func TestHTTPSourceCategoryIDs(t *testing.T) {
	src := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/categories" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("count"); got != "100" {
			t.Errorf("expected count=100, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": 11, "title": "a"}, {"id": 22}, {"id": 33, "clues_count": 5}]`))
	})

	ids, err := src.CategoryIDs(context.Background(), 100)
	if err != nil {
		t.Fatalf("category ids: %v", err)
	}
	if len(ids) != 3 || ids[0] != 11 || ids[1] != 22 || ids[2] != 33 {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestHTTPSourceCategory(t *testing.T) {
	src := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/category" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("id"); got != "42" {
			t.Errorf("expected id=42, got %q", got)
		}
		_, _ = w.Write([]byte(`{"id": 42, "title": "Math", "clues": [{"question": "2+2", "answer": "4", "value": 200}]}`))
	})

	cat, err := src.Category(context.Background(), 42)
	if err != nil {
		t.Fatalf("category: %v", err)
	}
	if cat.Title != "Math" || len(cat.Clues) != 1 || cat.Clues[0].Question != "2+2" || cat.Clues[0].Answer != "4" {
		t.Fatalf("unexpected category %+v", cat)
	}
}

func TestHTTPSourceErrors(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		body      string
		malformed bool
	}{
		{"server error", http.StatusInternalServerError, `oops`, false},
		{"not found", http.StatusNotFound, `{}`, false},
		{"bad json", http.StatusOK, `{"title": `, true},
		{"missing id", http.StatusOK, `[{"title": "no id"}]`, true},
	}

	for _, tc := range cases {
		src := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		})

		_, err := src.CategoryIDs(context.Background(), 10)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if got := errors.Is(err, ErrMalformed); got != tc.malformed {
			t.Fatalf("%s: errors.Is(err, ErrMalformed) = %v, err: %v", tc.name, got, err)
		}
		if !strings.Contains(err.Error(), "fetch categories") {
			t.Fatalf("%s: expected operation in error, got %v", tc.name, err)
		}
	}
}

func TestHTTPSourceCategoryMissingFields(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing title", `{"clues": [{"question": "2+2", "answer": "4"}]}`},
		{"missing question", `{"title": "Math", "clues": [{"question": "2+2", "answer": "4"}, {"answer": "2"}]}`},
		{"missing answer", `{"title": "Math", "clues": [{"question": "1+1"}]}`},
		{"null question", `{"title": "Math", "clues": [{"question": null, "answer": "4"}]}`},
	}

	for _, tc := range cases {
		src := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(tc.body))
		})

		_, err := src.Category(context.Background(), 5)
		if !errors.Is(err, ErrMalformed) {
			t.Fatalf("%s: expected ErrMalformed, got %v", tc.name, err)
		}
		if !strings.Contains(err.Error(), "fetch category 5") {
			t.Fatalf("%s: expected category id in error, got %v", tc.name, err)
		}
	}
}

func TestHTTPSourceCategoryKeepsEmptyStrings(t *testing.T) {
	src := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"title": "Blank", "clues": [{"question": "", "answer": ""}]}`))
	})

	cat, err := src.Category(context.Background(), 5)
	if err != nil {
		t.Fatalf("category: %v", err)
	}
	if len(cat.Clues) != 1 || cat.Clues[0].Question != "" || cat.Clues[0].Answer != "" {
		t.Fatalf("unexpected category %+v", cat)
	}
}

func TestHTTPSourceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	src, err := NewHTTPSource(url, nil)
	if err != nil {
		t.Fatalf("new source: %v", err)
	}

	if _, err := src.Category(context.Background(), 7); err == nil || !strings.Contains(err.Error(), "fetch category 7") {
		t.Fatalf("expected transport error naming the category, got %v", err)
	}
}

func TestNewHTTPSourceRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"ftp://example.com", "not a url", "://"} {
		if _, err := NewHTTPSource(raw, nil); err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}
