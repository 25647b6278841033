package frappe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClient_Search(t *testing.T) {
	t.Run("forwards filters and decodes records", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "gatsby", r.URL.Query().Get("title"))
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			assert.Equal(t, "libraryapi-test", r.Header.Get("User-Agent"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"message": [{"bookID": "11", "title": "The Great Gatsby", "authors": "F. Scott Fitzgerald", "isbn": "0743273567"}]}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "libraryapi-test", 100, 0)
		books, err := client.Search(context.Background(), SearchQuery{Title: "gatsby", Page: 2})

		assert.NoError(t, err)
		assert.Len(t, books, 1)
		assert.Equal(t, "The Great Gatsby", books[0].Title)
		assert.Equal(t, "0743273567", books[0].ISBN)
	})

	t.Run("page defaults to one", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1", r.URL.Query().Get("page"))
			_, _ = w.Write([]byte(`{"message": []}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "libraryapi-test", 100, 0)
		books, err := client.Search(context.Background(), SearchQuery{})

		assert.NoError(t, err)
		assert.Empty(t, books)
	})

	t.Run("zero rps still works", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"message": []}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "libraryapi-test", 0, 0)
		_, err := client.Search(context.Background(), SearchQuery{Title: "x"})

		assert.NoError(t, err)
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "libraryapi-test", 100, 3)
		_, err := client.Search(context.Background(), SearchQuery{Title: "x"})

		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("server errors exhaust retries", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "libraryapi-test", 100, 0)
		_, err := client.Search(context.Background(), SearchQuery{Title: "x"})

		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}
