package book

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"libraryapi/internal/platform/frappe"
)

func newTestHandler(t *testing.T) (*HTTPHandler, *MockRepository, *MockExternalCatalog) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockRepo := NewMockRepository(ctrl)
	mockCatalog := NewMockExternalCatalog(ctrl)
	service := NewService(mockRepo, mockCatalog)
	return NewHTTPHandler(service), mockRepo, mockCatalog
}

var testBook = Book{
	ID:       1,
	Title:    "The Great Gatsby",
	Author:   "F. Scott Fitzgerald",
	ISBN:     "9780743273565",
	Quantity: 3,
	Version:  1,
}

func TestHTTPHandler_List(t *testing.T) {
	handler, mockRepo, _ := newTestHandler(t)

	t.Run("success", func(t *testing.T) {
		mockRepo.EXPECT().List(gomock.Any(), gomock.Any()).Return([]Book{testBook}, 1, nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/books", nil)

		handler.List(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "The Great Gatsby")
	})

	t.Run("error", func(t *testing.T) {
		mockRepo.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, 0, context.DeadlineExceeded)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/books", nil)

		handler.List(w, r)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHTTPHandler_Get(t *testing.T) {
	handler, mockRepo, _ := newTestHandler(t)

	t.Run("success", func(t *testing.T) {
		mockRepo.EXPECT().GetByID(gomock.Any(), int64(1)).Return(testBook, nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/books/1", nil)
		r.SetPathValue("id", "1")

		handler.Get(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo.EXPECT().GetByID(gomock.Any(), int64(9)).Return(Book{}, ErrNotFound)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/books/9", nil)
		r.SetPathValue("id", "9")

		handler.Get(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/books/abc", nil)
		r.SetPathValue("id", "abc")

		handler.Get(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHTTPHandler_Create(t *testing.T) {
	handler, mockRepo, _ := newTestHandler(t)

	post := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/v1/books", strings.NewReader(body))
		handler.Create(w, r)
		return w
	}

	t.Run("success", func(t *testing.T) {
		mockRepo.EXPECT().CreateOrRestock(gomock.Any(), gomock.Any()).Return(testBook, nil)

		w := post(`{"title": "The Great Gatsby", "author": "F. Scott Fitzgerald", "isbn": "9780743273565", "quantity": 3}`)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("invalid isbn", func(t *testing.T) {
		w := post(`{"title": "X", "author": "Y", "isbn": "not-an-isbn", "quantity": 1}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "ISBN")
	})

	t.Run("missing title", func(t *testing.T) {
		w := post(`{"author": "Y", "isbn": "9780743273565"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		w := post(`{`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHTTPHandler_Update(t *testing.T) {
	handler, mockRepo, _ := newTestHandler(t)

	patch := func(id, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPatch, "/v1/books/"+id, strings.NewReader(body))
		r.SetPathValue("id", id)
		handler.Update(w, r)
		return w
	}

	t.Run("success", func(t *testing.T) {
		mockRepo.EXPECT().
			Update(gomock.Any(), int64(1), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ int64, u Update) (Book, error) {
				assert.NotNil(t, u.Quantity)
				assert.Equal(t, 5, *u.Quantity)
				assert.Nil(t, u.Title)
				return testBook, nil
			})

		w := patch("1", `{"quantity": 5}`)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo.EXPECT().Update(gomock.Any(), int64(9), gomock.Any()).Return(Book{}, ErrNotFound)

		w := patch("9", `{"quantity": 5}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("negative quantity rejected", func(t *testing.T) {
		w := patch("1", `{"quantity": -2}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHTTPHandler_Delete(t *testing.T) {
	handler, mockRepo, _ := newTestHandler(t)

	del := func(id string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodDelete, "/v1/books/"+id, nil)
		r.SetPathValue("id", id)
		handler.Delete(w, r)
		return w
	}

	t.Run("success", func(t *testing.T) {
		mockRepo.EXPECT().Delete(gomock.Any(), int64(1)).Return(nil)

		assert.Equal(t, http.StatusNoContent, del("1").Code)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo.EXPECT().Delete(gomock.Any(), int64(9)).Return(ErrNotFound)

		assert.Equal(t, http.StatusNotFound, del("9").Code)
	})

	t.Run("open loans block deletion", func(t *testing.T) {
		mockRepo.EXPECT().Delete(gomock.Any(), int64(1)).Return(ErrHasOpenLoans)

		w := del("1")

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "open loans")
	})
}

func TestHTTPHandler_ExternalSearch(t *testing.T) {
	handler, _, mockCatalog := newTestHandler(t)

	t.Run("success", func(t *testing.T) {
		mockCatalog.EXPECT().
			Search(gomock.Any(), frappe.SearchQuery{Title: "gatsby", Page: 2}).
			Return([]frappe.Book{{Title: "The Great Gatsby"}}, nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/books/external-search?title=gatsby&page=2", nil)

		handler.ExternalSearch(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("upstream failure maps to bad gateway", func(t *testing.T) {
		mockCatalog.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, context.DeadlineExceeded)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/books/external-search?title=gatsby", nil)

		handler.ExternalSearch(w, r)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "UPSTREAM_ERROR")
	})
}

func TestHTTPHandler_Import(t *testing.T) {
	handler, mockRepo, _ := newTestHandler(t)

	t.Run("partial failure still succeeds", func(t *testing.T) {
		gomock.InOrder(
			mockRepo.EXPECT().CreateOrRestock(gomock.Any(), gomock.Any()).Return(testBook, nil),
			mockRepo.EXPECT().CreateOrRestock(gomock.Any(), gomock.Any()).Return(Book{}, context.DeadlineExceeded),
		)

		body := `{"books": [
			{"title": "A", "author": "B", "isbn": "9780743273565", "quantity": 1},
			{"title": "C", "author": "D", "isbn": "9780134190440", "quantity": 1}
		]}`

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/v1/books/import", strings.NewReader(body))

		handler.Import(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"imported":1`)
		assert.Contains(t, w.Body.String(), `"total":2`)
	})

	t.Run("empty batch rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/v1/books/import", strings.NewReader(`{"books": []}`))

		handler.Import(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
