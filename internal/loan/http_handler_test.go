package loan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
)

func newTestHandler(t *testing.T) (*HTTPHandler, *MockRepository) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockRepo := NewMockRepository(ctrl)
	service := NewService(mockRepo, DefaultFeePolicy(), 3)
	return NewHTTPHandler(service), mockRepo
}

func TestHTTPHandler_List(t *testing.T) {
	handler, mockRepo := newTestHandler(t)

	t.Run("success", func(t *testing.T) {
		mockRepo.EXPECT().List(gomock.Any(), gomock.Any()).Return([]Transaction{{ID: 1}}, 1, nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/transactions", nil)

		handler.List(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"success":true`)
	})

	t.Run("search and paging forwarded", func(t *testing.T) {
		mockRepo.EXPECT().
			List(gomock.Any(), Query{Search: "gatsby", Limit: 10, Offset: 10}).
			Return([]Transaction{}, 0, nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/transactions?search=gatsby&page=2&limit=10", nil)

		handler.List(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("error", func(t *testing.T) {
		mockRepo.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, 0, context.DeadlineExceeded)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/transactions", nil)

		handler.List(w, r)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHTTPHandler_Create(t *testing.T) {
	handler, mockRepo := newTestHandler(t)

	post := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/v1/transactions", strings.NewReader(body))
		handler.Create(w, r)
		return w
	}

	t.Run("success", func(t *testing.T) {
		mockRepo.EXPECT().Issue(gomock.Any(), gomock.Any(), 3).
			Return(Transaction{ID: 1, Type: TypeIssue, BookID: 10, MemberID: 20}, nil)

		w := post(`{"book_id": 10, "member_id": 20}`)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		w := post(`{not json`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		w := post(`{"book_id": 10}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	})

	t.Run("book not found", func(t *testing.T) {
		mockRepo.EXPECT().Issue(gomock.Any(), gomock.Any(), 3).Return(Transaction{}, ErrBookNotFound)

		w := post(`{"book_id": 99, "member_id": 20}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("out of stock", func(t *testing.T) {
		mockRepo.EXPECT().Issue(gomock.Any(), gomock.Any(), 3).Return(Transaction{}, ErrOutOfStock)

		w := post(`{"book_id": 10, "member_id": 20}`)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "out of stock")
	})

	t.Run("member in debt", func(t *testing.T) {
		mockRepo.EXPECT().Issue(gomock.Any(), gomock.Any(), 3).Return(Transaction{}, ErrDebtOutstanding)

		w := post(`{"book_id": 10, "member_id": 20}`)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("loan limit reached", func(t *testing.T) {
		mockRepo.EXPECT().Issue(gomock.Any(), gomock.Any(), 3).Return(Transaction{}, ErrLoanLimit)

		w := post(`{"book_id": 10, "member_id": 20}`)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestHTTPHandler_Return(t *testing.T) {
	handler, mockRepo := newTestHandler(t)

	issued := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	post := func(id, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/v1/transactions/"+id+"/return", strings.NewReader(body))
		r.SetPathValue("id", id)
		handler.Return(w, r)
		return w
	}

	t.Run("success with computed fee", func(t *testing.T) {
		mockRepo.EXPECT().GetByID(gomock.Any(), int64(1)).
			Return(Transaction{ID: 1, Type: TypeIssue, IssueDate: issued}, nil)
		mockRepo.EXPECT().
			Return(gomock.Any(), int64(1), gomock.Any(), gomock.Any(), true).
			Return(Transaction{ID: 1, Type: TypeIssue}, nil)

		w := post("1", `{"return_date": "2025-03-15T10:00:00Z", "add_to_debt": true}`)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing return date", func(t *testing.T) {
		w := post("1", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "return_date")
	})

	t.Run("negative fee rejected", func(t *testing.T) {
		w := post("1", `{"return_date": "2025-03-15T10:00:00Z", "rent_fee": "-5.00"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("already returned", func(t *testing.T) {
		mockRepo.EXPECT().GetByID(gomock.Any(), int64(1)).
			Return(Transaction{ID: 1, Type: TypeIssue, IssueDate: issued}, nil)
		mockRepo.EXPECT().
			Return(gomock.Any(), int64(1), gomock.Any(), gomock.Any(), false).
			Return(Transaction{}, ErrAlreadyReturned)

		w := post("1", `{"return_date": "2025-03-15T10:00:00Z"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo.EXPECT().GetByID(gomock.Any(), int64(9)).Return(Transaction{}, ErrNotFound)

		w := post("9", `{"return_date": "2025-03-15T10:00:00Z"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		w := post("abc", `{"return_date": "2025-03-15T10:00:00Z"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHTTPHandler_Delete(t *testing.T) {
	handler, mockRepo := newTestHandler(t)

	t.Run("success", func(t *testing.T) {
		mockRepo.EXPECT().Delete(gomock.Any(), int64(1)).Return(nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodDelete, "/v1/transactions/1", nil)
		r.SetPathValue("id", "1")

		handler.Delete(w, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo.EXPECT().Delete(gomock.Any(), int64(9)).Return(ErrNotFound)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodDelete, "/v1/transactions/9", nil)
		r.SetPathValue("id", "9")

		handler.Delete(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
