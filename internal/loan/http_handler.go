package loan

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"libraryapi/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type issueRequest struct {
	BookID    int64     `json:"book_id" validate:"required,gt=0"`
	MemberID  int64     `json:"member_id" validate:"required,gt=0"`
	IssueDate time.Time `json:"issue_date"`
}

type returnRequest struct {
	ReturnDate time.Time        `json:"return_date" validate:"required"`
	RentFee    *decimal.Decimal `json:"rent_fee"`
	AddToDebt  bool             `json:"add_to_debt"`
}

// List handles GET /v1/transactions
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := Query{Search: query.Get("search")}

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	params.Limit = limit
	params.Offset = (page - 1) * limit

	transactions, total, err := h.service.List(r.Context(), params)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, httpx.CodeInternalError, "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, transactions, map[string]any{
		"page":  page,
		"limit": limit,
		"total": total,
		"pages": (total + limit - 1) / limit,
	})
}

// Get handles GET /v1/transactions/{id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	t, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, httpx.CodeNotFound, "Transaction not found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, httpx.CodeInternalError, "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, t, nil)
}

// Create handles POST /v1/transactions (issue a book)
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid JSON body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, http.StatusBadRequest, httpx.CodeValidationError, "Validation failed", details)
		return
	}

	t, err := h.service.Issue(r.Context(), IssueInput{
		BookID:    req.BookID,
		MemberID:  req.MemberID,
		IssueDate: req.IssueDate,
	})
	switch {
	case err == nil:
		httpx.JSONSuccessCreated(w, t)
	case errors.Is(err, ErrBookNotFound):
		httpx.JSONError(w, http.StatusNotFound, httpx.CodeNotFound, "Book not found", nil)
	case errors.Is(err, ErrMemberNotFound):
		httpx.JSONError(w, http.StatusNotFound, httpx.CodeNotFound, "Member not found", nil)
	case errors.Is(err, ErrOutOfStock):
		httpx.JSONError(w, http.StatusConflict, httpx.CodeConflict, "Book is out of stock", nil)
	case errors.Is(err, ErrDebtOutstanding):
		httpx.JSONError(w, http.StatusConflict, httpx.CodeConflict, "Member has outstanding fees", nil)
	case errors.Is(err, ErrLoanLimit):
		httpx.JSONError(w, http.StatusConflict, httpx.CodeConflict, "Member has reached maximum number of borrowed books", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, httpx.CodeInternalError, "Internal server error", nil)
	}
}

// Return handles POST /v1/transactions/{id}/return
func (h *HTTPHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req returnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid JSON body", nil)
		return
	}
	if req.ReturnDate.IsZero() {
		httpx.JSONError(w, http.StatusBadRequest, httpx.CodeValidationError, "Validation failed",
			[]httpx.ErrorDetail{{Field: "return_date", Message: "return_date is required"}})
		return
	}
	if req.RentFee != nil && req.RentFee.IsNegative() {
		httpx.JSONError(w, http.StatusBadRequest, httpx.CodeValidationError, "Validation failed",
			[]httpx.ErrorDetail{{Field: "rent_fee", Message: "rent_fee must not be negative"}})
		return
	}

	t, err := h.service.Return(r.Context(), id, req.ReturnDate, req.RentFee, req.AddToDebt)
	switch {
	case err == nil:
		httpx.JSONSuccess(w, t, nil)
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, httpx.CodeNotFound, "Transaction not found", nil)
	case errors.Is(err, ErrAlreadyReturned):
		httpx.JSONError(w, http.StatusConflict, httpx.CodeConflict, "Book already returned", nil)
	case errors.Is(err, ErrNotIssue):
		httpx.JSONError(w, http.StatusConflict, httpx.CodeConflict, "Only issue transactions can be returned", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, httpx.CodeInternalError, "Internal server error", nil)
	}
}

// Delete handles DELETE /v1/transactions/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := h.service.Delete(r.Context(), id)
	switch {
	case err == nil:
		httpx.JSONSuccessNoContent(w)
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, httpx.CodeNotFound, "Transaction not found", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, httpx.CodeInternalError, "Internal server error", nil)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		httpx.JSONError(w, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid id", nil)
		return 0, false
	}
	return id, true
}
