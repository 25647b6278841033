package member

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"libraryapi/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type createRequest struct {
	Name    string  `json:"name" validate:"required,max=500"`
	Email   string  `json:"email" validate:"required,email"`
	Address *string `json:"address"`
}

type updateRequest struct {
	Name    *string `json:"name" validate:"omitempty,max=500"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Address *string `json:"address"`
}

type payDebtRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// List handles GET /v1/members
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

	members, total, err := h.service.List(r.Context(), params)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, httpx.CodeInternalError, "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, members, map[string]any{
		"page":  page,
		"limit": limit,
		"total": total,
		"pages": (total + limit - 1) / limit,
	})
}

// Get handles GET /v1/members/{id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	m, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, httpx.CodeNotFound, "Member not found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, httpx.CodeInternalError, "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, m, nil)
}

// Create handles POST /v1/members
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid JSON body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, http.StatusBadRequest, httpx.CodeValidationError, "Validation failed", details)
		return
	}

	m, err := h.service.Create(r.Context(), Input{
		Name:    req.Name,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			httpx.JSONError(w, http.StatusConflict, httpx.CodeConflict, "Email already registered", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, httpx.CodeInternalError, "Internal server error", nil)
		return
	}
	httpx.JSONSuccessCreated(w, m)
}

// Update handles PATCH /v1/members/{id}
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid JSON body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, http.StatusBadRequest, httpx.CodeValidationError, "Validation failed", details)
		return
	}

	m, err := h.service.Update(r.Context(), id, Update{
		Name:    req.Name,
		Email:   req.Email,
		Address: req.Address,
	})
	switch {
	case err == nil:
		httpx.JSONSuccess(w, m, nil)
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, httpx.CodeNotFound, "Member not found", nil)
	case errors.Is(err, ErrEmailTaken):
		httpx.JSONError(w, http.StatusConflict, httpx.CodeConflict, "Email already registered", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, httpx.CodeInternalError, "Internal server error", nil)
	}
}

// Delete handles DELETE /v1/members/{id}
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
		httpx.JSONError(w, http.StatusNotFound, httpx.CodeNotFound, "Member not found", nil)
	case errors.Is(err, ErrHasOpenLoans):
		httpx.JSONError(w, http.StatusConflict, httpx.CodeConflict, "Cannot delete member with active loans", nil)
	case errors.Is(err, ErrHasDebt):
		httpx.JSONError(w, http.StatusConflict, httpx.CodeConflict, "Cannot delete member with outstanding debt", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, httpx.CodeInternalError, "Internal server error", nil)
	}
}

// PayDebt handles POST /v1/members/{id}/pay-debt
func (h *HTTPHandler) PayDebt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req payDebtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid JSON body", nil)
		return
	}
	if !req.Amount.IsPositive() {
		httpx.JSONError(w, http.StatusBadRequest, httpx.CodeValidationError, "Validation failed",
			[]httpx.ErrorDetail{{Field: "amount", Message: "amount must be greater than 0"}})
		return
	}

	m, err := h.service.PayDebt(r.Context(), id, req.Amount)
	switch {
	case err == nil:
		httpx.JSONSuccess(w, m, nil)
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, httpx.CodeNotFound, "Member not found", nil)
	case errors.Is(err, ErrPaymentExceedsDebt):
		httpx.JSONError(w, http.StatusConflict, httpx.CodeConflict, "Payment amount exceeds outstanding debt", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, httpx.CodeInternalError, "Internal server error", nil)
	}
}

// ClearDebt handles POST /v1/members/{id}/clear-debt
func (h *HTTPHandler) ClearDebt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	m, err := h.service.ClearDebt(r.Context(), id)
	switch {
	case err == nil:
		httpx.JSONSuccess(w, m, nil)
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, httpx.CodeNotFound, "Member not found", nil)
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
