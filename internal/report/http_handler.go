package report

import (
	"context"
	"net/http"
	"strconv"

	"libraryapi/internal/httpx"
	"libraryapi/internal/loan"
)

// RecentLoans is the slice of the loan engine the dashboard needs.
type RecentLoans interface {
	Recent(ctx context.Context, limit int) ([]loan.Transaction, error)
}

type HTTPHandler struct {
	service *Service
	loans   RecentLoans
}

func NewHTTPHandler(service *Service, loans RecentLoans) *HTTPHandler {
	return &HTTPHandler{service: service, loans: loans}
}

// Overview handles GET /v1/reports/overview
func (h *HTTPHandler) Overview(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Overview(r.Context())
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, httpx.CodeInternalError, "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, o, nil)
}

// Monthly handles GET /v1/reports/monthly
func (h *HTTPHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.Monthly(r.Context())
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, httpx.CodeInternalError, "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, counts, nil)
}

// RecentTransactions handles GET /v1/reports/recent-transactions
func (h *HTTPHandler) RecentTransactions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	transactions, err := h.loans.Recent(r.Context(), limit)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, httpx.CodeInternalError, "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, transactions, nil)
}
