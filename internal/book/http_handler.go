package book

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"libraryapi/internal/httpx"
	"libraryapi/internal/platform/frappe"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type createRequest struct {
	Title     string  `json:"title" validate:"required,max=500"`
	Author    string  `json:"author" validate:"required,max=500"`
	ISBN      string  `json:"isbn" validate:"required,isbn"`
	Quantity  int     `json:"quantity" validate:"gte=0"`
	Publisher string  `json:"publisher" validate:"max=500"`
	CoverURL  *string `json:"cover_url"`
}

type updateRequest struct {
	Title     *string `json:"title" validate:"omitempty,max=500"`
	Author    *string `json:"author" validate:"omitempty,max=500"`
	ISBN      *string `json:"isbn" validate:"omitempty,isbn"`
	Quantity  *int    `json:"quantity" validate:"omitempty,gte=0"`
	Publisher *string `json:"publisher" validate:"omitempty,max=500"`
	CoverURL  *string `json:"cover_url"`
}

type importRequest struct {
	Books []createRequest `json:"books" validate:"required,min=1,dive"`
}

// List handles GET /v1/books
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

	books, total, err := h.service.List(r.Context(), params)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, httpx.CodeInternalError, "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, books, map[string]any{
		"page":  page,
		"limit": limit,
		"total": total,
		"pages": (total + limit - 1) / limit,
	})
}

// Get handles GET /v1/books/{id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	b, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, httpx.CodeNotFound, "Book not found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, httpx.CodeInternalError, "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, b, nil)
}

// Create handles POST /v1/books
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

	b, err := h.service.Create(r.Context(), createInput(req))
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, httpx.CodeInternalError, "Internal server error", nil)
		return
	}
	httpx.JSONSuccessCreated(w, b)
}

// Update handles PATCH /v1/books/{id}
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

	b, err := h.service.Update(r.Context(), id, Update{
		Title:     req.Title,
		Author:    req.Author,
		ISBN:      req.ISBN,
		Quantity:  req.Quantity,
		Publisher: req.Publisher,
		CoverURL:  req.CoverURL,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, httpx.CodeNotFound, "Book not found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, httpx.CodeInternalError, "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, b, nil)
}

// Delete handles DELETE /v1/books/{id}
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
		httpx.JSONError(w, http.StatusNotFound, httpx.CodeNotFound, "Book not found", nil)
	case errors.Is(err, ErrHasOpenLoans):
		httpx.JSONError(w, http.StatusConflict, httpx.CodeConflict, "Cannot delete book with open loans", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, httpx.CodeInternalError, "Internal server error", nil)
	}
}

// ExternalSearch handles GET /v1/books/external-search
func (h *HTTPHandler) ExternalSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))

	results, err := h.service.SearchExternal(r.Context(), frappe.SearchQuery{
		Title:     query.Get("title"),
		Authors:   query.Get("authors"),
		ISBN:      query.Get("isbn"),
		Publisher: query.Get("publisher"),
		Page:      page,
	})
	if err != nil {
		httpx.JSONError(w, http.StatusBadGateway, httpx.CodeUpstreamError, "Failed to fetch books from the catalog service", nil)
		return
	}
	httpx.JSONSuccess(w, results, nil)
}

// Import handles POST /v1/books/import
func (h *HTTPHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid JSON body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, http.StatusBadRequest, httpx.CodeValidationError, "Validation failed", details)
		return
	}

	inputs := make([]Input, 0, len(req.Books))
	for _, b := range req.Books {
		inputs = append(inputs, createInput(b))
	}

	res, err := h.service.Import(r.Context(), inputs)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, httpx.CodeInternalError, "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, res, nil)
}

func createInput(req createRequest) Input {
	return Input{
		Title:     req.Title,
		Author:    req.Author,
		ISBN:      req.ISBN,
		Quantity:  req.Quantity,
		Publisher: req.Publisher,
		CoverURL:  req.CoverURL,
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
