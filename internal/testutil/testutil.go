package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"libraryapi/internal/book"
	"libraryapi/internal/member"
	"libraryapi/internal/platform/crypto"
)

// TestBook is a fixture with one copy on the shelf.
var TestBook = book.Book{
	ID:        1,
	Title:     "The Go Programming Language",
	Author:    "Alan A. A. Donovan",
	ISBN:      "9780134190440",
	Quantity:  1,
	Publisher: "Addison-Wesley",
	CreatedAt: time.Now(),
	UpdatedAt: time.Now(),
}

// TestMember is a fixture with no debt and no open loans.
var TestMember = member.Member{
	ID:              1,
	Name:            "Ada Lovelace",
	Email:           "ada@example.com",
	OutstandingDebt: decimal.Zero,
	CreatedAt:       time.Now(),
	UpdatedAt:       time.Now(),
}

// GenerateTestToken mints a valid staff token for testing.
func GenerateTestToken(secret, userID, role string) string {
	token, _ := crypto.GenerateToken(secret, userID, role, time.Hour)
	return token
}

// GenerateExpiredToken mints an already-expired token for testing.
func GenerateExpiredToken(secret, userID, role string) string {
	c := crypto.Claims{
		Sub:  userID,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	token, _ := t.SignedString([]byte(secret))
	return token
}

// NewRequest creates a new HTTP request with an optional JSON body.
func NewRequest(method, path string, body any) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	var r *http.Request
	if bodyBytes != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	return r
}

// NewRequestWithAuth creates a new HTTP request carrying a Bearer token.
func NewRequestWithAuth(method, path string, body any, token string) *http.Request {
	r := NewRequest(method, path, body)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

// RecordResponse is a decoded recorder result.
type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]any
}

// RecordHTTPResponse decodes the recorded response body as JSON.
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var bodyMap map[string]any
	if len(bodyBytes) > 0 {
		_ = json.NewDecoder(bytes.NewReader(bodyBytes)).Decode(&bodyMap)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Body:   bodyMap,
	}
}
