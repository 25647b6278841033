package frappe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Client queries the public frappe-library book catalog. Results are candidate
// records only; nothing is written to the local catalog until imported.
type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	limiter    *rate.Limiter
	maxRetries int
}

func NewClient(baseURL, userAgent string, rps int, maxRetries int) *Client {
	if rps < 1 {
		rps = 1
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		userAgent:  userAgent,
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), 1),
		maxRetries: maxRetries,
	}
}

// Book matches the frappe-library response records.
type Book struct {
	BookID          string `json:"bookID"`
	Title           string `json:"title"`
	Authors         string `json:"authors"`
	AverageRating   string `json:"average_rating"`
	ISBN            string `json:"isbn"`
	ISBN13          string `json:"isbn13"`
	LanguageCode    string `json:"language_code"`
	NumPages        string `json:"num_pages"`
	RatingsCount    string `json:"ratings_count"`
	PublicationDate string `json:"publication_date"`
	Publisher       string `json:"publisher"`
}

type searchResponse struct {
	Message []Book `json:"message"`
}

// SearchQuery is a free-text filter; empty fields are omitted from the request.
type SearchQuery struct {
	Title     string
	Authors   string
	ISBN      string
	Publisher string
	Page      int
}

// Search returns one page of candidate records from the upstream catalog.
func (c *Client) Search(ctx context.Context, q SearchQuery) ([]Book, error) {
	params := url.Values{}
	if q.Title != "" {
		params.Set("title", q.Title)
	}
	if q.Authors != "" {
		params.Set("authors", q.Authors)
	}
	if q.ISBN != "" {
		params.Set("isbn", q.ISBN)
	}
	if q.Publisher != "" {
		params.Set("publisher", q.Publisher)
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	params.Set("page", strconv.Itoa(page))

	var res searchResponse
	if err := c.get(ctx, c.baseURL+"?"+params.Encode(), &res); err != nil {
		return nil, err
	}
	return res.Message, nil
}

func (c *Client) get(ctx context.Context, url string, target any) error {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			// Backoff: 1s, 2s, 4s...
			backoff := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
				continue
			}
			return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		err = json.NewDecoder(resp.Body).Decode(target)
		resp.Body.Close()
		return err
	}
	return fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}
