package client

// http_client.go = talks to the library API on behalf of the CLI commands.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"libraryhub/cmd/cli/dto"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// constructor for HTTP client
func NewHTTPClient(apiURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// set token for HTTP client
func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

// do sends body as JSON and decodes a response with status want into out.
func (c *HTTPClient) do(method, path string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() // Ensure the response body is closed

	if resp.StatusCode != want {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope dto.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&envelope) == nil {
			apiErr.Message = envelope.Error
			apiErr.Code = envelope.Code
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// --- Authentication ---

func (c *HTTPClient) Register(request *dto.RegisterRequest) (*dto.Member, error) {
	var result dto.Member
	if err := c.do(http.MethodPost, "/register", request, http.StatusCreated, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) Login(request *dto.LoginRequest) (*dto.AuthResponse, error) {
	var result dto.AuthResponse
	if err := c.do(http.MethodPost, "/auth/login", request, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) RefreshToken(refreshToken string) (*dto.RefreshResponse, error) {
	var result dto.RefreshResponse
	err := c.do(http.MethodPost, "/auth/refresh", dto.RefreshTokenRequest{RefreshToken: refreshToken}, http.StatusOK, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) Logout(refreshToken string) error {
	return c.do(http.MethodPost, "/auth/logout", dto.RefreshTokenRequest{RefreshToken: refreshToken}, http.StatusOK, nil)
}

// --- Catalog ---

// BookQuery mirrors the filters accepted by GET /books.
type BookQuery struct {
	Category        string
	AuthorFirstName string
	AuthorLastName  string
	Search          string
	Ordering        string
	Page            int
	PageSize        int
}

func (q BookQuery) values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("category", q.Category)
	set("author_first_name", q.AuthorFirstName)
	set("author_last_name", q.AuthorLastName)
	set("search", q.Search)
	set("ordering", q.Ordering)
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	return v
}

func (c *HTTPClient) ListBooks(q BookQuery) (*dto.Page[dto.Book], error) {
	var result dto.Page[dto.Book]
	if err := c.do(http.MethodGet, "/books?"+q.values().Encode(), nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) SearchBooks(query string) (*dto.Page[dto.Book], error) {
	var result dto.Page[dto.Book]
	path := "/search?" + url.Values{"q": {query}}.Encode()
	if err := c.do(http.MethodGet, path, nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) GetBook(id int64) (*dto.Book, error) {
	var result dto.Book
	if err := c.do(http.MethodGet, fmt.Sprintf("/books/%d", id), nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// --- Lending ---

func (c *HTTPClient) Borrow(request dto.BorrowRequest) (*dto.Borrow, error) {
	var result dto.Borrow
	if err := c.do(http.MethodPost, "/borrows", request, http.StatusCreated, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) Return(bookID int64) (*dto.ReturnResponse, error) {
	var result dto.ReturnResponse
	if err := c.do(http.MethodPost, "/return", dto.BookRefRequest{BookID: bookID}, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) ListBorrows(page int) (*dto.Page[dto.Borrow], error) {
	return c.borrowPage("/borrows", page)
}

func (c *HTTPClient) Overdue(page int) (*dto.Page[dto.Borrow], error) {
	return c.borrowPage("/overdue", page)
}

func (c *HTTPClient) borrowPage(path string, page int) (*dto.Page[dto.Borrow], error) {
	var result dto.Page[dto.Borrow]
	if page > 0 {
		path += "?page=" + strconv.Itoa(page)
	}
	if err := c.do(http.MethodGet, path, nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// --- Reservations ---

func (c *HTTPClient) Reserve(bookID int64) (*dto.Reservation, error) {
	var result dto.Reservation
	if err := c.do(http.MethodPost, "/reservations", dto.BookRefRequest{BookID: bookID}, http.StatusCreated, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) CancelReservation(bookID int64) (*dto.MessageResponse, error) {
	var result dto.MessageResponse
	if err := c.do(http.MethodPost, "/cancel-reservation", dto.BookRefRequest{BookID: bookID}, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) ListReservations(activeOnly bool) (*dto.Page[dto.Reservation], error) {
	var result dto.Page[dto.Reservation]
	path := "/reservations"
	if activeOnly {
		path += "?active=true"
	}
	if err := c.do(http.MethodGet, path, nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
