package library

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BooksService is the catalogue half of the backend.
type BooksService interface {
	GetBooksList(ctx context.Context) ([]Books, error)
	GetBookByID(ctx context.Context, id int) (*Books, error)
	AddBook(ctx context.Context, b Books) (*Books, error)
	UpdateBook(ctx context.Context, id int, b Books) (*Books, error)
	DeleteBook(ctx context.Context, id int) error
}

// UsersService covers account registration and lookup.
type UsersService interface {
	RegisterUser(ctx context.Context, u Users) (*Users, error)
	GetUsersList(ctx context.Context) ([]Users, error)
	GetUserByID(ctx context.Context, id int) (*Users, error)
}

// BorrowService covers lending and returning.
type BorrowService interface {
	BorrowBook(ctx context.Context, bookID, userID int) (string, error)
	ReturnBook(ctx context.Context, borrowID int) (*Borrow, error)
	GetBorrowList(ctx context.Context) ([]Borrow, error)
	GetBorrowsByUser(ctx context.Context, userID int) ([]Borrow, error)
	GetBorrowsByBook(ctx context.Context, bookID int) ([]Borrow, error)
}

// Client talks to the LMS HTTP API. One method, one request; nothing is retried.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *slog.Logger
}

var (
	_ BooksService  = (*Client)(nil)
	_ UsersService  = (*Client)(nil)
	_ BorrowService = (*Client)(nil)
)

// NewClient builds a client from cfg. A nil logger uses slog.Default().
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     logger,
	}
}

// WithToken returns a copy of c that sends token as its bearer credential.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// ------------------ Books ------------------

func (c *Client) GetBooksList(ctx context.Context) ([]Books, error) {
	var books []Books
	if err := c.do(ctx, http.MethodGet, "/admin/books", nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (c *Client) GetBookByID(ctx context.Context, id int) (*Books, error) {
	var b Books
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/admin/books/%d", id), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) AddBook(ctx context.Context, book Books) (*Books, error) {
	var b Books
	if err := c.do(ctx, http.MethodPost, "/admin/books", book, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) UpdateBook(ctx context.Context, id int, book Books) (*Books, error) {
	var b Books
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/admin/books/%d", id), book, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// DeleteBook ignores the response body; an empty 2xx counts as success.
func (c *Client) DeleteBook(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/admin/books/%d", id), nil, nil)
}

// ------------------ Users ------------------

func (c *Client) RegisterUser(ctx context.Context, user Users) (*Users, error) {
	var u Users
	if err := c.do(ctx, http.MethodPost, "/user/adduser", user, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) GetUsersList(ctx context.Context) ([]Users, error) {
	var users []Users
	if err := c.do(ctx, http.MethodGet, "/admin/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) GetUserByID(ctx context.Context, id int) (*Users, error) {
	var u Users
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/admin/users/%d", id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Authenticate trades credentials for a bearer token. The client does not keep it;
// use WithToken or Config.Token.
func (c *Client) Authenticate(ctx context.Context, username, password string) (*AuthResponse, error) {
	var resp AuthResponse
	req := AuthRequest{UserName: username, UserPassword: password}
	if err := c.do(ctx, http.MethodPost, "/authenticate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ------------------ Borrow ------------------

// BorrowBook returns the backend's human-readable outcome, which includes the
// out-of-stock case.
func (c *Client) BorrowBook(ctx context.Context, bookID, userID int) (string, error) {
	var sb strings.Builder
	if err := c.do(ctx, http.MethodPost, "/borrow", borrowRequest{BookID: bookID, UserID: userID}, &sb); err != nil {
		return "", err
	}
	return strings.TrimSpace(sb.String()), nil
}

func (c *Client) ReturnBook(ctx context.Context, borrowID int) (*Borrow, error) {
	var b Borrow
	if err := c.do(ctx, http.MethodPut, "/borrow", Borrow{BorrowID: borrowID}, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) GetBorrowList(ctx context.Context) ([]Borrow, error) {
	return c.borrows(ctx, "/borrow")
}

func (c *Client) GetBorrowsByUser(ctx context.Context, userID int) ([]Borrow, error) {
	return c.borrows(ctx, fmt.Sprintf("/borrow/user/%d", userID))
}

func (c *Client) GetBorrowsByBook(ctx context.Context, bookID int) ([]Borrow, error) {
	return c.borrows(ctx, fmt.Sprintf("/borrow/book/%d", bookID))
}

func (c *Client) borrows(ctx context.Context, path string) ([]Borrow, error) {
	var list []Borrow
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ------------------ Transport ------------------

// do sends one request. out may be nil (body discarded), a *strings.Builder
// (raw text) or any JSON target.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", "method", method, "path", path, "request_id", reqID, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}
	c.log.Debug("request done", "method", method, "path", path, "status", resp.StatusCode, "request_id", reqID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(data)}
	}

	switch dst := out.(type) {
	case nil:
		return nil
	case *strings.Builder:
		dst.Write(data)
		return nil
	default:
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
		return nil
	}
}
