package boardclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	dto "github.com/park285/cheese-board/pkg/boarddto"
	"github.com/valyala/fasthttp"
)

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

// StaticHeaders parses "Name: value" pairs into a fixed HeaderProvider.
func StaticHeaders(pairs []string) (HeaderProvider, error) {
	hdr := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, ":")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid header %q: want \"Name: value\"", kv)
		}
		hdr[k] = v
	}
	return func() map[string]string { return hdr }, nil
}

// Client talks to the board HTTP API.
type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Create(ctx context.Context, req *dto.CreateRequest) (*dto.GameState, error) {
	var st dto.GameState
	var in any
	if req != nil {
		in = req
	}
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/games", in, &st, false); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) Get(ctx context.Context, id string) (*dto.GameState, error) {
	var st dto.GameState
	if err := c.doJSON(ctx, fasthttp.MethodGet, gamePath(id, ""), nil, &st, true); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) List(ctx context.Context) ([]string, error) {
	var resp dto.ListResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/games", nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Games, nil
}

func (c *Client) Select(ctx context.Context, id string, pieceID int) (*dto.SelectResponse, error) {
	var resp dto.SelectResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, gamePath(id, "/select"), dto.SelectRequest{PieceID: pieceID}, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SelectAt(ctx context.Context, id, square string) (*dto.SelectResponse, error) {
	var resp dto.SelectResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, gamePath(id, "/select"), dto.SelectRequest{Square: square}, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Move(ctx context.Context, id, square string) (*dto.MoveResponse, error) {
	var resp dto.MoveResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, gamePath(id, "/move"), dto.MoveRequest{Square: square}, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Deselect(ctx context.Context, id string) (*dto.DeselectResponse, error) {
	var resp dto.DeselectResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, gamePath(id, "/deselect"), nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Reset(ctx context.Context, id string) (*dto.GameState, error) {
	var st dto.GameState
	if err := c.doJSON(ctx, fasthttp.MethodPost, gamePath(id, "/reset"), nil, &st, false); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.doJSON(ctx, fasthttp.MethodDelete, gamePath(id, ""), nil, nil, false)
}

// BoardPNG fetches the rendered board image.
func (c *Client) BoardPNG(ctx context.Context, id string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()
	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(c.baseURL + gamePath(id, "/board.png"))
	c.applyHeaders(req)

	if err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx)); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if status := resp.StatusCode(); status != fasthttp.StatusOK {
		return nil, decodeError(status, resp.Body())
	}
	out := make([]byte, len(resp.Body()))
	copy(out, resp.Body())
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	c.applyHeaders(req)

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry {
		attempts = c.retryMax
		if attempts <= 0 {
			attempts = 1
		}
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			if attempt == attempts || !retry {
				return fmt.Errorf("request failed: %w", err)
			}
			lastErr = err
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			err := decodeError(status, resp.Body())
			if attempt == attempts || !retry || !shouldRetryStatus(status) {
				return err
			}
			lastErr = err
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		if out != nil && len(resp.Body()) > 0 {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func (c *Client) applyHeaders(req *fasthttp.Request) {
	if c.headers == nil {
		return
	}
	for k, v := range c.headers() {
		if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
			req.Header.Set(k, v)
		}
	}
}

// APIError is returned for non-2xx responses.
type APIError struct {
	Status int
	dto.DomainError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("board api error: status=%d code=%s: %s", e.Status, e.Code, e.DomainError.Error())
}

func decodeError(status int, body []byte) error {
	e := &APIError{Status: status}
	if err := json.Unmarshal(body, &e.DomainError); err != nil || e.Code == "" {
		e.DomainError = dto.DomainError{Code: fmt.Sprintf("http_%d", status), Message: truncate(string(body), 512)}
	}
	return e
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var e *APIError
	return errors.As(err, &e) && e.Status == fasthttp.StatusNotFound
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		clientDL := time.Now().Add(c.defaultTimeout)
		if dl.Before(clientDL) {
			return dl
		}
		return clientDL
	}
	return time.Now().Add(c.defaultTimeout)
}

func (c *Client) sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func gamePath(id, suffix string) string {
	return "/games/" + url.PathEscape(strings.TrimSpace(id)) + suffix
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
