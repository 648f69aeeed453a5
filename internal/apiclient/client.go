package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const HeaderCorrelationID = "X-Correlation-Id"

// ErrUnauthorized is returned for 401 and 403 responses. The token is no
// longer accepted and the session must be torn down.
var ErrUnauthorized = errors.New("backend session is no longer valid")

// Error carries a non-2xx backend response. Message is the backend's own
// error text, shown to the cashier as is.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// StatusOf returns the backend status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type ctxKey int

const (
	tokenKey ctxKey = iota
	correlationKey
)

func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey).(string)
	return id
}

type Client struct {
	BaseURL *url.URL
	HTTP    *http.Client
	limiter *rate.Limiter
}

// New builds a client for the backend at baseURL. ratePerSecond <= 0
// disables outbound pacing.
func New(baseURL string, timeout time.Duration, ratePerSecond float64) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend url %q: scheme must be http or https", baseURL)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if ratePerSecond > 0 {
		burst := max(int(math.Ceil(ratePerSecond)), 1)
		limiter = rate.NewLimiter(rate.Limit(ratePerSecond), burst)
	}

	return &Client{
		BaseURL: u,
		HTTP:    &http.Client{Timeout: timeout},
		limiter: limiter,
	}, nil
}

// Do sends one JSON request. in may be nil; out may be nil to discard the
// body. The request is never retried.
func (c *Client) Do(ctx context.Context, method string, path string, query url.Values, in any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for backend slot: %w", err)
	}

	u := c.BaseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	cid := CorrelationID(ctx)
	if cid == "" {
		cid = uuid.NewString()
	}
	req.Header.Set(HeaderCorrelationID, cid)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp)
		if resp.StatusCode >= 500 {
			log.Printf("[apiclient] WARN: %s %s -> %d (%s): %s", method, path, resp.StatusCode, cid, apiErr.Message)
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) *Error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	message := ""
	if err := json.Unmarshal(raw, &payload); err == nil {
		message = firstNonEmpty(payload.Error, payload.Message)
	} else {
		message = plainMessage(raw)
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return &Error{Status: resp.StatusCode, Message: message}
}

// plainMessage returns a short text body as is. Markup (proxy error pages)
// and oversized bodies are dropped.
func plainMessage(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if text == "" || len(text) > maxPlainMessage || strings.HasPrefix(text, "<") || !utf8.ValidString(text) {
		return ""
	}
	return text
}

const maxPlainMessage = 512

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func segment(id string) string {
	return url.PathEscape(strings.TrimSpace(id))
}
