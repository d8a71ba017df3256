package challonge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBase = "https://api.challonge.com/v1"

type Client struct {
	apiKey    string
	http      *http.Client
	baseURL   string
	userAgent string
}

func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:    apiKey,
		http:      &http.Client{Timeout: 10 * time.Second},
		baseURL:   defaultBase,
		userAgent: "tourney-signups-bot/1.0",
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// do: arma la URL (<path>.json?api_key=...) y manda el form si hay.
// Nada se reintenta: un 429 vuelve como *APIError con RetryAfter y decide quien llama.
func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	u := c.baseURL + path + ".json?" + q.Encode()

	var body io.Reader
	if len(form) > 0 {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("challonge request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("challonge http: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		apiErr := &APIError{Status: res.StatusCode, Body: strings.TrimSpace(string(b))}
		if res.StatusCode == http.StatusTooManyRequests {
			if sec, _ := strconv.Atoi(res.Header.Get("Retry-After")); sec > 0 {
				apiErr.RetryAfter = time.Duration(sec) * time.Second
			}
		}
		return apiErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
