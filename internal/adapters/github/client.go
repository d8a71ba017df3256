// Package github abre issues en el repo configurado para que el operador vea los errores inesperados.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBase = "https://api.github.com"

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github api status %d: %s", e.Status, e.Body)
}

type Client struct {
	token   string
	repo    string // owner/name
	labels  []string
	http    *http.Client
	baseURL string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }
func WithBaseURL(u string) Option         { return func(c *Client) { c.baseURL = u } }
func WithLabels(l []string) Option        { return func(c *Client) { c.labels = l } }

func New(token, repo string, opts ...Option) *Client {
	c := &Client{
		token:   token,
		repo:    repo,
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: defaultBase,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type issueRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels,omitempty"`
}

type issueResponse struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
}

// CreateIssue devuelve la URL pública del issue creado.
func (c *Client) CreateIssue(ctx context.Context, title, body string) (string, error) {
	payload, err := json.Marshal(issueRequest{Title: title, Body: body, Labels: c.labels})
	if err != nil {
		return "", err
	}
	u := fmt.Sprintf("%s/repos/%s/issues", c.baseURL, c.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("github http: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", &APIError{Status: res.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	var out issueResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("github decode: %w", err)
	}
	return out.HTMLURL, nil
}
