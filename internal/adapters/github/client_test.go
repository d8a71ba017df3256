package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIssue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/bot/issues", r.URL.Path)
		assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))

		var req issueRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "[bracket] 503", req.Title)
		assert.Equal(t, []string{"bot", "bug"}, req.Labels)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"number":7,"html_url":"https://github.com/acme/bot/issues/7"}`))
	}))
	defer srv.Close()

	c := New("tkn", "acme/bot", WithBaseURL(srv.URL), WithLabels([]string{"bot", "bug"}))
	url, err := c.CreateIssue(context.Background(), "[bracket] 503", "body")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/bot/issues/7", url)
}

func TestCreateIssue_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New("bad", "acme/bot", WithBaseURL(srv.URL)).CreateIssue(context.Background(), "t", "b")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}
