package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	calls map[string]bool
	err   error
}

func (f *fakeResolver) SetResolved(_ context.Context, url string, resolved bool) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.calls == nil {
		f.calls = map[string]bool{}
	}
	f.calls[url] = resolved
	return 1, nil
}

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

func request(event, body, sig string) events.APIGatewayV2HTTPRequest {
	return events.APIGatewayV2HTTPRequest{
		Headers: map[string]string{"x-github-event": event, "x-hub-signature-256": sig},
		Body:    body,
	}
}

const closedBody = `{"action":"closed","issue":{"html_url":"https://github.com/acme/bot/issues/7"}}`

func TestValidSignature(t *testing.T) {
	assert.True(t, validSignature("s3cret", "hola", sign("s3cret", "hola")))
	assert.False(t, validSignature("s3cret", "hola", sign("otro", "hola")))
	assert.False(t, validSignature("s3cret", "hola", "sha1=abc"))
	assert.False(t, validSignature("", "hola", sign("", "hola")))
}

func TestHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("closed marks resolved", func(t *testing.T) {
		store := &fakeResolver{}
		a := &app{secret: "s3cret", store: store}
		res, err := a.handle(ctx, request("issues", closedBody, sign("s3cret", closedBody)))
		require.NoError(t, err)
		assert.Equal(t, 200, res.StatusCode)
		assert.Equal(t, map[string]bool{"https://github.com/acme/bot/issues/7": true}, store.calls)
	})

	t.Run("reopened clears", func(t *testing.T) {
		store := &fakeResolver{}
		a := &app{secret: "s3cret", store: store}
		body := `{"action":"reopened","issue":{"html_url":"u"}}`
		res, err := a.handle(ctx, request("issues", body, sign("s3cret", body)))
		require.NoError(t, err)
		assert.Equal(t, 200, res.StatusCode)
		assert.Equal(t, map[string]bool{"u": false}, store.calls)
	})

	t.Run("base64 body", func(t *testing.T) {
		store := &fakeResolver{}
		a := &app{secret: "s3cret", store: store}
		req := request("issues", base64.StdEncoding.EncodeToString([]byte(closedBody)), sign("s3cret", closedBody))
		req.IsBase64Encoded = true
		res, err := a.handle(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 200, res.StatusCode)
		assert.Len(t, store.calls, 1)
	})

	t.Run("bad signature", func(t *testing.T) {
		store := &fakeResolver{}
		a := &app{secret: "s3cret", store: store}
		res, err := a.handle(ctx, request("issues", closedBody, sign("nope", closedBody)))
		require.NoError(t, err)
		assert.Equal(t, 401, res.StatusCode)
		assert.Empty(t, store.calls)
	})

	t.Run("other events ignored", func(t *testing.T) {
		store := &fakeResolver{}
		a := &app{secret: "s3cret", store: store}
		res, err := a.handle(ctx, request("push", closedBody, sign("s3cret", closedBody)))
		require.NoError(t, err)
		assert.Equal(t, 202, res.StatusCode)
		assert.Empty(t, store.calls)
	})

	t.Run("other actions are a no-op", func(t *testing.T) {
		store := &fakeResolver{}
		a := &app{secret: "s3cret", store: store}
		body := `{"action":"labeled","issue":{"html_url":"u"}}`
		res, err := a.handle(ctx, request("issues", body, sign("s3cret", body)))
		require.NoError(t, err)
		assert.Equal(t, 200, res.StatusCode)
		assert.Empty(t, store.calls)
	})

	t.Run("malformed body", func(t *testing.T) {
		a := &app{secret: "s3cret", store: &fakeResolver{}}
		res, err := a.handle(ctx, request("issues", "{", sign("s3cret", "{")))
		require.NoError(t, err)
		assert.Equal(t, 400, res.StatusCode)
	})

	t.Run("store failure", func(t *testing.T) {
		a := &app{secret: "s3cret", store: &fakeResolver{err: errors.New("db down")}}
		res, err := a.handle(ctx, request("issues", closedBody, sign("s3cret", closedBody)))
		require.NoError(t, err)
		assert.Equal(t, 500, res.StatusCode)
	})
}
