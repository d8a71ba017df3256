// Lambda detrás de API Gateway que recibe el webhook "issues" de GitHub y marca
// como resueltos (o reabiertos) los issue_reports que el bot abrió.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jackc/pgx/v5/pgxpool"
)

const signaturePrefix = "sha256="

var errBadBody = errors.New("invalid body")

type issueEvent struct {
	Action string `json:"action"`
	Issue  struct {
		HTMLURL string `json:"html_url"`
	} `json:"issue"`
}

// resolver lo implementa pgResolver; en los tests, un fake
type resolver interface {
	SetResolved(ctx context.Context, url string, resolved bool) (int64, error)
}

type pgResolver struct{ db *pgxpool.Pool }

func (r pgResolver) SetResolved(ctx context.Context, url string, resolved bool) (int64, error) {
	q := `UPDATE issue_reports SET resolved_at = now() WHERE external_url = $1 AND resolved_at IS NULL`
	if !resolved {
		q = `UPDATE issue_reports SET resolved_at = NULL WHERE external_url = $1 AND resolved_at IS NOT NULL`
	}
	tag, err := r.db.Exec(ctx, q, url)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type app struct {
	secret string
	store  resolver
}

func header(h map[string]string, name string) string {
	if v, ok := h[strings.ToLower(name)]; ok {
		return v
	}
	for k, v := range h {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// validSignature compara el HMAC-SHA256 del body con X-Hub-Signature-256.
func validSignature(secret, body, got string) bool {
	if secret == "" || !strings.HasPrefix(got, signaturePrefix) {
		return false
	}
	want, err := hex.DecodeString(strings.TrimPrefix(got, signaturePrefix))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hmac.Equal(mac.Sum(nil), want)
}

func reply(code int, body string) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: code,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func (a *app) handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	log.Printf("webhook hit | path=%s method=%s ip=%s", req.RawPath, req.RequestContext.HTTP.Method, req.RequestContext.HTTP.SourceIP)

	body := req.Body
	if req.IsBase64Encoded {
		dec, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return reply(400, `{"error":"invalid base64"}`), nil
		}
		body = string(dec)
	}

	if !validSignature(a.secret, body, header(req.Headers, "X-Hub-Signature-256")) {
		log.Println("auth: unauthorized (missing/invalid signature)")
		return reply(401, `{"error":"unauthorized"}`), nil
	}

	switch header(req.Headers, "X-GitHub-Event") {
	case "ping":
		return reply(200, `{"ok":true}`), nil
	case "issues":
	default:
		return reply(202, `{"ignored":true}`), nil
	}

	n, err := a.apply(ctx, body)
	if errors.Is(err, errBadBody) {
		return reply(400, `{"error":"invalid body"}`), nil
	}
	if err != nil {
		log.Printf("[webhook] %v", err)
		return reply(500, `{"error":"internal"}`), nil
	}
	return reply(200, fmt.Sprintf(`{"ok":true,"updated":%d}`, n)), nil
}

func (a *app) apply(ctx context.Context, body string) (int64, error) {
	var evt issueEvent
	if err := json.Unmarshal([]byte(body), &evt); err != nil || evt.Issue.HTMLURL == "" {
		return 0, errBadBody
	}

	var resolved bool
	switch evt.Action {
	case "closed":
		resolved = true
	case "reopened":
		resolved = false
	default:
		return 0, nil
	}
	if a.store == nil {
		return 0, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	n, err := a.store.SetResolved(cctx, evt.Issue.HTMLURL, resolved)
	if err != nil {
		return 0, fmt.Errorf("set resolved url=%s: %w", evt.Issue.HTMLURL, err)
	}
	log.Printf("[webhook] issue %s %s updated=%d", evt.Issue.HTMLURL, evt.Action, n)
	return n, nil
}

func newApp() *app {
	a := &app{secret: os.Getenv("GITHUB_WEBHOOK_SECRET")}

	// sin DB igual validamos y respondemos
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Println("DATABASE_URL empty; running without DB")
		return a
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		log.Println("pgx ParseConfig:", err)
		return a
	}
	cfg.MaxConns = 4
	cfg.MaxConnLifetime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		log.Println("pgxpool New:", err)
		return a
	}
	a.store = pgResolver{db: pool}
	return a
}

func main() { lambda.Start(newApp().handle) }
