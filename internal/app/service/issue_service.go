package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jose-valero/tourney-signups-bot/internal/infra/dedup"
	"github.com/jose-valero/tourney-signups-bot/internal/infra/storage"
)

const maxIssueTitle = 120

// IssueReporter escala errores inesperados al operador: los guarda y, si hay tracker,
// abre un issue. El mismo error (misma firma) dentro de la ventana se ignora.
type IssueReporter struct {
	store   IssueStore
	tracker IssueTracker
	seen    *dedup.Window
	newID   func() uuid.UUID
	timeout time.Duration
}

// tracker puede ser nil (sin GitHub configurado).
func NewIssueReporter(store IssueStore, tracker IssueTracker, seen *dedup.Window) *IssueReporter {
	return &IssueReporter{store: store, tracker: tracker, seen: seen, newID: uuid.New, timeout: 15 * time.Second}
}

func (r *IssueReporter) Report(ctx context.Context, source string, err error, fields map[string]string) {
	if err == nil {
		return
	}
	sig := dedup.Signature(source, err.Error())
	if r.seen != nil && r.seen.Seen(sig) {
		log.Printf("[issues] duplicate source=%s sig=%s", source, sig[:12])
		return
	}

	// el reporte no debe morir con el contexto de la interacción que falló
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	title := issueTitle(source, err)
	body := issueBody(source, err, fields)

	var url string
	if r.tracker != nil {
		u, terr := r.tracker.CreateIssue(ctx, title, body)
		if terr != nil {
			log.Printf("[issues] tracker: %v", terr)
		} else {
			url = u
		}
	}

	if r.store != nil {
		if serr := r.store.Insert(ctx, storage.IssueReport{
			ID:          r.newID(),
			Signature:   sig,
			Source:      source,
			Title:       title,
			Body:        body,
			ExternalURL: url,
		}); serr != nil {
			log.Printf("[issues] store: %v", serr)
		}
	}
	log.Printf("[issues] reported source=%s sig=%s url=%s", source, sig[:12], url)
}

func issueTitle(source string, err error) string {
	msg, _, _ := strings.Cut(err.Error(), "\n")
	title := fmt.Sprintf("[%s] %s", source, msg)
	if r := []rune(title); len(r) > maxIssueTitle {
		title = string(r[:maxIssueTitle-1]) + "…"
	}
	return title
}

func issueBody(source string, err error, fields map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Source:** `%s`\n\n", source)
	fmt.Fprintf(&b, "```\n%s\n```\n", err.Error())
	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("\n| key | value |\n|---|---|\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "| %s | %s |\n", k, fields[k])
		}
	}
	return b.String()
}
