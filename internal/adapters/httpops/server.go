// Package httpops expone acciones de operador (promover, dar de baja, reconciliar) por HTTP.
package httpops

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jose-valero/tourney-signups-bot/internal/app/service"
	"github.com/jose-valero/tourney-signups-bot/internal/domain"
)

const tokenHeader = "X-Ops-Token"

type Reconciler interface {
	Reconcile(ctx context.Context, ref domain.AnnouncementRef) error
}

type Promoter interface {
	PromoteWaitingTeams(ctx context.Context, tournamentID int64) ([]domain.Team, error)
}

type SignOffer interface {
	SignOffTeam(ctx context.Context, teamID int64, reason string) (domain.Team, error)
}

type Server struct {
	token      string
	guildID    string
	reconciler Reconciler
	promoter   Promoter
	signoff    SignOffer
	router     chi.Router
}

func New(token, guildID string, reconciler Reconciler, promoter Promoter, signoff SignOffer) *Server {
	s := &Server{token: token, guildID: guildID, reconciler: reconciler, promoter: promoter, signoff: signoff}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Post("/tournaments/{id}/promote", s.handlePromote)
		r.Post("/teams/{id}/signoff", s.handleSignOff)
		r.Post("/announcements/{channelID}/{messageID}/reconcile", s.handleReconcile)
	})
	s.router = r
}

func (s *Server) Handler() http.Handler { return s.router }

// Run bloquea hasta que ctx se cancela o el listener falla.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() {
		log.Printf("🌐 ops HTTP listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(tokenHeader)
		if s.token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handlePromote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	promoted, err := s.promoter.PromoteWaitingTeams(r.Context(), id)
	if err != nil {
		s.fail(w, "promote", err)
		return
	}
	names := make([]string, 0, len(promoted))
	for _, t := range promoted {
		names = append(names, t.Name)
	}
	log.Printf("[ops] promote tournament=%d promoted=%d", id, len(promoted))
	writeJSON(w, http.StatusOK, map[string]any{"promoted": names})
}

type signOffRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleSignOff(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req signOffRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
	}
	team, err := s.signoff.SignOffTeam(r.Context(), id, req.Reason)
	if err != nil {
		s.fail(w, "signoff", err)
		return
	}
	log.Printf("[ops] signoff team=%d", team.ID)
	writeJSON(w, http.StatusOK, map[string]any{"team": team.Name, "status": team.Status})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	ref := domain.AnnouncementRef{
		GuildID:   s.guildID,
		ChannelID: chi.URLParam(r, "channelID"),
		MessageID: chi.URLParam(r, "messageID"),
	}
	err := s.reconciler.Reconcile(r.Context(), ref)
	var side *service.SideEffectError
	if errors.As(err, &side) {
		writeJSON(w, http.StatusOK, map[string]any{"reconciled": ref.String(), "warning": side.Error()})
		return
	}
	if err != nil {
		s.fail(w, "reconcile", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reconciled": ref.String()})
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrTournamentNotFound), errors.Is(err, service.ErrTeamNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case service.IsValidation(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.Printf("[ops] %s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
