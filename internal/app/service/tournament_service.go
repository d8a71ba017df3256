package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jose-valero/tourney-signups-bot/internal/domain"
	"github.com/jose-valero/tourney-signups-bot/internal/infra/storage"
)

// Lo implementa SubstituteService
type Promoter interface {
	PromoteWaitingTeams(ctx context.Context, tournamentID int64) ([]domain.Team, error)
}

// TournamentService: acciones administrativas sobre torneos y bajas de equipos.
type TournamentService struct {
	effects
	promoter Promoter
}

func NewTournamentService(repos Repos, chat ChatPlatform, notifier *Notifier, promoter Promoter, opts ...Option) *TournamentService {
	return &TournamentService{effects: newEffects(repos, chat, notifier, opts), promoter: promoter}
}

type CreateTournamentInput struct {
	Name             string
	StartDate        *time.Time
	SurfaceID        string
	MaxAcceptedTeams int
	WithBracket      bool
}

func (s *TournamentService) Create(ctx context.Context, in CreateTournamentInput) (domain.Tournament, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Tournament{}, ErrEmptyTournamentName
	}
	if in.MaxAcceptedTeams <= 0 {
		return domain.Tournament{}, ErrInvalidCapacity
	}
	_, err := s.repos.Tournaments.GetBySurface(ctx, in.SurfaceID)
	if err == nil {
		return domain.Tournament{}, ErrDuplicateSignupSurface
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return domain.Tournament{}, fmt.Errorf("get tournament surface=%s: %w", in.SurfaceID, err)
	}

	t := domain.Tournament{
		Name:             name,
		StartDate:        in.StartDate,
		Status:           domain.TournamentPlanned,
		SignupSurfaceID:  in.SurfaceID,
		MaxAcceptedTeams: in.MaxAcceptedTeams,
	}
	if in.WithBracket && s.bracket != nil {
		extID, err := s.bracket.CreateTournament(ctx, name, in.StartDate)
		if err != nil {
			return domain.Tournament{}, fmt.Errorf("bracket create tournament: %w", err)
		}
		t.BracketID = &extID
	}

	out, err := s.repos.Tournaments.Create(ctx, t)
	if errors.Is(err, storage.ErrConflict) {
		return domain.Tournament{}, ErrDuplicateSignupSurface
	}
	if err != nil {
		return domain.Tournament{}, fmt.Errorf("create tournament: %w", err)
	}
	log.Printf("[tournament] created id=%d name=%q surface=%s capacity=%d bracket=%v", out.ID, out.Name, out.SignupSurfaceID, out.MaxAcceptedTeams, out.HasBracket())
	return out, nil
}

func (s *TournamentService) BySurface(ctx context.Context, surfaceID string) (domain.Tournament, error) {
	t, err := s.repos.Tournaments.GetBySurface(ctx, surfaceID)
	if errors.Is(err, storage.ErrNotFound) {
		return t, ErrTournamentNotFound
	}
	return t, err
}

func (s *TournamentService) List(ctx context.Context) ([]domain.Tournament, error) {
	return s.repos.Tournaments.List(ctx)
}

// SetStatus sólo avanza; cancelled es terminal desde cualquier estado.
func (s *TournamentService) SetStatus(ctx context.Context, id int64, status domain.TournamentStatus) (domain.Tournament, error) {
	t, err := s.get(ctx, id)
	if err != nil {
		return t, err
	}
	if !t.Status.CanAdvanceTo(status) {
		return t, ErrInvalidStatusTransition
	}
	if err := s.repos.Tournaments.UpdateStatus(ctx, id, status); err != nil {
		return t, fmt.Errorf("update tournament %d status: %w", id, err)
	}
	log.Printf("[tournament] id=%d %s -> %s", id, t.Status, status)
	t.Status = status
	return t, nil
}

func (s *TournamentService) LockSignups(ctx context.Context, id int64, reason string) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "bloqueado por un admin"
	}
	return s.repos.Tournaments.SetSignupsLock(ctx, id, &reason)
}

func (s *TournamentService) UnlockSignups(ctx context.Context, id int64) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	return s.repos.Tournaments.SetSignupsLock(ctx, id, nil)
}

type TeamDetails struct {
	Team    domain.Team
	Members []domain.Player
}

func (s *TournamentService) TeamInfo(ctx context.Context, surfaceID, name string) (TeamDetails, error) {
	team, err := s.teamByName(ctx, surfaceID, name)
	if err != nil {
		return TeamDetails{}, err
	}
	players, err := s.repos.Members.ListPlayers(ctx, team.ID)
	if err != nil {
		return TeamDetails{}, fmt.Errorf("list members team=%d: %w", team.ID, err)
	}
	return TeamDetails{Team: team, Members: players}, nil
}

func (s *TournamentService) SignOffByName(ctx context.Context, surfaceID, name, reason string) (domain.Team, error) {
	team, err := s.teamByName(ctx, surfaceID, name)
	if err != nil {
		return team, err
	}
	return s.SignOffTeam(ctx, team.ID, reason)
}

// SignOffTeam da de baja un equipo aceptado o suplente. Si ocupaba cupo,
// se promueve la lista de espera.
func (s *TournamentService) SignOffTeam(ctx context.Context, teamID int64, reason string) (domain.Team, error) {
	team, err := s.repos.Teams.GetByID(ctx, teamID)
	if errors.Is(err, storage.ErrNotFound) {
		return team, ErrTeamNotFound
	}
	if err != nil {
		return team, fmt.Errorf("get team %d: %w", teamID, err)
	}
	prev := team.Status
	if prev != domain.TeamAccepted && prev != domain.TeamSubstitute {
		return team, ErrTeamNotSignedUp
	}

	unlock := s.lockTournament(team.TournamentID)
	ok, err := s.repos.Teams.TransitionStatus(ctx, team.ID, []domain.TeamStatus{prev}, domain.TeamRejected)
	unlock()
	if err != nil {
		return team, fmt.Errorf("sign off team=%d: %w", team.ID, err)
	}
	if !ok {
		return team, ErrTeamNotSignedUp
	}
	team.Status = domain.TeamRejected
	log.Printf("[signoff] team=%d name=%q %s -> rejected reason=%q", team.ID, team.Name, prev, reason)

	t, err := s.get(ctx, team.TournamentID)
	if err != nil {
		return team, err
	}
	s.signOffEffects(ctx, t, team, reason)

	if prev == domain.TeamAccepted && s.promoter != nil {
		if _, err := s.promoter.PromoteWaitingTeams(ctx, t.ID); err != nil {
			return team, fmt.Errorf("promote after sign off: %w", err)
		}
	}
	return team, nil
}

func (s *TournamentService) signOffEffects(ctx context.Context, t domain.Tournament, team domain.Team, reason string) {
	players, err := s.repos.Members.ListPlayers(ctx, team.ID)
	if err != nil {
		log.Printf("[signoff] members team=%d: %v", team.ID, err)
	}
	memberIDs := discordIDs(players)

	notice := Notice{Kind: NoticeCancelled, TeamName: team.Name, TournamentName: t.Name, Reason: reason}
	msg, err := s.repos.Messages.GetForTeam(ctx, team.ID, domain.PurposeSignupAnnouncement)
	switch {
	case err == nil:
		ref := s.ref(msg)
		notice.Link = ref.JumpURL()
		note := "Baja"
		if reason != "" {
			note += ": " + reason
		}
		if err := s.finalize(ctx, ref, viewFor(t, team, memberIDs, note)); err != nil {
			log.Printf("[signoff] restyle team=%d: %v", team.ID, err)
		}
	case !errors.Is(err, storage.ErrNotFound):
		log.Printf("[signoff] announcement team=%d: %v", team.ID, err)
	}

	s.notify(ctx, team, memberIDs, notice)

	if s.hasBracket(t) && team.BracketTeamID != nil && *team.BracketTeamID != "" {
		if err := s.bracket.CheckOut(ctx, *t.BracketID, *team.BracketTeamID); err != nil {
			log.Printf("[bracket] check-out team=%d: %v", team.ID, err)
			s.report(ctx, "bracket", fmt.Errorf("bracket check-out %s: %w", *team.BracketTeamID, err), team)
		}
	}
}

func (s *TournamentService) get(ctx context.Context, id int64) (domain.Tournament, error) {
	t, err := s.repos.Tournaments.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return t, ErrTournamentNotFound
	}
	if err != nil {
		return t, fmt.Errorf("get tournament %d: %w", id, err)
	}
	return t, nil
}

func (s *TournamentService) teamByName(ctx context.Context, surfaceID, name string) (domain.Team, error) {
	t, err := s.BySurface(ctx, surfaceID)
	if err != nil {
		return domain.Team{}, err
	}
	team, err := s.repos.Teams.GetByName(ctx, t.ID, strings.TrimSpace(name))
	if errors.Is(err, storage.ErrNotFound) {
		return team, ErrTeamNotFound
	}
	if err != nil {
		return team, fmt.Errorf("get team %q: %w", name, err)
	}
	return team, nil
}
