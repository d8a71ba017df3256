package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jose-valero/tourney-signups-bot/internal/domain"
	"github.com/jose-valero/tourney-signups-bot/internal/infra/storage"
)

// SubstituteService llena cupos libres con la lista de espera.
type SubstituteService struct {
	effects
}

func NewSubstituteService(repos Repos, chat ChatPlatform, notifier *Notifier, opts ...Option) *SubstituteService {
	return &SubstituteService{effects: newEffects(repos, chat, notifier, opts)}
}

// PromoteWaitingTeams promueve suplentes por orden de signup_completed_time mientras
// haya cupo. El conteo de aceptados se relee en cada vuelta.
func (s *SubstituteService) PromoteWaitingTeams(ctx context.Context, tournamentID int64) ([]domain.Team, error) {
	t, promoted, err := s.promoteLocked(ctx, tournamentID)
	if err != nil && len(promoted) == 0 {
		return nil, err
	}
	for _, team := range promoted {
		s.followUp(ctx, t, team)
	}
	return promoted, err
}

func (s *SubstituteService) promoteLocked(ctx context.Context, tournamentID int64) (domain.Tournament, []domain.Team, error) {
	unlock := s.lockTournament(tournamentID)
	defer unlock()

	t, err := s.repos.Tournaments.GetByID(ctx, tournamentID)
	if errors.Is(err, storage.ErrNotFound) {
		return t, nil, ErrTournamentNotFound
	}
	if err != nil {
		return t, nil, fmt.Errorf("get tournament %d: %w", tournamentID, err)
	}

	var promoted []domain.Team
	tried := map[int64]bool{}
	for {
		accepted, err := s.repos.Teams.CountByStatus(ctx, t.ID, domain.TeamAccepted)
		if err != nil {
			return t, promoted, fmt.Errorf("count accepted tournament=%d: %w", t.ID, err)
		}
		if accepted >= t.MaxAcceptedTeams {
			break
		}

		next, err := s.repos.Teams.EarliestSubstitute(ctx, t.ID)
		if errors.Is(err, storage.ErrNotFound) {
			break
		}
		if err != nil {
			return t, promoted, fmt.Errorf("earliest substitute tournament=%d: %w", t.ID, err)
		}
		if tried[next.ID] {
			break
		}
		tried[next.ID] = true

		ok, err := s.repos.Teams.TransitionStatus(ctx, next.ID, []domain.TeamStatus{domain.TeamSubstitute}, domain.TeamAccepted)
		if err != nil {
			return t, promoted, fmt.Errorf("promote team=%d: %w", next.ID, err)
		}
		if !ok {
			continue
		}
		next.Status = domain.TeamAccepted
		promoted = append(promoted, next)
		log.Printf("[promote] tournament=%d team=%d name=%q accepted=%d/%d", t.ID, next.ID, next.Name, accepted+1, t.MaxAcceptedTeams)
	}
	return t, promoted, nil
}

// followUp: DM de promoción, anuncio restyled y check-in en el bracket si ya estaba registrado.
// Todo best effort; los fallos se reportan y no se reintentan.
func (s *SubstituteService) followUp(ctx context.Context, t domain.Tournament, team domain.Team) {
	players, err := s.repos.Members.ListPlayers(ctx, team.ID)
	if err != nil {
		log.Printf("[promote] members team=%d: %v", team.ID, err)
		s.report(ctx, "promote", err, team)
		return
	}
	memberIDs := discordIDs(players)

	notice := Notice{Kind: NoticePromoted, TeamName: team.Name, TournamentName: t.Name}
	msg, err := s.repos.Messages.GetForTeam(ctx, team.ID, domain.PurposeSignupAnnouncement)
	switch {
	case err == nil:
		ref := s.ref(msg)
		notice.Link = ref.JumpURL()
		if err := s.finalize(ctx, ref, viewFor(t, team, memberIDs, "Promovido desde la lista de espera.")); err != nil {
			log.Printf("[promote] restyle team=%d: %v", team.ID, err)
		}
	case !errors.Is(err, storage.ErrNotFound):
		log.Printf("[promote] announcement team=%d: %v", team.ID, err)
	}

	s.notify(ctx, team, memberIDs, notice)

	if s.hasBracket(t) && team.BracketTeamID != nil && *team.BracketTeamID != "" {
		if err := s.bracket.CheckIn(ctx, *t.BracketID, *team.BracketTeamID); err != nil {
			log.Printf("[bracket] check-in team=%d: %v", team.ID, err)
			s.report(ctx, "bracket", fmt.Errorf("bracket check-in %s: %w", *team.BracketTeamID, err), team)
		}
	}
}
