package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/jose-valero/tourney-signups-bot/internal/domain"
	"github.com/jose-valero/tourney-signups-bot/internal/infra/storage"
)

const MaxTeamNameLength = 20

// Repos agrupa los repositorios que comparten los servicios.
type Repos struct {
	Tournaments TournamentRepo
	Teams       TeamRepo
	Members     MemberRepo
	Players     PlayerRepo
	Messages    MessageRepo
}

type SignupRequest struct {
	SurfaceID   string
	TeamName    string
	RequesterID string
	MemberIDs   []string // sin el solicitante; se agrega al final
}

type SignupResult struct {
	Tournament   domain.Tournament
	Team         domain.Team
	MemberIDs    []string
	Announcement domain.AnnouncementRef
}

type SignupService struct {
	repos     Repos
	announcer Announcer
}

func NewSignupService(repos Repos, announcer Announcer) *SignupService {
	return &SignupService{repos: repos, announcer: announcer}
}

// SignupTeam valida en orden y corta en el primer error; con todo ok crea el equipo
// (pending) con sus miembros, publica el anuncio y recién entonces guarda el Message.
func (s *SignupService) SignupTeam(ctx context.Context, req SignupRequest) (SignupResult, error) {
	t, err := s.repos.Tournaments.GetBySurface(ctx, req.SurfaceID)
	if errors.Is(err, storage.ErrNotFound) {
		return SignupResult{}, ErrTournamentNotFound
	}
	if err != nil {
		return SignupResult{}, fmt.Errorf("get tournament surface=%s: %w", req.SurfaceID, err)
	}
	// el lock administrativo no frena inscripciones, sólo el reconcile
	if t.Status != domain.TournamentSignups {
		return SignupResult{}, ErrSignupClosed
	}

	name := strings.TrimSpace(req.TeamName)
	if name == "" {
		return SignupResult{}, ErrEmptyTeamName
	}
	if utf8.RuneCountInString(name) > MaxTeamNameLength {
		return SignupResult{}, &TeamNameTooLongError{Max: MaxTeamNameLength}
	}

	existing, err := s.repos.Teams.GetByName(ctx, t.ID, name)
	switch {
	case err == nil:
		return SignupResult{}, &TeamNameTakenError{Existing: existing}
	case !errors.Is(err, storage.ErrNotFound):
		return SignupResult{}, fmt.Errorf("get team by name: %w", err)
	}

	memberIDs := append(append([]string{}, req.MemberIDs...), req.RequesterID)
	seen := make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		if _, dup := seen[id]; dup {
			return SignupResult{}, ErrDuplicateTeamMember
		}
		seen[id] = struct{}{}
	}

	playerIDs, err := s.resolveMembers(ctx, t.ID, memberIDs)
	if err != nil {
		return SignupResult{}, err
	}

	team, err := s.repos.Teams.CreateWithMembers(ctx, t.ID, name, playerIDs)
	if errors.Is(err, storage.ErrConflict) {
		// carrera con otra inscripción del mismo nombre
		if existing, gerr := s.repos.Teams.GetByName(ctx, t.ID, name); gerr == nil {
			return SignupResult{}, &TeamNameTakenError{Existing: existing}
		}
	}
	if err != nil {
		return SignupResult{}, fmt.Errorf("create team %q: %w", name, err)
	}
	log.Printf("[signup] team=%d name=%q tournament=%d members=%d", team.ID, team.Name, t.ID, len(memberIDs))

	ref, err := s.announcer.PublishSignup(ctx, t.SignupSurfaceID, AnnouncementView{
		TeamName:       team.Name,
		TournamentName: t.Name,
		MemberIDs:      memberIDs,
		Status:         domain.TeamPending,
	})
	if err != nil {
		// el equipo queda pending sin anuncio; no se oculta
		return SignupResult{}, fmt.Errorf("publish announcement team=%d: %w", team.ID, err)
	}

	if _, err := s.repos.Messages.Create(ctx, domain.Message{
		AnnouncementID: ref.MessageID,
		ChannelID:      ref.ChannelID,
		TeamID:         team.ID,
		Purpose:        domain.PurposeSignupAnnouncement,
	}); err != nil {
		return SignupResult{}, fmt.Errorf("save announcement team=%d msg=%s: %w", team.ID, ref.MessageID, err)
	}

	return SignupResult{Tournament: t, Team: team, MemberIDs: memberIDs, Announcement: ref}, nil
}

// resolveMembers: los no registrados se acumulan; el primero que ya está en un
// equipo corta en el acto.
func (s *SignupService) resolveMembers(ctx context.Context, tournamentID int64, memberIDs []string) ([]int64, error) {
	players, err := s.repos.Players.FindByDiscordIDs(ctx, memberIDs)
	if err != nil {
		return nil, fmt.Errorf("find players: %w", err)
	}

	var unregistered []string
	ids := make([]int64, 0, len(memberIDs))
	for _, did := range memberIDs {
		p, ok := players[did]
		if !ok || !p.HasGameAccount() {
			unregistered = append(unregistered, did)
			continue
		}
		busy, err := s.repos.Members.InActiveTeam(ctx, p.ID, tournamentID)
		if err != nil {
			return nil, fmt.Errorf("check membership player=%d: %w", p.ID, err)
		}
		if busy {
			return nil, &PlayerAlreadyInTeamError{DiscordID: did}
		}
		ids = append(ids, p.ID)
	}
	if len(unregistered) > 0 {
		return nil, &UnregisteredPlayersError{DiscordIDs: unregistered}
	}
	return ids, nil
}
