package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/jose-valero/tourney-signups-bot/internal/domain"
	"github.com/jose-valero/tourney-signups-bot/internal/infra/keylock"
	"github.com/jose-valero/tourney-signups-bot/internal/infra/storage"
)

// ReactionService reconcilia las reacciones de un anuncio con el estado del equipo.
// Las llamadas sobre un mismo anuncio se serializan; anuncios distintos corren en paralelo.
type ReactionService struct {
	effects
	announcements    *keylock.Map
	sweepConcurrency int
}

func NewReactionService(repos Repos, chat ChatPlatform, notifier *Notifier, sweepConcurrency int, opts ...Option) *ReactionService {
	if sweepConcurrency <= 0 {
		sweepConcurrency = 4
	}
	return &ReactionService{
		effects:          newEffects(repos, chat, notifier, opts),
		announcements:    keylock.New(),
		sweepConcurrency: sweepConcurrency,
	}
}

// transition es lo que quedó commiteado y falta propagar.
type transition struct {
	ref        domain.AnnouncementRef
	tournament domain.Tournament
	team       domain.Team
	memberIDs  []string
	deniedBy   []string
}

// Reconcile es idempotente: sin cambios nuevos en las reacciones no escribe ni notifica nada.
func (s *ReactionService) Reconcile(ctx context.Context, ref domain.AnnouncementRef) error {
	unlock := s.announcements.Lock(ref.MessageID)
	tr, err := s.reconcileLocked(ctx, ref)
	unlock()
	if err != nil || tr == nil {
		return err
	}
	return s.apply(ctx, *tr)
}

func (s *ReactionService) reconcileLocked(ctx context.Context, ref domain.AnnouncementRef) (*transition, error) {
	msg, err := s.repos.Messages.GetByAnnouncementID(ctx, ref.MessageID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", ref, err)
	}
	if ref.ChannelID == "" {
		ref.ChannelID = msg.ChannelID
	}

	team, err := s.repos.Teams.GetByID(ctx, msg.TeamID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get team %d: %w", msg.TeamID, err)
	}

	players, err := s.repos.Members.ListPlayers(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("list members team=%d: %w", team.ID, err)
	}
	if len(players) == 0 {
		return nil, fmt.Errorf("team %d: %w", team.ID, ErrTeamWithoutMembers)
	}
	memberIDs := discordIDs(players)
	members := memberSet(memberIDs)
	self := s.chat.SelfID()

	reactions, err := s.chat.Reactions(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch reactions %s: %w", ref, err)
	}

	removed := planCleanup(reactions, team.Status, members, self)
	for _, r := range removed {
		if err := s.chat.RemoveReaction(ctx, ref, r.Emoji, r.UserID); err != nil {
			log.Printf("[reconcile] remove %s by %s on %s: %v", r.Emoji, r.UserID, ref, err)
		}
	}

	v, selfHas := collectVotes(reactions, removed, members, self)

	for _, op := range planPresence(team.Status, v, selfHas) {
		var err error
		if op.Add {
			err = s.chat.AddReaction(ctx, ref, op.Glyph.Emoji())
		} else {
			err = s.chat.RemoveReaction(ctx, ref, op.Glyph.Emoji(), self)
		}
		if err != nil {
			log.Printf("[reconcile] presence %s add=%v on %s: %v", op.Glyph, op.Add, ref, err)
		}
	}

	t, err := s.repos.Tournaments.GetBySurface(ctx, msg.ChannelID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tournament surface=%s: %w", msg.ChannelID, err)
	}
	if !t.SignupsOpen() || t.ID != team.TournamentID {
		return nil, nil
	}

	if team.Status != domain.TeamPending {
		return nil, nil
	}

	var next domain.TeamStatus
	switch decide(memberIDs, v) {
	case decisionReject:
		next = domain.TeamRejected
	case decisionApprove:
		return s.commitApproved(ctx, ref, t, team, memberIDs)
	default:
		return nil, nil
	}

	ok, err := s.repos.Teams.CompleteSignup(ctx, team.ID, next, s.now())
	if err != nil {
		return nil, fmt.Errorf("commit team=%d status=%s: %w", team.ID, next, err)
	}
	if !ok {
		log.Printf("[reconcile] team=%d already decided, skipping", team.ID)
		return nil, nil
	}
	team.Status = next
	log.Printf("[reconcile] team=%d name=%q -> %s", team.ID, team.Name, next)
	return &transition{ref: ref, tournament: t, team: team, memberIDs: memberIDs, deniedBy: deniedBy(memberIDs, v)}, nil
}

// commitApproved cuenta cupo y escribe bajo el lock del torneo para que dos equipos
// no ocupen el mismo lugar.
func (s *ReactionService) commitApproved(ctx context.Context, ref domain.AnnouncementRef, t domain.Tournament, team domain.Team, memberIDs []string) (*transition, error) {
	unlock := s.lockTournament(t.ID)
	defer unlock()

	accepted, err := s.repos.Teams.CountByStatus(ctx, t.ID, domain.TeamAccepted)
	if err != nil {
		return nil, fmt.Errorf("count accepted tournament=%d: %w", t.ID, err)
	}
	next := acceptedTrack(accepted, t.MaxAcceptedTeams)

	ok, err := s.repos.Teams.CompleteSignup(ctx, team.ID, next, s.now())
	if err != nil {
		return nil, fmt.Errorf("commit team=%d status=%s: %w", team.ID, next, err)
	}
	if !ok {
		log.Printf("[reconcile] team=%d already decided, skipping", team.ID)
		return nil, nil
	}
	team.Status = next
	log.Printf("[reconcile] team=%d name=%q -> %s (accepted=%d/%d)", team.ID, team.Name, next, accepted, t.MaxAcceptedTeams)
	return &transition{ref: ref, tournament: t, team: team, memberIDs: memberIDs}, nil
}

// apply corre fuera del lock del anuncio; nada de esto se reintenta.
func (s *ReactionService) apply(ctx context.Context, tr transition) error {
	var errs []error

	note := ""
	notice := Notice{
		TeamName:       tr.team.Name,
		TournamentName: tr.tournament.Name,
		Link:           tr.ref.JumpURL(),
	}
	switch tr.team.Status {
	case domain.TeamAccepted:
		notice.Kind = NoticeAccepted
	case domain.TeamSubstitute:
		notice.Kind = NoticeSubstitute
		notice.Capacity = tr.tournament.MaxAcceptedTeams
		note = "Cupo completo: en lista de espera."
	case domain.TeamRejected:
		notice.Kind = NoticeRejected
		notice.DeniedBy = tr.deniedBy
		if len(tr.deniedBy) > 0 {
			note = "Rechazado por " + mentions(tr.deniedBy)
		}
	}

	if err := s.finalize(ctx, tr.ref, viewFor(tr.tournament, tr.team, tr.memberIDs, note)); err != nil {
		log.Printf("[reconcile] finalize team=%d %s: %v", tr.team.ID, tr.ref, err)
		s.report(ctx, "announcement", err, tr.team)
		errs = append(errs, err)
	}

	s.notify(ctx, tr.team, tr.memberIDs, notice)

	if tr.team.Status != domain.TeamRejected && s.hasBracket(tr.tournament) {
		if err := s.registerInBracket(ctx, tr.tournament, tr.team); err != nil {
			log.Printf("[bracket] team=%d: %v", tr.team.ID, err)
			s.report(ctx, "bracket", err, tr.team)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return &SideEffectError{TeamID: tr.team.ID, Status: tr.team.Status, Err: errors.Join(errs...)}
	}
	return nil
}

// Onboard se llama tras una inscripción exitosa: deja los placeholders de votación
// y avisa a cada miembro cuántas aprobaciones faltan.
func (s *ReactionService) Onboard(ctx context.Context, res SignupResult) error {
	err := s.Reconcile(ctx, res.Announcement)
	s.notify(ctx, res.Team, res.MemberIDs, Notice{
		Kind:           NoticeSignupPending,
		TeamName:       res.Team.Name,
		TournamentName: res.Tournament.Name,
		Link:           res.Announcement.JumpURL(),
		Missing:        len(res.MemberIDs),
	})
	return err
}

// ReconcileAll repasa todos los anuncios de inscripción (reacciones perdidas mientras el bot estaba caído).
func (s *ReactionService) ReconcileAll(ctx context.Context) (int, error) {
	msgs, err := s.repos.Messages.ListByPurpose(ctx, domain.PurposeSignupAnnouncement)
	if err != nil {
		return 0, fmt.Errorf("list announcements: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.sweepConcurrency)
	for _, m := range msgs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if err := s.Reconcile(gctx, s.ref(m)); err != nil {
				log.Printf("[reconcile] sweep %s/%s: %v", m.ChannelID, m.AnnouncementID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return len(msgs), err
	}
	log.Printf("[reconcile] sweep done announcements=%d", len(msgs))
	return len(msgs), nil
}
