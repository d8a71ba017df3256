package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jose-valero/tourney-signups-bot/internal/domain"
	"github.com/jose-valero/tourney-signups-bot/internal/infra/keylock"
)

// Option configura los servicios que disparan efectos externos.
type Option func(*effects)

func WithBracket(b BracketClient) Option { return func(e *effects) { e.bracket = b } }
func WithReporter(r Reporter) Option {
	return func(e *effects) {
		if r != nil {
			e.reporter = r
		}
	}
}
func WithClock(now func() time.Time) Option { return func(e *effects) { e.now = now } }
func WithGuildID(id string) Option         { return func(e *effects) { e.guildID = id } }

// WithTournamentLocks comparte el lock por torneo entre reconcile, promociones y bajas.
func WithTournamentLocks(m *keylock.Map) Option { return func(e *effects) { e.tournamentLocks = m } }

// effects: dependencias comunes para anuncios, DMs y bracket.
type effects struct {
	repos           Repos
	chat            ChatPlatform
	notifier        *Notifier
	bracket         BracketClient
	reporter        Reporter
	guildID         string
	now             func() time.Time
	tournamentLocks *keylock.Map
}

func newEffects(repos Repos, chat ChatPlatform, notifier *Notifier, opts []Option) effects {
	e := effects{
		repos:    repos,
		chat:     chat,
		notifier: notifier,
		reporter: nopReporter{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(&e)
	}
	if e.tournamentLocks == nil {
		e.tournamentLocks = keylock.New()
	}
	return e
}

func tournamentKey(id int64) string { return "tournament:" + strconv.FormatInt(id, 10) }

func (e *effects) lockTournament(id int64) func() { return e.tournamentLocks.Lock(tournamentKey(id)) }

func (e *effects) hasBracket(t domain.Tournament) bool { return e.bracket != nil && t.HasBracket() }

func (e *effects) ref(m domain.Message) domain.AnnouncementRef {
	return domain.AnnouncementRef{GuildID: e.guildID, ChannelID: m.ChannelID, MessageID: m.AnnouncementID}
}

func discordIDs(players []domain.Player) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.DiscordUserID
	}
	return out
}

// finalize redibuja el anuncio y deja un único marcador del estado.
func (e *effects) finalize(ctx context.Context, ref domain.AnnouncementRef, view AnnouncementView) error {
	var errs []error
	if err := e.chat.RenderAnnouncement(ctx, ref, view); err != nil {
		errs = append(errs, fmt.Errorf("render announcement: %w", err))
	}
	if g, ok := domain.MarkerGlyph(view.Status); ok {
		if err := e.chat.RemoveAllReactions(ctx, ref); err != nil {
			errs = append(errs, fmt.Errorf("clear reactions: %w", err))
		} else if err := e.chat.AddReaction(ctx, ref, g.Emoji()); err != nil {
			errs = append(errs, fmt.Errorf("add %s marker: %w", g, err))
		}
	}
	return errors.Join(errs...)
}

// registerInBracket se llama una única vez por equipo, justo después del commit.
func (e *effects) registerInBracket(ctx context.Context, t domain.Tournament, team domain.Team) error {
	extID, err := e.bracket.RegisterTeam(ctx, *t.BracketID, team.Name, strconv.FormatInt(team.ID, 10))
	if err != nil {
		return fmt.Errorf("bracket register: %w", err)
	}
	ok, err := e.repos.Teams.SetBracketTeamID(ctx, team.ID, extID)
	if err != nil {
		return fmt.Errorf("save bracket team id %s: %w", extID, err)
	}
	// ya tenía id externo: el participante recién creado queda huérfano y no se hace check-in
	if !ok {
		return fmt.Errorf("team %d already has a bracket team id, orphan participant %s: %w", team.ID, extID, ErrBracketTeamIDTaken)
	}
	if team.Status == domain.TeamAccepted {
		if err := e.bracket.CheckIn(ctx, *t.BracketID, extID); err != nil {
			return fmt.Errorf("bracket check-in %s: %w", extID, err)
		}
	}
	return nil
}

// notify manda los DMs y reporta los destinatarios que fallaron.
func (e *effects) notify(ctx context.Context, team domain.Team, memberIDs []string, notice Notice) {
	failed := e.notifier.Notify(ctx, memberIDs, notice)
	if len(failed) == 0 {
		return
	}
	e.report(ctx, "notify", fmt.Errorf("%s dm failed for %s", notice.Kind, strings.Join(failed, ",")), team)
}

func (e *effects) report(ctx context.Context, source string, err error, team domain.Team) {
	e.reporter.Report(ctx, source, err, map[string]string{
		"team_id":       strconv.FormatInt(team.ID, 10),
		"team_name":     team.Name,
		"status":        string(team.Status),
		"tournament_id": strconv.FormatInt(team.TournamentID, 10),
	})
}

func viewFor(t domain.Tournament, team domain.Team, memberIDs []string, note string) AnnouncementView {
	return AnnouncementView{
		TeamName:       team.Name,
		TournamentName: t.Name,
		MemberIDs:      memberIDs,
		Status:         team.Status,
		Note:           note,
	}
}
