package discord

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/tourney-signups-bot/internal/app/service"
	"github.com/jose-valero/tourney-signups-bot/internal/domain"
)

// Services agrupa lo que los handlers despachan.
type Services struct {
	Players     *service.PlayerService
	Signups     *service.SignupService
	Reactions   *service.ReactionService
	Substitutes *service.SubstituteService
	Tournaments *service.TournamentService
}

type Router struct {
	s       *discordgo.Session
	guildID string

	adminRoleIDs  []string
	bullet        string
	svc           Services
	reporter      service.Reporter
	signupLimiter *userLimiter
}

type RouterConfig struct {
	GuildID        string
	AdminRoleIDs   []string
	BulletEmoji    string
	SignupCooldown time.Duration
}

func NewRouter(s *discordgo.Session, cfg RouterConfig, svc Services, reporter service.Reporter) *Router {
	return &Router{
		s:             s,
		guildID:       cfg.GuildID,
		adminRoleIDs:  cfg.AdminRoleIDs,
		bullet:        cfg.BulletEmoji,
		svc:           svc,
		reporter:      reporter,
		signupLimiter: newUserLimiter(cfg.SignupCooldown),
	}
}

func (r *Router) Register() error {
	appID := r.s.State.User.ID
	for _, cmd := range Commands {
		if _, err := r.s.ApplicationCommandCreate(appID, r.guildID, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) Handlers() {
	r.s.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		if ic.GuildID != r.guildID || ic.Member == nil || ic.Member.User == nil {
			return
		}
		switch ic.Type {
		case discordgo.InteractionApplicationCommand:
			r.handleSlashCommand(s, ic)
		case discordgo.InteractionMessageComponent:
			r.handleMessageComponent(s, ic)
		}
	})

	r.s.AddHandler(func(s *discordgo.Session, ev *discordgo.MessageReactionAdd) {
		r.onReaction(ev.MessageReaction)
	})
	r.s.AddHandler(func(s *discordgo.Session, ev *discordgo.MessageReactionRemove) {
		r.onReaction(ev.MessageReaction)
	})

	// Ready llega también en cada reconexión; el barrido es idempotente
	r.s.AddHandler(func(s *discordgo.Session, _ *discordgo.Ready) {
		go r.sweep()
	})
}

func (r *Router) onReaction(mr *discordgo.MessageReaction) {
	if mr == nil || mr.GuildID != r.guildID {
		return
	}
	if r.s.State != nil && r.s.State.User != nil && mr.UserID == r.s.State.User.ID {
		return
	}
	ref := domain.AnnouncementRef{GuildID: mr.GuildID, ChannelID: mr.ChannelID, MessageID: mr.MessageID}

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[reconcile] panic msg=%s: %v", ref, rec)
			}
		}()
		defer step("reaction.reconcile")()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		err := r.svc.Reactions.Reconcile(ctx, ref)
		if err == nil {
			return
		}
		var side *service.SideEffectError
		if errors.As(err, &side) {
			// ya lo reportó el servicio
			log.Printf("[reconcile] msg=%s: %v", ref, err)
			return
		}
		log.Printf("[reconcile] msg=%s user=%s: %v", ref, mr.UserID, err)
		r.reporter.Report(ctx, "reconcile", err, map[string]string{
			"announcement": ref.String(),
			"user":         mr.UserID,
			"emoji":        mr.Emoji.APIName(),
		})
	}()
}

func (r *Router) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	defer step("ready.sweep")()

	if _, err := r.svc.Reactions.ReconcileAll(ctx); err != nil {
		log.Printf("[reconcile] sweep: %v", err)
		r.reporter.Report(ctx, "sweep", err, nil)
	}
}

// fail responde al usuario: validación con su mensaje, el resto genérico y al reporter.
func (r *Router) fail(ctx context.Context, s *discordgo.Session, ic *discordgo.InteractionCreate, source string, err error) {
	if service.IsValidation(err) {
		ReplyEphemeral(s, ic, userMessage(err))
		return
	}
	log.Printf("[%s] by=%s channel=%s: %v", source, ic.Member.User.ID, ic.ChannelID, err)
	r.reporter.Report(ctx, source, err, map[string]string{
		"user":    ic.Member.User.ID,
		"channel": ic.ChannelID,
	})
	ReplyEphemeral(s, ic, msgUnexpected)
}
