// aqui solo se traduce la interacción del usuario y se despacha al servicio que corresponde
package discord

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/tourney-signups-bot/internal/app/service"
	"github.com/jose-valero/tourney-signups-bot/internal/domain"
)

func (r *Router) handleSlashCommand(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	cmd := ic.ApplicationCommandData()
	log.Printf("cmd: %s by=%s channel=%s", cmd.Name, ic.Member.User.ID, ic.ChannelID)

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("panic in cmd /%s: %v", cmd.Name, rec)
			ReplyEphemeral(s, ic, msgUnexpected)
		}
	}()

	_ = DeferEphemeral(s, ic)
	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	switch cmd.Name {
	case "hello":
		r.cmdHello(ctx, s, ic)
	case "register":
		r.cmdRegister(ctx, s, ic)
	case "signup":
		r.cmdSignup(ctx, s, ic)
	case "team_info":
		r.cmdTeamInfo(ctx, s, ic)
	case "tournament":
		if !r.requireAdminOrRoles(s, ic) {
			return
		}
		r.cmdTournament(ctx, s, ic)
	case "signoff":
		if !r.requireAdminOrRoles(s, ic) {
			return
		}
		name, _ := optStr(ic, "team_name")
		reason, _ := optStr(ic, "reason")
		team, err := r.svc.Tournaments.SignOffByName(ctx, ic.ChannelID, name, reason)
		if err != nil {
			r.fail(ctx, s, ic, "signoff", err)
			return
		}
		ReplyEphemeral(s, ic, fmt.Sprintf("✅ **%s** dado de baja.", team.Name))
	case "promote":
		if !r.requireAdminOrRoles(s, ic) {
			return
		}
		r.cmdPromote(ctx, s, ic)
	}
}

func (r *Router) cmdHello(ctx context.Context, s *discordgo.Session, ic *discordgo.InteractionCreate) {
	u := ic.Member.User
	_, created, err := r.svc.Players.Hello(ctx, u.ID, u.Username)
	if err != nil {
		r.fail(ctx, s, ic, "hello", err)
		return
	}
	if !created {
		ReplyEphemeral(s, ic, "👋 Ya estabas registrado. Usa `/register` para cambiar tu cuenta del juego.")
		return
	}
	ReplyEphemeral(s, ic, "👋 ¡Bienvenido! Ahora vincula tu cuenta con `/register ign:<tu_nombre>`.")
}

func (r *Router) cmdRegister(ctx context.Context, s *discordgo.Session, ic *discordgo.InteractionCreate) {
	ign, _ := optStr(ic, "ign")
	p, err := r.svc.Players.LinkGameAccount(ctx, ic.Member.User.ID, ign)
	if err != nil {
		r.fail(ctx, s, ic, "register", err)
		return
	}
	ReplyEphemeral(s, ic, fmt.Sprintf("✅ Cuenta vinculada: **%s**", *p.GameAccount))
}

func (r *Router) cmdSignup(ctx context.Context, s *discordgo.Session, ic *discordgo.InteractionCreate) {
	defer step("cmd.signup.total")()
	if !r.signupLimiter.Allow(ic.Member.User.ID) {
		ReplyEphemeral(s, ic, "⏳ Esperá unos segundos antes de volver a inscribir.")
		return
	}

	name, _ := optStr(ic, "team_name")
	var members []string
	for _, opt := range []string{"p1", "p2", "p3"} {
		if id, ok := optUser(ic, opt); ok {
			members = append(members, id)
		}
	}

	res, err := r.svc.Signups.SignupTeam(ctx, service.SignupRequest{
		SurfaceID:   ic.ChannelID,
		TeamName:    name,
		RequesterID: ic.Member.User.ID,
		MemberIDs:   members,
	})
	if err != nil {
		r.fail(ctx, s, ic, "signup", err)
		return
	}
	ReplyEphemeral(s, ic, fmt.Sprintf("✅ Equipo **%s** inscrito. Cada jugador debe confirmar en el anuncio:\n%s",
		res.Team.Name, res.Announcement.JumpURL()))

	if err := r.svc.Reactions.Onboard(ctx, res); err != nil {
		log.Printf("[signup] onboard team=%d: %v", res.Team.ID, err)
		r.reporter.Report(ctx, "onboard", err, map[string]string{
			"team":         res.Team.Name,
			"announcement": res.Announcement.String(),
		})
	}
}

func (r *Router) cmdTeamInfo(ctx context.Context, s *discordgo.Session, ic *discordgo.InteractionCreate) {
	name, _ := optStr(ic, "team_name")
	d, err := r.svc.Tournaments.TeamInfo(ctx, ic.ChannelID, name)
	if err != nil {
		r.fail(ctx, s, ic, "team_info", err)
		return
	}

	params := &discordgo.WebhookParams{
		Embeds:          []*discordgo.MessageEmbed{teamInfoEmbed(d, r.bullet)},
		Flags:           discordgo.MessageFlagsEphemeral,
		AllowedMentions: noPings,
	}
	if d.Team.Status == domain.TeamAccepted || d.Team.Status == domain.TeamSubstitute {
		params.Components = []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Dar de baja",
					Style:    discordgo.DangerButton,
					CustomID: signoffCustomID(d.Team.ID),
				},
			}},
		}
	}
	if _, err := s.FollowupMessageCreate(ic.Interaction, true, params); err != nil {
		log.Printf("team_info followup: %v", err)
	}
}

func (r *Router) cmdTournament(ctx context.Context, s *discordgo.Session, ic *discordgo.InteractionCreate) {
	sub, ok := subcmdName(ic)
	if !ok {
		ReplyEphemeral(s, ic, "Usa `/tournament create|status|lock|unlock`.")
		return
	}

	if sub == "create" {
		name, _ := optStr(ic, "name")
		capacity, _ := optInt(ic, "max_teams")
		withBracket, _ := optBool(ic, "bracket")
		var start *time.Time
		if raw, ok := optStr(ic, "start_date"); ok && strings.TrimSpace(raw) != "" {
			d, err := parseStartDate(raw)
			if err != nil {
				ReplyEphemeral(s, ic, "⚠️ Fecha inválida, usa el formato AAAA-MM-DD.")
				return
			}
			start = &d
		}
		t, err := r.svc.Tournaments.Create(ctx, service.CreateTournamentInput{
			Name:             name,
			StartDate:        start,
			SurfaceID:        ic.ChannelID,
			MaxAcceptedTeams: capacity,
			WithBracket:      withBracket,
		})
		if err != nil {
			r.fail(ctx, s, ic, "tournament.create", err)
			return
		}
		msg := fmt.Sprintf("✅ Torneo **%s** creado (cupo %d). Abre las inscripciones con `/tournament status`.", t.Name, t.MaxAcceptedTeams)
		if t.HasBracket() {
			msg += "\nBracket: `" + *t.BracketID + "`"
		}
		ReplyEphemeral(s, ic, msg)
		return
	}

	t, err := r.svc.Tournaments.BySurface(ctx, ic.ChannelID)
	if err != nil {
		r.fail(ctx, s, ic, "tournament."+sub, err)
		return
	}

	switch sub {
	case "status":
		raw, _ := optStr(ic, "status")
		updated, err := r.svc.Tournaments.SetStatus(ctx, t.ID, domain.TournamentStatus(raw))
		if err != nil {
			r.fail(ctx, s, ic, "tournament.status", err)
			return
		}
		ReplyEphemeral(s, ic, fmt.Sprintf("✅ **%s** ahora está en `%s`.", updated.Name, updated.Status))
	case "lock":
		reason, _ := optStr(ic, "reason")
		if err := r.svc.Tournaments.LockSignups(ctx, t.ID, reason); err != nil {
			r.fail(ctx, s, ic, "tournament.lock", err)
			return
		}
		ReplyEphemeral(s, ic, "🔒 Inscripciones bloqueadas.")
	case "unlock":
		if err := r.svc.Tournaments.UnlockSignups(ctx, t.ID); err != nil {
			r.fail(ctx, s, ic, "tournament.unlock", err)
			return
		}
		ReplyEphemeral(s, ic, "🔓 Inscripciones abiertas de nuevo.")
	}
}

func (r *Router) cmdPromote(ctx context.Context, s *discordgo.Session, ic *discordgo.InteractionCreate) {
	t, err := r.svc.Tournaments.BySurface(ctx, ic.ChannelID)
	if err != nil {
		r.fail(ctx, s, ic, "promote", err)
		return
	}
	promoted, err := r.svc.Substitutes.PromoteWaitingTeams(ctx, t.ID)
	if err != nil && len(promoted) == 0 {
		r.fail(ctx, s, ic, "promote", err)
		return
	}
	if len(promoted) == 0 {
		ReplyEphemeral(s, ic, "ℹ️ No hay cupo libre o no hay suplentes.")
		return
	}
	names := make([]string, len(promoted))
	for i, team := range promoted {
		names[i] = "**" + team.Name + "**"
	}
	ReplyEphemeral(s, ic, "✅ Promovidos: "+strings.Join(names, ", "))
}
