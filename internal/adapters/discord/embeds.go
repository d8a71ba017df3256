package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/tourney-signups-bot/internal/app/service"
	"github.com/jose-valero/tourney-signups-bot/internal/domain"
)

var statusColor = map[domain.TeamStatus]int{
	domain.TeamPending:    0x95a5a6,
	domain.TeamAccepted:   0x2ecc71,
	domain.TeamSubstitute: 0xe67e22,
	domain.TeamRejected:   0xe74c3c,
}

func announcementEmbed(view service.AnnouncementView, bullet string) *discordgo.MessageEmbed {
	if bullet == "" {
		bullet = "•"
	}
	var members strings.Builder
	for _, id := range view.MemberIDs {
		fmt.Fprintf(&members, "%s <@%s>\n", bullet, id)
	}

	e := &discordgo.MessageEmbed{
		Title: view.TeamName,
		Color: statusColor[view.Status],
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Jugadores", Value: strings.TrimSpace(members.String())},
			{Name: "Estado", Value: view.Status.Label(), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: view.TournamentName},
	}
	if view.Status == domain.TeamPending {
		e.Description = fmt.Sprintf("Cada jugador debe reaccionar con %s para confirmar o %s para rechazar.",
			domain.GlyphApprove.Emoji(), domain.GlyphDeny.Emoji())
	}
	if view.Note != "" {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "Nota", Value: view.Note})
	}
	return e
}

func teamInfoEmbed(d service.TeamDetails, bullet string) *discordgo.MessageEmbed {
	ids := make([]string, len(d.Members))
	for i, p := range d.Members {
		ids[i] = p.DiscordUserID
	}
	e := announcementEmbed(service.AnnouncementView{
		TeamName:  d.Team.Name,
		MemberIDs: ids,
		Status:    d.Team.Status,
	}, bullet)
	e.Description = fmt.Sprintf("Inscrito <t:%d:R>", d.Team.SignupTime.Unix())
	if d.Team.SignupCompletedTime != nil {
		e.Description += fmt.Sprintf(" · decidido <t:%d:R>", d.Team.SignupCompletedTime.Unix())
	}
	e.Footer = nil
	return e
}
