package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/tourney-signups-bot/internal/domain"
)

var minCapacity = float64(1)

var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        "hello",
		Description: "Regístrate en el bot",
	},
	{
		Name:        "register",
		Description: "Vincula tu cuenta del juego",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "ign",
			Description: "Tu nombre en el juego",
			Required:    true,
		}},
	},
	{
		Name:        "signup",
		Description: "Inscribe un equipo en el torneo de este canal",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "team_name", Description: "Nombre del equipo", Required: true, MaxLength: 40},
			{Type: discordgo.ApplicationCommandOptionUser, Name: "p1", Description: "Compañero", Required: true},
			{Type: discordgo.ApplicationCommandOptionUser, Name: "p2", Description: "Compañero"},
			{Type: discordgo.ApplicationCommandOptionUser, Name: "p3", Description: "Compañero"},
		},
	},
	{
		Name:        "team_info",
		Description: "Muestra un equipo del torneo de este canal",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "team_name",
			Description: "Nombre del equipo",
			Required:    true,
		}},
	},
	{
		Name:        "tournament",
		Description: "Administra el torneo de este canal (admins)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "create",
				Description: "Crea un torneo con inscripciones en este canal",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Nombre", Required: true},
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "max_teams", Description: "Cupo de equipos aceptados", Required: true, MinValue: &minCapacity},
					{Type: discordgo.ApplicationCommandOptionString, Name: "start_date", Description: "Fecha de inicio (AAAA-MM-DD)"},
					{Type: discordgo.ApplicationCommandOptionBoolean, Name: "bracket", Description: "Crear el bracket en Challonge"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "status",
				Description: "Cambia el estado del torneo",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "status",
					Description: "Nuevo estado",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "inscripciones", Value: string(domain.TournamentSignups)},
						{Name: "en curso", Value: string(domain.TournamentActive)},
						{Name: "terminado", Value: string(domain.TournamentFinished)},
						{Name: "cancelado", Value: string(domain.TournamentCancelled)},
					},
				}},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "lock",
				Description: "Bloquea las inscripciones",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Motivo"},
				},
			},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "unlock", Description: "Desbloquea las inscripciones"},
		},
	},
	{
		Name:        "signoff",
		Description: "Da de baja un equipo (admins)",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "team_name", Description: "Nombre del equipo", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Motivo", Required: true},
		},
	},
	{
		Name:        "promote",
		Description: "Promueve suplentes si hay cupo (admins)",
	},
}
