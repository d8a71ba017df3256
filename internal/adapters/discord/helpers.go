package discord

import (
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const startDateLayout = "2006-01-02"

func parseStartDate(raw string) (time.Time, error) {
	return time.Parse(startDateLayout, strings.TrimSpace(raw))
}

// findOpt busca la opción en el primer nivel o dentro del subcomando.
func findOpt(ic *discordgo.InteractionCreate, name string, typ discordgo.ApplicationCommandOptionType) (*discordgo.ApplicationCommandInteractionDataOption, bool) {
	if ic.Type != discordgo.InteractionApplicationCommand {
		return nil, false
	}
	for _, o := range ic.ApplicationCommandData().Options {
		if o.Name == name && o.Type == typ {
			return o, true
		}
		if o.Type == discordgo.ApplicationCommandOptionSubCommand {
			for _, so := range o.Options {
				if so.Name == name && so.Type == typ {
					return so, true
				}
			}
		}
	}
	return nil, false
}

func optStr(ic *discordgo.InteractionCreate, name string) (string, bool) {
	o, ok := findOpt(ic, name, discordgo.ApplicationCommandOptionString)
	if !ok {
		return "", false
	}
	return o.StringValue(), true
}

func optBool(ic *discordgo.InteractionCreate, name string) (bool, bool) {
	o, ok := findOpt(ic, name, discordgo.ApplicationCommandOptionBoolean)
	if !ok {
		return false, false
	}
	return o.BoolValue(), true
}

func optInt(ic *discordgo.InteractionCreate, name string) (int, bool) {
	o, ok := findOpt(ic, name, discordgo.ApplicationCommandOptionInteger)
	if !ok {
		return 0, false
	}
	return int(o.IntValue()), true
}

// optUser devuelve sólo el ID; no hace falta ir a la API por el usuario completo.
func optUser(ic *discordgo.InteractionCreate, name string) (string, bool) {
	o, ok := findOpt(ic, name, discordgo.ApplicationCommandOptionUser)
	if !ok {
		return "", false
	}
	return o.UserValue(nil).ID, true
}

func subcmdName(ic *discordgo.InteractionCreate) (string, bool) {
	if ic.Type != discordgo.InteractionApplicationCommand {
		return "", false
	}
	for _, o := range ic.ApplicationCommandData().Options {
		if o.Type == discordgo.ApplicationCommandOptionSubCommand {
			return o.Name, true
		}
	}
	return "", false
}
