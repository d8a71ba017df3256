package discord

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slash(name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionApplicationCommand,
		Data: discordgo.ApplicationCommandInteractionData{Name: name, Options: opts},
	}}
}

func TestOptHelpers_Signup(t *testing.T) {
	ic := slash("signup",
		&discordgo.ApplicationCommandInteractionDataOption{Name: "team_name", Type: discordgo.ApplicationCommandOptionString, Value: "Foxes"},
		&discordgo.ApplicationCommandInteractionDataOption{Name: "p1", Type: discordgo.ApplicationCommandOptionUser, Value: "111"},
	)

	name, ok := optStr(ic, "team_name")
	require.True(t, ok)
	assert.Equal(t, "Foxes", name)

	id, ok := optUser(ic, "p1")
	require.True(t, ok)
	assert.Equal(t, "111", id)

	_, ok = optUser(ic, "p2")
	assert.False(t, ok)

	// tipo equivocado no cuenta
	_, ok = optStr(ic, "p1")
	assert.False(t, ok)
}

func TestOptHelpers_Subcommand(t *testing.T) {
	ic := slash("tournament", &discordgo.ApplicationCommandInteractionDataOption{
		Name: "create",
		Type: discordgo.ApplicationCommandOptionSubCommand,
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: "name", Type: discordgo.ApplicationCommandOptionString, Value: "Copa"},
			{Name: "max_teams", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(8)},
			{Name: "bracket", Type: discordgo.ApplicationCommandOptionBoolean, Value: true},
		},
	})

	sub, ok := subcmdName(ic)
	require.True(t, ok)
	assert.Equal(t, "create", sub)

	n, ok := optInt(ic, "max_teams")
	require.True(t, ok)
	assert.Equal(t, 8, n)

	b, ok := optBool(ic, "bracket")
	require.True(t, ok)
	assert.True(t, b)
}

func TestParseStartDate(t *testing.T) {
	d, err := parseStartDate(" 2026-11-02 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC), d)

	_, err = parseStartDate("02/11/2026")
	assert.Error(t, err)
}

func TestSignoffCustomID(t *testing.T) {
	id, ok := parseSignoffCustomID(signoffCustomID(42))
	require.True(t, ok)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"signoff:", "signoff:x", "signoff:-3"} {
		_, ok := parseSignoffCustomID(bad)
		assert.False(t, ok, bad)
	}
}
