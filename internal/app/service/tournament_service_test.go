package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/tourney-signups-bot/internal/domain"
)

func TestTournamentService_Create(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	tour, err := e.tournaments.Create(ctx, CreateTournamentInput{Name: "Copa Otoño", SurfaceID: "chan-1", MaxAcceptedTeams: 8, WithBracket: true})
	require.NoError(t, err)
	assert.Equal(t, domain.TournamentPlanned, tour.Status)
	require.True(t, tour.HasBracket())
	assert.Equal(t, "bracket-Copa Otoño", *tour.BracketID)

	_, err = e.tournaments.Create(ctx, CreateTournamentInput{Name: "Otra", SurfaceID: "chan-1", MaxAcceptedTeams: 8})
	assert.ErrorIs(t, err, ErrDuplicateSignupSurface)

	_, err = e.tournaments.Create(ctx, CreateTournamentInput{Name: "Otra", SurfaceID: "chan-2", MaxAcceptedTeams: 0})
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = e.tournaments.Create(ctx, CreateTournamentInput{Name: " ", SurfaceID: "chan-2", MaxAcceptedTeams: 2})
	assert.ErrorIs(t, err, ErrEmptyTournamentName)

	plain, err := e.tournaments.Create(ctx, CreateTournamentInput{Name: "Sin bracket", SurfaceID: "chan-2", MaxAcceptedTeams: 2})
	require.NoError(t, err)
	assert.False(t, plain.HasBracket())
}

func TestTournamentService_SetStatus(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	tour, err := e.tournaments.Create(ctx, CreateTournamentInput{Name: "Copa", SurfaceID: "chan-1", MaxAcceptedTeams: 2})
	require.NoError(t, err)

	steps := []struct {
		to domain.TournamentStatus
		ok bool
	}{
		{domain.TournamentSignups, true},
		{domain.TournamentPlanned, false},
		{domain.TournamentSignups, false},
		{domain.TournamentActive, true},
		{domain.TournamentCancelled, true},
		{domain.TournamentFinished, false},
	}
	for _, st := range steps {
		_, err := e.tournaments.SetStatus(ctx, tour.ID, st.to)
		if st.ok {
			require.NoError(t, err, "-> %s", st.to)
		} else {
			require.ErrorIs(t, err, ErrInvalidStatusTransition, "-> %s", st.to)
		}
	}

	got, err := e.tournaments.BySurface(ctx, "chan-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TournamentCancelled, got.Status)

	_, err = e.tournaments.SetStatus(ctx, 999, domain.TournamentActive)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestTournamentService_LockSignups(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	tour := e.tournament(t, "chan-1", 2, "")

	require.NoError(t, e.tournaments.LockSignups(ctx, tour.ID, ""))
	got, err := e.tournaments.BySurface(ctx, "chan-1")
	require.NoError(t, err)
	require.NotNil(t, got.SignupsLockedReason)
	assert.False(t, got.SignupsOpen())

	require.NoError(t, e.tournaments.UnlockSignups(ctx, tour.ID))
	got, err = e.tournaments.BySurface(ctx, "chan-1")
	require.NoError(t, err)
	assert.True(t, got.SignupsOpen())
}

func TestTournamentService_SignOff(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.tournament(t, "chan-1", 1, "")
	e.players(t, "A", "B", "C")

	pending := e.signup(t, "chan-1", "Pending", "A")
	_, err := e.tournaments.SignOffTeam(ctx, pending.Team.ID, "")
	assert.ErrorIs(t, err, ErrTeamNotSignedUp)

	_, err = e.tournaments.SignOffTeam(ctx, 999, "")
	assert.ErrorIs(t, err, ErrTeamNotFound)

	teams := fillTournament(t, e, "chan-1", "B", "C")
	require.Equal(t, domain.TeamSubstitute, e.store.team(teams[1].Team.ID).Status)

	// baja de un suplente: no libera cupo
	team, err := e.tournaments.SignOffByName(ctx, "chan-1", "Team C", "")
	require.NoError(t, err)
	assert.Equal(t, domain.TeamRejected, team.Status)
	assert.Equal(t, domain.TeamAccepted, e.store.team(teams[0].Team.ID).Status)
	assert.Equal(t, map[string][]string{"🔴": {botID}}, e.chat.emojis(teams[1].Announcement.MessageID))
	assert.Equal(t, "Baja", e.chat.view(teams[1].Announcement.MessageID).Note)

	_, err = e.tournaments.SignOffByName(ctx, "chan-1", "Team C", "")
	assert.ErrorIs(t, err, ErrTeamNotSignedUp)
}

func TestTournamentService_TeamInfo(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.tournament(t, "chan-1", 1, "")
	e.players(t, "A", "B")
	e.signup(t, "chan-1", "Foxes", "A", "B")

	info, err := e.tournaments.TeamInfo(ctx, "chan-1", "Foxes")
	require.NoError(t, err)
	assert.Equal(t, "Foxes", info.Team.Name)
	assert.Equal(t, []string{"B", "A"}, discordIDs(info.Members))

	_, err = e.tournaments.TeamInfo(ctx, "chan-1", "Wolves")
	assert.ErrorIs(t, err, ErrTeamNotFound)
	_, err = e.tournaments.TeamInfo(ctx, "chan-9", "Foxes")
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}
