package challonge

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateTournament crea un torneo de eliminación simple con inscripción cerrada
// (los equipos los registra el bot). Devuelve el id de Challonge.
func (c *Client) CreateTournament(ctx context.Context, name string, startAt *time.Time) (string, error) {
	form := url.Values{}
	form.Set("tournament[name]", name)
	form.Set("tournament[url]", slug(name))
	form.Set("tournament[tournament_type]", "single elimination")
	form.Set("tournament[open_signup]", "false")
	if startAt != nil {
		form.Set("tournament[start_at]", startAt.UTC().Format(time.RFC3339))
		// el check-in sólo se puede habilitar con start_at
		form.Set("tournament[check_in_duration]", "60")
	}

	var dto tournamentDTO
	if err := c.do(ctx, http.MethodPost, "/tournaments", form, &dto); err != nil {
		return "", err
	}
	return strconv.FormatInt(dto.Tournament.ID, 10), nil
}

// RegisterTeam agrega un participante; reference queda en misc para rastrear el equipo local.
// Challonge no deduplica: llamar una sola vez por equipo.
func (c *Client) RegisterTeam(ctx context.Context, tournamentID, name, reference string) (string, error) {
	form := url.Values{}
	form.Set("participant[name]", name)
	form.Set("participant[misc]", reference)

	var dto participantDTO
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/tournaments/%s/participants", tournamentID), form, &dto); err != nil {
		return "", err
	}
	return strconv.FormatInt(dto.Participant.ID, 10), nil
}

func (c *Client) CheckIn(ctx context.Context, tournamentID, participantID string) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/tournaments/%s/participants/%s/check_in", tournamentID, participantID), nil, nil)
}

func (c *Client) CheckOut(ctx context.Context, tournamentID, participantID string) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/tournaments/%s/participants/%s/undo_check_in", tournamentID, participantID), nil, nil)
}

// slug: la url de Challonge sólo admite letras, números y guion bajo, y es única global.
func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
		}
		if b.Len() >= 40 {
			break
		}
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if b.Len() == 0 {
		return "t_" + suffix
	}
	return b.String() + "_" + suffix
}
