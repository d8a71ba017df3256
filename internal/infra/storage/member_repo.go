package storage

import (
	"context"
	"database/sql"

	"github.com/jose-valero/tourney-signups-bot/internal/domain"
)

type MemberRepo struct{ db *sql.DB }

func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

// ListPlayers devuelve los jugadores del equipo en orden de alta.
func (r *MemberRepo) ListPlayers(ctx context.Context, teamID int64) ([]domain.Player, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT p.id, p.discord_user_id, p.username, p.game_account, p.created_at
  FROM team_members tm
  JOIN players p ON p.id = tm.player_id
 WHERE tm.team_id = $1
 ORDER BY tm.id ASC
`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// InActiveTeam: el jugador ya está en un equipo no rechazado del torneo.
func (r *MemberRepo) InActiveTeam(ctx context.Context, playerID, tournamentID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
SELECT EXISTS (
  SELECT 1
    FROM team_members tm
    JOIN teams t ON t.id = tm.team_id
   WHERE tm.player_id = $1
     AND t.tournament_id = $2
     AND t.status <> 'rejected'
)`, playerID, tournamentID).Scan(&exists)
	return exists, err
}
