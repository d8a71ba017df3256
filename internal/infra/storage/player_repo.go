package storage

import (
	"context"
	"database/sql"

	pq "github.com/lib/pq"

	"github.com/jose-valero/tourney-signups-bot/internal/domain"
)

type PlayerRepo struct{ db *sql.DB }

func NewPlayerRepo(db *sql.DB) *PlayerRepo { return &PlayerRepo{db: db} }

func scanPlayer(row interface{ Scan(...any) error }) (domain.Player, error) {
	var p domain.Player
	err := row.Scan(&p.ID, &p.DiscordUserID, &p.Username, &p.GameAccount, &p.CreatedAt)
	return p, err
}

func (r *PlayerRepo) GetByDiscordID(ctx context.Context, discordID string) (domain.Player, error) {
	p, err := scanPlayer(r.db.QueryRowContext(ctx, `
SELECT id, discord_user_id, username, game_account, created_at
  FROM players
 WHERE discord_user_id = $1
`, discordID))
	return p, mapErr(err)
}

// FindByDiscordIDs: mapa discord_user_id -> Player (los ausentes no aparecen).
func (r *PlayerRepo) FindByDiscordIDs(ctx context.Context, ids []string) (map[string]domain.Player, error) {
	out := map[string]domain.Player{}
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, discord_user_id, username, game_account, created_at
  FROM players
 WHERE discord_user_id = ANY($1)
`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		out[p.DiscordUserID] = p
	}
	return out, rows.Err()
}

// Create falla con ErrConflict si el discord id ya existe.
func (r *PlayerRepo) Create(ctx context.Context, discordID, username string) (domain.Player, error) {
	p, err := scanPlayer(r.db.QueryRowContext(ctx, `
INSERT INTO players (discord_user_id, username)
VALUES ($1, $2)
RETURNING id, discord_user_id, username, game_account, created_at
`, discordID, username))
	return p, mapErr(err)
}

func (r *PlayerRepo) LinkGameAccount(ctx context.Context, playerID int64, account string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE players SET game_account = $2 WHERE id = $1`, playerID, account)
	if err != nil {
		return err
	}
	ok, err := checkAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
