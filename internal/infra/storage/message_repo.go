package storage

import (
	"context"
	"database/sql"

	"github.com/jose-valero/tourney-signups-bot/internal/domain"
)

type MessageRepo struct{ db *sql.DB }

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

func scanMessage(row interface{ Scan(...any) error }) (domain.Message, error) {
	var m domain.Message
	err := row.Scan(&m.ID, &m.AnnouncementID, &m.ChannelID, &m.TeamID, &m.Purpose)
	return m, err
}

func (r *MessageRepo) Create(ctx context.Context, m domain.Message) (domain.Message, error) {
	out, err := scanMessage(r.db.QueryRowContext(ctx, `
INSERT INTO messages (announcement_id, channel_id, team_id, purpose)
VALUES ($1,$2,$3,$4)
RETURNING id, announcement_id, channel_id, team_id, purpose
`, m.AnnouncementID, m.ChannelID, m.TeamID, m.Purpose))
	return out, mapErr(err)
}

func (r *MessageRepo) GetByAnnouncementID(ctx context.Context, announcementID string) (domain.Message, error) {
	m, err := scanMessage(r.db.QueryRowContext(ctx, `
SELECT id, announcement_id, channel_id, team_id, purpose
  FROM messages
 WHERE announcement_id = $1
`, announcementID))
	return m, mapErr(err)
}

func (r *MessageRepo) GetForTeam(ctx context.Context, teamID int64, purpose string) (domain.Message, error) {
	m, err := scanMessage(r.db.QueryRowContext(ctx, `
SELECT id, announcement_id, channel_id, team_id, purpose
  FROM messages
 WHERE team_id = $1 AND purpose = $2
 ORDER BY id DESC
 LIMIT 1
`, teamID, purpose))
	return m, mapErr(err)
}

func (r *MessageRepo) ListByPurpose(ctx context.Context, purpose string) ([]domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, announcement_id, channel_id, team_id, purpose
  FROM messages
 WHERE purpose = $1
 ORDER BY id ASC
`, purpose)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
