package storage

import (
	"context"
	"database/sql"

	"github.com/jose-valero/tourney-signups-bot/internal/domain"
)

type TournamentRepo struct{ db *sql.DB }

func NewTournamentRepo(db *sql.DB) *TournamentRepo { return &TournamentRepo{db: db} }

const tournamentCols = `id, name, start_date, status, signup_surface_id, max_accepted_teams, bracket_id, signups_locked_reason, created_at`

func scanTournament(row interface{ Scan(...any) error }) (domain.Tournament, error) {
	var t domain.Tournament
	var status string
	err := row.Scan(&t.ID, &t.Name, &t.StartDate, &status, &t.SignupSurfaceID, &t.MaxAcceptedTeams,
		&t.BracketID, &t.SignupsLockedReason, &t.CreatedAt)
	t.Status = domain.TournamentStatus(status)
	return t, err
}

// Create falla con ErrConflict si ya hay un torneo en esa superficie.
func (r *TournamentRepo) Create(ctx context.Context, t domain.Tournament) (domain.Tournament, error) {
	if t.Status == "" {
		t.Status = domain.TournamentPlanned
	}
	row := r.db.QueryRowContext(ctx, `
INSERT INTO tournaments (name, start_date, status, signup_surface_id, max_accepted_teams, bracket_id)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING `+tournamentCols,
		t.Name, t.StartDate, string(t.Status), t.SignupSurfaceID, t.MaxAcceptedTeams, t.BracketID,
	)
	out, err := scanTournament(row)
	return out, mapErr(err)
}

func (r *TournamentRepo) GetByID(ctx context.Context, id int64) (domain.Tournament, error) {
	t, err := scanTournament(r.db.QueryRowContext(ctx, `
SELECT `+tournamentCols+`
  FROM tournaments
 WHERE id = $1
`, id))
	return t, mapErr(err)
}

func (r *TournamentRepo) GetBySurface(ctx context.Context, surfaceID string) (domain.Tournament, error) {
	t, err := scanTournament(r.db.QueryRowContext(ctx, `
SELECT `+tournamentCols+`
  FROM tournaments
 WHERE signup_surface_id = $1
`, surfaceID))
	return t, mapErr(err)
}

func (r *TournamentRepo) List(ctx context.Context) ([]domain.Tournament, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+tournamentCols+`
  FROM tournaments
 ORDER BY created_at DESC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Tournament
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TournamentRepo) UpdateStatus(ctx context.Context, id int64, status domain.TournamentStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tournaments SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if ok, err := checkAffected(res); err != nil || !ok {
		if err != nil {
			return err
		}
		return ErrNotFound
	}
	return nil
}

// SetSignupsLock: reason nil desbloquea.
func (r *TournamentRepo) SetSignupsLock(ctx context.Context, id int64, reason *string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tournaments SET signups_locked_reason = $2 WHERE id = $1`, id, reason)
	if err != nil {
		return err
	}
	if ok, err := checkAffected(res); err != nil || !ok {
		if err != nil {
			return err
		}
		return ErrNotFound
	}
	return nil
}
