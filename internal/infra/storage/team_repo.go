package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	pq "github.com/lib/pq"

	"github.com/jose-valero/tourney-signups-bot/internal/domain"
)

type TeamRepo struct{ db *sql.DB }

func NewTeamRepo(db *sql.DB) *TeamRepo { return &TeamRepo{db: db} }

const teamCols = `id, tournament_id, team_name, status, signup_time, signup_completed_time, bracket_team_id`

func scanTeam(row interface{ Scan(...any) error }) (domain.Team, error) {
	var t domain.Team
	var status string
	err := row.Scan(&t.ID, &t.TournamentID, &t.Name, &status, &t.SignupTime, &t.SignupCompletedTime, &t.BracketTeamID)
	t.Status = domain.TeamStatus(status)
	return t, err
}

// CreateWithMembers inserta el equipo (pending) y todos sus miembros en una sola transacción.
func (r *TeamRepo) CreateWithMembers(ctx context.Context, tournamentID int64, name string, playerIDs []int64) (domain.Team, error) {
	var team domain.Team
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		team, err = scanTeam(tx.QueryRowContext(ctx, `
INSERT INTO teams (tournament_id, team_name, status)
VALUES ($1, $2, 'pending')
RETURNING `+teamCols, tournamentID, name))
		if err != nil {
			return mapErr(err)
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO team_members (team_id, player_id) VALUES ($1, $2)`)
		if err != nil {
			return fmt.Errorf("prepare members: %w", err)
		}
		defer stmt.Close()
		for _, pid := range playerIDs {
			if _, err := stmt.ExecContext(ctx, team.ID, pid); err != nil {
				return fmt.Errorf("member %d: %w", pid, mapErr(err))
			}
		}
		return nil
	})
	return team, err
}

func (r *TeamRepo) GetByID(ctx context.Context, id int64) (domain.Team, error) {
	t, err := scanTeam(r.db.QueryRowContext(ctx, `SELECT `+teamCols+` FROM teams WHERE id = $1`, id))
	return t, mapErr(err)
}

func (r *TeamRepo) GetByName(ctx context.Context, tournamentID int64, name string) (domain.Team, error) {
	t, err := scanTeam(r.db.QueryRowContext(ctx, `
SELECT `+teamCols+`
  FROM teams
 WHERE tournament_id = $1 AND team_name = $2
`, tournamentID, name))
	return t, mapErr(err)
}

func (r *TeamRepo) ListByTournament(ctx context.Context, tournamentID int64) ([]domain.Team, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+teamCols+`
  FROM teams
 WHERE tournament_id = $1
 ORDER BY signup_time ASC, id ASC
`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TeamRepo) CountByStatus(ctx context.Context, tournamentID int64, status domain.TeamStatus) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
SELECT count(*) FROM teams WHERE tournament_id = $1 AND status = $2
`, tournamentID, string(status)).Scan(&n)
	return n, err
}

// CompleteSignup es el commit point del reconcile: sólo escribe si el equipo sigue pending.
// false => otro proceso ya cerró la inscripción.
func (r *TeamRepo) CompleteSignup(ctx context.Context, teamID int64, status domain.TeamStatus, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE teams
   SET status = $2, signup_completed_time = $3
 WHERE id = $1 AND status = 'pending' AND signup_completed_time IS NULL
`, teamID, string(status), at)
	if err != nil {
		return false, err
	}
	return checkAffected(res)
}

// EarliestSubstitute: cola de espera por signup_completed_time.
func (r *TeamRepo) EarliestSubstitute(ctx context.Context, tournamentID int64) (domain.Team, error) {
	t, err := scanTeam(r.db.QueryRowContext(ctx, `
SELECT `+teamCols+`
  FROM teams
 WHERE tournament_id = $1 AND status = 'substitute'
 ORDER BY signup_completed_time ASC NULLS LAST, id ASC
 LIMIT 1
`, tournamentID))
	return t, mapErr(err)
}

// TransitionStatus cambia el estado sólo si el actual está en from.
func (r *TeamRepo) TransitionStatus(ctx context.Context, teamID int64, from []domain.TeamStatus, to domain.TeamStatus) (bool, error) {
	fromStr := make([]string, len(from))
	for i, s := range from {
		fromStr[i] = string(s)
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE teams
   SET status = $2
 WHERE id = $1 AND status = ANY($3)
`, teamID, string(to), pq.Array(fromStr))
	if err != nil {
		return false, err
	}
	return checkAffected(res)
}

// SetBracketTeamID se escribe una sola vez.
func (r *TeamRepo) SetBracketTeamID(ctx context.Context, teamID int64, bracketTeamID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE teams SET bracket_team_id = $2 WHERE id = $1 AND bracket_team_id IS NULL
`, teamID, bracketTeamID)
	if err != nil {
		return false, err
	}
	return checkAffected(res)
}
