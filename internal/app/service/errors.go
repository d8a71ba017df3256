package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jose-valero/tourney-signups-bot/internal/domain"
)

// ErrValidation agrupa todo error que se le muestra al usuario y no es un fallo del sistema.
var ErrValidation = errors.New("validation")

var (
	ErrTournamentNotFound      = fmt.Errorf("%w: tournament not found", ErrValidation)
	ErrSignupClosed            = fmt.Errorf("%w: signups closed", ErrValidation)
	ErrDuplicateTeamMember     = fmt.Errorf("%w: duplicate team member", ErrValidation)
	ErrEmptyTeamName           = fmt.Errorf("%w: empty team name", ErrValidation)
	ErrPlayerNotFound          = fmt.Errorf("%w: player not registered", ErrValidation)
	ErrInvalidGameAccount      = fmt.Errorf("%w: invalid game account", ErrValidation)
	ErrDuplicateSignupSurface  = fmt.Errorf("%w: signup surface already has a tournament", ErrValidation)
	ErrInvalidCapacity         = fmt.Errorf("%w: capacity must be positive", ErrValidation)
	ErrInvalidStatusTransition = fmt.Errorf("%w: invalid status transition", ErrValidation)
	ErrTeamNotFound            = fmt.Errorf("%w: team not found", ErrValidation)
	ErrTeamNotSignedUp         = fmt.Errorf("%w: team is not accepted nor substitute", ErrValidation)
	ErrEmptyTournamentName     = fmt.Errorf("%w: empty tournament name", ErrValidation)
)

// ErrTeamWithoutMembers es una violación de invariante: un equipo se crea siempre con miembros.
var ErrTeamWithoutMembers = errors.New("team without members")

// ErrBracketTeamIDTaken: el equipo ya tenía participante en el bracket al registrarlo de nuevo.
var ErrBracketTeamIDTaken = errors.New("bracket team id already set")

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

type TeamNameTooLongError struct{ Max int }

func (e *TeamNameTooLongError) Error() string {
	return fmt.Sprintf("team name longer than %d characters", e.Max)
}
func (e *TeamNameTooLongError) Is(target error) bool { return target == ErrValidation }

type TeamNameTakenError struct{ Existing domain.Team }

func (e *TeamNameTakenError) Error() string {
	return fmt.Sprintf("team name %q already taken (team %d)", e.Existing.Name, e.Existing.ID)
}
func (e *TeamNameTakenError) Is(target error) bool { return target == ErrValidation }

// UnregisteredPlayersError lista todos los miembros sin registro o sin cuenta de juego.
type UnregisteredPlayersError struct{ DiscordIDs []string }

func (e *UnregisteredPlayersError) Error() string {
	return "unregistered players: " + strings.Join(e.DiscordIDs, ",")
}
func (e *UnregisteredPlayersError) Is(target error) bool { return target == ErrValidation }

type PlayerAlreadyInTeamError struct{ DiscordID string }

func (e *PlayerAlreadyInTeamError) Error() string {
	return fmt.Sprintf("player %s already in a team", e.DiscordID)
}
func (e *PlayerAlreadyInTeamError) Is(target error) bool { return target == ErrValidation }

// SideEffectError: el estado ya quedó persistido pero falló algo posterior
// (anuncio, reacciones o bracket). No se reintenta.
type SideEffectError struct {
	TeamID int64
	Status domain.TeamStatus
	Err    error
}

func (e *SideEffectError) Error() string {
	return fmt.Sprintf("team %d committed as %s, side effects failed: %v", e.TeamID, e.Status, e.Err)
}
func (e *SideEffectError) Unwrap() error { return e.Err }
