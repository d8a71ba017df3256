package discord

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jose-valero/tourney-signups-bot/internal/app/service"
)

const msgUnexpected = "❌ Ocurrió un error inesperado. Ya avisamos a los administradores."

var validationMessages = []struct {
	err error
	msg string
}{
	{service.ErrTournamentNotFound, "⚠️ No hay un torneo asociado a este canal."},
	{service.ErrSignupClosed, "🔒 Las inscripciones de este torneo están cerradas."},
	{service.ErrEmptyTeamName, "⚠️ El nombre del equipo no puede estar vacío."},
	{service.ErrDuplicateTeamMember, "⚠️ Un jugador aparece más de una vez en el equipo (no te incluyas, ya cuentas como miembro)."},
	{service.ErrPlayerNotFound, "⚠️ Primero usa `/hello` para registrarte."},
	{service.ErrInvalidGameAccount, "⚠️ Cuenta inválida: de 3 a 16 caracteres entre letras, números y `_`."},
	{service.ErrDuplicateSignupSurface, "⚠️ Este canal ya tiene un torneo."},
	{service.ErrInvalidCapacity, "⚠️ El cupo debe ser mayor que cero."},
	{service.ErrInvalidStatusTransition, "⚠️ Ese cambio de estado no está permitido."},
	{service.ErrTeamNotFound, "⚠️ No encontré ese equipo en este torneo."},
	{service.ErrTeamNotSignedUp, "⚠️ El equipo no está aceptado ni en suplentes."},
	{service.ErrEmptyTournamentName, "⚠️ El torneo necesita un nombre."},
}

// userMessage traduce un error de validación a lo que ve el usuario.
func userMessage(err error) string {
	var (
		tooLong *service.TeamNameTooLongError
		taken   *service.TeamNameTakenError
		unreg   *service.UnregisteredPlayersError
		busy    *service.PlayerAlreadyInTeamError
	)
	switch {
	case errors.As(err, &tooLong):
		return fmt.Sprintf("⚠️ El nombre del equipo no puede superar %d caracteres.", tooLong.Max)
	case errors.As(err, &taken):
		return fmt.Sprintf("⚠️ Ya existe un equipo llamado **%s** en este torneo.", taken.Existing.Name)
	case errors.As(err, &unreg):
		ids := make([]string, len(unreg.DiscordIDs))
		for i, id := range unreg.DiscordIDs {
			ids[i] = "<@" + id + ">"
		}
		return "⚠️ Estos jugadores deben usar `/hello` y `/register` antes de inscribirse: " + strings.Join(ids, ", ")
	case errors.As(err, &busy):
		return fmt.Sprintf("⚠️ <@%s> ya forma parte de otro equipo en este torneo.", busy.DiscordID)
	}
	for _, vm := range validationMessages {
		if errors.Is(err, vm.err) {
			return vm.msg
		}
	}
	return msgUnexpected
}
