package domain

import (
	"fmt"
	"time"
)

type TournamentStatus string

const (
	TournamentPlanned   TournamentStatus = "planned"
	TournamentSignups   TournamentStatus = "signups"
	TournamentActive    TournamentStatus = "active"
	TournamentFinished  TournamentStatus = "finished"
	TournamentCancelled TournamentStatus = "cancelled"
)

// orden de avance; cancelled queda fuera porque es terminal desde cualquier estado
var tournamentOrder = map[TournamentStatus]int{
	TournamentPlanned:  0,
	TournamentSignups:  1,
	TournamentActive:   2,
	TournamentFinished: 3,
}

func (s TournamentStatus) Valid() bool {
	_, ok := tournamentOrder[s]
	return ok || s == TournamentCancelled
}

// CanAdvanceTo: sólo hacia adelante, o a cancelled desde cualquier estado no cancelado.
func (s TournamentStatus) CanAdvanceTo(next TournamentStatus) bool {
	if s == TournamentCancelled || !next.Valid() {
		return false
	}
	if next == TournamentCancelled {
		return true
	}
	cur, ok := tournamentOrder[s]
	if !ok {
		return false
	}
	return tournamentOrder[next] > cur
}

type TeamStatus string

const (
	TeamPending    TeamStatus = "pending"
	TeamAccepted   TeamStatus = "accepted"
	TeamSubstitute TeamStatus = "substitute"
	TeamRejected   TeamStatus = "rejected"
)

func (s TeamStatus) Valid() bool {
	switch s {
	case TeamPending, TeamAccepted, TeamSubstitute, TeamRejected:
		return true
	}
	return false
}

func (s TeamStatus) Label() string {
	switch s {
	case TeamPending:
		return "Pendiente ⏳"
	case TeamAccepted:
		return "Aceptado 🟢"
	case TeamSubstitute:
		return "Suplente 🟠"
	case TeamRejected:
		return "Rechazado 🔴"
	}
	return "Desconocido"
}

type Tournament struct {
	ID                  int64
	Name                string
	StartDate           *time.Time
	Status              TournamentStatus
	SignupSurfaceID     string
	MaxAcceptedTeams    int
	BracketID           *string
	SignupsLockedReason *string
	CreatedAt           time.Time
}

// SignupsOpen: estado signups y sin lock administrativo.
func (t Tournament) SignupsOpen() bool {
	return t.Status == TournamentSignups && (t.SignupsLockedReason == nil || *t.SignupsLockedReason == "")
}

func (t Tournament) HasBracket() bool {
	return t.BracketID != nil && *t.BracketID != ""
}

type Team struct {
	ID                  int64
	TournamentID        int64
	Name                string
	Status              TeamStatus
	SignupTime          time.Time
	SignupCompletedTime *time.Time
	BracketTeamID       *string
}

type TeamMember struct {
	ID       int64
	TeamID   int64
	PlayerID int64
}

type Player struct {
	ID            int64
	DiscordUserID string
	Username      string
	GameAccount   *string
	CreatedAt     time.Time
}

func (p Player) HasGameAccount() bool {
	return p.GameAccount != nil && *p.GameAccount != ""
}

const PurposeSignupAnnouncement = "signup propose message"

type Message struct {
	ID             int64
	AnnouncementID string
	ChannelID      string
	TeamID         int64
	Purpose        string
}

// AnnouncementRef identifica el mensaje público de un equipo en la plataforma de chat.
type AnnouncementRef struct {
	GuildID   string
	ChannelID string
	MessageID string
}

func (r AnnouncementRef) JumpURL() string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", r.GuildID, r.ChannelID, r.MessageID)
}

func (r AnnouncementRef) String() string {
	return r.ChannelID + "/" + r.MessageID
}
