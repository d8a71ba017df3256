package service

import (
	"context"
	"time"

	"github.com/jose-valero/tourney-signups-bot/internal/domain"
	"github.com/jose-valero/tourney-signups-bot/internal/infra/storage"
)

// Lo implementa internal/infra/storage.TournamentRepo
type TournamentRepo interface {
	Create(ctx context.Context, t domain.Tournament) (domain.Tournament, error)
	GetByID(ctx context.Context, id int64) (domain.Tournament, error)
	GetBySurface(ctx context.Context, surfaceID string) (domain.Tournament, error)
	List(ctx context.Context) ([]domain.Tournament, error)
	UpdateStatus(ctx context.Context, id int64, status domain.TournamentStatus) error
	SetSignupsLock(ctx context.Context, id int64, reason *string) error
}

// Lo implementa internal/infra/storage.TeamRepo
type TeamRepo interface {
	CreateWithMembers(ctx context.Context, tournamentID int64, name string, playerIDs []int64) (domain.Team, error)
	GetByID(ctx context.Context, id int64) (domain.Team, error)
	GetByName(ctx context.Context, tournamentID int64, name string) (domain.Team, error)
	ListByTournament(ctx context.Context, tournamentID int64) ([]domain.Team, error)
	CountByStatus(ctx context.Context, tournamentID int64, status domain.TeamStatus) (int, error)
	CompleteSignup(ctx context.Context, teamID int64, status domain.TeamStatus, at time.Time) (bool, error)
	EarliestSubstitute(ctx context.Context, tournamentID int64) (domain.Team, error)
	TransitionStatus(ctx context.Context, teamID int64, from []domain.TeamStatus, to domain.TeamStatus) (bool, error)
	SetBracketTeamID(ctx context.Context, teamID int64, bracketTeamID string) (bool, error)
}

// Lo implementa internal/infra/storage.MemberRepo
type MemberRepo interface {
	ListPlayers(ctx context.Context, teamID int64) ([]domain.Player, error)
	InActiveTeam(ctx context.Context, playerID, tournamentID int64) (bool, error)
}

// Lo implementa internal/infra/storage.PlayerRepo
type PlayerRepo interface {
	GetByDiscordID(ctx context.Context, discordID string) (domain.Player, error)
	FindByDiscordIDs(ctx context.Context, ids []string) (map[string]domain.Player, error)
	Create(ctx context.Context, discordID, username string) (domain.Player, error)
	LinkGameAccount(ctx context.Context, playerID int64, account string) error
}

// Lo implementa internal/infra/storage.MessageRepo
type MessageRepo interface {
	Create(ctx context.Context, m domain.Message) (domain.Message, error)
	GetByAnnouncementID(ctx context.Context, announcementID string) (domain.Message, error)
	GetForTeam(ctx context.Context, teamID int64, purpose string) (domain.Message, error)
	ListByPurpose(ctx context.Context, purpose string) ([]domain.Message, error)
}

// Lo implementa internal/infra/storage.IssueRepo
type IssueStore interface {
	Insert(ctx context.Context, ir storage.IssueReport) error
}

// Reaction: un emoji y quiénes lo pusieron (incluye al propio bot).
type Reaction struct {
	Emoji   string
	UserIDs []string
}

// AnnouncementView es lo que se renderiza en el anuncio de un equipo.
type AnnouncementView struct {
	TeamName       string
	TournamentName string
	MemberIDs      []string
	Status         domain.TeamStatus
	Note           string
}

// Lo implementa internal/adapters/discord.Chat
type ChatPlatform interface {
	SelfID() string
	Reactions(ctx context.Context, ref domain.AnnouncementRef) ([]Reaction, error)
	AddReaction(ctx context.Context, ref domain.AnnouncementRef, emoji string) error
	RemoveReaction(ctx context.Context, ref domain.AnnouncementRef, emoji, userID string) error
	RemoveAllReactions(ctx context.Context, ref domain.AnnouncementRef) error
	RenderAnnouncement(ctx context.Context, ref domain.AnnouncementRef, view AnnouncementView) error
}

// Announcer publica el anuncio inicial de un equipo en su superficie de inscripción.
type Announcer interface {
	PublishSignup(ctx context.Context, surfaceID string, view AnnouncementView) (domain.AnnouncementRef, error)
}

type DMSender interface {
	SendDM(ctx context.Context, userID, content string) error
}

// Lo implementa internal/adapters/challonge.Client
type BracketClient interface {
	CreateTournament(ctx context.Context, name string, startAt *time.Time) (string, error)
	RegisterTeam(ctx context.Context, tournamentExtID, name, reference string) (string, error)
	CheckIn(ctx context.Context, tournamentExtID, teamExtID string) error
	CheckOut(ctx context.Context, tournamentExtID, teamExtID string) error
}

// Lo implementa IssueReporter; los servicios lo usan para escalar fallos al operador.
type Reporter interface {
	Report(ctx context.Context, source string, err error, fields map[string]string)
}

// Lo implementa internal/adapters/github.Client
type IssueTracker interface {
	CreateIssue(ctx context.Context, title, body string) (string, error)
}

type nopReporter struct{}

func (nopReporter) Report(context.Context, string, error, map[string]string) {}
