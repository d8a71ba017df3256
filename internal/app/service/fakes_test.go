package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jose-valero/tourney-signups-bot/internal/domain"
	"github.com/jose-valero/tourney-signups-bot/internal/infra/keylock"
	"github.com/jose-valero/tourney-signups-bot/internal/infra/storage"
)

// ---------- store en memoria ----------

type memStore struct {
	mu          sync.Mutex
	seq         int64
	clock       time.Time
	tournaments map[int64]domain.Tournament
	teams       map[int64]domain.Team
	members     map[int64][]int64
	players     map[int64]domain.Player
	messages    []domain.Message
	writes      int // CompleteSignup exitosos
	countErr    error
	completeErr error
}

func newMemStore() *memStore {
	return &memStore{
		clock:       time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC),
		tournaments: map[int64]domain.Tournament{},
		teams:       map[int64]domain.Team{},
		members:     map[int64][]int64{},
		players:     map[int64]domain.Player{},
	}
}

func (s *memStore) nextID() int64 { s.seq++; return s.seq }

// now avanza un segundo por llamada para que los tiempos sean distintos.
func (s *memStore) now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) repos() Repos {
	return Repos{
		Tournaments: memTournaments{s},
		Teams:       memTeams{s},
		Members:     memMembers{s},
		Players:     memPlayers{s},
		Messages:    memMessages{s},
	}
}

func (s *memStore) team(id int64) domain.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.teams[id]
}

type memTournaments struct{ *memStore }

func (r memTournaments) Create(_ context.Context, t domain.Tournament) (domain.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.tournaments {
		if x.SignupSurfaceID == t.SignupSurfaceID {
			return domain.Tournament{}, storage.ErrConflict
		}
	}
	t.ID = r.nextID()
	t.CreatedAt = r.clock
	r.tournaments[t.ID] = t
	return t, nil
}

func (r memTournaments) GetByID(_ context.Context, id int64) (domain.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return t, storage.ErrNotFound
	}
	return t, nil
}

func (r memTournaments) GetBySurface(_ context.Context, surfaceID string) (domain.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tournaments {
		if t.SignupSurfaceID == surfaceID {
			return t, nil
		}
	}
	return domain.Tournament{}, storage.ErrNotFound
}

func (r memTournaments) List(context.Context) ([]domain.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Tournament
	for _, t := range r.tournaments {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memTournaments) UpdateStatus(_ context.Context, id int64, status domain.TournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return storage.ErrNotFound
	}
	t.Status = status
	r.tournaments[id] = t
	return nil
}

func (r memTournaments) SetSignupsLock(_ context.Context, id int64, reason *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return storage.ErrNotFound
	}
	t.SignupsLockedReason = reason
	r.tournaments[id] = t
	return nil
}

type memTeams struct{ *memStore }

func (r memTeams) CreateWithMembers(_ context.Context, tournamentID int64, name string, playerIDs []int64) (domain.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.teams {
		if t.TournamentID == tournamentID && t.Name == name {
			return domain.Team{}, storage.ErrConflict
		}
	}
	t := domain.Team{ID: r.nextID(), TournamentID: tournamentID, Name: name, Status: domain.TeamPending, SignupTime: r.clock}
	r.teams[t.ID] = t
	r.members[t.ID] = append([]int64(nil), playerIDs...)
	return t, nil
}

func (r memTeams) GetByID(_ context.Context, id int64) (domain.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return t, storage.ErrNotFound
	}
	return t, nil
}

func (r memTeams) GetByName(_ context.Context, tournamentID int64, name string) (domain.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.teams {
		if t.TournamentID == tournamentID && t.Name == name {
			return t, nil
		}
	}
	return domain.Team{}, storage.ErrNotFound
}

func (r memTeams) ListByTournament(_ context.Context, tournamentID int64) ([]domain.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Team
	for _, t := range r.teams {
		if t.TournamentID == tournamentID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memTeams) CountByStatus(_ context.Context, tournamentID int64, status domain.TeamStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countErr != nil {
		return 0, r.countErr
	}
	n := 0
	for _, t := range r.teams {
		if t.TournamentID == tournamentID && t.Status == status {
			n++
		}
	}
	return n, nil
}

func (r memTeams) CompleteSignup(_ context.Context, teamID int64, status domain.TeamStatus, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.completeErr != nil {
		return false, r.completeErr
	}
	t, ok := r.teams[teamID]
	if !ok || t.Status != domain.TeamPending || t.SignupCompletedTime != nil {
		return false, nil
	}
	t.Status = status
	t.SignupCompletedTime = &at
	r.teams[teamID] = t
	r.writes++
	return true, nil
}

func (r memTeams) EarliestSubstitute(_ context.Context, tournamentID int64) (domain.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *domain.Team
	for _, t := range r.teams {
		if t.TournamentID != tournamentID || t.Status != domain.TeamSubstitute {
			continue
		}
		t := t
		if best == nil || t.SignupCompletedTime.Before(*best.SignupCompletedTime) ||
			(t.SignupCompletedTime.Equal(*best.SignupCompletedTime) && t.ID < best.ID) {
			best = &t
		}
	}
	if best == nil {
		return domain.Team{}, storage.ErrNotFound
	}
	return *best, nil
}

func (r memTeams) TransitionStatus(_ context.Context, teamID int64, from []domain.TeamStatus, to domain.TeamStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[teamID]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if t.Status == f {
			t.Status = to
			r.teams[teamID] = t
			return true, nil
		}
	}
	return false, nil
}

func (r memTeams) SetBracketTeamID(_ context.Context, teamID int64, bracketTeamID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[teamID]
	if !ok || t.BracketTeamID != nil {
		return false, nil
	}
	t.BracketTeamID = &bracketTeamID
	r.teams[teamID] = t
	return true, nil
}

type memMembers struct{ *memStore }

func (r memMembers) ListPlayers(_ context.Context, teamID int64) ([]domain.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Player
	for _, pid := range r.members[teamID] {
		out = append(out, r.players[pid])
	}
	return out, nil
}

func (r memMembers) InActiveTeam(_ context.Context, playerID, tournamentID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for teamID, pids := range r.members {
		t := r.teams[teamID]
		if t.TournamentID != tournamentID || t.Status == domain.TeamRejected {
			continue
		}
		for _, pid := range pids {
			if pid == playerID {
				return true, nil
			}
		}
	}
	return false, nil
}

type memPlayers struct{ *memStore }

func (r memPlayers) GetByDiscordID(_ context.Context, discordID string) (domain.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.DiscordUserID == discordID {
			return p, nil
		}
	}
	return domain.Player{}, storage.ErrNotFound
}

func (r memPlayers) FindByDiscordIDs(_ context.Context, ids []string) (map[string]domain.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := memberSet(ids)
	out := map[string]domain.Player{}
	for _, p := range r.players {
		if _, ok := want[p.DiscordUserID]; ok {
			out[p.DiscordUserID] = p
		}
	}
	return out, nil
}

func (r memPlayers) Create(_ context.Context, discordID, username string) (domain.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.DiscordUserID == discordID {
			return domain.Player{}, storage.ErrConflict
		}
	}
	p := domain.Player{ID: r.nextID(), DiscordUserID: discordID, Username: username, CreatedAt: r.clock}
	r.players[p.ID] = p
	return p, nil
}

func (r memPlayers) LinkGameAccount(_ context.Context, playerID int64, account string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[playerID]
	if !ok {
		return storage.ErrNotFound
	}
	p.GameAccount = &account
	r.players[playerID] = p
	return nil
}

type memMessages struct{ *memStore }

func (r memMessages) Create(_ context.Context, m domain.Message) (domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.messages {
		if x.AnnouncementID == m.AnnouncementID {
			return domain.Message{}, storage.ErrConflict
		}
	}
	m.ID = r.nextID()
	r.messages = append(r.messages, m)
	return m, nil
}

func (r memMessages) GetByAnnouncementID(_ context.Context, announcementID string) (domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.AnnouncementID == announcementID {
			return m, nil
		}
	}
	return domain.Message{}, storage.ErrNotFound
}

func (r memMessages) GetForTeam(_ context.Context, teamID int64, purpose string) (domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.messages) - 1; i >= 0; i-- {
		if m := r.messages[i]; m.TeamID == teamID && m.Purpose == purpose {
			return m, nil
		}
	}
	return domain.Message{}, storage.ErrNotFound
}

func (r memMessages) ListByPurpose(_ context.Context, purpose string) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, m := range r.messages {
		if m.Purpose == purpose {
			out = append(out, m)
		}
	}
	return out, nil
}

// ---------- chat ----------

const botID = "bot"

type fakeChat struct {
	mu         sync.Mutex
	seq        int
	reactions  map[string][]Reaction // messageID -> reacciones en orden
	views      map[string]AnnouncementView
	renders    int
	publishErr error
	removeErr  map[string]error // userID -> error de RemoveReaction
}

func newFakeChat() *fakeChat {
	return &fakeChat{
		reactions: map[string][]Reaction{},
		views:     map[string]AnnouncementView{},
		removeErr: map[string]error{},
	}
}

func (c *fakeChat) SelfID() string { return botID }

func (c *fakeChat) PublishSignup(_ context.Context, surfaceID string, view AnnouncementView) (domain.AnnouncementRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr != nil {
		return domain.AnnouncementRef{}, c.publishErr
	}
	c.seq++
	id := fmt.Sprintf("msg-%d", c.seq)
	c.views[id] = view
	return domain.AnnouncementRef{GuildID: "g1", ChannelID: surfaceID, MessageID: id}, nil
}

func (c *fakeChat) Reactions(_ context.Context, ref domain.AnnouncementRef) ([]Reaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Reaction
	for _, r := range c.reactions[ref.MessageID] {
		out = append(out, Reaction{Emoji: r.Emoji, UserIDs: append([]string(nil), r.UserIDs...)})
	}
	return out, nil
}

func (c *fakeChat) react(messageID, emoji, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rs := c.reactions[messageID]
	for i := range rs {
		if rs[i].Emoji == emoji {
			for _, u := range rs[i].UserIDs {
				if u == userID {
					return
				}
			}
			rs[i].UserIDs = append(rs[i].UserIDs, userID)
			return
		}
	}
	c.reactions[messageID] = append(rs, Reaction{Emoji: emoji, UserIDs: []string{userID}})
}

func (c *fakeChat) AddReaction(_ context.Context, ref domain.AnnouncementRef, emoji string) error {
	c.react(ref.MessageID, emoji, botID)
	return nil
}

func (c *fakeChat) RemoveReaction(_ context.Context, ref domain.AnnouncementRef, emoji, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.removeErr[userID]; err != nil {
		return err
	}
	rs := c.reactions[ref.MessageID]
	for i := range rs {
		if rs[i].Emoji != emoji {
			continue
		}
		var keep []string
		for _, u := range rs[i].UserIDs {
			if u != userID {
				keep = append(keep, u)
			}
		}
		if len(keep) == 0 {
			c.reactions[ref.MessageID] = append(rs[:i:i], rs[i+1:]...)
		} else {
			rs[i].UserIDs = keep
		}
		return nil
	}
	return nil
}

func (c *fakeChat) RemoveAllReactions(_ context.Context, ref domain.AnnouncementRef) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.reactions, ref.MessageID)
	return nil
}

func (c *fakeChat) RenderAnnouncement(_ context.Context, ref domain.AnnouncementRef, view AnnouncementView) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renders++
	c.views[ref.MessageID] = view
	return nil
}

// emojis devuelve emoji -> usuarios del anuncio.
func (c *fakeChat) emojis(messageID string) map[string][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := map[string][]string{}
	for _, r := range c.reactions[messageID] {
		out[r.Emoji] = append([]string(nil), r.UserIDs...)
	}
	return out
}

func (c *fakeChat) view(messageID string) AnnouncementView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.views[messageID]
}

// ---------- DMs ----------

type fakeDM struct {
	mu   sync.Mutex
	sent map[string][]string
	fail map[string]bool
}

func newFakeDM() *fakeDM { return &fakeDM{sent: map[string][]string{}, fail: map[string]bool{}} }

func (d *fakeDM) SendDM(_ context.Context, userID, content string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail[userID] {
		return errors.New("cannot send messages to this user")
	}
	d.sent[userID] = append(d.sent[userID], content)
	return nil
}

func (d *fakeDM) to(userID string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.sent[userID]...)
}

func (d *fakeDM) total() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, s := range d.sent {
		n += len(s)
	}
	return n
}

// ---------- bracket ----------

type fakeBracket struct {
	mu          sync.Mutex
	registered  []string
	checkedIn   []string
	checkedOut  []string
	registerErr error
}

func (b *fakeBracket) CreateTournament(_ context.Context, name string, _ *time.Time) (string, error) {
	return "bracket-" + name, nil
}

func (b *fakeBracket) RegisterTeam(_ context.Context, _ string, name, _ string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.registerErr != nil {
		return "", b.registerErr
	}
	b.registered = append(b.registered, name)
	return "p-" + name, nil
}

func (b *fakeBracket) CheckIn(_ context.Context, _ string, teamExtID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checkedIn = append(b.checkedIn, teamExtID)
	return nil
}

func (b *fakeBracket) CheckOut(_ context.Context, _ string, teamExtID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checkedOut = append(b.checkedOut, teamExtID)
	return nil
}

type fakeReporter struct {
	mu      sync.Mutex
	reports []string
}

func (r *fakeReporter) Report(_ context.Context, source string, err error, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, source+": "+err.Error())
}

// ---------- entorno ----------

type env struct {
	store       *memStore
	chat        *fakeChat
	dm          *fakeDM
	bracket     *fakeBracket
	reporter    *fakeReporter
	signups     *SignupService
	reactions   *ReactionService
	subs        *SubstituteService
	tournaments *TournamentService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		store:    newMemStore(),
		chat:     newFakeChat(),
		dm:       newFakeDM(),
		bracket:  &fakeBracket{},
		reporter: &fakeReporter{},
	}
	repos := e.store.repos()
	notifier := NewNotifier(e.dm, 2)
	opts := []Option{
		WithBracket(e.bracket),
		WithReporter(e.reporter),
		WithClock(e.store.now),
		WithGuildID("g1"),
		WithTournamentLocks(keylock.New()),
	}
	e.signups = NewSignupService(repos, e.chat)
	e.reactions = NewReactionService(repos, e.chat, notifier, 2, opts...)
	e.subs = NewSubstituteService(repos, e.chat, notifier, opts...)
	e.tournaments = NewTournamentService(repos, e.chat, notifier, e.subs, opts...)
	return e
}

func (e *env) tournament(t *testing.T, surface string, capacity int, bracketID string) domain.Tournament {
	t.Helper()
	tt := domain.Tournament{Name: "Copa " + surface, Status: domain.TournamentSignups, SignupSurfaceID: surface, MaxAcceptedTeams: capacity}
	if bracketID != "" {
		tt.BracketID = &bracketID
	}
	out, err := memTournaments{e.store}.Create(context.Background(), tt)
	require.NoError(t, err)
	return out
}

func (e *env) players(t *testing.T, ids ...string) {
	t.Helper()
	ctx := context.Background()
	for _, id := range ids {
		p, err := memPlayers{e.store}.Create(ctx, id, "user-"+id)
		require.NoError(t, err)
		require.NoError(t, memPlayers{e.store}.LinkGameAccount(ctx, p.ID, "acc_"+id))
	}
}

// signup inscribe un equipo; members[0] es el solicitante.
func (e *env) signup(t *testing.T, surface, name string, members ...string) SignupResult {
	t.Helper()
	res, err := e.signups.SignupTeam(context.Background(), SignupRequest{
		SurfaceID:   surface,
		TeamName:    name,
		RequesterID: members[0],
		MemberIDs:   members[1:],
	})
	require.NoError(t, err)
	return res
}

func (e *env) vote(ref domain.AnnouncementRef, g domain.Glyph, users ...string) {
	for _, u := range users {
		e.chat.react(ref.MessageID, g.Emoji(), u)
	}
}
