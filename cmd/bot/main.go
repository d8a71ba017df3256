package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	"github.com/jose-valero/tourney-signups-bot/internal/adapters/challonge"
	discordrouter "github.com/jose-valero/tourney-signups-bot/internal/adapters/discord"
	"github.com/jose-valero/tourney-signups-bot/internal/adapters/github"
	"github.com/jose-valero/tourney-signups-bot/internal/adapters/httpops"
	"github.com/jose-valero/tourney-signups-bot/internal/app/service"
	"github.com/jose-valero/tourney-signups-bot/internal/infra/config"
	"github.com/jose-valero/tourney-signups-bot/internal/infra/dedup"
	"github.com/jose-valero/tourney-signups-bot/internal/infra/keylock"
	"github.com/jose-valero/tourney-signups-bot/internal/infra/storage"
)

func main() {
	_ = godotenv.Load()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	// DB
	db, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := storage.Migrate(db); err != nil {
		log.Fatal("migrate:", err)
	}
	log.Println("✅ DB lista y migrada")

	// Repos
	repos := service.Repos{
		Tournaments: storage.NewTournamentRepo(db),
		Teams:       storage.NewTeamRepo(db),
		Members:     storage.NewMemberRepo(db),
		Players:     storage.NewPlayerRepo(db),
		Messages:    storage.NewMessageRepo(db),
	}

	// Discord session; Open va después de registrar handlers para no perder el Ready
	auth := strings.TrimSpace(cfg.DiscordToken)
	if !strings.HasPrefix(strings.ToLower(auth), "bot ") {
		auth = "Bot " + auth
	}
	s, err := discordgo.New(auth)
	if err != nil {
		log.Fatal(err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessageReactions | discordgo.IntentsDirectMessages

	chat := discordrouter.NewChat(s, cfg.DiscordGuild, cfg.MemberBulletEmoji)

	// Issues para el operador
	var tracker service.IssueTracker
	if cfg.GitHubEnabled() {
		tracker = github.New(cfg.GitHubToken, cfg.GitHubRepo, github.WithLabels(cfg.GitHubLabels))
	}
	reporter := service.NewIssueReporter(
		storage.NewIssueRepo(db),
		tracker,
		dedup.New(cfg.IssueDedupSize, cfg.IssueDedupWindow),
	)

	opts := []service.Option{
		service.WithReporter(reporter),
		service.WithGuildID(cfg.DiscordGuild),
		service.WithTournamentLocks(keylock.New()),
	}
	if cfg.ChallongeAPIKey != "" {
		opts = append(opts, service.WithBracket(challonge.New(cfg.ChallongeAPIKey)))
	} else {
		log.Println("ℹ️ sin CHALLONGE_API_KEY: torneos sin bracket")
	}

	// Services
	notifier := service.NewNotifier(chat, 4)
	subs := service.NewSubstituteService(repos, chat, notifier, opts...)
	svc := discordrouter.Services{
		Players:     service.NewPlayerService(repos.Players),
		Signups:     service.NewSignupService(repos, chat),
		Reactions:   service.NewReactionService(repos, chat, notifier, cfg.SweepConcurrency, opts...),
		Substitutes: subs,
		Tournaments: service.NewTournamentService(repos, chat, notifier, subs, opts...),
	}

	// Router
	r := discordrouter.NewRouter(s, discordrouter.RouterConfig{
		GuildID:        cfg.DiscordGuild,
		AdminRoleIDs:   cfg.AdminRoleIDs,
		BulletEmoji:    cfg.MemberBulletEmoji,
		SignupCooldown: cfg.SignupCooldown,
	}, svc, reporter)
	r.Handlers()

	if err := s.Open(); err != nil {
		log.Fatal(err)
	}
	defer s.Close()
	log.Printf("✅ Conectado como %s (%s)", s.State.User.Username, s.State.User.ID)

	if err := r.Register(); err != nil {
		log.Fatalf("registrando comandos: %v", err)
	}
	log.Printf("✅ comandos registrados en guild %s", cfg.DiscordGuild)

	// Superficie HTTP de operador (opcional)
	if cfg.OpsToken != "" {
		ops := httpops.New(cfg.OpsToken, cfg.DiscordGuild, svc.Reactions, svc.Substitutes, svc.Tournaments)
		go func() {
			if err := ops.Run(ctx, cfg.OpsHTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[ops] server: %v", err)
			}
		}()
	}

	// Esperar señal
	<-ctx.Done()
	log.Println("apagando…")
}
