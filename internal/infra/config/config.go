package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL  string   `env:"DATABASE_URL,required,notEmpty"`
	DiscordToken string   `env:"DISCORD_BOT_TOKEN,required,notEmpty"`
	DiscordGuild string   `env:"DISCORD_GUILD_ID,required,notEmpty"`
	AdminRoleIDs []string `env:"ADMIN_ROLE_IDS" envSeparator:","`

	// Challonge; vacío = torneos sin bracket
	ChallongeAPIKey string `env:"CHALLONGE_API_KEY"`

	// issues para el operador; sin token sólo se guardan en la base
	GitHubToken  string   `env:"GITHUB_ISSUES_TOKEN"`
	GitHubRepo   string   `env:"GITHUB_ISSUES_REPO"`
	GitHubLabels []string `env:"GITHUB_ISSUES_LABELS" envSeparator:","`

	OpsHTTPAddr string `env:"OPS_HTTP_ADDR" envDefault:":8080"`
	OpsToken    string `env:"OPS_TOKEN"`

	IssueDedupWindow time.Duration `env:"ISSUE_DEDUP_WINDOW" envDefault:"1h"`
	IssueDedupSize   int           `env:"ISSUE_DEDUP_SIZE" envDefault:"256"`
	SweepConcurrency int           `env:"SWEEP_CONCURRENCY" envDefault:"4"`
	SignupCooldown   time.Duration `env:"SIGNUP_COOLDOWN" envDefault:"3s"`

	MemberBulletEmoji string `env:"MEMBER_BULLET_EMOJI" envDefault:"🔹"`
}

func (c Config) GitHubEnabled() bool { return c.GitHubToken != "" && c.GitHubRepo != "" }

// Parse lee el entorno; no mata el proceso.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if cfg.GitHubRepo != "" && strings.Count(cfg.GitHubRepo, "/") != 1 {
		return cfg, fmt.Errorf("GITHUB_ISSUES_REPO must be owner/name, got %q", cfg.GitHubRepo)
	}
	if cfg.IssueDedupSize <= 0 {
		cfg.IssueDedupSize = 256
	}
	if cfg.SweepConcurrency <= 0 {
		cfg.SweepConcurrency = 4
	}
	return cfg, nil
}

func Load() Config {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}
