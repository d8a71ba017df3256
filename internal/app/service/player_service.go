package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/jose-valero/tourney-signups-bot/internal/domain"
	"github.com/jose-valero/tourney-signups-bot/internal/infra/storage"
)

var gameAccountRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,16}$`)

type PlayerService struct {
	players PlayerRepo
}

func NewPlayerService(players PlayerRepo) *PlayerService {
	return &PlayerService{players: players}
}

// Hello registra al jugador si no existía; created indica si es nuevo.
func (s *PlayerService) Hello(ctx context.Context, discordID, username string) (p domain.Player, created bool, err error) {
	p, err = s.players.GetByDiscordID(ctx, discordID)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return p, false, fmt.Errorf("get player %s: %w", discordID, err)
	}

	p, err = s.players.Create(ctx, discordID, username)
	if errors.Is(err, storage.ErrConflict) {
		// otro /hello del mismo usuario ganó la carrera
		p, err = s.players.GetByDiscordID(ctx, discordID)
		return p, false, err
	}
	if err != nil {
		return p, false, fmt.Errorf("create player %s: %w", discordID, err)
	}
	log.Printf("[players] registered discord=%s username=%q", discordID, username)
	return p, true, nil
}

func (s *PlayerService) LinkGameAccount(ctx context.Context, discordID, account string) (domain.Player, error) {
	account = strings.TrimSpace(account)
	if !gameAccountRe.MatchString(account) {
		return domain.Player{}, ErrInvalidGameAccount
	}
	p, err := s.players.GetByDiscordID(ctx, discordID)
	if errors.Is(err, storage.ErrNotFound) {
		return p, ErrPlayerNotFound
	}
	if err != nil {
		return p, fmt.Errorf("get player %s: %w", discordID, err)
	}
	if err := s.players.LinkGameAccount(ctx, p.ID, account); err != nil {
		return p, fmt.Errorf("link game account player=%d: %w", p.ID, err)
	}
	p.GameAccount = &account
	return p, nil
}
