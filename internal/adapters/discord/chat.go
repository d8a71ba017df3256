package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/tourney-signups-bot/internal/app/service"
	"github.com/jose-valero/tourney-signups-bot/internal/domain"
)

const reactorsPage = 100

// Chat implementa los puertos de chat, anuncio y DM del servicio sobre una sesión de discordgo.
type Chat struct {
	s       *discordgo.Session
	guildID string
	bullet  string
}

func NewChat(s *discordgo.Session, guildID, bullet string) *Chat {
	return &Chat{s: s, guildID: guildID, bullet: bullet}
}

func (c *Chat) SelfID() string {
	if c.s.State == nil || c.s.State.User == nil {
		return ""
	}
	return c.s.State.User.ID
}

func (c *Chat) PublishSignup(ctx context.Context, surfaceID string, view service.AnnouncementView) (domain.AnnouncementRef, error) {
	m, err := c.s.ChannelMessageSendEmbed(surfaceID, announcementEmbed(view, c.bullet), discordgo.WithContext(ctx))
	if err != nil {
		return domain.AnnouncementRef{}, fmt.Errorf("send announcement: %w", err)
	}
	return domain.AnnouncementRef{GuildID: c.guildID, ChannelID: m.ChannelID, MessageID: m.ID}, nil
}

func (c *Chat) RenderAnnouncement(ctx context.Context, ref domain.AnnouncementRef, view service.AnnouncementView) error {
	_, err := c.s.ChannelMessageEditEmbed(ref.ChannelID, ref.MessageID, announcementEmbed(view, c.bullet), discordgo.WithContext(ctx))
	return err
}

// Reactions lee el mensaje y pagina los usuarios de cada emoji.
func (c *Chat) Reactions(ctx context.Context, ref domain.AnnouncementRef) ([]service.Reaction, error) {
	m, err := c.s.ChannelMessage(ref.ChannelID, ref.MessageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch message: %w", err)
	}

	out := make([]service.Reaction, 0, len(m.Reactions))
	for _, mr := range m.Reactions {
		if mr.Emoji == nil {
			continue
		}
		emoji := mr.Emoji.APIName()
		users, err := c.reactors(ctx, ref, emoji)
		if err != nil {
			return nil, fmt.Errorf("reactors %s: %w", emoji, err)
		}
		out = append(out, service.Reaction{Emoji: emoji, UserIDs: users})
	}
	return out, nil
}

func (c *Chat) reactors(ctx context.Context, ref domain.AnnouncementRef, emoji string) ([]string, error) {
	var ids []string
	after := ""
	for {
		page, err := c.s.MessageReactions(ref.ChannelID, ref.MessageID, emoji, reactorsPage, "", after, discordgo.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		for _, u := range page {
			ids = append(ids, u.ID)
		}
		if len(page) < reactorsPage {
			return ids, nil
		}
		after = page[len(page)-1].ID
	}
}

func (c *Chat) AddReaction(ctx context.Context, ref domain.AnnouncementRef, emoji string) error {
	return c.s.MessageReactionAdd(ref.ChannelID, ref.MessageID, emoji, discordgo.WithContext(ctx))
}

func (c *Chat) RemoveReaction(ctx context.Context, ref domain.AnnouncementRef, emoji, userID string) error {
	if userID == c.SelfID() {
		userID = "@me"
	}
	return c.s.MessageReactionRemove(ref.ChannelID, ref.MessageID, emoji, userID, discordgo.WithContext(ctx))
}

func (c *Chat) RemoveAllReactions(ctx context.Context, ref domain.AnnouncementRef) error {
	return c.s.MessageReactionsRemoveAll(ref.ChannelID, ref.MessageID, discordgo.WithContext(ctx))
}

func (c *Chat) SendDM(ctx context.Context, userID, content string) error {
	ch, err := c.s.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open dm: %w", err)
	}
	_, err = c.s.ChannelMessageSend(ch.ID, content, discordgo.WithContext(ctx))
	return err
}
