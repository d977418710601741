package discord

import (
	"bytes"
	"context"
	"fmt"

	"ai-relay-bot/internal/pkg/logger"
	"ai-relay-bot/internal/service"
	"ai-relay-bot/pkg/dispatch"

	"github.com/bwmarrin/discordgo"
)

const moduleName = "DiscordBot"

// Intents the relay needs: guild and direct messages plus their content.
const Intents = discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// Bot connects the relay service to a Discord gateway session. discordgo runs
// every event handler on its own goroutine, so a slow model or image call in
// one channel never delays intake in another.
type Bot struct {
	session *discordgo.Session
	relay   service.IRelayService
	logger  logger.ILogger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewBot(token string, relay service.IRelayService, log logger.ILogger) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	s.Identify.Intents = Intents

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bot{
		session: s,
		relay:   relay,
		logger:  log,
		ctx:     ctx,
		cancel:  cancel,
	}
	s.AddHandler(b.onReady)
	s.AddHandler(b.onMessageCreate)
	return b, nil
}

// Open connects to the gateway.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}
	return nil
}

// Close cancels in-flight handlers and disconnects.
func (b *Bot) Close() error {
	b.cancel()
	return b.session.Close()
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info(moduleName, "Bot is online", map[string]interface{}{
		"user":   r.User.Username,
		"id":     r.User.ID,
		"guilds": len(r.Guilds),
	})
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if s.State == nil || s.State.User == nil {
		return
	}
	botID := s.State.User.ID

	in, ok := Normalize(m.Message, botID, b.botRoles(s, m.GuildID, botID))
	if !ok {
		return
	}

	sender := &channelSender{session: s, channelID: m.ChannelID}
	if err := b.relay.HandleMessage(b.ctx, sender, in); err != nil {
		b.logger.Error(moduleName, "Failed to deliver reply", map[string]interface{}{
			"channel_id":  m.ChannelID,
			"session_key": in.SessionKey,
			"error":       err,
		})
	}
}

// botRoles lists the bot's own roles in a guild, from the state cache when
// possible.
func (b *Bot) botRoles(s *discordgo.Session, guildID, botID string) []string {
	if guildID == "" {
		return nil
	}
	if member, err := s.State.Member(guildID, botID); err == nil {
		return member.Roles
	}
	member, err := s.GuildMember(guildID, botID)
	if err != nil {
		b.logger.Warn(moduleName, "Could not resolve bot roles", map[string]interface{}{
			"guild_id": guildID,
			"error":    err.Error(),
		})
		return nil
	}
	return member.Roles
}

// channelSender delivers replies to the channel the message came from.
type channelSender struct {
	session   *discordgo.Session
	channelID string
}

var _ dispatch.Sender = (*channelSender)(nil)

func (c *channelSender) SendText(ctx context.Context, text string) error {
	_, err := c.session.ChannelMessageSend(c.channelID, text, discordgo.WithContext(ctx))
	return err
}

func (c *channelSender) SendFile(ctx context.Context, name string, data []byte) error {
	_, err := c.session.ChannelFileSend(c.channelID, name, bytes.NewReader(data), discordgo.WithContext(ctx))
	return err
}
