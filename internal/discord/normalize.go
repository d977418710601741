package discord

import (
	"strings"

	"ai-relay-bot/internal/service"
	"ai-relay-bot/pkg/store"

	"github.com/bwmarrin/discordgo"
)

// Normalize decides whether the bot should answer m and, if so, returns the
// message text with the bot's mentions removed and the session it belongs to.
// The bot answers direct messages and guild messages that mention it either
// directly or through one of its roles. An empty Text means the user only
// mentioned the bot.
func Normalize(m *discordgo.Message, botID string, botRoleIDs []string) (service.Inbound, bool) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return service.Inbound{}, false
	}

	content := strings.TrimSpace(m.Content)
	if content == "" {
		return service.Inbound{}, false
	}

	isDM := m.GuildID == ""
	mentioned := mentionsUser(m.Mentions, botID)
	roleMentioned := mentionsAnyRole(m.MentionRoles, botRoleIDs)

	if !isDM && !mentioned && !roleMentioned {
		return service.Inbound{}, false
	}

	if mentioned || roleMentioned {
		content = strings.ReplaceAll(content, "<@"+botID+">", "")
		content = strings.ReplaceAll(content, "<@!"+botID+">", "")
		for _, roleID := range m.MentionRoles {
			content = strings.ReplaceAll(content, "<@&"+roleID+">", "")
		}
		content = strings.TrimSpace(content)
	}

	return service.Inbound{SessionKey: SessionKey(m), Text: content}, true
}

// SessionKey is per user for direct messages and per channel in guilds.
func SessionKey(m *discordgo.Message) store.SessionKey {
	if m.GuildID == "" {
		return store.DirectSessionKey(m.Author.ID)
	}
	return store.ChannelSessionKey(m.ChannelID)
}

func mentionsUser(users []*discordgo.User, id string) bool {
	for _, u := range users {
		if u != nil && u.ID == id {
			return true
		}
	}
	return false
}

func mentionsAnyRole(mentioned, owned []string) bool {
	for _, r := range mentioned {
		for _, o := range owned {
			if r == o {
				return true
			}
		}
	}
	return false
}
