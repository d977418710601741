package store

// SessionKey identifies one dialogue context: a direct conversation with a
// user or a group channel.
type SessionKey string

// Turn is one immutable message in a session's history.
type Turn struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	// MaxHistory caps the turns kept per session, and with it the context sent
	// to the language model.
	MaxHistory = 50
)

// DirectSessionKey is the key for a direct conversation with userID.
func DirectSessionKey(userID string) SessionKey {
	return SessionKey("dm_" + userID)
}

// ChannelSessionKey is the key for a group channel.
func ChannelSessionKey(channelID string) SessionKey {
	return SessionKey("channel_" + channelID)
}
