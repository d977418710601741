package utils

// DiscordMessageLimit is the per-message character cap on the chat platform.
const DiscordMessageLimit = 2000

// ChunkText splits text into consecutive pieces of at most size runes.
// It is a pure positional split: no word or line boundary handling, and
// concatenating the chunks yields the input. An empty string yields no chunks.
func ChunkText(text string, size int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		return []string{text}
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

// Truncate keeps the first n runes of text and appends "..." when anything
// was cut.
func Truncate(text string, n int) string {
	runes := []rune(text)
	if n < 0 || len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
