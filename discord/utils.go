package discord

// Discord の通常メッセージの最大文字数
const maxMessageLength = 2000

// splitMessage cuts text into chunks of at most maxMessageLength runes,
// breaking after the last newline in a chunk when there is one.
func splitMessage(text string) []string {
	var chunks []string

	runes := []rune(text)
	for len(runes) > maxMessageLength {
		end := maxMessageLength
		if i := lastNewline(runes[:end]); i > 0 {
			end = i + 1
		}
		chunks = append(chunks, string(runes[:end]))
		runes = runes[end:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

func lastNewline(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == '\n' {
			return i
		}
	}
	return -1
}
