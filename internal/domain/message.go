package domain

import (
	"strings"
	"unicode/utf8"
)

const MaxMessageLen = 1000

// NormalizeMessage trims a chat message and reports whether it may be sent.
func NormalizeMessage(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > MaxMessageLen {
		return "", false
	}
	return text, true
}
