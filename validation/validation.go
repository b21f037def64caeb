// Package validation holds the input checks applied to free-text queries.
package validation

import (
	"strings"
	"unicode"
)

// IsBlank reports whether a query is empty once surrounding whitespace is removed.
func IsBlank(query string) bool {
	return strings.TrimSpace(query) == ""
}

// MaxPromptLength bounds what is forwarded to the language model.
const MaxPromptLength = 10000

var mashingPatterns = []string{"asdfghjkl", "qwertyuiop", "zxcvbnm", "asdf", "qwer", "zxcv", "hjkl"}

// IsValidPrompt is a lenient gibberish filter: it rejects text that is
// too short, too long, keyboard mashing, or dominated by repeated
// characters, digits or punctuation. Anything else passes.
func IsValidPrompt(prompt string) bool {
	trimmed := strings.TrimSpace(prompt)
	if len(trimmed) < 3 || len(trimmed) > MaxPromptLength {
		return false
	}

	words := strings.Fields(trimmed)
	if len(words) == 1 {
		return !isRepeatedCharacters(words[0])
	}

	if hasRunOfIdentical(trimmed, 4) || hasKeyboardMashing(trimmed) {
		return false
	}

	var letters, digits, punct, total int
	for _, r := range trimmed {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		default:
			punct++
		}
	}
	if ratio(letters, total) < 0.3 || ratio(digits, total) > 0.5 || ratio(punct, total) > 0.3 {
		return false
	}

	short := 0
	for _, w := range words {
		if n := len(strings.Trim(w, ".,!?;:()[]{}\"'")); n > 0 && n <= 2 {
			short++
		}
	}
	return ratio(short, len(words)) <= 0.7
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

func isRepeatedCharacters(s string) bool {
	if len(s) < 3 {
		return false
	}
	return strings.Count(s, s[:1]) == len(s)
}

func hasRunOfIdentical(s string, n int) bool {
	run := 1
	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1] {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

func hasKeyboardMashing(s string) bool {
	if len(s) >= 30 {
		return false
	}
	lower := strings.ToLower(s)
	for _, p := range mashingPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

var recordKeywords = []string{
	"report", "list ", "show ", "find ", "how many", "count ", "generate",
	"record", "records", "details", "lookup", "look up",
}

// IsRecordQuery reports whether a prompt asks for data rather than conversation.
func IsRecordQuery(prompt string) bool {
	lower := " " + strings.ToLower(strings.TrimSpace(prompt)) + " "
	for _, k := range recordKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
