// Package conversation holds the text heuristics the chat loop relies on.
// Everything here is pure so the heuristics can be tuned without touching
// the orchestration.
package conversation

import (
	"regexp"
	"strings"
)

// MinPhoneDigits is the shortest digit run taken as a phone number.
const MinPhoneDigits = 6

var (
	digitRun = regexp.MustCompile(`\d+`)

	namePrefix = regexp.MustCompile(`(?i)(mi nombre es|me llamo)`)
	nameStop   = regexp.MustCompile(`(?i)[,.;!?]|\s+(y|con)\s+|\s+el tel[eé]fono|\s+mi tel[eé]fono`)
)

// ConfirmationPhrases mark an assistant reply that closes the reservation.
var ConfirmationPhrases = []string{
	"realizo la reserva",
	"quedamos así",
	"reserva confirmada",
	"reservado",
	"confirmada",
}

// IsExitCommand reports whether the user asked to leave.
func IsExitCommand(input string) bool {
	s := strings.ToLower(strings.TrimSpace(input))
	return s == "salir" || s == "exit"
}

// MentionsPhone reports whether the text talks about a phone number.
func MentionsPhone(text string) bool {
	s := strings.ToLower(text)
	return strings.Contains(s, "teléfono") || strings.Contains(s, "telefono")
}

// LooksLikePhoneInput is the gate used before trying ExtractPhone.
func LooksLikePhoneInput(input string) bool {
	return MentionsPhone(input) || ExtractPhone(input) != ""
}

// ExtractPhone returns the longest run of digits when it is at least
// MinPhoneDigits long, and "" otherwise.
func ExtractPhone(input string) string {
	longest := ""
	for _, m := range digitRun.FindAllString(input, -1) {
		if len(m) > len(longest) {
			longest = m
		}
	}
	if len(longest) < MinPhoneDigits {
		return ""
	}
	return longest
}

// ExtractName reads a name introduced with "mi nombre es" or "me llamo".
// It returns "" when neither phrase is present.
func ExtractName(input string) string {
	loc := namePrefix.FindStringIndex(input)
	if loc == nil {
		return ""
	}
	rest := input[loc[1]:]
	if stop := nameStop.FindStringIndex(rest); stop != nil {
		rest = rest[:stop[0]]
	}
	return strings.TrimSpace(rest)
}

// IsConfirmation reports whether an assistant reply signals a closed reservation.
func IsConfirmation(reply string) bool {
	s := strings.ToLower(reply)
	for _, p := range ConfirmationPhrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
