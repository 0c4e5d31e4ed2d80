package prompts

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxPromptLength     = 5000
	MaxPlayerNameLength = 50
	MinChaosLevel       = 1
	MaxChaosLevel       = 10
)

var (
	scriptPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<script[^>]*>`),
		regexp.MustCompile(`(?i)javascript:`),
		regexp.MustCompile(`(?i)on\w+\s*=`),
		regexp.MustCompile(`(?i)<iframe[^>]*>`),
		regexp.MustCompile(`(?i)<object[^>]*>`),
		regexp.MustCompile(`(?i)<embed[^>]*>`),
	}
	whitespace        = regexp.MustCompile(`\s+`)
	playerNamePattern = regexp.MustCompile(`^[a-zA-Z0-9\s.\-_']+$`)
)

var ErrInvalidPlayerName = errors.New("invalid player name")

// Sanitize truncates text, strips script-injection patterns and collapses
// whitespace.
func Sanitize(text string) string {
	if len(text) > MaxPromptLength {
		text = text[:MaxPromptLength]
		for !utf8.ValidString(text) {
			text = text[:len(text)-1]
		}
	}
	for _, p := range scriptPatterns {
		text = p.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

// ValidatePlayerName trims name and checks its length and character set.
func ValidatePlayerName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		return "", errors.Join(ErrInvalidPlayerName, errors.New("name is empty"))
	case n > MaxPlayerNameLength:
		return "", errors.Join(ErrInvalidPlayerName, errors.New("name is too long"))
	}
	if !playerNamePattern.MatchString(name) {
		return "", errors.Join(ErrInvalidPlayerName, errors.New("name contains unsupported characters"))
	}
	for _, p := range scriptPatterns {
		if p.MatchString(name) {
			return "", errors.Join(ErrInvalidPlayerName, errors.New("name contains unsafe content"))
		}
	}
	return name, nil
}
