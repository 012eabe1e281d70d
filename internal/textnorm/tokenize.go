package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// MinTokenLength is the shortest token, in runes, that Tokenize keeps.
const MinTokenLength = 3

// stopWords are common English words that carry no signal about what a
// page is about. Words shorter than MinTokenLength are dropped anyway and
// are not listed.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "any": {}, "can": {}, "had": {}, "her": {},
	"was": {}, "one": {}, "our": {}, "out": {}, "has": {}, "have": {},
	"this": {}, "that": {}, "with": {}, "from": {}, "they": {}, "will": {},
	"would": {}, "there": {}, "their": {}, "what": {}, "about": {}, "which": {},
	"when": {}, "make": {}, "like": {}, "just": {}, "him": {}, "his": {},
	"into": {}, "your": {}, "some": {}, "could": {}, "them": {}, "than": {},
	"then": {}, "its": {}, "also": {}, "been": {}, "were": {}, "more": {},
	"only": {}, "other": {}, "these": {}, "those": {},
}

// IsStopWord reports whether the lowercase token is in the stop-word set.
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}

// Tokenize lowercases text, splits it on anything that is not a letter,
// digit or underscore, and drops short tokens and stop words. Token order
// follows the input. The result may be empty.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	// cases.Caser is stateful, so each call gets its own.
	lower := cases.Lower(language.Und).String(text)

	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !isWordRune(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < MinTokenLength {
			continue
		}
		if IsStopWord(f) {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// NormalizeText applies NFKC, collapses every whitespace run to a single
// space and trims the ends. Two pages whose visible text differs only in
// layout whitespace normalize to the same string.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(norm.NFKC.String(text)), " ")
}
