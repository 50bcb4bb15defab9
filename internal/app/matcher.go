package app

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// DefaultSimilarityThreshold flags explanation tokens this close to the secret word.
const DefaultSimilarityThreshold = 0.75

// minViolationRunes exempts short tokens from the near-duplicate check.
const minViolationRunes = 4

var folder = cases.Fold()

// NormalizeText case-folds s and maps ё to е.
func NormalizeText(s string) string {
	return strings.ReplaceAll(folder.String(strings.TrimSpace(s)), "ё", "е")
}

// Tokenize splits s into word tokens: runs of letters, digits and underscores.
func Tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !isWordRune(r)
	})
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.Is(unicode.Mn, r)
}

// stripNonWord drops every rune that is neither a word rune nor whitespace,
// so "диван-кровать!" becomes "диванкровать".
func stripNonWord(s string) string {
	return strings.Map(func(r rune) rune {
		if isWordRune(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
}

// IsGuessed reports whether message names target, either as the whole message or as one of its tokens.
// Punctuation inside a word is ignored on both sides.
func IsGuessed(message, target string) bool {
	if message == "" || target == "" {
		return false
	}
	msg := NormalizeText(message)
	want := NormalizeText(target)
	if msg == want {
		return true
	}
	compactWant := strings.TrimSpace(stripNonWord(want))
	if compactWant == "" {
		return false
	}
	for _, field := range strings.Fields(stripNonWord(msg)) {
		if field == compactWant {
			return true
		}
	}
	for _, tok := range Tokenize(msg) {
		if tok == want {
			return true
		}
	}
	return false
}

// IsSingleToken reports whether text is exactly one word once punctuation and emoji are dropped.
// Non-word runes are removed before splitting on whitespace, so hyphenated words stay whole.
func IsSingleToken(text string) bool {
	return len(strings.Fields(stripNonWord(text))) == 1
}

// Similarity returns 1 - editDistance/maxLen over runes of the normalized inputs.
func Similarity(a, b string) float64 {
	a, b = NormalizeText(a), NormalizeText(b)
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
}

// ContainsViolation reports whether any explanation contains a token of four or more
// letters whose similarity to word reaches threshold.
func ContainsViolation(explanations []string, word string, threshold float64) bool {
	word = NormalizeText(word)
	if utf8.RuneCountInString(word) < minViolationRunes {
		return false
	}
	for _, text := range explanations {
		for _, tok := range Tokenize(NormalizeText(text)) {
			if utf8.RuneCountInString(tok) < minViolationRunes {
				continue
			}
			if Similarity(tok, word) >= threshold {
				return true
			}
		}
	}
	return false
}

// CountWords is the total token count across explanations.
func CountWords(explanations []string) int {
	n := 0
	for _, text := range explanations {
		n += len(Tokenize(text))
	}
	return n
}
