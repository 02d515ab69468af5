// Package matching finds the catalog entry that best fits a user-typed title.
package matching

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// Generic collection words, English plus the pt/es forms users type.
	prefixPattern = regexp.MustCompile(`^(?:saga|trilogy|trilogia|series|serie)\s+`)

	sequelPattern = regexp.MustCompile(`\s+\d+$`)

	subtitleSeparators = []string{":", " - ", " – ", " — "}
)

// NormalizeTitle folds a raw title into a form suitable for loose comparison:
// lowercase, accents removed, a leading collection word and trailing subtitle
// or sequel number stripped, punctuation dropped.
//
// The pipeline is re-run until the output stops changing, so the result is
// always a fixed point (NormalizeTitle(NormalizeTitle(s)) == NormalizeTitle(s)).
func NormalizeTitle(raw string) string {
	s := raw
	for {
		next := normalizePass(s)
		if next == s {
			return next
		}
		s = next
	}
}

func normalizePass(s string) string {
	s = strings.ToLower(s)
	s = removeAccents(s)
	s = prefixPattern.ReplaceAllString(s, "")
	s = stripSubtitle(s)
	s = sequelPattern.ReplaceAllString(s, "")
	s = stripPunctuation(s)
	return strings.TrimSpace(s)
}

func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// stripSubtitle cuts s at the earliest colon or spaced dash.
func stripSubtitle(s string) string {
	cut := -1
	for _, sep := range subtitleSeparators {
		if i := strings.Index(s, sep); i >= 0 && (cut < 0 || i < cut) {
			cut = i
		}
	}
	if cut < 0 {
		return s
	}
	return strings.TrimRightFunc(s[:cut], unicode.IsSpace)
}

func stripPunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// QueryVariants returns the distinct, non-empty search phrasings for a title,
// in order: the raw title, its normalized form, the part before the first
// colon and the part before the first " - ".
func QueryVariants(title string) []string {
	beforeColon, _, _ := strings.Cut(title, ":")
	beforeDash, _, _ := strings.Cut(title, " - ")

	candidates := []string{title, NormalizeTitle(title), beforeColon, beforeDash}

	variants := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, q := range candidates {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		variants = append(variants, q)
	}
	return variants
}
