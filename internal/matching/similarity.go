package matching

import "strings"

const (
	exactSimilarity     = 1.0
	substringSimilarity = 0.9
)

// Similarity compares two raw titles after normalization and returns a value in [0,1].
//
// Equal normalized forms score 1.0 and containment scores 0.9. Otherwise the
// score is the number of runes of the shorter form found anywhere in the
// longer one (repeats counted), divided by the longer form's length.
func Similarity(a, b string) float64 {
	s1 := NormalizeTitle(a)
	s2 := NormalizeTitle(b)

	if s1 == s2 {
		return exactSimilarity
	}
	if strings.Contains(s1, s2) || strings.Contains(s2, s1) {
		return substringSimilarity
	}

	r1, r2 := []rune(s1), []rune(s2)
	longer, shorter := s2, r1
	longerLen := len(r2)
	if len(r1) > len(r2) {
		longer, shorter = s1, r2
		longerLen = len(r1)
	}

	if longerLen == 0 {
		return exactSimilarity
	}

	matches := 0
	for _, r := range shorter {
		if strings.ContainsRune(longer, r) {
			matches++
		}
	}

	return float64(matches) / float64(longerLen)
}
