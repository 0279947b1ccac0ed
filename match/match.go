// Package match implements the fuzzy matching engine that decides whether two
// differently-formatted track records from two catalogs describe the same
// song, and which of several search results is the best candidate. Everything
// in this package is a pure function over its arguments: no I/O, no retained
// state, safe to call from any number of goroutines.
package match

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/tunebridge/backend/catalog"
)

// Field weights. They sum to 1.0; title and artist dominate because album
// metadata is the least consistently populated field across catalogs.
const (
	weightName   = 0.4
	weightArtist = 0.4
	weightAlbum  = 0.2
)

// matchThreshold is the minimum score SelectBest will accept, and also the
// boundary below which Label marks a score as low confidence. The two checks
// are independent; they just happen to share the value.
const matchThreshold = 60

// Score computes a confidence score in [0,100] that original and candidate
// are the same song. Either side being nil yields 0. Name, artist and album
// are normalized and compared independently, then combined with the fixed
// field weights and rounded half away from zero.
func Score(original, candidate *catalog.Track) int {
	if original == nil || candidate == nil {
		return 0
	}
	nameSim := similarity(normalize(original.Name), normalize(candidate.Name))
	artistSim := similarity(normalize(original.Artist), normalize(candidate.Artist))
	albumSim := similarity(normalize(original.Album), normalize(candidate.Album))
	weighted := nameSim*weightName + artistSim*weightArtist + albumSim*weightAlbum
	return int(math.Round(weighted * 100))
}

// Label renders a score as a human-readable confidence string. It is total
// over all ints; out-of-range scores fall into the nearest bucket.
func Label(score int) string {
	switch {
	case score >= 98:
		return "Exact match"
	case score >= matchThreshold:
		return fmt.Sprintf("%d%% match", score)
	default:
		return fmt.Sprintf("%d%% match (low confidence)", score)
	}
}

// normalize lowercases s, strips every rune that is not a letter, digit or
// whitespace, and trims the result. Punctuation differences between catalogs
// ("Don't Stop" vs "Dont Stop") disappear here. Distinguishing suffixes like
// "(Remix)" lose their parentheses but keep their words.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// similarity returns the Sørensen–Dice bigram coefficient of a and b in
// [0,1]. Whitespace is removed before building bigrams so word boundaries do
// not count as overlap. Identical strings (including two empties) score 1.0;
// strings shorter than one bigram that are not identical score 0.0.
func similarity(a, b string) float64 {
	a = stripSpace(a)
	b = stripSpace(b)
	if a == b {
		return 1.0
	}
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) < 2 || len(rb) < 2 {
		return 0.0
	}
	bigrams := make(map[string]int, len(ra)-1)
	for i := 0; i < len(ra)-1; i++ {
		bigrams[string(ra[i:i+2])]++
	}
	shared := 0
	for i := 0; i < len(rb)-1; i++ {
		bg := string(rb[i : i+2])
		if bigrams[bg] > 0 {
			bigrams[bg]--
			shared++
		}
	}
	return 2.0 * float64(shared) / float64(len(ra)+len(rb)-2)
}

func stripSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
