package usecase

import (
	"log"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxQueryLength = 100

// QueryPreprocessor cleans product search queries typed or dictated by the user
type QueryPreprocessor struct {
	enableDebugLogging bool
}

var (
	// Matches quantity tokens like "200", "1,5", "150g", "0.5l", "2x"
	quantityToken = regexp.MustCompile(`^\d+(?:[.,]\d+)?(?:kg|g|gr|dag|ml|l|x)?$`)

	multiSpacePattern = regexp.MustCompile(`\s+`)

	// Anything that is neither a letter, a digit nor whitespace, in any script
	nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
)

// unitWords follow a quantity and carry no search meaning
var unitWords = map[string]bool{
	"g": true, "gr": true, "gram": true, "grams": true, "gramy": true, "gramów": true,
	"dag": true, "kg": true, "ml": true, "l": true, "litr": true, "liter": true,
	"szt": true, "sztuka": true, "sztuki": true, "sztuk": true,
	"pcs": true, "piece": true, "pieces": true, "x": true,
}

// queryNoiseWords carry no product information in spoken or typed queries
var queryNoiseWords = map[string]bool{
	"about": true, "approx": true, "around": true, "some": true,
	"około": true, "ok": true, "trochę": true, "proszę": true,
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(enableDebugLogging bool) *QueryPreprocessor {
	return &QueryPreprocessor{
		enableDebugLogging: enableDebugLogging,
	}
}

// PreprocessQuery strips quantities, units and filler words from a search query.
// A query made only of such tokens is returned trimmed rather than emptied.
func (p *QueryPreprocessor) PreprocessQuery(query string) string {
	original := query
	words := strings.Fields(query)
	kept := make([]string, 0, len(words))

	for i, word := range words {
		clean := strings.ToLower(strings.Trim(word, ",.;:!?\"'"))
		if clean == "" || quantityToken.MatchString(clean) || queryNoiseWords[clean] {
			continue
		}
		if unitWords[clean] && i > 0 && quantityToken.MatchString(strings.ToLower(words[i-1])) {
			continue
		}
		kept = append(kept, strings.Trim(word, ",;:!?"))
	}

	cleaned := strings.Join(kept, " ")
	if cleaned == "" {
		cleaned = multiSpacePattern.ReplaceAllString(strings.TrimSpace(query), " ")
	}
	cleaned = truncateQuery(cleaned)

	if p.enableDebugLogging {
		log.Printf("[Preprocess] Input: %q -> Output: %q", original, cleaned)
	}
	return cleaned
}

// truncateQuery limits the query length, cutting at a word boundary where possible
func truncateQuery(s string) string {
	if utf8.RuneCountInString(s) <= maxQueryLength {
		return s
	}
	r := []rune(s)[:maxQueryLength]
	cut := string(r)
	if lastSpace := strings.LastIndex(cut, " "); lastSpace > maxQueryLength/2 {
		cut = cut[:lastSpace]
	}
	return cut
}

// normalizeForCacheKey lowercases, folds diacritics and removes punctuation, so that
// "Jabłko", "jablko" and "jabłko!" share one cache entry.
func normalizeForCacheKey(s string) string {
	if s == "" {
		return ""
	}
	result := foldDiacritics(strings.ToLower(s))
	result = nonWordPattern.ReplaceAllString(result, "")
	result = multiSpacePattern.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// foldDiacritics maps accented letters to their base letter ("żółć" -> "zolc").
func foldDiacritics(s string) string {
	// transform chains keep state and cannot be shared between goroutines
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	// ł has no decomposition
	return strings.NewReplacer("ł", "l", "Ł", "L").Replace(folded)
}
