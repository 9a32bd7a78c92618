package usecase

import (
	"log"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/macrolens/mealdraft/internal/domain"
)

// Scoring bonuses
const (
	brandMatchBonus     = 15.0 // a query token names the product's brand
	substringMatchBonus = 10.0 // the whole query appears in the product name
	fuzzyWeightFactor   = 0.8  // fuzzy token matches count 80% of an exact match
)

// stopWords are dropped before scoring
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "of": true, "with": true,
	"i": true, "z": true, "ze": true, "w": true, "na": true, "do": true, "bez": true,
}

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	EnableFuzzyMatching bool
	FuzzyEditDistance   int
	EnableDebugLogging  bool
}

// MatchingService orders catalogue search results by how well they match the user's query
type MatchingService struct {
	enableFuzzyMatching bool
	fuzzyEditDistance   int
	enableDebugLogging  bool
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig) *MatchingService {
	fuzzyDist := config.FuzzyEditDistance
	if fuzzyDist <= 0 {
		fuzzyDist = 1
	}
	return &MatchingService{
		enableFuzzyMatching: config.EnableFuzzyMatching,
		fuzzyEditDistance:   fuzzyDist,
		enableDebugLogging:  config.EnableDebugLogging,
	}
}

// Rank returns products ordered by descending match score. Ties keep catalogue order.
func (s *MatchingService) Rank(query string, products []domain.CatalogueProduct) []domain.CatalogueProduct {
	if len(products) < 2 {
		return products
	}

	type scored struct {
		product domain.CatalogueProduct
		score   float64
	}
	ranked := make([]scored, len(products))
	for i, p := range products {
		ranked[i] = scored{product: p, score: s.Score(query, p)}
		if s.enableDebugLogging {
			log.Printf("[Match] %q vs %q (%s): %.1f", query, p.Name, p.Brand, ranked[i].score)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	out := make([]domain.CatalogueProduct, len(ranked))
	for i, r := range ranked {
		out[i] = r.product
	}
	return out
}

// Score computes a 0-100 similarity between a query and a product. It combines
// query token coverage (60%), name token coverage (20%) and Jaccard similarity (20%),
// plus brand and substring bonuses.
func (s *MatchingService) Score(query string, product domain.CatalogueProduct) float64 {
	queryTokens := tokenize(query)
	nameTokens := tokenize(product.Name)
	if len(queryTokens) == 0 || len(nameTokens) == 0 {
		return 0
	}

	queryMatched := s.matchCount(queryTokens, nameTokens)
	queryCoverage := queryMatched / float64(len(queryTokens))

	nameMatched := s.matchCount(nameTokens, queryTokens)
	nameCoverage := nameMatched / float64(len(nameTokens))

	jaccard := queryMatched / float64(findUnion(queryTokens, nameTokens))
	if jaccard > 1 {
		jaccard = 1
	}

	score := (queryCoverage*0.60 + nameCoverage*0.20 + jaccard*0.20) * 100

	if product.Brand != "" {
		brandTokens := tokenize(product.Brand)
		if len(brandTokens) > 0 && s.matchCount(brandTokens, queryTokens) == float64(len(brandTokens)) {
			score += brandMatchBonus
		}
	}

	queryNorm := strings.Join(queryTokens, " ")
	nameNorm := strings.Join(nameTokens, " ")
	if utf8.RuneCountInString(queryNorm) > 3 && strings.Contains(nameNorm, queryNorm) {
		score += substringMatchBonus
	}

	if score > 100 {
		score = 100
	}
	return score
}

// matchCount counts tokens of from found in to. Fuzzy matches count fuzzyWeightFactor.
func (s *MatchingService) matchCount(from, to []string) float64 {
	set := make(map[string]bool, len(to))
	for _, t := range to {
		set[t] = true
	}

	var total float64
	seen := make(map[string]bool, len(from))
	for _, t := range from {
		if seen[t] {
			continue
		}
		seen[t] = true
		if set[t] {
			total++
			continue
		}
		if !s.enableFuzzyMatching {
			continue
		}
		for _, candidate := range to {
			if fuzzyTokenMatch(t, candidate, s.fuzzyEditDistance) {
				total += fuzzyWeightFactor
				break
			}
		}
	}
	return total
}

// tokenize splits a string into lowercase tokens with diacritics folded.
// Removes punctuation, stop words and pure numeric tokens.
func tokenize(s string) []string {
	cleaned := nonWordPattern.ReplaceAllString(foldDiacritics(strings.ToLower(s)), " ")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if utf8.RuneCountInString(word) <= 1 || stopWords[word] || isNumeric(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// fuzzyTokenMatch checks if two tokens are similar within the edit distance threshold.
// Polish inflection ("jogurt"/"jogurty") is the common case.
func fuzzyTokenMatch(token1, token2 string, threshold int) bool {
	if token1 == token2 {
		return true
	}

	// Only apply fuzzy matching to longer tokens to avoid false positives
	len1, len2 := utf8.RuneCountInString(token1), utf8.RuneCountInString(token2)
	if len1 < 4 || len2 < 4 {
		return false
	}

	lenDiff := len1 - len2
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > threshold {
		return false
	}

	return levenshteinDistance(token1, token2) <= threshold
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)
	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	// Use two rows instead of full matrix for space efficiency
	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

// findUnion returns the count of unique tokens across both sets
func findUnion(tokens1, tokens2 []string) int {
	set := make(map[string]bool)
	for _, t := range tokens1 {
		set[t] = true
	}
	for _, t := range tokens2 {
		set[t] = true
	}
	return len(set)
}
