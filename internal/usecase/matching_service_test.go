package usecase

import (
	"testing"

	"github.com/macrolens/mealdraft/internal/domain"
)

func names(products []domain.CatalogueProduct) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

func TestNewMatchingService(t *testing.T) {
	t.Run("uses default edit distance when zero", func(t *testing.T) {
		svc := NewMatchingService(MatchConfig{})
		if svc.fuzzyEditDistance != 1 {
			t.Errorf("fuzzyEditDistance = %v, want 1 (default)", svc.fuzzyEditDistance)
		}
	})

	t.Run("keeps provided edit distance", func(t *testing.T) {
		svc := NewMatchingService(MatchConfig{FuzzyEditDistance: 2})
		if svc.fuzzyEditDistance != 2 {
			t.Errorf("fuzzyEditDistance = %v, want 2", svc.fuzzyEditDistance)
		}
	})
}

func TestRank(t *testing.T) {
	svc := NewMatchingService(MatchConfig{})

	t.Run("best match first", func(t *testing.T) {
		products := []domain.CatalogueProduct{
			{Name: "Sok jabłkowy"},
			{Name: "Jogurt grecki"},
			{Name: "Jogurt naturalny", Brand: "Piątnica"},
		}
		got := names(svc.Rank("jogurt naturalny", products))
		want := []string{"Jogurt naturalny", "Jogurt grecki", "Sok jabłkowy"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("Rank = %v, want %v", got, want)
			}
		}
	})

	t.Run("ties keep catalogue order", func(t *testing.T) {
		products := []domain.CatalogueProduct{{Name: "Chleb"}, {Name: "Masło"}, {Name: "Ser"}}
		got := names(svc.Rank("pomidor", products))
		if got[0] != "Chleb" || got[1] != "Masło" || got[2] != "Ser" {
			t.Errorf("Rank = %v, want catalogue order", got)
		}
	})

	t.Run("does not modify input", func(t *testing.T) {
		products := []domain.CatalogueProduct{{Name: "Ser"}, {Name: "Ser żółty"}}
		svc.Rank("ser żółty", products)
		if products[0].Name != "Ser" {
			t.Errorf("input reordered: %v", names(products))
		}
	})

	t.Run("single product returned as is", func(t *testing.T) {
		products := []domain.CatalogueProduct{{Name: "Ser"}}
		if got := svc.Rank("x", products); len(got) != 1 {
			t.Errorf("len = %d, want 1", len(got))
		}
	})
}

func TestScore(t *testing.T) {
	svc := NewMatchingService(MatchConfig{})

	t.Run("exact name scores full coverage plus substring bonus", func(t *testing.T) {
		score := svc.Score("jogurt naturalny", domain.CatalogueProduct{Name: "Jogurt naturalny"})
		if score != 100 {
			t.Errorf("score = %v, want 100", score)
		}
	})

	t.Run("diacritics are folded", func(t *testing.T) {
		a := svc.Score("jablko", domain.CatalogueProduct{Name: "Jabłko"})
		b := svc.Score("jabłko", domain.CatalogueProduct{Name: "Jabłko"})
		if a != b || a == 0 {
			t.Errorf("scores = %v and %v, want equal and positive", a, b)
		}
	})

	t.Run("brand in query adds bonus", func(t *testing.T) {
		with := svc.Score("jogurt piatnica", domain.CatalogueProduct{Name: "Jogurt naturalny", Brand: "Piątnica"})
		without := svc.Score("jogurt piatnica", domain.CatalogueProduct{Name: "Jogurt naturalny"})
		if with <= without {
			t.Errorf("with brand = %v, without = %v, want bonus", with, without)
		}
	})

	t.Run("no overlap scores zero", func(t *testing.T) {
		if score := svc.Score("kawa", domain.CatalogueProduct{Name: "Herbata"}); score != 0 {
			t.Errorf("score = %v, want 0", score)
		}
	})

	t.Run("empty query scores zero", func(t *testing.T) {
		if score := svc.Score("", domain.CatalogueProduct{Name: "Herbata"}); score != 0 {
			t.Errorf("score = %v, want 0", score)
		}
	})
}

func TestScore_FuzzyMatching(t *testing.T) {
	product := domain.CatalogueProduct{Name: "Jogurt"}

	strict := NewMatchingService(MatchConfig{}).Score("jogurty", product)
	fuzzy := NewMatchingService(MatchConfig{EnableFuzzyMatching: true}).Score("jogurty", product)

	if strict != 0 {
		t.Errorf("strict score = %v, want 0", strict)
	}
	if fuzzy <= 0 {
		t.Errorf("fuzzy score = %v, want > 0", fuzzy)
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("Pierś z kurczaka, 200 g (bez skóry)")
	want := []string{"piers", "kurczaka", "skory"}
	if len(got) != len(want) {
		t.Fatalf("tokenize = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLevenshteinDistance(t *testing.T) {
	testCases := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"jogurt", "jogurty", 1},
		{"żółw", "zolw", 3},
	}
	for _, tc := range testCases {
		if got := levenshteinDistance(tc.a, tc.b); got != tc.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestFuzzyTokenMatch(t *testing.T) {
	if !fuzzyTokenMatch("jogurt", "jogurty", 1) {
		t.Error("expected jogurt ~ jogurty")
	}
	if fuzzyTokenMatch("ser", "sery", 1) {
		t.Error("short tokens must not fuzzy match")
	}
	if fuzzyTokenMatch("banana", "bananowy", 1) {
		t.Error("length difference beyond threshold must not match")
	}
}
