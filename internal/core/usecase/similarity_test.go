package usecase

import (
	"testing"

	"github.com/alizenart/closeted/internal/core/domain"
)

func TestScoreIdenticalFullAnalysisIsHundred(t *testing.T) {
	a := domain.ClothingAnalysis{
		Outerwear: "black leather jacket",
		Top:       "white cotton tee",
		Bottom:    "blue slim jeans",
		Shoes:     "white sneakers",
	}
	if got := Score(a, a); got != 100 {
		t.Fatalf("expected 100, got %v", got)
	}
}

func TestScoreWithoutComparableFieldsIsZero(t *testing.T) {
	cases := []struct {
		name      string
		candidate domain.ClothingAnalysis
		reference domain.ClothingAnalysis
	}{
		{name: "both empty"},
		{name: "candidate empty", reference: domain.ClothingAnalysis{Top: "tee"}},
		{name: "disjoint fields", candidate: domain.ClothingAnalysis{Top: "tee"}, reference: domain.ClothingAnalysis{Shoes: "boots"}},
		{name: "whitespace only", candidate: domain.ClothingAnalysis{Top: "   "}, reference: domain.ClothingAnalysis{Top: "tee"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Score(tc.candidate, tc.reference); got != 0 {
				t.Fatalf("expected 0, got %v", got)
			}
		})
	}
}

func TestScoreSharedTokenGivesPartialMatch(t *testing.T) {
	a := domain.ClothingAnalysis{Top: "white cotton tee"}
	b := domain.ClothingAnalysis{Top: "white t-shirt"}

	got := Score(a, b)
	if got <= 0 || got >= 100 {
		t.Fatalf("expected partial similarity, got %v", got)
	}
	if got != 50 {
		t.Fatalf("expected one of two tokens to match, got %v", got)
	}
}

func TestScoreIsCaseInsensitiveAndMatchesSubstrings(t *testing.T) {
	a := domain.ClothingAnalysis{Shoes: "Sneakers"}
	b := domain.ClothingAnalysis{Shoes: "white sneaker"}
	if got := Score(a, b); got != 100 {
		t.Fatalf("expected substring match to count, got %v", got)
	}
}

func TestScoreStaysWithinBounds(t *testing.T) {
	inputs := []domain.ClothingAnalysis{
		{},
		{Top: "tee"},
		{Top: "white tee", Bottom: "jeans"},
		{Outerwear: "coat", Top: "knit sweater", Bottom: "wool trousers", Shoes: "loafers"},
		{Outerwear: "a b c d e f", Shoes: "x"},
	}
	for _, a := range inputs {
		for _, b := range inputs {
			got := Score(a, b)
			if got < 0 || got > 100 {
				t.Fatalf("score(%+v, %+v) = %v out of bounds", a, b, got)
			}
		}
	}
}

func TestRankKeepsBestCandidateBelowThreshold(t *testing.T) {
	reference := domain.ClothingAnalysis{Top: "red silk blouse", Bottom: "pleated skirt"}
	candidates := []domain.ClothingAnalysis{
		{Top: "green hoodie"},
		{Top: "grey silk tank top polo shirt", Bottom: "cargo"},
		{},
	}

	ranked := Rank(candidates, func(a domain.ClothingAnalysis) domain.ClothingAnalysis { return a }, reference)
	if len(ranked) != 1 {
		t.Fatalf("expected exactly the top candidate, got %+v", ranked)
	}
	if ranked[0].Item.Top != "grey silk tank top polo shirt" {
		t.Fatalf("expected best candidate first, got %+v", ranked[0])
	}
	if ranked[0].Score >= RecommendationThreshold {
		t.Fatalf("fixture must stay below threshold, got %v", ranked[0].Score)
	}
}

func TestRankOrdersDescendingAndFiltersByThreshold(t *testing.T) {
	reference := domain.ClothingAnalysis{Top: "white tee", Shoes: "white sneakers"}
	candidates := []domain.ClothingAnalysis{
		{Top: "black turtleneck"},
		{Top: "white tee", Shoes: "white sneakers"},
		{Top: "white linen shirt"},
	}

	ranked := Rank(candidates, func(a domain.ClothingAnalysis) domain.ClothingAnalysis { return a }, reference)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 candidates above threshold, got %+v", ranked)
	}
	if ranked[0].Score != 100 || ranked[1].Item.Top != "white linen shirt" {
		t.Fatalf("unexpected order: %+v", ranked)
	}
}

func TestRankEmptyCandidates(t *testing.T) {
	ranked := Rank(nil, func(a domain.ClothingAnalysis) domain.ClothingAnalysis { return a }, domain.ClothingAnalysis{Top: "tee"})
	if len(ranked) != 0 {
		t.Fatalf("expected empty ranking, got %+v", ranked)
	}
}
