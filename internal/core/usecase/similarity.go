package usecase

import (
	"sort"
	"strings"

	"github.com/alizenart/closeted/internal/core/domain"
)

// RecommendationThreshold is the minimum score a non-top candidate needs to be kept.
const RecommendationThreshold = 20.0

type Scored[T any] struct {
	Item  T
	Score float64
}

// Score compares two tag sets field by field and returns a percentage in [0,100].
// Fields empty on either side are ignored; no comparable field scores 0.
func Score(candidate, reference domain.ClothingAnalysis) float64 {
	pairs := [4][2]string{
		{candidate.Outerwear, reference.Outerwear},
		{candidate.Top, reference.Top},
		{candidate.Bottom, reference.Bottom},
		{candidate.Shoes, reference.Shoes},
	}

	var sum float64
	compared := 0
	for _, pair := range pairs {
		left := tokenize(pair[0])
		right := tokenize(pair[1])
		if len(left) == 0 || len(right) == 0 {
			continue
		}
		sum += fieldRatio(left, right)
		compared++
	}
	if compared == 0 {
		return 0
	}
	return sum / float64(compared) * 100
}

// Rank orders candidates by descending score and keeps those at or above the
// threshold. The best candidate is always kept.
func Rank[T any](candidates []T, analysisOf func(T) domain.ClothingAnalysis, reference domain.ClothingAnalysis) []Scored[T] {
	scored := make([]Scored[T], 0, len(candidates))
	for _, candidate := range candidates {
		scored = append(scored, Scored[T]{Item: candidate, Score: Score(analysisOf(candidate), reference)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	out := make([]Scored[T], 0, len(scored))
	for i, item := range scored {
		if i == 0 || item.Score >= RecommendationThreshold {
			out = append(out, item)
		}
	}
	return out
}

// fieldRatio is the share of tokens of the shorter side that overlap, by
// substring in either direction, some token of the other side.
func fieldRatio(left, right []string) float64 {
	shorter, other := left, right
	if len(right) < len(left) {
		shorter, other = right, left
	}

	matched := 0
	for _, token := range shorter {
		for _, candidate := range other {
			if strings.Contains(candidate, token) || strings.Contains(token, candidate) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(shorter))
}

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}
