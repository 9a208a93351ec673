package vector

import (
	"fmt"
	"math"
)

// MMR selects up to k candidates by maximal marginal relevance and returns
// their indices in selection order. The first pick is the candidate most
// similar to query; each later pick maximizes
//
//	lambda*sim(query, c) - (1-lambda)*max(sim(c, s) for s already selected)
//
// lambda=1 ranks purely by relevance, lambda=0 purely by diversity.
// Ties go to the earlier candidate.
func MMR(query []float32, candidates [][]float32, k int, lambda float64) []int {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	relevance := make([]float64, len(candidates))
	best := 0
	for i, c := range candidates {
		relevance[i] = Cosine(query, c)
		if relevance[i] > relevance[best] {
			best = i
		}
	}

	selected := make([]int, 0, k)
	selected = append(selected, best)
	// redundancy[i] is the max similarity of candidate i to any selected candidate
	redundancy := make([]float64, len(candidates))
	for i := range redundancy {
		redundancy[i] = math.Inf(-1)
	}
	taken := make([]bool, len(candidates))
	taken[best] = true

	for len(selected) < k {
		last := candidates[selected[len(selected)-1]]
		next, nextScore := -1, math.Inf(-1)
		for i, c := range candidates {
			if taken[i] {
				continue
			}
			if s := Cosine(c, last); s > redundancy[i] {
				redundancy[i] = s
			}
			score := lambda*relevance[i] - (1-lambda)*redundancy[i]
			if score > nextScore {
				next, nextScore = i, score
			}
		}
		if next < 0 {
			break
		}
		taken[next] = true
		selected = append(selected, next)
	}
	return selected
}

// ValidateMMR checks retrieval parameters: k >= 1, fetchK >= k and lambda in [0, 1].
func ValidateMMR(k, fetchK int, lambda float64) error {
	if k < 1 {
		return fmt.Errorf("k must be at least 1, got %d", k)
	}
	if fetchK < k {
		return fmt.Errorf("fetch_k (%d) must not be less than k (%d)", fetchK, k)
	}
	if lambda < 0 || lambda > 1 || math.IsNaN(lambda) {
		return fmt.Errorf("lambda must be within [0, 1], got %v", lambda)
	}
	return nil
}
