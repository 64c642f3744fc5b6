package similarity

import (
	"fmt"
	"math"
	"sort"
)

// ValidateThreshold rejects thresholds outside [0, 1].
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}
	return nil
}

// Verify compares probe against a single reference embedding.
// A score equal to the threshold is a match.
func Verify(probe, reference Embedding, threshold float64) (VerifyResult, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return VerifyResult{}, err
	}

	score, err := Similarity(probe, reference)
	if err != nil {
		return VerifyResult{}, err
	}

	return VerifyResult{
		IsMatch: score >= threshold,
		Score:   score,
	}, nil
}

// BestOf returns the highest similarity between probe and any of refs.
// ok is false when refs is empty.
func BestOf(probe Embedding, refs []Embedding) (best float64, ok bool, err error) {
	for _, ref := range refs {
		score, err := Similarity(probe, ref)
		if err != nil {
			return 0, false, err
		}
		if !ok || score > best {
			best = score
			ok = true
		}
	}
	return best, ok, nil
}

// Rank scores every identity in the gallery by its best embedding and returns
// them ordered by score descending, ties by label ascending. A k of zero or
// less returns every identity. Labels without embeddings are skipped.
func Rank(probe Embedding, gallery Gallery, k int) ([]Candidate, error) {
	labels := make([]string, 0, len(gallery))
	for label := range gallery {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	candidates := make([]Candidate, 0, len(labels))
	for _, label := range labels {
		best, ok, err := BestOf(probe, gallery[label])
		if err != nil {
			return nil, fmt.Errorf("identity %q: %w", label, err)
		}
		if !ok {
			continue
		}
		candidates = append(candidates, Candidate{Label: label, Score: best})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Label < candidates[j].Label
	})

	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}

	return candidates, nil
}

// Identify finds the identity in the gallery closest to probe. The winner is
// only accepted when its best score reaches threshold; otherwise the result is
// StatusUnknown carrying the best score seen.
func Identify(probe Embedding, gallery Gallery, threshold float64) (IdentifyResult, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return IdentifyResult{}, err
	}

	ranked, err := Rank(probe, gallery, 1)
	if err != nil {
		return IdentifyResult{}, err
	}

	if len(ranked) == 0 {
		return IdentifyResult{Status: StatusUnknown}, nil
	}

	top := ranked[0]
	if top.Score < threshold {
		best := top.Score
		return IdentifyResult{
			Status:    StatusUnknown,
			Score:     top.Score,
			BestScore: &best,
		}, nil
	}

	return IdentifyResult{
		Status: StatusRecognized,
		Label:  top.Label,
		Score:  top.Score,
	}, nil
}
