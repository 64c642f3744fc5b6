package similarity

import (
	"fmt"
	"math"
)

// Similarity returns the cosine similarity of a and b: 1 for identical
// direction, 0 for orthogonal, -1 for opposite.
//
// Each vector is divided by its largest absolute component before the sums
// are taken, so components near the float64 limits neither overflow nor
// underflow.
func Similarity(a, b Embedding) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	scaleA, err := maxAbs(a)
	if err != nil {
		return 0, err
	}
	scaleB, err := maxAbs(b)
	if err != nil {
		return 0, err
	}

	var dot, normA, normB float64
	for i := range a {
		x := a[i] / scaleA
		y := b[i] / scaleB
		dot += x * y
		normA += x * x
		normB += y * y
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if !finite(score) {
		return 0, fmt.Errorf("%w: score is not finite", ErrDegenerateVector)
	}

	return clamp(score), nil
}

// Normalize returns a unit-length copy of e.
func Normalize(e Embedding) (Embedding, error) {
	scale, err := maxAbs(e)
	if err != nil {
		return nil, err
	}

	var norm float64
	for _, v := range e {
		x := v / scale
		norm += x * x
	}
	norm = math.Sqrt(norm)

	normalized := make(Embedding, len(e))
	for i, v := range e {
		normalized[i] = v / scale / norm
	}

	return normalized, nil
}

// EuclideanDistance returns the L2 distance between a and b.
// Lower is closer; it is not bounded and does not feed any threshold decision.
func EuclideanDistance(a, b Embedding) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	diff := make([]float64, len(a))
	var scale float64
	for i := range a {
		diff[i] = a[i] - b[i]
		if d := math.Abs(diff[i]); d > scale {
			scale = d
		}
	}
	if scale == 0 || math.IsInf(scale, 0) {
		return scale, nil
	}

	var sum float64
	for _, d := range diff {
		x := d / scale
		sum += x * x
	}

	return scale * math.Sqrt(sum), nil
}

// Validate checks that e can take part in a cosine comparison.
func Validate(e Embedding) error {
	_, err := Normalize(e)
	return err
}

// maxAbs returns the largest absolute component of e, rejecting vectors
// without a direction.
func maxAbs(e Embedding) (float64, error) {
	if len(e) == 0 {
		return 0, fmt.Errorf("%w: empty embedding", ErrDegenerateVector)
	}

	var m float64
	for i, v := range e {
		if !finite(v) {
			return 0, fmt.Errorf("%w: non-finite component at index %d", ErrDegenerateVector, i)
		}
		if abs := math.Abs(v); abs > m {
			m = abs
		}
	}
	if m == 0 {
		return 0, fmt.Errorf("%w: zero norm", ErrDegenerateVector)
	}

	return m, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// clamp keeps rounding error from pushing scores outside [-1, 1].
func clamp(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
