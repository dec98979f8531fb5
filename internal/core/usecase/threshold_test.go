package usecase

import "testing"

func TestDynamicThresholdEmptyScores(t *testing.T) {
	if got := dynamicThreshold(nil, 4); got != 0 {
		t.Fatalf("expected 0 for empty scores, got %f", got)
	}
}

func TestDynamicThresholdStaysWithinBounds(t *testing.T) {
	cases := [][]float64{
		{0.9, 0.8, 0.7, 0.2, 0.1},
		{0.5},
		{0.99, 0.98, 0.97},
		{0.1, 0.1, 0.1, 0.1},
		{1.0, 0.05},
	}
	for _, scores := range cases {
		for _, words := range []int{1, 4, 8} {
			threshold := dynamicThreshold(scores, words)
			_, maxScore := meanAndMax(scores)
			if threshold < 0.3*maxScore || threshold > 0.9*maxScore {
				t.Fatalf("threshold %f out of [%f, %f] for scores=%v words=%d",
					threshold, 0.3*maxScore, 0.9*maxScore, scores, words)
			}
		}
	}
}

func TestDynamicThresholdQueryLengthMonotonic(t *testing.T) {
	scores := []float64{0.9, 0.7, 0.6, 0.5, 0.3}

	short := dynamicThreshold(scores, 1)
	medium := dynamicThreshold(scores, 4)
	long := dynamicThreshold(scores, 8)

	if short > medium {
		t.Fatalf("1-word threshold %f exceeds 4-word threshold %f", short, medium)
	}
	if medium > long {
		t.Fatalf("4-word threshold %f exceeds 8-word threshold %f", medium, long)
	}
}

func TestDynamicThresholdSingleScoreUsesClamp(t *testing.T) {
	threshold := dynamicThreshold([]float64{0.8}, 4)
	// stddev is 0 for one sample, so the mean is clamped only by the max.
	if threshold < 0.3*0.8 || threshold > 0.9*0.8 {
		t.Fatalf("unexpected threshold for single score: %f", threshold)
	}
}
