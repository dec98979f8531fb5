package usecase

import "math"

// Word-count bands: short queries are lexically ambiguous so the bar is
// lowered, long specific queries justify a stricter one.
const (
	shortQueryWords = 2
	longQueryWords  = 6

	shortQuerySlack  = 0.5
	longQueryTighten = 0.3

	thresholdFloorRatio   = 0.3
	thresholdCeilingRatio = 0.9
)

// dynamicThreshold converts a raw score distribution into an adaptive
// relevance cutoff. The result always stays within
// [0.3*max, 0.9*max] so the best hit survives and near-irrelevant tails
// do not.
func dynamicThreshold(scores []float64, queryWordCount int) float64 {
	if len(scores) == 0 {
		return 0
	}

	mean, maxScore := meanAndMax(scores)
	stdDev := sampleStdDev(scores, mean)

	threshold := mean
	switch {
	case queryWordCount <= shortQueryWords:
		threshold = mean - shortQuerySlack*stdDev
	case queryWordCount >= longQueryWords:
		threshold = mean + longQueryTighten*stdDev
	}

	floor := thresholdFloorRatio * maxScore
	ceiling := thresholdCeilingRatio * maxScore
	if threshold < floor {
		return floor
	}
	if threshold > ceiling {
		return ceiling
	}
	return threshold
}

func meanAndMax(scores []float64) (float64, float64) {
	sum := 0.0
	maxScore := scores[0]
	for _, s := range scores {
		sum += s
		if s > maxScore {
			maxScore = s
		}
	}
	return sum / float64(len(scores)), maxScore
}

func sampleStdDev(scores []float64, mean float64) float64 {
	if len(scores) < 2 {
		return 0
	}
	sumSq := 0.0
	for _, s := range scores {
		d := s - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(scores)-1))
}
