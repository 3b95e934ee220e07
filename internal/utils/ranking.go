package utils

import (
	"math"
	"time"
)

type RankConfig struct {
	Gravity       float64 // age decay exponent
	WeightView    float64
	WeightLike    float64
	WeightRequest float64
	ScaleFactor   float64
}

var DefaultConfig = RankConfig{
	Gravity:       1.2,
	WeightView:    0.05,
	WeightLike:    1.0,
	WeightRequest: 3.0,
	ScaleFactor:   100.0,
}

// PopularityScore ranks listings by interest, decayed by age in hours.
func PopularityScore(createdAt time.Time, views, likes, requests int) float64 {
	return popularityAt(createdAt, time.Now(), views, likes, requests)
}

func popularityAt(createdAt, now time.Time, views, likes, requests int) float64 {
	hours := now.Sub(createdAt).Hours()
	if hours < 0 {
		hours = 0
	}

	weightedSum := float64(views)*DefaultConfig.WeightView +
		float64(likes)*DefaultConfig.WeightLike +
		float64(requests)*DefaultConfig.WeightRequest
	if weightedSum < 0 {
		weightedSum = 0
	}

	// log10(sum + 1) keeps a fresh listing with no interest at 0
	numerator := math.Log10(weightedSum+1) * DefaultConfig.ScaleFactor
	decay := math.Pow(hours+2, DefaultConfig.Gravity)

	return numerator / decay
}
