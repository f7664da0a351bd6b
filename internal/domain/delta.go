package domain

// PredictedDelta is one row of the third-party prediction table.
type PredictedDelta struct {
	Rank   int
	Handle string
	// Delta is kept as the signed display string ("+113", "-27") the way
	// the source renders it.
	Delta string
}
