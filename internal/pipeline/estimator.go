package pipeline

import "math"

// Estimator produces a continuously refined total-duration estimate for a
// run, in whole seconds.
type Estimator struct {
	// RatePerChar is the seeded seconds of processing per source character.
	// An empirical guess for one model's latency; tune it per deployment.
	RatePerChar float64
	// Floor is the minimum seed estimate in seconds.
	Floor int
}

// Seed estimates total duration before any chunk has completed, from the
// document length alone.
func (e Estimator) Seed(docChars int) int {
	est := int(math.Ceil(float64(docChars) * e.RatePerChar))
	if est < e.Floor {
		est = e.Floor
	}
	return est
}

// Update recomputes the total estimate after a batch completes:
// time already spent, plus the observed average per remaining unit, plus an
// overhead allowance (in units of average chunk time) for the unmeasured
// consolidation and polishing stages. Never negative; it may drop below a
// previous estimate as real throughput is observed.
func (e Estimator) Update(elapsedSeconds float64, done, total int, overheadFactor float64) int {
	if done <= 0 {
		return e.Floor
	}
	avg := elapsedSeconds / float64(done)
	remaining := float64(total - done)
	if remaining < 0 {
		remaining = 0
	}
	est := int(math.Ceil(elapsedSeconds + avg*remaining + avg*overheadFactor))
	if est < 0 {
		est = 0
	}
	return est
}
