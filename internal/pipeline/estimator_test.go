package pipeline

import "testing"

func TestEstimator_SeedFromDocumentLength(t *testing.T) {
	est := Estimator{RatePerChar: 0.0005, Floor: 30}

	// 200,000 chars * 0.0005 s/char = 100s.
	if got := est.Seed(200000); got != 100 {
		t.Errorf("expected seed 100, got %d", got)
	}
	// Tiny document hits the floor.
	if got := est.Seed(100); got != 30 {
		t.Errorf("expected floor 30, got %d", got)
	}
	if got := est.Seed(0); got != 30 {
		t.Errorf("expected floor 30 for empty doc, got %d", got)
	}
}

func TestEstimator_UpdateRefinesWithThroughput(t *testing.T) {
	est := Estimator{RatePerChar: 0.0005, Floor: 30}

	// 4 of 10 units done in 20s: avg 5s/unit, 6 remaining, 1.5 units of
	// overhead -> ceil(20 + 30 + 7.5) = 58.
	if got := est.Update(20, 4, 10, 1.5); got != 58 {
		t.Errorf("expected 58, got %d", got)
	}

	// All units done: only overhead remains.
	// ceil(20 + 0 + 2*1.5) = 23.
	if got := est.Update(20, 10, 10, 1.5); got != 23 {
		t.Errorf("expected 23, got %d", got)
	}
}

func TestEstimator_UpdateMayDropBelowSeed(t *testing.T) {
	est := Estimator{RatePerChar: 0.01, Floor: 30}
	seed := est.Seed(100000) // 1000s

	// Real throughput is much faster than the seeded guess.
	refined := est.Update(2, 5, 10, 1.5)
	if refined >= seed {
		t.Errorf("expected refined estimate %d below seed %d", refined, seed)
	}
	if refined < 0 {
		t.Errorf("estimate must never be negative, got %d", refined)
	}
}

func TestEstimator_UpdateZeroCompletedFallsBackToFloor(t *testing.T) {
	est := Estimator{RatePerChar: 0.0005, Floor: 30}
	if got := est.Update(5, 0, 10, 1.5); got != 30 {
		t.Errorf("expected floor 30, got %d", got)
	}
}
