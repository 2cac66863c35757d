package queue

import (
	"testing"
	"time"
)

func TestRank(t *testing.T) {
	cases := []struct {
		ahead int
		rank  int
	}{
		{0, 1},
		{1, 2},
		{9, 10},
		{-3, 1},
	}
	for _, tt := range cases {
		if got := Rank(tt.ahead); got != tt.rank {
			t.Fatalf("Rank(%d)=%d, want %d", tt.ahead, got, tt.rank)
		}
	}
}

func TestEstimateMinutes(t *testing.T) {
	cases := []struct {
		ahead       int
		perCustomer time.Duration
		want        int
	}{
		{0, 15 * time.Minute, 0},
		{1, 15 * time.Minute, 15},
		{4, 15 * time.Minute, 60},
		{3, 10 * time.Minute, 30},
		{-1, 15 * time.Minute, 0},
		// zero per-customer falls back to the default
		{2, 0, 30},
	}
	for _, tt := range cases {
		if got := EstimateMinutes(tt.ahead, tt.perCustomer); got != tt.want {
			t.Fatalf("EstimateMinutes(%d, %s)=%d, want %d", tt.ahead, tt.perCustomer, got, tt.want)
		}
	}
}

// The estimate scales linearly with the waiting-ahead count; first in
// line always reads zero.
func TestEstimateLinear(t *testing.T) {
	per := 15 * time.Minute
	for ahead := 0; ahead < 20; ahead++ {
		if got := Estimate(ahead, per); got != time.Duration(ahead)*per {
			t.Fatalf("Estimate(%d)=%s", ahead, got)
		}
	}
}
