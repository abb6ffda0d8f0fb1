package stream

import "time"

// RateWindow is the number of instantaneous rates kept for the average.
const RateWindow = 50

// Tracker accumulates handler-wide throughput counters.
// Like Ring it relies on the Handler lock.
type Tracker struct {
	totalPoints uint64
	anomalies   uint64
	rates       *Ring[float64]
	lastUpdate  time.Time
}

func NewTracker(start time.Time) *Tracker {
	return &Tracker{
		rates:      NewRing[float64](RateWindow),
		lastUpdate: start,
	}
}

// Observe counts one ingested point received at now.
func (t *Tracker) Observe(now time.Time, anomaly bool) {
	t.totalPoints++
	if anomaly {
		t.anomalies++
	}
	if elapsed := now.Sub(t.lastUpdate).Seconds(); elapsed > 0 {
		t.rates.Push(1 / elapsed)
	}
	t.lastUpdate = now
}

func (t *Tracker) TotalPoints() uint64 { return t.totalPoints }

func (t *Tracker) Anomalies() uint64 { return t.anomalies }

// AvgRate is the mean of the rate window, 0 when empty.
func (t *Tracker) AvgRate() float64 {
	if t.rates.Len() == 0 {
		return 0
	}
	var sum float64
	t.rates.Each(func(v float64) { sum += v })
	return sum / float64(t.rates.Len())
}

// ResetCounts zeroes the point and anomaly counters. The rate window and
// last update time are kept.
func (t *Tracker) ResetCounts() {
	t.totalPoints = 0
	t.anomalies = 0
}
