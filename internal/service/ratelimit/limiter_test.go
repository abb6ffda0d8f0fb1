package ratelimit

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestLimiterBurstAndRefill(t *testing.T) {
	clk := clock.NewMock()
	l := NewWithClock(clk, 2, 60)

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatalf("burst of 2 should pass")
	}
	if l.Allow("a") {
		t.Fatalf("third call should be limited")
	}
	if !l.Allow("b") {
		t.Fatalf("keys are independent")
	}

	clk.Add(time.Second)
	if !l.Allow("a") {
		t.Fatalf("one token refilled after 1s at 60/min")
	}
	if l.Allow("a") {
		t.Fatalf("only one token refilled")
	}
}
