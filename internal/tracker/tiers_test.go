package tracker

import (
	"testing"
	"time"
)

func defaultTestTiers() []Tier {
	return []Tier{
		{Delay: 30 * time.Second, Within: 3 * time.Minute, RepeatLimit: 2},
		{Delay: 60 * time.Second, Within: 6 * time.Minute, RepeatLimit: 2},
		{Delay: 90 * time.Second, Within: 10 * time.Minute, RepeatLimit: 2},
		{Delay: 180 * time.Second, Within: 15 * time.Minute, RepeatLimit: 2},
		{Delay: 300 * time.Second, RepeatLimit: 0},
	}
}

func TestTargetFor(t *testing.T) {
	table := NewTierTable(defaultTestTiers())

	tests := []struct {
		name      string
		untilNext time.Duration
		hasNext   bool
		want      int
	}{
		{name: "no upcoming departure", hasNext: false, want: 4},
		{name: "imminent", untilNext: 30 * time.Second, hasNext: true, want: 0},
		{name: "exactly on the boundary", untilNext: 3 * time.Minute, hasNext: true, want: 0},
		{name: "just past the boundary", untilNext: 3*time.Minute + time.Second, hasNext: true, want: 1},
		{name: "mid table", untilNext: 8 * time.Minute, hasNext: true, want: 2},
		{name: "before the last bounded tier", untilNext: 14 * time.Minute, hasNext: true, want: 3},
		{name: "beyond every horizon", untilNext: 40 * time.Minute, hasNext: true, want: 4},
		{name: "already due", untilNext: -10 * time.Second, hasNext: true, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.TargetFor(tt.untilNext, tt.hasNext); got != tt.want {
				t.Errorf("TargetFor(%v, %v) = %d, want %d", tt.untilNext, tt.hasNext, got, tt.want)
			}
		})
	}
}

func TestTierStateStartsSlowest(t *testing.T) {
	state := NewTierState(NewTierTable(defaultTestTiers()))

	if state.Current() != 4 {
		t.Errorf("initial tier = %d, want 4", state.Current())
	}
	if state.CurrentDelay() != 300*time.Second {
		t.Errorf("initial delay = %v, want 5m", state.CurrentDelay())
	}
}

func TestTierStateAcceleratesImmediately(t *testing.T) {
	state := NewTierState(NewTierTable(defaultTestTiers()))

	// Slowest to fastest in one cycle when a departure is imminent.
	if got := state.Next(2*time.Minute, true); got != 30*time.Second {
		t.Errorf("delay = %v, want 30s", got)
	}
	if state.Current() != 0 {
		t.Errorf("tier = %d, want 0", state.Current())
	}

	// Same from the middle of the table: tier 3 jumps straight to 0,
	// skipping the tiers between.
	state = NewTierState(NewTierTable(defaultTestTiers()))
	state.Next(14*time.Minute, true)
	if state.Current() != 3 {
		t.Fatalf("setup tier = %d, want 3", state.Current())
	}
	if got := state.Next(time.Minute, true); got != 30*time.Second {
		t.Errorf("mid-table jump delay = %v, want 30s", got)
	}
	if state.Current() != 0 {
		t.Errorf("tier after mid-table jump = %d, want 0", state.Current())
	}
}

func TestTierStateBacksOffOneStepAfterRepeats(t *testing.T) {
	state := NewTierState(NewTierTable(defaultTestTiers()))

	// Accelerate to the fastest tier first.
	state.Next(time.Minute, true)

	// Target jumps to the slowest tier, but the fastest tier resists for
	// its two repeats and then steps up a single tier.
	if got := state.Next(time.Hour, true); got != 30*time.Second {
		t.Errorf("first resisted cycle delay = %v, want 30s", got)
	}
	if got := state.Next(time.Hour, true); got != 30*time.Second {
		t.Errorf("second resisted cycle delay = %v, want 30s", got)
	}
	if got := state.Next(time.Hour, true); got != 60*time.Second {
		t.Errorf("step-up cycle delay = %v, want 60s", got)
	}
	if state.Current() != 1 {
		t.Errorf("tier = %d, want 1", state.Current())
	}
}

func TestTierStateZeroRepeatLimitStepsImmediately(t *testing.T) {
	tiers := defaultTestTiers()
	tiers[2].RepeatLimit = 0
	state := NewTierState(NewTierTable(tiers))

	// Put the state on tier 2.
	state.Next(8*time.Minute, true)
	if state.Current() != 2 {
		t.Fatalf("tier = %d, want 2", state.Current())
	}

	// With no repeat allowance the very next slower target steps up.
	if got := state.Next(time.Hour, true); got != 180*time.Second {
		t.Errorf("delay = %v, want 3m", got)
	}
	if state.Current() != 3 {
		t.Errorf("tier = %d, want 3", state.Current())
	}
}

func TestTierStateEqualTargetKeepsRepeats(t *testing.T) {
	tiers := defaultTestTiers()
	tiers[0].RepeatLimit = 1
	state := NewTierState(NewTierTable(tiers))

	state.Next(time.Minute, true) // tier 0

	// One resisted cycle burns the single repeat.
	state.Next(time.Hour, true)
	if state.Current() != 0 {
		t.Fatalf("tier = %d, want 0", state.Current())
	}

	// An equal target keeps the tier and does not refresh the allowance.
	state.Next(time.Minute, true)
	if state.Current() != 0 {
		t.Fatalf("tier after equal target = %d, want 0", state.Current())
	}

	// The next slower target steps up right away.
	state.Next(time.Hour, true)
	if state.Current() != 1 {
		t.Errorf("tier = %d, want 1", state.Current())
	}
}

func TestTierStateNoDepartures(t *testing.T) {
	state := NewTierState(NewTierTable(defaultTestTiers()))
	state.Next(time.Minute, true) // tier 0

	// An empty board walks the state back up one tier at a time.
	delays := []time.Duration{
		30 * time.Second, // repeat 1
		30 * time.Second, // repeat 2
		60 * time.Second,
		60 * time.Second,
		60 * time.Second,
		90 * time.Second,
		90 * time.Second,
		90 * time.Second,
		180 * time.Second,
		180 * time.Second,
		180 * time.Second,
		300 * time.Second,
		300 * time.Second,
	}
	for i, want := range delays {
		if got := state.Next(0, false); got != want {
			t.Fatalf("cycle %d: delay = %v, want %v", i, got, want)
		}
	}
	if state.Current() != 4 {
		t.Errorf("final tier = %d, want 4", state.Current())
	}
}

func TestTiersFromConfig(t *testing.T) {
	tiers := TiersFromConfig(nil)
	if len(tiers) != 0 {
		t.Errorf("got %d tiers from nil config", len(tiers))
	}
}
