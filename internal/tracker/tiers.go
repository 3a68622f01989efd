package tracker

import (
	"time"

	"github.com/obatracker-data/internal/common/config"
)

// Tier is one entry in the polling interval table.
type Tier struct {
	Delay       time.Duration
	Within      time.Duration // target horizon; zero on the catch-all tier
	RepeatLimit int
}

// TiersFromConfig converts the validated stops-file tiers.
func TiersFromConfig(tiers []config.TierConfig) []Tier {
	out := make([]Tier, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, Tier{
			Delay:       t.Delay.Std(),
			Within:      t.Within.Std(),
			RepeatLimit: t.RepeatLimit,
		})
	}
	return out
}

// TierTable is the ordered interval table, fastest first. Config
// validation guarantees ascending delays and horizons with an open-ended
// last tier.
type TierTable struct {
	tiers []Tier
}

func NewTierTable(tiers []Tier) *TierTable {
	return &TierTable{tiers: append([]Tier(nil), tiers...)}
}

func (t *TierTable) Len() int {
	return len(t.tiers)
}

// SlowestDelay returns the delay of the last tier.
func (t *TierTable) SlowestDelay() time.Duration {
	return t.tiers[len(t.tiers)-1].Delay
}

// TargetFor maps the time until the next departure to the tier the table
// wants. With no upcoming departure the target is the slowest tier.
func (t *TierTable) TargetFor(untilNext time.Duration, hasNext bool) int {
	if !hasNext {
		return len(t.tiers) - 1
	}
	for i, tier := range t.tiers[:len(t.tiers)-1] {
		if untilNext <= tier.Within {
			return i
		}
	}
	return len(t.tiers) - 1
}

// TierState is the per-stop scheduling state. It starts at the slowest
// tier and applies hysteresis: speeding up is immediate, slowing down goes
// one step at a time and only after the current tier's repeat allowance is
// spent.
type TierState struct {
	table   *TierTable
	current int
	repeats int
}

func NewTierState(table *TierTable) *TierState {
	return &TierState{table: table, current: table.Len() - 1}
}

// Next advances the state for one completed poll cycle and returns the
// delay until the next one.
func (s *TierState) Next(untilNext time.Duration, hasNext bool) time.Duration {
	target := s.table.TargetFor(untilNext, hasNext)

	switch {
	case target < s.current:
		s.current = target
		s.repeats = 0
	case target > s.current:
		if s.repeats < s.table.tiers[s.current].RepeatLimit {
			s.repeats++
		} else {
			s.current++
			s.repeats = 0
		}
	}

	return s.table.tiers[s.current].Delay
}

// Current returns the current tier index.
func (s *TierState) Current() int {
	return s.current
}

// CurrentDelay returns the current tier's delay without advancing the
// state.
func (s *TierState) CurrentDelay() time.Duration {
	return s.table.tiers[s.current].Delay
}
