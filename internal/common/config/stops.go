package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values can be written as "30s" or
// "3m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// StopsFile is the YAML document describing which stops to monitor and,
// optionally, how aggressively to poll them.
type StopsFile struct {
	Polling PollingConfig `yaml:"polling"`
	Stops   []StopConfig  `yaml:"stops" validate:"required,min=1"`
}

// StopConfig is one monitored stop. Routes is an allow-list of route IDs;
// empty keeps every route serving the stop.
type StopConfig struct {
	ID     string   `yaml:"id" validate:"required"`
	Name   string   `yaml:"name"`
	Routes []string `yaml:"routes"`
}

// PollingConfig overrides the default polling tier table.
type PollingConfig struct {
	Tiers []TierConfig `yaml:"tiers"`
}

// TierConfig is one polling tier. Within is the arrival horizon that makes
// the tier the target; the last tier leaves it unset and catches
// everything else. RepeatLimit is how many consecutive cycles the tier may
// resist a slower target before stepping up.
type TierConfig struct {
	Delay       Duration `yaml:"delay" validate:"required"`
	Within      Duration `yaml:"within"`
	RepeatLimit int      `yaml:"repeat_limit" validate:"gte=0"`
}

// DefaultTiers is the tier table used when the stops file does not provide
// one.
func DefaultTiers() []TierConfig {
	return []TierConfig{
		{Delay: Duration(30 * time.Second), Within: Duration(3 * time.Minute), RepeatLimit: 2},
		{Delay: Duration(60 * time.Second), Within: Duration(6 * time.Minute), RepeatLimit: 2},
		{Delay: Duration(90 * time.Second), Within: Duration(10 * time.Minute), RepeatLimit: 2},
		{Delay: Duration(180 * time.Second), Within: Duration(15 * time.Minute), RepeatLimit: 2},
		{Delay: Duration(300 * time.Second), RepeatLimit: 0},
	}
}

// LoadStopsFile reads and validates the stops file at path. A missing or
// empty tier table falls back to DefaultTiers.
func LoadStopsFile(path string) (*StopsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading stops file: %w", err)
	}

	var sf StopsFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing stops file: %w", err)
	}

	v := validator.New()
	if err := v.Struct(&sf); err != nil {
		return nil, fmt.Errorf("validating stops file: %w", err)
	}
	for _, stop := range sf.Stops {
		if err := v.Struct(stop); err != nil {
			return nil, fmt.Errorf("validating stop %q: %w", stop.ID, err)
		}
	}

	seen := make(map[string]struct{}, len(sf.Stops))
	for _, stop := range sf.Stops {
		if _, dup := seen[stop.ID]; dup {
			return nil, fmt.Errorf("duplicate stop %q", stop.ID)
		}
		seen[stop.ID] = struct{}{}
	}

	if len(sf.Polling.Tiers) == 0 {
		sf.Polling.Tiers = DefaultTiers()
	}
	for _, tier := range sf.Polling.Tiers {
		if err := v.Struct(tier); err != nil {
			return nil, fmt.Errorf("validating polling tiers: %w", err)
		}
	}
	if err := validateTiers(sf.Polling.Tiers); err != nil {
		return nil, fmt.Errorf("validating polling tiers: %w", err)
	}

	return &sf, nil
}

// validateTiers enforces the shape the scheduler depends on: delays and
// horizons strictly ascending, every tier but the last bounded by a
// horizon, the last tier open-ended.
func validateTiers(tiers []TierConfig) error {
	if len(tiers) == 0 {
		return fmt.Errorf("at least one tier is required")
	}

	for i, tier := range tiers {
		last := i == len(tiers)-1

		if tier.Delay <= 0 {
			return fmt.Errorf("tier %d: delay must be positive", i)
		}
		if !last && tier.Within <= 0 {
			return fmt.Errorf("tier %d: within is required on all but the last tier", i)
		}
		if last && tier.Within != 0 {
			return fmt.Errorf("tier %d: the last tier must not set within", i)
		}

		if i == 0 {
			continue
		}
		if tier.Delay <= tiers[i-1].Delay {
			return fmt.Errorf("tier %d: delays must be strictly ascending", i)
		}
		if !last && tier.Within <= tiers[i-1].Within {
			return fmt.Errorf("tier %d: within horizons must be strictly ascending", i)
		}
	}

	return nil
}
