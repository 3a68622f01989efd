package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeStopsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stops.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing stops file: %v", err)
	}
	return path
}

func TestLoadStopsFileDefaults(t *testing.T) {
	path := writeStopsFile(t, `
stops:
  - id: "1_75403"
  - id: "1_75414"
    name: "Custom Name"
    routes: ["1_100224", "1_100512"]
`)

	sf, err := LoadStopsFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sf.Stops) != 2 {
		t.Fatalf("got %d stops, want 2", len(sf.Stops))
	}
	if sf.Stops[1].Name != "Custom Name" {
		t.Errorf("stop name = %q", sf.Stops[1].Name)
	}
	if len(sf.Stops[1].Routes) != 2 {
		t.Errorf("routes = %v", sf.Stops[1].Routes)
	}

	tiers := sf.Polling.Tiers
	if len(tiers) != 5 {
		t.Fatalf("got %d default tiers, want 5", len(tiers))
	}
	if tiers[0].Delay.Std() != 30*time.Second {
		t.Errorf("fastest delay = %v", tiers[0].Delay.Std())
	}
	if tiers[4].Delay.Std() != 300*time.Second {
		t.Errorf("slowest delay = %v", tiers[4].Delay.Std())
	}
	if tiers[4].Within != 0 {
		t.Errorf("last tier must be open-ended, within = %v", tiers[4].Within.Std())
	}
	if tiers[4].RepeatLimit != 0 {
		t.Errorf("last tier repeat limit = %d", tiers[4].RepeatLimit)
	}
}

func TestLoadStopsFileCustomTiers(t *testing.T) {
	path := writeStopsFile(t, `
polling:
  tiers:
    - delay: "15s"
      within: "2m"
      repeat_limit: 1
    - delay: "2m"
stops:
  - id: "1_75403"
`)

	sf, err := LoadStopsFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tiers := sf.Polling.Tiers
	if len(tiers) != 2 {
		t.Fatalf("got %d tiers, want 2", len(tiers))
	}
	if tiers[0].Delay.Std() != 15*time.Second {
		t.Errorf("delay = %v", tiers[0].Delay.Std())
	}
	if tiers[0].Within.Std() != 2*time.Minute {
		t.Errorf("within = %v", tiers[0].Within.Std())
	}
	if tiers[0].RepeatLimit != 1 {
		t.Errorf("repeat limit = %d", tiers[0].RepeatLimit)
	}
}

func TestLoadStopsFileRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "no stops",
			content: `stops: []`,
		},
		{
			name: "missing stop id",
			content: `
stops:
  - name: "No ID"
`,
		},
		{
			name: "duplicate stop",
			content: `
stops:
  - id: "1_75403"
  - id: "1_75403"
`,
		},
		{
			name: "descending delays",
			content: `
polling:
  tiers:
    - delay: "60s"
      within: "3m"
    - delay: "30s"
stops:
  - id: "1_75403"
`,
		},
		{
			name: "descending horizons",
			content: `
polling:
  tiers:
    - delay: "30s"
      within: "6m"
    - delay: "60s"
      within: "3m"
    - delay: "90s"
stops:
  - id: "1_75403"
`,
		},
		{
			name: "last tier with horizon",
			content: `
polling:
  tiers:
    - delay: "30s"
      within: "3m"
    - delay: "60s"
      within: "6m"
stops:
  - id: "1_75403"
`,
		},
		{
			name: "middle tier without horizon",
			content: `
polling:
  tiers:
    - delay: "30s"
      within: "3m"
    - delay: "60s"
    - delay: "90s"
stops:
  - id: "1_75403"
`,
		},
		{
			name: "unparseable duration",
			content: `
polling:
  tiers:
    - delay: "soon"
stops:
  - id: "1_75403"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeStopsFile(t, tt.content)
			if _, err := LoadStopsFile(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadStopsFileMissing(t *testing.T) {
	if _, err := LoadStopsFile(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
