package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != defaultListen || cfg.WeekStart != "monday" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
week_start: sunday
max_layer: -3
ics:
  - id: work
    url: https://example.com/work.ics
caldav:
  - id: home
    url: https://dav.example.com
    username: me
    password: secret
    calendar: /calendars/me/home/
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FirstWeekday() != time.Sunday {
		t.Errorf("FirstWeekday() = %v, want Sunday", cfg.FirstWeekday())
	}
	if cfg.MaxLayer != 0 {
		t.Errorf("MaxLayer = %d, want 0", cfg.MaxLayer)
	}
	if cfg.RefreshCron != defaultRefresh || cfg.Timezone != defaultTimezone {
		t.Errorf("defaults not filled: %+v", cfg)
	}
	if len(cfg.ICS) != 1 || cfg.ICS[0].ID != "work" {
		t.Errorf("ICS = %+v", cfg.ICS)
	}
	if len(cfg.CalDAV) != 1 || cfg.CalDAV[0].Calendar != "/calendars/me/home/" {
		t.Errorf("CalDAV = %+v", cfg.CalDAV)
	}
}

func TestNormalizeWeekStart(t *testing.T) {
	tests := []struct {
		in   string
		want time.Weekday
	}{
		{"monday", time.Monday},
		{"sunday", time.Sunday},
		{"", time.Monday},
		{"friday", time.Monday},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c := &Config{WeekStart: tt.in}
			c.Normalize()
			if got := c.FirstWeekday(); got != tt.want {
				t.Errorf("FirstWeekday() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSaveRoundTripKeepsFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.MaxLayer = 3
	cfg.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.MaxLayer != 3 || got.BasicAuth == nil || got.BasicAuth.Username != "u" {
		t.Errorf("loaded = %+v", got)
	}
}

func TestLocationFallback(t *testing.T) {
	c := &Config{Timezone: "Not/AZone"}
	loc, err := c.Location()
	if err == nil {
		t.Error("expected error for unknown timezone")
	}
	if loc != time.Local {
		t.Errorf("loc = %v, want time.Local", loc)
	}
}
