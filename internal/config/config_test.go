package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/bakery-bookings/internal/availability"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "bakery")
	t.Setenv("DB_NAME", "bakery")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.Store.Backend != "mysql" {
		t.Fatalf("unexpected defaults: port=%s backend=%s", cfg.Port, cfg.Store.Backend)
	}
	if cfg.Queue.QueueName != "bookings.events" {
		t.Fatalf("queue name = %s", cfg.Queue.QueueName)
	}
	if got := cfg.Schedule.ToAvailability(); got != availability.DefaultConfig() {
		t.Fatalf("schedule = %+v", got)
	}
}

func TestLoadReportsEveryMissingVariable(t *testing.T) {
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, k := range []string{"DB_USER", "DB_NAME", "JWT_SECRET"} {
		if !strings.Contains(err.Error(), k) {
			t.Errorf("error %q does not mention %s", err, k)
		}
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_BACKEND", "cassandra")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "cassandra") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadPostgresNeedsDSN(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("POSTGRES_DSN", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}

func TestScheduleFileOverridesEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.yaml")
	body := "work_start_hour: 9\nwork_end_hour: 17\nslot_duration_minutes: 30\nmin_advance_days: 1\nmax_advance_days: 30\ntimezone: Europe/Berlin\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SCHEDULE_FILE", path)
	t.Setenv("SCHEDULE_WORK_START_HOUR", "7")

	sc, err := LoadSchedule()
	if err != nil {
		t.Fatalf("LoadSchedule: %v", err)
	}
	if sc.WorkStartHour != 9 || sc.SlotDurationMinutes != 30 || sc.Timezone != "Europe/Berlin" {
		t.Fatalf("schedule = %+v", sc)
	}
	if sc.Location().String() != "Europe/Berlin" {
		t.Fatalf("location = %s", sc.Location())
	}
}

func TestScheduleValidate(t *testing.T) {
	base := ScheduleConfig{8, 18, 60, 2, 90, "UTC"}
	tests := []struct {
		name   string
		mutate func(*ScheduleConfig)
		engine bool
	}{
		{"end before start", func(s *ScheduleConfig) { s.WorkEndHour = 7 }, false},
		{"zero slot", func(s *ScheduleConfig) { s.SlotDurationMinutes = 0 }, false},
		{"slot not dividing hour", func(s *ScheduleConfig) { s.SlotDurationMinutes = 45 }, true},
		{"max before min", func(s *ScheduleConfig) { s.MaxAdvanceDays = 1 }, false},
		{"bad zone", func(s *ScheduleConfig) { s.Timezone = "Mars/Olympus" }, false},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base invalid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := base
			tt.mutate(&sc)
			err := sc.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.engine && !errors.Is(err, availability.ErrInvalidConfiguration) {
				t.Fatalf("err = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestRateLimitNormalized(t *testing.T) {
	c := RateLimitConfig{Capacity: 0, RefillTokens: 0, RefillInterval: 0}.normalized()
	if c.Capacity != 1 || c.RefillTokens != 1 || c.RefillInterval != time.Second || c.TTL != 5*time.Second {
		t.Fatalf("normalized = %+v", c)
	}
}

func TestEnvBool(t *testing.T) {
	t.Setenv("X_FLAG", "off")
	if envBool("X_FLAG", true) {
		t.Fatal("off should be false")
	}
	t.Setenv("X_FLAG", "maybe")
	if !envBool("X_FLAG", true) {
		t.Fatal("unknown value should fall back")
	}
}
