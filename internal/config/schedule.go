package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/iliyamo/bakery-bookings/internal/availability"
)

// ScheduleConfig is the bakery's working grid.  Values come from SCHEDULE_*
// variables; when SCHEDULE_FILE names a YAML file, its keys win.
type ScheduleConfig struct {
	WorkStartHour       int    `yaml:"work_start_hour" validate:"gte=0,lt=24"`
	WorkEndHour         int    `yaml:"work_end_hour" validate:"gt=0,lte=24,gtfield=WorkStartHour"`
	SlotDurationMinutes int    `yaml:"slot_duration_minutes" validate:"gt=0,lte=60"`
	MinAdvanceDays      int    `yaml:"min_advance_days" validate:"gte=0"`
	MaxAdvanceDays      int    `yaml:"max_advance_days" validate:"gtefield=MinAdvanceDays"`
	Timezone            string `yaml:"timezone" validate:"required"`
}

var scheduleValidator = validator.New()

// LoadSchedule builds the schedule from the environment and the optional
// YAML file, then validates it both structurally and against the engine's
// own rules.
func LoadSchedule() (ScheduleConfig, error) {
	def := availability.DefaultConfig()
	sc := ScheduleConfig{
		WorkStartHour:       envInt("SCHEDULE_WORK_START_HOUR", def.WorkStartHour),
		WorkEndHour:         envInt("SCHEDULE_WORK_END_HOUR", def.WorkEndHour),
		SlotDurationMinutes: envInt("SCHEDULE_SLOT_MINUTES", def.SlotDurationMinutes),
		MinAdvanceDays:      envInt("SCHEDULE_MIN_ADVANCE_DAYS", def.MinAdvanceDays),
		MaxAdvanceDays:      envInt("SCHEDULE_MAX_ADVANCE_DAYS", def.MaxAdvanceDays),
		Timezone:            envStr("SCHEDULE_TIMEZONE", "UTC"),
	}
	if path := os.Getenv("SCHEDULE_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return sc, fmt.Errorf("read schedule file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &sc); err != nil {
			return sc, fmt.Errorf("parse schedule file %s: %w", path, err)
		}
	}
	return sc, sc.Validate()
}

// Validate checks field bounds, the timezone name and the slot grid.
func (s ScheduleConfig) Validate() error {
	if err := scheduleValidator.Struct(s); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("schedule: timezone %q: %w", s.Timezone, err)
	}
	return s.ToAvailability().Validate()
}

// ToAvailability converts to the engine configuration.
func (s ScheduleConfig) ToAvailability() availability.Config {
	return availability.Config{
		WorkStartHour:       s.WorkStartHour,
		WorkEndHour:         s.WorkEndHour,
		SlotDurationMinutes: s.SlotDurationMinutes,
		MinAdvanceDays:      s.MinAdvanceDays,
		MaxAdvanceDays:      s.MaxAdvanceDays,
	}
}

// Location resolves Timezone, falling back to UTC.
func (s ScheduleConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
