package availability

import "fmt"

// Config describes the working day grid and the advance booking window.
// It is fixed per deployment.
type Config struct {
	WorkStartHour       int // first bookable hour, inclusive
	WorkEndHour         int // closing hour, exclusive
	SlotDurationMinutes int // must divide 60
	MinAdvanceDays      int // earliest bookable date is today+MinAdvanceDays
	MaxAdvanceDays      int // latest bookable date is today+MaxAdvanceDays
}

// DefaultConfig mirrors the bakery's published hours: 08:00 to 18:00 in
// one-hour slots, bookable from two to ninety days ahead.
func DefaultConfig() Config {
	return Config{
		WorkStartHour:       8,
		WorkEndHour:         18,
		SlotDurationMinutes: 60,
		MinAdvanceDays:      2,
		MaxAdvanceDays:      90,
	}
}

// Validate reports the first inconsistency in c, wrapped in
// ErrInvalidConfiguration.
func (c Config) Validate() error {
	switch {
	case c.WorkStartHour < 0 || c.WorkEndHour > 24:
		return fmt.Errorf("%w: working hours %d..%d outside 0..24", ErrInvalidConfiguration, c.WorkStartHour, c.WorkEndHour)
	case c.WorkStartHour >= c.WorkEndHour:
		return fmt.Errorf("%w: work start %d not before work end %d", ErrInvalidConfiguration, c.WorkStartHour, c.WorkEndHour)
	case c.SlotDurationMinutes <= 0:
		return fmt.Errorf("%w: slot duration %d must be positive", ErrInvalidConfiguration, c.SlotDurationMinutes)
	case 60%c.SlotDurationMinutes != 0:
		return fmt.Errorf("%w: slot duration %d does not divide an hour", ErrInvalidConfiguration, c.SlotDurationMinutes)
	case c.windowMinutes()%c.SlotDurationMinutes != 0:
		return fmt.Errorf("%w: slot duration %d does not divide the work window", ErrInvalidConfiguration, c.SlotDurationMinutes)
	case c.MinAdvanceDays < 0:
		return fmt.Errorf("%w: min advance days %d is negative", ErrInvalidConfiguration, c.MinAdvanceDays)
	case c.MaxAdvanceDays < c.MinAdvanceDays:
		return fmt.Errorf("%w: max advance days %d before min %d", ErrInvalidConfiguration, c.MaxAdvanceDays, c.MinAdvanceDays)
	}
	return nil
}

func (c Config) windowMinutes() int { return (c.WorkEndHour - c.WorkStartHour) * 60 }

// SlotCount is the number of slots in one working day.
func (c Config) SlotCount() int { return c.windowMinutes() / c.SlotDurationMinutes }
