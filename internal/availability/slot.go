package availability

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iliyamo/bakery-bookings/internal/model"
)

// Label formats minutes since midnight as a zero-padded "HH:MM" slot id.
func Label(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseSlot canonicalizes a slot label.  "9:00" becomes "09:00"; any
// spelling of full day becomes model.FullDaySlot.  The result is not
// checked against a grid.
func ParseSlot(s string) (string, error) {
	s = strings.TrimSpace(s)
	if model.IsFullDay(s) {
		return model.FullDaySlot, nil
	}
	h, m, ok := strings.Cut(s, ":")
	// digits only: Atoi alone would let "+8:00" or "-0:00" through
	if !ok || len(h) == 0 || len(h) > 2 || len(m) != 2 || !allDigits(h) || !allDigits(m) {
		return "", fmt.Errorf("%w: %q", ErrMalformedReservation, s)
	}
	hh, _ := strconv.Atoi(h)
	mm, _ := strconv.Atoi(m)
	if hh > 23 || mm > 59 {
		return "", fmt.Errorf("%w: %q", ErrMalformedReservation, s)
	}
	return Label(hh*60 + mm), nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// minutesOf converts a canonical "HH:MM" label back to minutes.
func minutesOf(label string) int {
	h, _ := strconv.Atoi(label[:2])
	m, _ := strconv.Atoi(label[3:])
	return h*60 + m
}
