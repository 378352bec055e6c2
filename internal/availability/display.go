package availability

import (
	"fmt"

	"github.com/iliyamo/bakery-bookings/internal/model"
)

// FullDayDisplay is how the full day option is shown to customers.
const FullDayDisplay = "Full Day (All Day Event)"

// DisplayLabel renders a slot for people: "14:00" becomes "2:00 PM".
// Unparseable labels are returned unchanged.
func DisplayLabel(slot string) string {
	label, err := ParseSlot(slot)
	if err != nil {
		return slot
	}
	if label == model.FullDaySlot {
		return FullDayDisplay
	}
	mins := minutesOf(label)
	h, m := mins/60, mins%60
	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, m, period)
}

// Part-of-day names used by GroupSlots.
const (
	Morning   = "morning"
	Afternoon = "afternoon"
	Evening   = "evening"
)

// SlotGroup is a part of the day and the slots starting in it.
type SlotGroup struct {
	Name  string   `json:"name"`
	Slots []string `json:"slots"`
}

// GroupSlots buckets slot labels into morning (before 12:00), afternoon
// (12:00 to 16:59) and evening.  Group order is fixed, slot order is kept
// and empty groups are left out.
func GroupSlots(slots []string) []SlotGroup {
	var morning, afternoon, evening []string
	for _, s := range slots {
		label, err := ParseSlot(s)
		if err != nil || label == model.FullDaySlot {
			continue
		}
		switch h := minutesOf(label) / 60; {
		case h < 12:
			morning = append(morning, label)
		case h < 17:
			afternoon = append(afternoon, label)
		default:
			evening = append(evening, label)
		}
	}
	groups := make([]SlotGroup, 0, 3)
	for _, g := range []SlotGroup{{Morning, morning}, {Afternoon, afternoon}, {Evening, evening}} {
		if len(g.Slots) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}
