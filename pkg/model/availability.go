package model

type Slot struct {
	Time      string `json:"time"`
	Formatted string `json:"formatted"`
}

func NewSlot(minute int) Slot {
	return Slot{Time: FormatTimeOfDay(minute), Formatted: FormatTimeOfDay12h(minute)}
}

// Availability answers an availability query. Slots is never nil so it
// always encodes as a JSON array.
type Availability struct {
	Date        string       `json:"date"`
	Available   bool         `json:"available"`
	Reason      ClosedReason `json:"reason,omitempty"`
	DurationMin int          `json:"duration_min"`
	Slots       []Slot       `json:"slots"`
}
