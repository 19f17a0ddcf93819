package model

// BusinessHours is the policy entry for one weekday (0 = Sunday).
type BusinessHours struct {
	Weekday   int    `json:"weekday" bson:"_id"`
	OpenTime  string `json:"open_time" bson:"open_time"`
	CloseTime string `json:"close_time" bson:"close_time"`
	Closed    bool   `json:"is_closed" bson:"is_closed"`
}

type BlockedDate struct {
	Date   string `json:"date" bson:"_id"`
	Reason string `json:"reason,omitempty" bson:"reason,omitempty"`
}

type ClosedReason string

const (
	ReasonBlocked ClosedReason = "blocked"
	ReasonClosed  ClosedReason = "closed"
)

// DayWindow is an open window in minutes since midnight, [Open, Close).
type DayWindow struct {
	OpenMinute  int `json:"open_minute"`
	CloseMinute int `json:"close_minute"`
}

func (w DayWindow) Contains(start, end int) bool {
	return start >= w.OpenMinute && end <= w.CloseMinute && start < end
}

type DayStatus struct {
	Date   string       `json:"date"`
	Open   bool         `json:"open"`
	Window *DayWindow   `json:"window,omitempty"`
	Reason ClosedReason `json:"reason,omitempty"`
	Note   string       `json:"note,omitempty"`
}
