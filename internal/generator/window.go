package generator

import "time"

const (
	// ResumeOffset separates a new batch from the newest existing row.
	ResumeOffset = time.Minute
	// MinimalWindow is used when the requested window collapses against "now".
	MinimalWindow = time.Hour
)

// DefaultAnchor is the start used for an empty table when no start date is given.
var DefaultAnchor = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

// Window is the closed interval new records are stamped into.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Clamp caps t at the window end.
func (w Window) Clamp(t time.Time) time.Time {
	if t.After(w.End) {
		return w.End
	}
	return t
}

type WindowInput struct {
	Latest    *time.Time // max created_at of the target table, nil when empty
	StartDate *time.Time // explicit start, wins over Latest
	Days      int
	Anchor    time.Time
	Now       time.Time
}

// NewWindow computes the window for a table: start is the explicit date, else just
// after the newest row, else the anchor. End is start+days, never past now.
func NewWindow(in WindowInput) Window {
	now := in.Now.Truncate(time.Second)
	anchor := in.Anchor
	if anchor.IsZero() {
		anchor = DefaultAnchor
	}

	var start time.Time
	switch {
	case in.StartDate != nil:
		start = *in.StartDate
	case in.Latest != nil:
		start = in.Latest.Add(ResumeOffset)
	default:
		start = anchor
	}
	start = start.Truncate(time.Second)

	end := start.AddDate(0, 0, in.Days)
	if end.After(now) {
		end = now
	}
	if !end.After(start) {
		end = start.Add(MinimalWindow)
		if end.After(now) {
			end = now
			start = now.Add(-MinimalWindow)
		}
	}
	return Window{Start: start, End: end}
}
