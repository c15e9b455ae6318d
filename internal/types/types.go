package types

import "time"

// TextTimeLayout is the timestamp layout used by plain-text log lines.
const TextTimeLayout = "2006-01-02 15:04:05"

// DayLayout is the calendar-day key layout shared by the day index,
// the daily summary and the recurrence detector.
const DayLayout = "2006-01-02"

// LevelError is the level the detectors operate on. Matching is exact;
// levels are otherwise free-form strings.
const LevelError = "ERROR"

// Record is a single normalized log record.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // ERROR, WARN, INFO, DEBUG
	Service   string    `json:"service"`
	Host      string    `json:"host"`
	Message   string    `json:"message"`
}

// Day returns the record's calendar day, keeping the timestamp's own offset.
func (r Record) Day() string {
	return r.Timestamp.Format(DayLayout)
}
