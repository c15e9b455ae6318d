package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armash/log-analyzer/internal/types"
)

func errorsAt(times ...time.Time) []types.Record {
	records := make([]types.Record, 0, len(times))
	for _, ts := range times {
		records = append(records, types.Record{
			Timestamp: ts,
			Level:     "ERROR",
			Service:   "payment",
			Host:      "host1",
			Message:   "Payment failed",
		})
	}
	return records
}

func TestBurstsFewerThanWindowSize(t *testing.T) {
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	records := errorsAt(base, base.Add(time.Second), base.Add(2*time.Second), base.Add(3*time.Second))
	assert.Empty(t, Bursts(records))
}

func TestBurstsExactlyOneWindow(t *testing.T) {
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	records := errorsAt(
		base,
		base.Add(10*time.Second),
		base.Add(20*time.Second),
		base.Add(30*time.Second),
		base.Add(40*time.Second),
	)

	windows := Bursts(records)
	require.Len(t, windows, 1)
	assert.Equal(t, base, windows[0].Start())
	assert.Equal(t, base.Add(40*time.Second), windows[0].End())
	require.Len(t, windows[0].Times, BurstWindow)
	for i := 1; i < len(windows[0].Times); i++ {
		assert.True(t, windows[0].Times[i].After(windows[0].Times[i-1]))
	}
}

func TestBurstsSpanBoundary(t *testing.T) {
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	exactly60 := errorsAt(base, base.Add(15*time.Second), base.Add(30*time.Second),
		base.Add(45*time.Second), base.Add(60*time.Second))
	assert.Len(t, Bursts(exactly60), 1, "a span of exactly 60s is a burst")

	over60 := errorsAt(base, base.Add(15*time.Second), base.Add(30*time.Second),
		base.Add(45*time.Second), base.Add(61*time.Second))
	assert.Empty(t, Bursts(over60))
}

func TestBurstsOverlappingWindowsNotMerged(t *testing.T) {
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	times := make([]time.Time, 0, 9)
	for i := 0; i < 9; i++ {
		times = append(times, base.Add(time.Duration(i)*5*time.Second))
	}

	windows := Bursts(errorsAt(times...))
	// 9 errors within a minute: one window per valid starting index.
	require.Len(t, windows, 5)
	for i, w := range windows {
		assert.Equal(t, times[i], w.Start())
		assert.Equal(t, times[i+4], w.End())
	}
}

func TestBurstsSortsUnorderedInput(t *testing.T) {
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	records := errorsAt(
		base.Add(40*time.Second),
		base,
		base.Add(30*time.Second),
		base.Add(10*time.Second),
		base.Add(20*time.Second),
	)

	windows := Bursts(records)
	require.Len(t, windows, 1)
	assert.Equal(t, base, windows[0].Start())
	assert.Equal(t, base.Add(40*time.Second), windows[0].End())
}

func TestBurstsIgnoresNonErrorLevels(t *testing.T) {
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	records := errorsAt(base, base.Add(time.Second), base.Add(2*time.Second), base.Add(3*time.Second))
	records = append(records,
		types.Record{Timestamp: base.Add(4 * time.Second), Level: "WARN", Message: "close call"},
		types.Record{Timestamp: base.Add(5 * time.Second), Level: "error", Message: "lowercase does not count"},
	)
	assert.Empty(t, Bursts(records))
}

func TestRecurringSingleDayIsNotRecurring(t *testing.T) {
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	records := errorsAt(base, base.Add(time.Hour), base.Add(2*time.Hour), base.Add(3*time.Hour))
	assert.Empty(t, Recurring(records))
}

func TestRecurringAcrossDays(t *testing.T) {
	records := []types.Record{
		{Timestamp: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), Level: "ERROR", Message: "Payment failed"},
		{Timestamp: time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC), Level: "ERROR", Message: "Payment failed"},
		{Timestamp: time.Date(2025, 1, 3, 23, 59, 59, 0, time.UTC), Level: "ERROR", Message: "Payment failed"},
		{Timestamp: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), Level: "ERROR", Message: "Disk full"},
	}

	recurring := Recurring(records)
	require.Len(t, recurring, 1)
	assert.Equal(t, []string{"2025-01-01", "2025-01-02", "2025-01-03"}, recurring["Payment failed"])
}

func TestRecurringMessagesAreExactMatch(t *testing.T) {
	records := []types.Record{
		{Timestamp: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), Level: "ERROR", Message: "Payment failed: id=1"},
		{Timestamp: time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC), Level: "ERROR", Message: "Payment failed: id=2"},
	}
	assert.Empty(t, Recurring(records))
}

func TestRecurringIgnoresNonErrorLevels(t *testing.T) {
	records := []types.Record{
		{Timestamp: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), Level: "WARN", Message: "Slow query"},
		{Timestamp: time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC), Level: "WARN", Message: "Slow query"},
	}
	assert.Empty(t, Recurring(records))
}

func TestRecurringKeepsTimestampOffset(t *testing.T) {
	// 23:30-05:00 on Jan 1 is Jan 2 in UTC; the record's own offset decides.
	loc := time.FixedZone("EST", -5*3600)
	records := []types.Record{
		{Timestamp: time.Date(2025, 1, 1, 23, 30, 0, 0, loc), Level: "ERROR", Message: "Payment failed"},
		{Timestamp: time.Date(2025, 1, 3, 10, 0, 0, 0, time.UTC), Level: "ERROR", Message: "Payment failed"},
	}

	recurring := Recurring(records)
	require.Contains(t, recurring, "Payment failed")
	assert.Equal(t, []string{"2025-01-01", "2025-01-03"}, recurring["Payment failed"])
}
