package clearer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pablo-flores/wa-3fecta/internal/domain/alarm"
)

// TestSelect keeps active alarms with both identifiers, once each, outside the cooldown.
func TestSelect(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	clearLog := alarm.NewClearLog()
	clearLog.Mark("recent", now.Add(-time.Minute))
	clearLog.Mark("old", now.Add(-2*time.Hour))

	records := []alarm.Record{
		{alarm.FieldState: "RAISED", alarm.FieldAlarmID: "A1", alarm.FieldOrigenID: "O1"},
		{alarm.FieldState: "CLEARED", alarm.FieldAlarmID: "A2", alarm.FieldOrigenID: "O2"},
		{alarm.FieldState: "UPDATED", alarm.FieldAlarmID: "A3"},
		{alarm.FieldState: "RETRY", alarm.FieldAlarmID: nil, alarm.FieldOrigenID: "O4"},
		{alarm.FieldState: "RETRY", alarm.FieldAlarmID: "recent", alarm.FieldOrigenID: "O5"},
		{alarm.FieldState: "UPDATED", alarm.FieldAlarmID: "old", alarm.FieldOrigenID: "O6"},
		{alarm.FieldState: "UPDATED", alarm.FieldAlarmID: "A1", alarm.FieldOrigenID: "O1"},
	}

	selection := Select(records, clearLog, now, time.Hour)

	require.Equal(t, []Candidate{
		{AlarmID: "A1", OrigenID: "O1", State: alarm.StateRaised},
		{AlarmID: "old", OrigenID: "O6", State: alarm.StateUpdated},
	}, selection.Candidates)
	require.Equal(t, 2, selection.Incomplete)
	require.Equal(t, 1, selection.Recent)
}

// TestSelect_Empty returns nothing for no input.
func TestSelect_Empty(t *testing.T) {
	t.Parallel()

	selection := Select(nil, alarm.NewClearLog(), time.Now(), time.Hour)
	require.Empty(t, selection.Candidates)
	require.Zero(t, selection.Incomplete)
}
