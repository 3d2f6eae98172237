package clearer

import (
	"time"

	"github.com/pablo-flores/wa-3fecta/internal/domain/alarm"
)

// Candidate is an alarm eligible for a clear request.
type Candidate struct {
	// AlarmID is appended to the clear URL.
	AlarmID string
	// OrigenID is the identifier in the source system, kept for logs.
	OrigenID string
	// State is the active state the alarm is in.
	State alarm.State
}

// Selection is the outcome of picking candidates from masked alarms.
type Selection struct {
	// Candidates are the alarms to clear, in input order.
	Candidates []Candidate
	// Incomplete counts active alarms without an alarm or source identifier.
	Incomplete int
	// Recent counts alarms skipped because they were cleared within the cooldown.
	Recent int
}

// Select keeps the active masked alarms that carry both identifiers and were
// not cleared within the cooldown. Each alarm identifier is picked once.
func Select(records []alarm.Record, log *alarm.ClearLog, now time.Time, cooldown time.Duration) Selection {
	var (
		selection Selection
		seen      = make(map[string]struct{}, len(records))
	)

	for _, r := range records {
		state := r.State()
		if !state.IsActive() {
			continue
		}

		alarmID, hasAlarmID := r.AlarmID()
		origenID, hasOrigenID := r.OrigenID()

		if !hasAlarmID || !hasOrigenID || alarmID == "" {
			selection.Incomplete++

			continue
		}

		if _, dup := seen[alarmID]; dup {
			continue
		}

		seen[alarmID] = struct{}{}

		if log.ClearedWithin(alarmID, now, cooldown) {
			selection.Recent++

			continue
		}

		selection.Candidates = append(selection.Candidates, Candidate{
			AlarmID:  alarmID,
			OrigenID: origenID,
			State:    state,
		})
	}

	return selection
}
