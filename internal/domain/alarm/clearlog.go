package alarm

import "time"

// ClearLog remembers when clear requests were last accepted for each alarm,
// so a periodic clearer does not hammer the outage manager with repeats.
type ClearLog struct {
	// Cleared maps alarm identifiers to the time of the last accepted clear.
	Cleared map[string]time.Time
}

// NewClearLog returns an empty log.
func NewClearLog() *ClearLog {
	return &ClearLog{
		Cleared: make(map[string]time.Time),
	}
}

// Mark records an accepted clear for the alarm.
func (l *ClearLog) Mark(alarmID string, at time.Time) {
	if l.Cleared == nil {
		l.Cleared = make(map[string]time.Time)
	}

	l.Cleared[alarmID] = at
}

// ClearedWithin reports whether the alarm was cleared less than cooldown ago.
func (l *ClearLog) ClearedWithin(alarmID string, now time.Time, cooldown time.Duration) bool {
	if l == nil || cooldown <= 0 {
		return false
	}

	at, ok := l.Cleared[alarmID]
	if !ok {
		return false
	}

	return now.Sub(at) < cooldown
}

// Prune drops entries recorded before the cutoff and returns how many were removed.
func (l *ClearLog) Prune(cutoff time.Time) int {
	removed := 0

	for id, at := range l.Cleared {
		if at.Before(cutoff) {
			delete(l.Cleared, id)
			removed++
		}
	}

	return removed
}
