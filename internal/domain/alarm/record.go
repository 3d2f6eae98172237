package alarm

import (
	"fmt"
	"maps"
)

// Field names read from alarm documents.
const (
	// FieldID is the document store identity. It is never emitted.
	FieldID = "_id"
	// FieldNetworkElementID identifies the network element that raised the alarm.
	FieldNetworkElementID = "networkElementId"
	// FieldRaisedTime is the moment the alarm condition was first raised.
	FieldRaisedTime = "alarmRaisedTime"
	// FieldState holds the alarm State.
	FieldState = "alarmState"
	// FieldAlarmID identifies the alarm instance.
	FieldAlarmID = "alarmId"
	// FieldOrigenID is the identifier the alarm carries in its source system.
	FieldOrigenID = "origenId"
)

// Record is a single alarm document. Only a handful of fields are interpreted;
// everything else is carried through untouched.
type Record map[string]any

// State returns the alarm state, or an empty State when the field is missing
// or not a string.
func (r Record) State() State {
	value, _ := r[FieldState].(string)

	return State(value)
}

// Key returns the group key of the record.
func (r Record) Key() GroupKey {
	return KeyOf(r)
}

// AlarmID returns the alarm identifier and whether it is present and not null.
func (r Record) AlarmID() (string, bool) {
	return r.Text(FieldAlarmID)
}

// OrigenID returns the source system identifier and whether it is present and not null.
func (r Record) OrigenID() (string, bool) {
	return r.Text(FieldOrigenID)
}

// Text renders a field as a string. The boolean is false when the field is
// missing or holds a null value.
func (r Record) Text(field string) (string, bool) {
	value, ok := r[field]
	if !ok || isNull(value) {
		return "", false
	}

	if s, isString := value.(string); isString {
		return s, true
	}

	return fmt.Sprint(value), true
}

// Public returns a shallow copy of the record without the identity field.
func (r Record) Public() Record {
	cloned := maps.Clone(r)
	if cloned == nil {
		cloned = make(Record)
	}

	delete(cloned, FieldID)

	return cloned
}
