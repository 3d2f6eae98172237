// Package masking finds masked open alarms.
//
// A group is the set of alarm records sharing a network element and a raised
// time. A group is masked when it holds a CLEARED record together with at
// least one RAISED, UPDATED or RETRY record: the clear did not close the alarm.
// The filter returns every member of every masked group, each exactly once.
//
// Filter is the pure in-memory form. Engine runs the same computation over a
// Source, shards groups across goroutines and, when allowed, moves the working
// set to disk once it outgrows the memory budget.
package masking
