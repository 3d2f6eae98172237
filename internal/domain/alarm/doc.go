// Package alarm contains the core domain types for network alarm records.
//
// It defines Record (one alarm document as read from the alarm collection),
// State (the alarm lifecycle enumeration), StateSet (the distinct states seen
// in a group) and GroupKey, the (network element, raised time) pair that
// masking groups are built on.
package alarm
