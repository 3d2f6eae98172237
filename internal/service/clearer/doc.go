// Package clearer periodically asks the outage manager to clear masked alarms.
//
// A cycle runs the masking filter, keeps the active members of masked groups
// that carry both an alarm and a source identifier, skips alarms cleared
// recently and sends one clear request per remaining alarm. Requests are
// spaced out with a rate limiter and accepted clears are written to a journal.
package clearer
