// Package alarms reads the alarm collection from MongoDB.
//
// Scan streams the records in a relevant state for the in-process masking
// engine. AggregateMasked pushes the whole masking filter down to the server
// as an aggregation pipeline.
package alarms
