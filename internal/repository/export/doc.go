// Package export reads and writes alarm records as newline-delimited MongoDB
// Extended JSON, the format produced by mongoexport.
//
// Reader implements masking.Source, so an exported alarm collection can be
// analysed offline. Writer emits masked alarms in the same format, ready for
// mongoimport or jq.
package export
