// Package spill keeps masking groups on disk when the working set does not
// fit in memory.
//
// A Store is a throwaway DuckDB database file. Rows carry the canonical group
// key, the alarm state and the BSON encoding of the full record; the masked
// groups are then resolved with a single SQL query, letting DuckDB page its
// hash tables to the same directory when needed.
package spill
