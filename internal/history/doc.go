// Package history persists practice sessions in SQLite and derives the
// progress analytics shown by `podium history progress`.
//
// Store mirrors a single sessions table with a schema_version row; schema
// changes require deleting the database. Writes retry briefly on
// SQLITE_BUSY so concurrent podium invocations do not fail outright.
//
// The analytics helpers are pure functions over []Session: Filter narrows by
// preset and period, Window keeps the chart's trailing sessions, and
// Summarize compares the first and latest session per metric series.
package history
