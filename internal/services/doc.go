// Package services defines shared utilities consumed by the coaching workflow
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp backend job IDs, operation names, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the typed failures raised by the
//     upload-and-poll client and the recorder (submission, poll, analysis,
//     timeout, camera access, empty recording).
//   - UserMessage, which converts any of those failures into the single line
//     shown at the CLI boundary.
//
// Use these helpers when wiring new backend calls so error classification and
// observability stay uniform across commands.
package services
