// Package archive uploads practice clips to an S3-compatible bucket and
// returns time-limited download links recorded alongside the session.
//
// Archiving is optional; New returns a nil *Archive when it is disabled and
// every method on a nil *Archive is a no-op.
package archive
