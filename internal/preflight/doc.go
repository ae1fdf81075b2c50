// Package preflight provides readiness checks for the backend, the capture
// device, and the filesystem paths podium writes to.
//
// `podium doctor` runs RunAll and prints every result. Individual checks are
// also used before recording so a missing camera fails fast with a clear
// message instead of an ffmpeg error.
package preflight
