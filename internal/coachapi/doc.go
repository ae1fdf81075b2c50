// Package coachapi talks to the remote presentation-analysis backend.
//
// The central operation is Submit: upload a clip as multipart form data,
// receive a job id, then poll the results endpoint on a fixed interval until
// the job finishes, fails, runs out of attempts, or the caller cancels. Polls
// are strictly sequential and the job state machine never leaves a terminal
// state. The same client also wraps the follow-up question, answer
// evaluation, and quick-feedback endpoints used by the drill workflows.
//
// Failures are reported with the typed errors from internal/services so the
// CLI can render one user-facing line per failure.
package coachapi
