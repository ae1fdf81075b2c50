// Package workflow runs the practice flows end to end.
//
// Coach ties the analysis client, the session history, the optional clip
// archive, and push notifications together. Each flow (full analysis, quick
// feedback, Q&A drill, filler challenge) submits a clip, stores the outcome
// as a history session, and publishes a notification. Storage, archive, and
// notification failures are logged and never mask a successful analysis.
//
// Record drives the capture device for the drill commands and reports the
// remaining time through a callback so callers can render a countdown.
package workflow
