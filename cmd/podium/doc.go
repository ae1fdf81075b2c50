// Package main hosts the podium CLI entrypoint and command graph.
//
// The Cobra command tree uploads clips for analysis, runs the Q&A and filler
// drills, records from the camera, browses session history, and replays
// annotated sessions. Configuration is loaded lazily once per invocation and
// every error is reduced to a single user-facing line before exit.
//
// Keep this package thin: behavior lives in internal/workflow and the
// packages it wires together.
package main
