// Package playback synchronizes time-anchored coaching notes with a media
// position stream.
//
// A Synchronizer receives position updates from a player, surfaces each
// annotation once per pass as the active note, and clears it after a fixed
// display duration. Seeking back near the start forgets which notes were
// shown so a replay surfaces them again. Player simulates a video element's
// periodic status callback for terminal replay.
package playback
