// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe and decodes streams and container metadata. Probe
// condenses that into the ClipInfo podium needs before an upload: the
// duration hint sent with the clip and whether an audio track exists at all.
package ffprobe
