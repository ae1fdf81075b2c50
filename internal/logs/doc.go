// Package logs reads the podium log file for `podium logs`.
//
// Last returns the trailing lines with bounded memory, and Follow polls the
// file from a byte offset, restarting from the top when the file shrinks.
package logs
