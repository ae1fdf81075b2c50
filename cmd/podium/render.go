package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"podium/internal/coachapi"
	"podium/internal/playback"
)

func renderResult(out io.Writer, result *coachapi.Result, colorize bool) {
	if result == nil {
		return
	}
	metrics := result.Metrics

	writeSection(out, "Delivery", colorize)
	facts := [][2]string{}
	if metrics.WPM != nil {
		pace := fmt.Sprintf("%.0f WPM", *metrics.WPM)
		if label := strings.TrimSpace(metrics.PaceLabel); label != "" {
			pace += " (" + label + ")"
		}
		facts = append(facts, [2]string{"Pace", pace})
	}
	facts = append(facts, [2]string{"Filler words", strconv.Itoa(metrics.FillerWordCount)})
	if metrics.WordCount > 0 {
		facts = append(facts, [2]string{"Words", strconv.Itoa(metrics.WordCount)})
	}
	if metrics.DurationSeconds != nil {
		facts = append(facts, [2]string{"Duration", playback.FormatSeconds(*metrics.DurationSeconds)})
	}
	fmt.Fprintln(out, renderFacts(facts))

	if rows := fillerRows(metrics.FillerWords); len(rows) > 0 {
		writeSection(out, "Filler breakdown", colorize)
		fmt.Fprintln(out, renderTable([]string{"Word", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
	}

	if len(result.Scores) > 0 {
		writeSection(out, "Scores", colorize)
		fmt.Fprintln(out, renderTable([]string{"Score", "Value"}, scoreRows(result.Scores), []columnAlignment{alignLeft, alignRight}))
	}

	if len(result.Strengths) > 0 {
		writeSection(out, "Strengths", colorize)
		for _, s := range result.Strengths {
			fmt.Fprintf(out, "  + %s\n", s)
		}
	}
	if len(result.Improvements) > 0 {
		writeSection(out, "Improvements", colorize)
		for _, imp := range result.Improvements {
			if imp.Detail != "" {
				fmt.Fprintf(out, "  - %s: %s\n", imp.Title, imp.Detail)
			} else {
				fmt.Fprintf(out, "  - %s\n", imp.Title)
			}
		}
	}

	renderAnnotations(out, result.Annotations, colorize)
	renderTranscript(out, result.Transcript, colorize)
}

func renderAnnotations(out io.Writer, annotations []playback.Annotation, colorize bool) {
	if len(annotations) == 0 {
		return
	}
	writeSection(out, "Moments", colorize)
	rows := make([][]string, 0, len(annotations))
	for _, a := range playback.SortedByTime(annotations) {
		rows = append(rows, []string{playback.FormatSeconds(a.Time), playback.DisplayLabel(a.Label), a.Message})
	}
	fmt.Fprintln(out, renderTable([]string{"At", "Label", "Note"}, rows, []columnAlignment{alignRight}))
}

func renderTranscript(out io.Writer, transcript string, colorize bool) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return
	}
	writeSection(out, "Transcript", colorize)
	fmt.Fprintln(out, transcript)
}

func fillerRows(words map[string]int) [][]string {
	keys := make([]string, 0, len(words))
	for k := range words {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if words[keys[i]] != words[keys[j]] {
			return words[keys[i]] > words[keys[j]]
		}
		return keys[i] < keys[j]
	})
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, strconv.Itoa(words[k])})
	}
	return rows
}

func scoreRows(scores map[string]float64) [][]string {
	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{playback.DisplayLabel(k), fmt.Sprintf("%.1f", scores[k])})
	}
	return rows
}
