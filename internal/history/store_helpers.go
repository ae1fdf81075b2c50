package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const sessionColumns = "id, created_at, kind, preset, wpm, pace_label, filler_count, duration_s, scores_json, strengths_json, improvements_json, transcript, non_verbal_json, video_uri, annotations_json, extra_json"

func encodeSession(s Session) ([]any, error) {
	scores, err := marshalOptional(s.Scores, len(s.Scores) == 0)
	if err != nil {
		return nil, fmt.Errorf("encode scores: %w", err)
	}
	strengths, err := marshalOptional(s.Strengths, len(s.Strengths) == 0)
	if err != nil {
		return nil, fmt.Errorf("encode strengths: %w", err)
	}
	improvements, err := marshalOptional(s.Improvements, len(s.Improvements) == 0)
	if err != nil {
		return nil, fmt.Errorf("encode improvements: %w", err)
	}
	nonVerbal, err := marshalOptional(s.NonVerbal, len(s.NonVerbal) == 0)
	if err != nil {
		return nil, fmt.Errorf("encode non-verbal: %w", err)
	}
	annotations, err := marshalOptional(s.Annotations, len(s.Annotations) == 0)
	if err != nil {
		return nil, fmt.Errorf("encode annotations: %w", err)
	}
	extra, err := marshalOptional(s.Extra, len(s.Extra) == 0)
	if err != nil {
		return nil, fmt.Errorf("encode extra: %w", err)
	}

	var fillers any
	if s.FillerCount != nil {
		fillers = int64(*s.FillerCount)
	}
	return []any{
		s.ID,
		s.CreatedAt.UTC().Format(timeLayout),
		string(s.Kind),
		s.Preset,
		nullableFloat(s.WPM),
		nullableString(s.PaceLabel),
		fillers,
		nullableFloat(s.DurationSeconds),
		scores,
		strengths,
		improvements,
		nullableString(s.Transcript),
		nonVerbal,
		nullableString(s.VideoURI),
		annotations,
		extra,
	}, nil
}

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		id           string
		createdRaw   string
		kind         string
		preset       string
		wpm          sql.NullFloat64
		paceLabel    sql.NullString
		fillerCount  sql.NullInt64
		duration     sql.NullFloat64
		scores       sql.NullString
		strengths    sql.NullString
		improvements sql.NullString
		transcript   sql.NullString
		nonVerbal    sql.NullString
		videoURI     sql.NullString
		annotations  sql.NullString
		extra        sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&createdRaw,
		&kind,
		&preset,
		&wpm,
		&paceLabel,
		&fillerCount,
		&duration,
		&scores,
		&strengths,
		&improvements,
		&transcript,
		&nonVerbal,
		&videoURI,
		&annotations,
		&extra,
	); err != nil {
		return nil, err
	}

	session := &Session{
		ID:         id,
		Kind:       Kind(kind),
		Preset:     preset,
		PaceLabel:  paceLabel.String,
		Transcript: transcript.String,
		VideoURI:   videoURI.String,
	}
	if created, err := time.Parse(timeLayout, createdRaw); err == nil {
		session.CreatedAt = created
	}
	if wpm.Valid {
		v := wpm.Float64
		session.WPM = &v
	}
	if fillerCount.Valid {
		v := int(fillerCount.Int64)
		session.FillerCount = &v
	}
	if duration.Valid {
		v := duration.Float64
		session.DurationSeconds = &v
	}
	// Malformed JSON columns decode to empty values rather than failing the
	// whole row.
	unmarshalOptional(scores, &session.Scores)
	unmarshalOptional(strengths, &session.Strengths)
	unmarshalOptional(improvements, &session.Improvements)
	unmarshalOptional(nonVerbal, &session.NonVerbal)
	unmarshalOptional(annotations, &session.Annotations)
	unmarshalOptional(extra, &session.Extra)
	return session, nil
}

func marshalOptional(value any, empty bool) (any, error) {
	if empty {
		return nil, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func unmarshalOptional(raw sql.NullString, dst any) {
	if !raw.Valid || raw.String == "" {
		return
	}
	_ = json.Unmarshal([]byte(raw.String), dst)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}
