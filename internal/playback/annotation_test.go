package playback

import "testing"

func TestFormatSeconds(t *testing.T) {
	cases := map[float64]string{
		0:     "0:00",
		5.9:   "0:05",
		65:    "1:05",
		600.2: "10:00",
		-3:    "0:00",
	}
	for in, want := range cases {
		if got := FormatSeconds(in); got != want {
			t.Fatalf("FormatSeconds(%v) = %q want %q", in, got, want)
		}
	}
}

func TestParseAnnotationsTolerant(t *testing.T) {
	got := ParseAnnotations([]byte(`[{"time":2,"label":"pace","message":"slow"}]`))
	if len(got) != 1 || got[0].Label != "pace" {
		t.Fatalf("unexpected annotations %v", got)
	}
	if got := ParseAnnotations([]byte(`{not json`)); got != nil {
		t.Fatalf("expected nil for malformed input, got %v", got)
	}
	if got := ParseAnnotations(nil); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}

func TestSortedByTimeLeavesInputOrder(t *testing.T) {
	in := []Annotation{{Time: 9}, {Time: 1}, {Time: 4}}
	out := SortedByTime(in)
	if out[0].Time != 1 || out[2].Time != 9 {
		t.Fatalf("unexpected sort %v", out)
	}
	if in[0].Time != 9 {
		t.Fatal("input mutated")
	}
}

func TestDisplayLabel(t *testing.T) {
	cases := map[string]string{
		"filler_words": "Filler Words",
		"eye contact":  "Eye Contact",
		"":             "Note",
	}
	for in, want := range cases {
		if got := DisplayLabel(in); got != want {
			t.Fatalf("DisplayLabel(%q) = %q want %q", in, got, want)
		}
	}
}
