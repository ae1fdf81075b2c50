package textutil

import "testing"

func TestSafeFileName(t *testing.T) {
	cases := map[string]string{
		"  talk: take 2?.mkv ": "talk- take 2.mkv",
		"a/b\\c*d":             "a-b-c-d",
		`"<quoted>|"`:          "quoted",
		"clip\x00\tname.webm":  "clipname.webm",
		"   ":                  "",
	}
	for input, want := range cases {
		if got := SafeFileName(input); got != want {
			t.Errorf("SafeFileName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Job Interview":  "job_interview",
		"qa_drill":       "qa_drill",
		"  ":             "unknown",
		"!!!":            "unknown",
		"Pitch-Deck v2!": "pitch-deck_v2",
		"Ünïcode":        "n_code",
	}
	for input, want := range cases {
		if got := Slug(input); got != want {
			t.Errorf("Slug(%q) = %q, want %q", input, got, want)
		}
	}
}
