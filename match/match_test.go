package match

import (
	"testing"

	"github.com/tunebridge/backend/catalog"
)

func TestScore_IdenticalRecords(t *testing.T) {
	track := &catalog.Track{Name: "Imagine", Artist: "John Lennon", Album: "Imagine"}
	if got := Score(track, track); got != 100 {
		t.Errorf("Score(s, s) = %d, want 100", got)
	}
}

func TestScore_NilSafety(t *testing.T) {
	track := &catalog.Track{Name: "Imagine", Artist: "John Lennon", Album: "Imagine"}
	if got := Score(nil, track); got != 0 {
		t.Errorf("Score(nil, track) = %d, want 0", got)
	}
	if got := Score(track, nil); got != 0 {
		t.Errorf("Score(track, nil) = %d, want 0", got)
	}
	if got := Score(nil, nil); got != 0 {
		t.Errorf("Score(nil, nil) = %d, want 0", got)
	}
}

func TestScore_EmptyRecords(t *testing.T) {
	// Two fully empty records normalize to empty strings everywhere, which the
	// similarity convention treats as fully similar.
	if got := Score(&catalog.Track{}, &catalog.Track{}); got != 100 {
		t.Errorf("Score(empty, empty) = %d, want 100", got)
	}
}

func TestScore_CaseInvariance(t *testing.T) {
	a := &catalog.Track{Name: "HELLO", Artist: "ADELE", Album: "25"}
	b := &catalog.Track{Name: "hello", Artist: "adele", Album: "25"}
	if got := Score(a, b); got != 100 {
		t.Errorf("Score(upper, lower) = %d, want 100", got)
	}
}

func TestScore_PunctuationInvariance(t *testing.T) {
	a := &catalog.Track{Name: "Don't Stop", Artist: "Fleetwood Mac", Album: "Rumours"}
	b := &catalog.Track{Name: "Dont Stop", Artist: "Fleetwood Mac", Album: "Rumours"}
	if got := Score(a, b); got <= 90 {
		t.Errorf("Score with punctuation-only difference = %d, want > 90", got)
	}
}

func TestScore_AlbumWeight(t *testing.T) {
	a := &catalog.Track{Name: "Imagine", Artist: "John Lennon", Album: "Imagine"}
	b := &catalog.Track{Name: "Imagine", Artist: "John Lennon", Album: "The John Lennon Collection"}
	got := Score(a, b)
	if got >= 100 {
		t.Errorf("Score with differing album = %d, want < 100", got)
	}
	if got <= 70 {
		t.Errorf("Score with differing album = %d, want > 70 (title+artist weight intact)", got)
	}
}

func TestScore_MissingFields(t *testing.T) {
	// A missing field is an empty string, not a failure.
	a := &catalog.Track{Name: "Imagine", Artist: "John Lennon"}
	b := &catalog.Track{Name: "Imagine", Artist: "John Lennon"}
	if got := Score(a, b); got != 100 {
		t.Errorf("Score with both albums absent = %d, want 100", got)
	}
}

func TestLabel_Boundaries(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{100, "Exact match"},
		{98, "Exact match"},
		{97, "97% match"},
		{60, "60% match"},
		{59, "59% match (low confidence)"},
		{0, "0% match (low confidence)"},
		{-5, "-5% match (low confidence)"},
		{150, "Exact match"},
	}
	for _, c := range cases {
		if got := Label(c.score); got != c.want {
			t.Errorf("Label(%d) = %q, want %q", c.score, got, c.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Don't Stop", "dont stop"},
		{"  HELLO  ", "hello"},
		{"Song (Remix) - Live", "song remix  live"},
		{"", ""},
		{"!!!", ""},
		{"Sigur Rós", "sigur rós"},
	}
	for _, c := range cases {
		if got := normalize(c.in); got != c.want {
			t.Errorf("normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"imagine", "imagine", 1.0},
		{"", "", 1.0},
		{"imagine", "", 0.0},
		{"a", "b", 0.0},
		{"imagine", "yesterday", 0.0},
	}
	for _, c := range cases {
		if got := similarity(c.a, c.b); got != c.want {
			t.Errorf("similarity(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
		}
	}

	// Partial overlap lands strictly between the extremes: "hello"/"helo"
	// share 3 of 7 total bigrams once whitespace is stripped.
	got := similarity("hello", "helo")
	want := 6.0 / 7.0
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("similarity(hello, helo) = %v, want %v", got, want)
	}

	// Whitespace is not bigram material: word order contributes nothing.
	if got := similarity("ab cd", "abcd"); got != 1.0 {
		t.Errorf("similarity with differing spacing = %v, want 1.0", got)
	}
}
