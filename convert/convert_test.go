package convert

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/tunebridge/backend/catalog"
)

// fakeCatalog is an in-memory catalog.Catalog for orchestration tests.
type fakeCatalog struct {
	platform catalog.Platform
	prefix   string
	tracks   map[string]catalog.Track
	results  []catalog.Track

	lookupErrs  []error // consumed one per TrackByID call
	searchErrs  []error // consumed one per Search call
	lookupCalls int32
	searchCalls int32
}

func (f *fakeCatalog) Platform() catalog.Platform { return f.platform }

func (f *fakeCatalog) MatchURL(raw string) (string, bool) {
	if strings.HasPrefix(raw, f.prefix) {
		return strings.TrimPrefix(raw, f.prefix), true
	}
	return "", false
}

func (f *fakeCatalog) TrackByID(ctx context.Context, id string) (*catalog.Track, error) {
	n := atomic.AddInt32(&f.lookupCalls, 1)
	if int(n) <= len(f.lookupErrs) && f.lookupErrs[n-1] != nil {
		return nil, f.lookupErrs[n-1]
	}
	t, ok := f.tracks[id]
	if !ok {
		return nil, errors.New("track not found")
	}
	return &t, nil
}

func (f *fakeCatalog) Search(ctx context.Context, query string, limit int) ([]catalog.Track, error) {
	n := atomic.AddInt32(&f.searchCalls, 1)
	if int(n) <= len(f.searchErrs) && f.searchErrs[n-1] != nil {
		return nil, f.searchErrs[n-1]
	}
	if limit < len(f.results) {
		return f.results[:limit], nil
	}
	return f.results, nil
}

func newFakeSpotify() *fakeCatalog {
	return &fakeCatalog{
		platform: catalog.PlatformSpotify,
		prefix:   "https://open.spotify.test/track/",
		tracks: map[string]catalog.Track{
			"abc123": {
				Name:     "Imagine",
				Artist:   "John Lennon",
				Album:    "Imagine",
				ID:       "abc123",
				URL:      "https://open.spotify.test/track/abc123",
				Platform: catalog.PlatformSpotify,
			},
		},
	}
}

func newFakeAppleMusic() *fakeCatalog {
	return &fakeCatalog{
		platform: catalog.PlatformAppleMusic,
		prefix:   "https://music.apple.test/song/",
		results: []catalog.Track{
			{
				Name:     "Imagine",
				Artist:   "John Lennon",
				Album:    "Imagine",
				ID:       "900",
				URL:      "https://music.apple.test/song/900",
				Platform: catalog.PlatformAppleMusic,
			},
			{
				Name:     "Imagine (Remastered)",
				Artist:   "John Lennon",
				Album:    "Imagine",
				ID:       "901",
				URL:      "https://music.apple.test/song/901",
				Platform: catalog.PlatformAppleMusic,
			},
		},
	}
}

func TestFindLink(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{"bare link", "https://open.spotify.com/track/x", "https://open.spotify.com/track/x", true},
		{"link in sentence", "check this out https://example.com/a banger", "https://example.com/a", true},
		{"trailing punctuation", "listen: https://example.com/a!!", "https://example.com/a", true},
		{"trailing paren", "(https://example.com/a)", "https://example.com/a", true},
		{"http scheme", "http://example.com/b", "http://example.com/b", true},
		{"no link", "just chatting", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := FindLink(tt.text)
			if found != tt.found || got != tt.want {
				t.Errorf("FindLink(%q) = (%q, %v), want (%q, %v)", tt.text, got, found, tt.want, tt.found)
			}
		})
	}
}

func TestSourceFor(t *testing.T) {
	spotify := newFakeSpotify()
	apple := newFakeAppleMusic()
	cv := &Converter{Catalogs: []catalog.Catalog{spotify, apple}}

	c, id, ok := cv.SourceFor("https://open.spotify.test/track/abc123")
	if !ok || c.Platform() != catalog.PlatformSpotify || id != "abc123" {
		t.Errorf("SourceFor = (%v, %q, %v), want (spotify, abc123, true)", c, id, ok)
	}

	if _, _, ok := cv.SourceFor("https://unknown.example/track/1"); ok {
		t.Error("SourceFor recognized a link no catalog handles")
	}
}

func TestConvert_EndToEnd(t *testing.T) {
	spotify := newFakeSpotify()
	apple := newFakeAppleMusic()
	cv := &Converter{Catalogs: []catalog.Catalog{spotify, apple}, SearchLimit: 5}

	conv, err := cv.Convert(context.Background(), "https://open.spotify.test/track/abc123")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if conv.Source.Name != "Imagine" || conv.Source.Platform != catalog.PlatformSpotify {
		t.Errorf("source = %+v, want the spotify Imagine track", conv.Source)
	}
	if len(conv.Targets) != 1 {
		t.Fatalf("got %d targets, want 1", len(conv.Targets))
	}
	target := conv.Targets[0]
	if target.Platform != catalog.PlatformAppleMusic {
		t.Errorf("target platform = %s, want applemusic", target.Platform)
	}
	if target.Result == nil {
		t.Fatal("target result is nil, want a match")
	}
	if target.Result.ID != "900" {
		t.Errorf("matched track id = %s, want 900 (exact title)", target.Result.ID)
	}
	if target.Result.MatchScore != 100 {
		t.Errorf("match score = %d, want 100", target.Result.MatchScore)
	}
	if !conv.Matched() {
		t.Error("Matched() = false, want true")
	}
}

func TestConvert_UnknownLink(t *testing.T) {
	cv := &Converter{Catalogs: []catalog.Catalog{newFakeSpotify()}}
	if _, err := cv.Convert(context.Background(), "https://unknown.example/x"); err == nil {
		t.Error("Convert accepted a link no catalog recognizes")
	}
}

func TestConvert_NoConfidentMatch(t *testing.T) {
	spotify := newFakeSpotify()
	apple := newFakeAppleMusic()
	apple.results = []catalog.Track{
		{Name: "Completely Different Song", Artist: "Someone Else", Album: "Other", ID: "999", Platform: catalog.PlatformAppleMusic},
	}
	cv := &Converter{Catalogs: []catalog.Catalog{spotify, apple}, SearchLimit: 5}

	conv, err := cv.Convert(context.Background(), "https://open.spotify.test/track/abc123")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if conv.Targets[0].Result != nil {
		t.Errorf("result = %+v, want nil for below-threshold candidates", conv.Targets[0].Result)
	}
	if conv.Matched() {
		t.Error("Matched() = true, want false")
	}
}

func TestConvert_SearchFailureDegrades(t *testing.T) {
	spotify := newFakeSpotify()
	apple := newFakeAppleMusic()
	apple.searchErrs = []error{errors.New("itunes api status 404: not found")}
	cv := &Converter{Catalogs: []catalog.Catalog{spotify, apple}, SearchLimit: 5}

	conv, err := cv.Convert(context.Background(), "https://open.spotify.test/track/abc123")
	if err != nil {
		t.Fatalf("Convert should not fail on a target search error: %v", err)
	}
	if conv.Targets[0].Result != nil {
		t.Error("target result should be nil when its search fails fatally")
	}
	if got := atomic.LoadInt32(&apple.searchCalls); got != 1 {
		t.Errorf("search calls = %d, want 1 (fatal errors are not retried)", got)
	}
}

func TestConvert_RetriesTransientSearchFailure(t *testing.T) {
	spotify := newFakeSpotify()
	apple := newFakeAppleMusic()
	apple.searchErrs = []error{errors.New("itunes api status 503: service unavailable")}
	cv := &Converter{Catalogs: []catalog.Catalog{spotify, apple}, SearchLimit: 5}

	conv, err := cv.Convert(context.Background(), "https://open.spotify.test/track/abc123")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if got := atomic.LoadInt32(&apple.searchCalls); got != 2 {
		t.Errorf("search calls = %d, want 2 (one retry after a transient error)", got)
	}
	if conv.Targets[0].Result == nil {
		t.Error("retry should have recovered the match")
	}
}

func TestConvert_RetriesTransientLookupFailure(t *testing.T) {
	spotify := newFakeSpotify()
	spotify.lookupErrs = []error{errors.New("connection reset by peer")}
	apple := newFakeAppleMusic()
	cv := &Converter{Catalogs: []catalog.Catalog{spotify, apple}, SearchLimit: 5}

	conv, err := cv.Convert(context.Background(), "https://open.spotify.test/track/abc123")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if got := atomic.LoadInt32(&spotify.lookupCalls); got != 2 {
		t.Errorf("lookup calls = %d, want 2", got)
	}
	if conv.Source.ID != "abc123" {
		t.Errorf("source id = %s, want abc123", conv.Source.ID)
	}
}

func TestConvert_FatalLookupFailure(t *testing.T) {
	spotify := newFakeSpotify()
	spotify.lookupErrs = []error{errors.New("spotify api status 404: non existing id")}
	cv := &Converter{Catalogs: []catalog.Catalog{spotify, newFakeAppleMusic()}}

	_, err := cv.Convert(context.Background(), "https://open.spotify.test/track/abc123")
	if err == nil {
		t.Fatal("Convert succeeded despite a fatal lookup error")
	}
	if got := atomic.LoadInt32(&spotify.lookupCalls); got != 1 {
		t.Errorf("lookup calls = %d, want 1 (fatal errors are not retried)", got)
	}
}

func TestFormatReply(t *testing.T) {
	conv := &Conversion{
		Source: catalog.Track{
			Name:     "Imagine",
			Artist:   "John Lennon",
			Platform: catalog.PlatformSpotify,
		},
	}
	conv.Targets = []TargetMatch{
		{Platform: catalog.PlatformAppleMusic},
	}

	got := FormatReply(conv)
	if !strings.Contains(got, "no confident match found") {
		t.Errorf("unmatched reply = %q, want a no-match line", got)
	}
	if !strings.Contains(got, "Spotify") || !strings.Contains(got, "Apple Music") {
		t.Errorf("reply %q should name both platforms", got)
	}
}

func TestFormatReply_Matched(t *testing.T) {
	spotify := newFakeSpotify()
	apple := newFakeAppleMusic()
	cv := &Converter{Catalogs: []catalog.Catalog{spotify, apple}, SearchLimit: 5}

	conv, err := cv.Convert(context.Background(), "https://open.spotify.test/track/abc123")
	if err != nil {
		t.Fatal(err)
	}

	got := FormatReply(conv)
	if !strings.Contains(got, "Exact match") {
		t.Errorf("reply = %q, want the Exact match label", got)
	}
	if !strings.Contains(got, "https://music.apple.test/song/900") {
		t.Errorf("reply = %q, want the converted link", got)
	}
}

func TestHandleMessage(t *testing.T) {
	spotify := newFakeSpotify()
	apple := newFakeAppleMusic()
	cv := &Converter{Catalogs: []catalog.Catalog{spotify, apple}, SearchLimit: 5}
	ctx := context.Background()

	if _, ok := cv.HandleMessage(ctx, "chan", "user", "no links here"); ok {
		t.Error("HandleMessage replied to a message without a link")
	}
	if _, ok := cv.HandleMessage(ctx, "chan", "user", "https://other.example/x"); ok {
		t.Error("HandleMessage replied to an unrecognized link")
	}

	reply, ok := cv.HandleMessage(ctx, "chan", "user", "song of the day https://open.spotify.test/track/abc123 !")
	if !ok {
		t.Fatal("HandleMessage did not reply to a recognized link")
	}
	if !strings.Contains(reply, "music.apple.test") {
		t.Errorf("reply = %q, want the apple music link", reply)
	}
}
