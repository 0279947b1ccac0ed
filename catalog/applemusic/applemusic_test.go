package applemusic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &Client{APIBaseURL: server.URL}
}

func TestMatchURL(t *testing.T) {
	c := &Client{}
	cases := []struct {
		raw    string
		wantID string
		wantOK bool
	}{
		{"https://music.apple.com/us/album/imagine/1440852826?i=1440852832", "1440852832", true},
		{"https://music.apple.com/de/album/imagine/1440852826?i=1440852832&ls=1", "1440852832", true},
		{"https://music.apple.com/us/song/imagine/1440852832", "1440852832", true},
		{"https://music.apple.com/us/album/imagine/1440852826", "", false},
		{"https://music.apple.com/us/album/imagine/1440852826?i=notanumber", "", false},
		{"https://open.spotify.com/track/4VqPOruhp5EdPBeR92t6lQ", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		id, ok := c.MatchURL(tc.raw)
		if id != tc.wantID || ok != tc.wantOK {
			t.Errorf("MatchURL(%q) = (%q, %v), want (%q, %v)", tc.raw, id, ok, tc.wantID, tc.wantOK)
		}
	}
}

func TestTrackByID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lookup" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if got := r.URL.Query().Get("id"); got != "1440852832" {
			t.Errorf("lookup id = %q, want 1440852832", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"resultCount": 2,
			"results": []map[string]interface{}{
				// Lookup responses lead with the collection wrapper; it must be skipped.
				{"wrapperType": "collection", "collectionName": "Imagine"},
				{
					"wrapperType":    "track",
					"kind":           "song",
					"trackId":        1440852832,
					"trackName":      "Imagine",
					"artistName":     "John Lennon",
					"collectionName": "Imagine",
					"artworkUrl100":  "https://img.example/imagine.jpg",
					"previewUrl":     "https://p.example/preview.m4a",
					"trackViewUrl":   "https://music.apple.com/us/album/imagine/1440852826?i=1440852832",
				},
			},
		})
	})

	track, err := c.TrackByID(context.Background(), "1440852832")
	if err != nil {
		t.Fatalf("TrackByID() error = %v", err)
	}
	if track.Name != "Imagine" || track.Artist != "John Lennon" || track.Album != "Imagine" {
		t.Errorf("TrackByID() = %+v, want Imagine/John Lennon/Imagine", track)
	}
	if track.ID != "1440852832" {
		t.Errorf("ID = %q, want 1440852832", track.ID)
	}
}

func TestTrackByID_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"resultCount": 0, "results": []interface{}{}})
	})
	if _, err := c.TrackByID(context.Background(), "999"); err == nil {
		t.Error("TrackByID() with empty results should return error")
	}
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if got := r.URL.Query().Get("term"); got != "Imagine John Lennon" {
			t.Errorf("search term = %q, want full query", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"resultCount": 2,
			"results": []map[string]interface{}{
				{"kind": "song", "trackId": 1, "trackName": "Imagine", "artistName": "John Lennon", "collectionName": "Imagine"},
				{"kind": "music-video", "trackId": 2, "trackName": "Imagine (Video)", "artistName": "John Lennon"},
			},
		})
	})

	tracks, err := c.Search(context.Background(), "Imagine John Lennon", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("Search() returned %d tracks, want 1 (non-songs filtered)", len(tracks))
	}
	if tracks[0].Name != "Imagine" {
		t.Errorf("Search()[0].Name = %q, want Imagine", tracks[0].Name)
	}
}

func TestSearch_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	if _, err := c.Search(context.Background(), "anything", 5); err == nil {
		t.Error("Search() with 503 should return error")
	}
}
