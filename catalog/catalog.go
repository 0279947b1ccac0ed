// Package catalog defines the platform-agnostic track model and the interface
// every streaming-platform client implements. The matching engine and the
// conversion orchestrator both work in terms of these types; nothing here
// talks to the network.
package catalog

import (
	"context"
	"strings"
)

// Platform identifies a streaming platform. Using a typed string (rather than
// raw string comparison) keeps dispatch over platforms exhaustive.
type Platform string

const (
	PlatformSpotify    Platform = "spotify"
	PlatformAppleMusic Platform = "applemusic"
	PlatformYouTube    Platform = "youtube"
)

// DisplayName returns the human-facing platform name.
func (p Platform) DisplayName() string {
	switch p {
	case PlatformSpotify:
		return "Spotify"
	case PlatformAppleMusic:
		return "Apple Music"
	case PlatformYouTube:
		return "YouTube"
	default:
		return string(p)
	}
}

// Emoji returns the short marker used in chat replies.
func (p Platform) Emoji() string {
	switch p {
	case PlatformSpotify:
		return "🟢"
	case PlatformAppleMusic:
		return "🍎"
	case PlatformYouTube:
		return "▶️"
	default:
		return "🎵"
	}
}

// Track is a normalized bundle of descriptive fields for a song. Name, Artist
// and Album are free-form text straight from the source platform; absent
// values are empty strings, never an error. The remaining fields pass through
// untouched and play no part in match scoring.
type Track struct {
	Name       string   `json:"name"`
	Artist     string   `json:"artist"`
	Album      string   `json:"album"`
	ID         string   `json:"id"`
	URL        string   `json:"url"`
	ArtworkURL string   `json:"artwork_url,omitempty"`
	PreviewURL string   `json:"preview_url,omitempty"`
	Platform   Platform `json:"platform"`
}

// SearchQuery builds the free-text query used when searching the opposite
// catalog for candidates.
func (t *Track) SearchQuery() string {
	return strings.TrimSpace(strings.TrimSpace(t.Name) + " " + strings.TrimSpace(t.Artist))
}

// Catalog is the capability set shared by all platform clients.
type Catalog interface {
	// Platform reports which platform this client talks to.
	Platform() Platform
	// MatchURL extracts a track id from a raw link if the link belongs to
	// this platform. ok is false for foreign or malformed links.
	MatchURL(raw string) (id string, ok bool)
	// TrackByID resolves a platform track id into a Track.
	TrackByID(ctx context.Context, id string) (*Track, error)
	// Search runs a free-text track search and returns up to limit results.
	Search(ctx context.Context, query string, limit int) ([]Track, error)
}
