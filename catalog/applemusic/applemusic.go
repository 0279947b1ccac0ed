// Package applemusic implements the catalog.Catalog interface against the
// public iTunes Lookup and Search APIs. No credentials are required, which
// keeps the Apple side of conversions free of token plumbing.
package applemusic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/tunebridge/backend/catalog"
)

const defaultAPIBaseURL = "https://itunes.apple.com"

var (
	// music.apple.com/{storefront}/album/{slug}/{collectionID}?i={trackID}
	albumURLPattern = regexp.MustCompile(`^https?://music\.apple\.com/[a-z]{2}/album/[^/]+/\d+`)
	// music.apple.com/{storefront}/song/{slug}/{trackID}
	songURLPattern = regexp.MustCompile(`^https?://music\.apple\.com/[a-z]{2}/song/(?:[^/]+/)?(\d+)`)
)

// Client talks to the iTunes API. The zero value works against the real
// endpoints; APIBaseURL and HTTPClient exist for tests.
type Client struct {
	HTTPClient *http.Client
	APIBaseURL string
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) apiBase() string {
	if c.APIBaseURL != "" {
		return c.APIBaseURL
	}
	return defaultAPIBaseURL
}

// Platform implements catalog.Catalog.
func (c *Client) Platform() catalog.Platform { return catalog.PlatformAppleMusic }

// MatchURL implements catalog.Catalog. Album links carry the track id in the
// "i" query parameter; song links carry it in the path.
func (c *Client) MatchURL(raw string) (string, bool) {
	if m := songURLPattern.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}
	if !albumURLPattern.MatchString(raw) {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	id := u.Query().Get("i")
	if id == "" || strings.TrimLeft(id, "0123456789") != "" {
		return "", false
	}
	return id, true
}

type lookupResult struct {
	WrapperType    string `json:"wrapperType"`
	Kind           string `json:"kind"`
	TrackID        int64  `json:"trackId"`
	TrackName      string `json:"trackName"`
	ArtistName     string `json:"artistName"`
	CollectionName string `json:"collectionName"`
	ArtworkURL     string `json:"artworkUrl100"`
	PreviewURL     string `json:"previewUrl"`
	TrackViewURL   string `json:"trackViewUrl"`
}

func (r *lookupResult) toTrack() catalog.Track {
	return catalog.Track{
		Name:       r.TrackName,
		Artist:     r.ArtistName,
		Album:      r.CollectionName,
		ID:         strconv.FormatInt(r.TrackID, 10),
		URL:        r.TrackViewURL,
		ArtworkURL: r.ArtworkURL,
		PreviewURL: r.PreviewURL,
		Platform:   catalog.PlatformAppleMusic,
	}
}

// TrackByID implements catalog.Catalog.
func (c *Client) TrackByID(ctx context.Context, id string) (*catalog.Track, error) {
	if id == "" {
		return nil, fmt.Errorf("track id empty")
	}
	q := url.Values{}
	q.Set("id", id)
	q.Set("entity", "song")
	results, err := c.fetch(ctx, "/lookup", q)
	if err != nil {
		return nil, err
	}
	for i := range results {
		if results[i].Kind == "song" {
			track := results[i].toTrack()
			return &track, nil
		}
	}
	return nil, fmt.Errorf("apple music track %s not found", id)
}

// Search implements catalog.Catalog.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]catalog.Track, error) {
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}
	q := url.Values{}
	q.Set("term", query)
	q.Set("entity", "song")
	q.Set("media", "music")
	q.Set("limit", strconv.Itoa(limit))
	results, err := c.fetch(ctx, "/search", q)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Track, 0, len(results))
	for i := range results {
		if results[i].Kind != "song" {
			continue
		}
		out = append(out, results[i].toTrack())
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, path string, q url.Values) ([]lookupResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase()+path, nil)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = q.Encode()
	resp, err := c.http().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("itunes request failed: %s: %s", resp.Status, string(b))
	}
	var body struct {
		Results []lookupResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Results, nil
}
