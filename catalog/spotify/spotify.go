// Package spotify implements the catalog.Catalog interface against the
// Spotify Web API using an app access (client credentials) token.
package spotify

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
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/tunebridge/backend/catalog"
)

const (
	defaultAPIBaseURL = "https://api.spotify.com"
	defaultTokenURL   = "https://accounts.spotify.com/api/token"
)

// trackURLPattern matches open.spotify.com track links, including the
// intl-xx locale prefix some shares carry.
var trackURLPattern = regexp.MustCompile(`^https?://open\.spotify\.com/(?:intl-[a-z]{2}(?:-[a-zA-Z]{2})?/)?track/([A-Za-z0-9]+)`)

// Client talks to the Spotify Web API. The zero value is not usable; set
// ClientID and ClientSecret. HTTPClient, APIBaseURL and TokenURL exist for
// tests and default to the real endpoints.
type Client struct {
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
	APIBaseURL   string
	TokenURL     string

	once sync.Once
	ts   oauth2.TokenSource
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

func (c *Client) tokenURL() string {
	if c.TokenURL != "" {
		return c.TokenURL
	}
	return defaultTokenURL
}

func (c *Client) grantConfig() *clientcredentials.Config {
	return &clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.tokenURL(),
	}
}

// tokenSource lazily builds a reusing (cached) client-credentials token
// source. The oauth2 package refreshes it when the cached token expires.
func (c *Client) tokenSource() oauth2.TokenSource {
	c.once.Do(func() {
		ctx := context.Background()
		if c.HTTPClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, c.HTTPClient)
		}
		c.ts = c.grantConfig().TokenSource(ctx)
	})
	return c.ts
}

// AppToken performs a fresh client-credentials grant and returns the access
// token with its expiry. Used by the token keeper to persist a current app
// token; regular API calls go through the cached tokenSource instead.
func (c *Client) AppToken(ctx context.Context) (string, time.Time, error) {
	if c.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.HTTPClient)
	}
	tok, err := c.grantConfig().Token(ctx)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("spotify app token grant: %w", err)
	}
	return tok.AccessToken, tok.Expiry, nil
}

// Platform implements catalog.Catalog.
func (c *Client) Platform() catalog.Platform { return catalog.PlatformSpotify }

// MatchURL implements catalog.Catalog.
func (c *Client) MatchURL(raw string) (string, bool) {
	m := trackURLPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return m[1], true
}

type trackPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Album struct {
		Name   string `json:"name"`
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"album"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	PreviewURL   string `json:"preview_url"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

func (p *trackPayload) toTrack() catalog.Track {
	t := catalog.Track{
		Name:       p.Name,
		Album:      p.Album.Name,
		ID:         p.ID,
		URL:        p.ExternalURLs.Spotify,
		PreviewURL: p.PreviewURL,
		Platform:   catalog.PlatformSpotify,
	}
	if len(p.Artists) > 0 {
		t.Artist = p.Artists[0].Name
	}
	if len(p.Album.Images) > 0 {
		t.ArtworkURL = p.Album.Images[0].URL
	}
	return t
}

// TrackByID implements catalog.Catalog.
func (c *Client) TrackByID(ctx context.Context, id string) (*catalog.Track, error) {
	if id == "" {
		return nil, fmt.Errorf("track id empty")
	}
	var payload trackPayload
	if err := c.getJSON(ctx, c.apiBase()+"/v1/tracks/"+url.PathEscape(id), nil, &payload); err != nil {
		return nil, err
	}
	track := payload.toTrack()
	return &track, nil
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
	q.Set("q", query)
	q.Set("type", "track")
	q.Set("limit", strconv.Itoa(limit))
	var body struct {
		Tracks struct {
			Items []trackPayload `json:"items"`
		} `json:"tracks"`
	}
	if err := c.getJSON(ctx, c.apiBase()+"/v1/search", q, &body); err != nil {
		return nil, err
	}
	out := make([]catalog.Track, 0, len(body.Tracks.Items))
	for i := range body.Tracks.Items {
		out = append(out, body.Tracks.Items[i].toTrack())
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, q url.Values, out any) error {
	tok, err := c.tokenSource().Token()
	if err != nil {
		return fmt.Errorf("spotify token: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}
	tok.SetAuthHeader(req)
	resp, err := c.http().Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("spotify request failed: %s: %s", resp.Status, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
