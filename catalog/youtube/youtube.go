// Package youtube implements the catalog.Catalog interface against the
// YouTube Data API v3. It is an optional catalog: the bot only registers it
// when YOUTUBE_API_KEY is configured. YouTube has no album metadata, so
// tracks from this catalog carry an empty album field and the video channel
// title stands in for the artist.
package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/tunebridge/backend/catalog"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// Client talks to the YouTube Data API. Endpoint and HTTPClient exist for
// tests; the service is built lazily on first use.
type Client struct {
	APIKey     string
	Endpoint   string
	HTTPClient *http.Client

	once    sync.Once
	svc     *yt.Service
	initErr error
}

func (c *Client) service(ctx context.Context) (*yt.Service, error) {
	c.once.Do(func() {
		opts := []option.ClientOption{option.WithAPIKey(c.APIKey)}
		if c.Endpoint != "" {
			opts = append(opts, option.WithEndpoint(c.Endpoint))
		}
		if c.HTTPClient != nil {
			opts = append(opts, option.WithHTTPClient(c.HTTPClient))
		}
		c.svc, c.initErr = yt.NewService(ctx, opts...)
	})
	return c.svc, c.initErr
}

// Platform implements catalog.Catalog.
func (c *Client) Platform() catalog.Platform { return catalog.PlatformYouTube }

// MatchURL implements catalog.Catalog. Recognized forms:
// youtube.com/watch?v=ID, music.youtube.com/watch?v=ID and youtu.be/ID.
func (c *Client) MatchURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if u.Path != "/watch" {
			return "", false
		}
		id := u.Query().Get("v")
		if !videoIDPattern.MatchString(id) {
			return "", false
		}
		return id, true
	case "youtu.be":
		id := strings.Trim(u.Path, "/")
		if !videoIDPattern.MatchString(id) {
			return "", false
		}
		return id, true
	default:
		return "", false
	}
}

// TrackByID implements catalog.Catalog.
func (c *Client) TrackByID(ctx context.Context, id string) (*catalog.Track, error) {
	if id == "" {
		return nil, fmt.Errorf("video id empty")
	}
	svc, err := c.service(ctx)
	if err != nil {
		return nil, fmt.Errorf("youtube service init: %w", err)
	}
	resp, err := svc.Videos.List([]string{"snippet"}).Id(id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("youtube videos.list: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("youtube video %s not found", id)
	}
	var title, channel string
	var thumbs *yt.ThumbnailDetails
	if sn := resp.Items[0].Snippet; sn != nil {
		title, channel, thumbs = sn.Title, sn.ChannelTitle, sn.Thumbnails
	}
	track := buildTrack(id, title, channel, thumbs)
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
	svc, err := c.service(ctx)
	if err != nil {
		return nil, fmt.Errorf("youtube service init: %w", err)
	}
	resp, err := svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		VideoCategoryId("10"). // music category
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search.list: %w", err)
	}
	out := make([]catalog.Track, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		var title, channel string
		var thumbs *yt.ThumbnailDetails
		if item.Snippet != nil {
			title, channel, thumbs = item.Snippet.Title, item.Snippet.ChannelTitle, item.Snippet.Thumbnails
		}
		out = append(out, buildTrack(item.Id.VideoId, title, channel, thumbs))
	}
	return out, nil
}

func buildTrack(id, title, channel string, thumbs *yt.ThumbnailDetails) catalog.Track {
	t := catalog.Track{
		Name:     title,
		Artist:   channel,
		ID:       id,
		URL:      watchURL(id),
		Platform: catalog.PlatformYouTube,
	}
	if thumbs != nil && thumbs.High != nil {
		t.ArtworkURL = thumbs.High.Url
	}
	return t
}

func watchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(id)
}
