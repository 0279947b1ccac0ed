// Package convert orchestrates link conversions: it resolves an inbound music
// link to a track via the source catalog, searches every other catalog for
// candidates, and picks the best one with the matching engine. Catalog
// failures are resolved to empty candidate lists here; the matching engine
// never sees transport errors.
package convert

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/tunebridge/backend/catalog"
	"github.com/tunebridge/backend/db"
	"github.com/tunebridge/backend/match"
	"github.com/tunebridge/backend/telemetry"
)

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// FindLink extracts the first URL from a chat message, trimming trailing
// punctuation people attach to links.
func FindLink(text string) (string, bool) {
	m := urlPattern.FindString(text)
	m = strings.TrimRight(m, ".,!?;:)]}>\"'")
	if m == "" {
		return "", false
	}
	return m, true
}

// TargetMatch is the outcome for one target platform. Result is nil when no
// candidate cleared the confidence threshold; that is a normal outcome, not
// an error.
type TargetMatch struct {
	Platform catalog.Platform `json:"platform"`
	Result   *match.Result    `json:"result,omitempty"`
}

// Conversion is a resolved source track plus the best match per target
// platform, in registration order.
type Conversion struct {
	Source  catalog.Track `json:"source"`
	Targets []TargetMatch `json:"targets"`
}

// Matched reports whether any target found an acceptable match.
func (c *Conversion) Matched() bool {
	for i := range c.Targets {
		if c.Targets[i].Result != nil {
			return true
		}
	}
	return false
}

// Converter wires the catalogs, the audit log and the matching engine
// together. Safe for concurrent use.
type Converter struct {
	Catalogs    []catalog.Catalog
	DB          *sql.DB // optional; nil disables conversion audit rows
	SearchLimit int

	group singleflight.Group
}

// SourceFor returns the catalog a raw link belongs to and the track id it
// carries, or ok=false for links no registered catalog recognizes.
func (cv *Converter) SourceFor(raw string) (catalog.Catalog, string, bool) {
	for _, c := range cv.Catalogs {
		if id, ok := c.MatchURL(raw); ok {
			return c, id, true
		}
	}
	return nil, "", false
}

// Convert resolves a music link into a Conversion. Concurrent requests for
// the same source track share one in-flight conversion (per-link dedup).
func (cv *Converter) Convert(ctx context.Context, rawURL string) (*Conversion, error) {
	source, id, ok := cv.SourceFor(rawURL)
	if !ok {
		return nil, fmt.Errorf("no catalog recognizes link %q", rawURL)
	}
	key := string(source.Platform()) + ":" + id
	v, err, shared := cv.group.Do(key, func() (interface{}, error) {
		return cv.convertTrack(ctx, source, id)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		telemetry.LoggerWithCorr(ctx).Debug("conversion deduplicated", slog.String("key", key))
	}
	return v.(*Conversion), nil
}

func (cv *Converter) convertTrack(ctx context.Context, source catalog.Catalog, id string) (*Conversion, error) {
	if telemetry.ConversionsStarted != nil {
		telemetry.ConversionsStarted.Inc()
	}
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "convert", "convert-track",
		telemetry.PlatformAttr(string(source.Platform())))
	defer span.End()

	original, err := cv.lookupSource(ctx, source, id)
	if err != nil {
		if telemetry.ConversionsFailed != nil {
			telemetry.ConversionsFailed.Inc()
		}
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("resolve %s track %s: %w", source.Platform(), id, err)
	}

	conv := &Conversion{Source: *original}
	conv.Targets = make([]TargetMatch, 0, len(cv.Catalogs)-1)
	idx := map[catalog.Platform]int{}
	for _, c := range cv.Catalogs {
		if c.Platform() == source.Platform() {
			continue
		}
		idx[c.Platform()] = len(conv.Targets)
		conv.Targets = append(conv.Targets, TargetMatch{Platform: c.Platform()})
	}

	// Fan out candidate searches to all targets. A failed search degrades to
	// an empty candidate list for that target; it never fails the conversion.
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range cv.Catalogs {
		if c.Platform() == source.Platform() {
			continue
		}
		target := c
		g.Go(func() error {
			candidates := cv.searchCandidates(gctx, target, original)
			conv.Targets[idx[target.Platform()]].Result = match.SelectBest(original, candidates)
			return nil
		})
	}
	_ = g.Wait()

	if telemetry.ConversionDuration != nil {
		telemetry.ConversionDuration.Observe(time.Since(start).Seconds())
	}
	matched := false
	for i := range conv.Targets {
		if r := conv.Targets[i].Result; r != nil {
			matched = true
			telemetry.ObserveMatchScore(r.MatchScore)
		}
	}
	if matched {
		if telemetry.ConversionsMatched != nil {
			telemetry.ConversionsMatched.Inc()
		}
	} else if telemetry.ConversionsUnmatched != nil {
		telemetry.ConversionsUnmatched.Inc()
	}
	telemetry.SetSpanSuccess(span)
	return conv, nil
}

// lookupSource resolves the source track, retrying once on a transient
// failure.
func (cv *Converter) lookupSource(ctx context.Context, source catalog.Catalog, id string) (*catalog.Track, error) {
	if !acquireLookupSlot(ctx) {
		return nil, ctx.Err()
	}
	defer releaseLookupSlot()

	var track *catalog.Track
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
		}
		start := time.Now()
		track, err = source.TrackByID(ctx, id)
		if telemetry.LookupDuration != nil {
			telemetry.LookupDuration.Observe(time.Since(start).Seconds())
		}
		if err == nil {
			return track, nil
		}
		if IsFatalError(err) {
			return nil, err
		}
	}
	return nil, err
}

// searchCandidates fetches candidates from one target catalog, retrying once
// on a transient failure. Errors resolve to an empty list.
func (cv *Converter) searchCandidates(ctx context.Context, target catalog.Catalog, original *catalog.Track) []catalog.Track {
	if !acquireLookupSlot(ctx) {
		return nil
	}
	defer releaseLookupSlot()

	limit := cv.SearchLimit
	if limit <= 0 {
		limit = 5
	}
	query := original.SearchQuery()
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(500 * time.Millisecond):
			}
		}
		start := time.Now()
		candidates, err := target.Search(ctx, query, limit)
		if telemetry.SearchDuration != nil {
			telemetry.SearchDuration.Observe(time.Since(start).Seconds())
		}
		if err == nil {
			return candidates
		}
		slog.Warn("candidate search failed",
			slog.String("platform", string(target.Platform())),
			slog.String("class", ClassifyCatalogError(err).String()),
			slog.Any("err", err))
		if IsFatalError(err) {
			return nil
		}
	}
	return nil
}

// Record writes one audit row per target for a finished conversion. A nil DB
// makes this a no-op.
func (cv *Converter) Record(ctx context.Context, channel, user string, conv *Conversion) {
	if cv.DB == nil || conv == nil {
		return
	}
	for i := range conv.Targets {
		t := &conv.Targets[i]
		row := &db.Conversion{
			Channel:        channel,
			RequestedBy:    user,
			SourcePlatform: string(conv.Source.Platform),
			SourceTrackID:  conv.Source.ID,
			SourceURL:      conv.Source.URL,
			TargetPlatform: string(t.Platform),
		}
		if t.Result != nil {
			row.TargetTrackID = t.Result.ID
			row.TargetURL = t.Result.URL
			row.MatchScore = t.Result.MatchScore
			row.Matched = true
		}
		if err := db.InsertConversion(ctx, cv.DB, row); err != nil {
			slog.Warn("failed to record conversion", slog.Any("err", err))
		}
	}
}

// FormatReply renders a conversion for chat: one line per target, matched
// targets carrying the confidence label and the converted link.
func FormatReply(conv *Conversion) string {
	src := conv.Source.Platform
	lines := make([]string, 0, len(conv.Targets))
	for i := range conv.Targets {
		t := &conv.Targets[i]
		head := fmt.Sprintf("%s %s → %s %s", src.Emoji(), src.DisplayName(), t.Platform.Emoji(), t.Platform.DisplayName())
		if t.Result == nil {
			lines = append(lines, head+": no confident match found")
			continue
		}
		lines = append(lines, fmt.Sprintf("%s (%s)\n%s", head, match.Label(t.Result.MatchScore), t.Result.URL))
	}
	return strings.Join(lines, "\n")
}

// HandleMessage is the chat-facing entrypoint: if text contains a link some
// catalog recognizes, it runs the conversion, records it, and returns the
// reply. ok is false when the message needs no reply.
func (cv *Converter) HandleMessage(ctx context.Context, channel, user, text string) (string, bool) {
	link, found := FindLink(text)
	if !found {
		return "", false
	}
	if _, _, recognized := cv.SourceFor(link); !recognized {
		return "", false
	}
	conv, err := cv.Convert(ctx, link)
	if err != nil {
		telemetry.LoggerWithCorr(ctx).Warn("conversion failed",
			slog.String("channel", channel),
			slog.String("link", link),
			slog.Any("err", err))
		return "", false
	}
	cv.Record(ctx, channel, user, conv)
	return FormatReply(conv), true
}
