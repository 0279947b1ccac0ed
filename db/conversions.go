package db

import (
	"context"
	"database/sql"
	"time"
)

// Conversion is one audit row of a link conversion attempt. A row is written
// for every resolved source link, whether or not a match was found.
type Conversion struct {
	ID             int64     `json:"id"`
	Channel        string    `json:"channel,omitempty"`
	RequestedBy    string    `json:"requested_by,omitempty"`
	SourcePlatform string    `json:"source_platform"`
	SourceTrackID  string    `json:"source_track_id"`
	SourceURL      string    `json:"source_url,omitempty"`
	TargetPlatform string    `json:"target_platform"`
	TargetTrackID  string    `json:"target_track_id,omitempty"`
	TargetURL      string    `json:"target_url,omitempty"`
	MatchScore     int       `json:"match_score"`
	Matched        bool      `json:"matched"`
	CreatedAt      time.Time `json:"created_at"`
}

// InsertConversion records one conversion attempt.
func InsertConversion(ctx context.Context, dbx *sql.DB, c *Conversion) error {
	return dbx.QueryRowContext(ctx, `INSERT INTO conversions
		(channel, requested_by, source_platform, source_track_id, source_url, target_platform, target_track_id, target_url, match_score, matched, created_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW())
		RETURNING id, created_at`,
		c.Channel, c.RequestedBy, c.SourcePlatform, c.SourceTrackID, c.SourceURL,
		c.TargetPlatform, c.TargetTrackID, c.TargetURL, c.MatchScore, c.Matched,
	).Scan(&c.ID, &c.CreatedAt)
}

// RecentConversions returns the newest conversion rows, newest first.
func RecentConversions(ctx context.Context, dbx *sql.DB, limit int) ([]Conversion, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := dbx.QueryContext(ctx, `SELECT id, channel, requested_by, source_platform, source_track_id,
		COALESCE(source_url,''), target_platform, COALESCE(target_track_id,''), COALESCE(target_url,''),
		COALESCE(match_score,0), matched, created_at
		FROM conversions ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Conversion
	for rows.Next() {
		var c Conversion
		if err := rows.Scan(&c.ID, &c.Channel, &c.RequestedBy, &c.SourcePlatform, &c.SourceTrackID,
			&c.SourceURL, &c.TargetPlatform, &c.TargetTrackID, &c.TargetURL,
			&c.MatchScore, &c.Matched, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// PruneConversions deletes conversion rows older than the cutoff and returns
// how many were removed.
func PruneConversions(ctx context.Context, dbx *sql.DB, cutoff time.Time) (int64, error) {
	res, err := dbx.ExecContext(ctx, `DELETE FROM conversions WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
