package db

import (
	"context"
	"database/sql"
	"strings"
)

// SubscribeChannel marks a channel as subscribed (creating the row if
// needed), recording who flipped the switch.
func SubscribeChannel(ctx context.Context, dbx *sql.DB, channel, by string) error {
	channel = strings.ToLower(strings.TrimSpace(channel))
	_, err := dbx.ExecContext(ctx, `INSERT INTO channels(name, subscribed, subscribed_by, created_at, updated_at)
		VALUES($1, TRUE, $2, NOW(), NOW())
		ON CONFLICT(name) DO UPDATE SET subscribed=TRUE, subscribed_by=$2, updated_at=NOW()`, channel, by)
	return err
}

// UnsubscribeChannel marks a channel as unsubscribed. The row is kept so a
// later resubscribe preserves history.
func UnsubscribeChannel(ctx context.Context, dbx *sql.DB, channel, by string) error {
	channel = strings.ToLower(strings.TrimSpace(channel))
	_, err := dbx.ExecContext(ctx, `INSERT INTO channels(name, subscribed, subscribed_by, created_at, updated_at)
		VALUES($1, FALSE, $2, NOW(), NOW())
		ON CONFLICT(name) DO UPDATE SET subscribed=FALSE, subscribed_by=$2, updated_at=NOW()`, channel, by)
	return err
}

// IsChannelSubscribed reports whether a channel has link conversion enabled.
// Unknown channels are not subscribed.
func IsChannelSubscribed(ctx context.Context, dbx *sql.DB, channel string) (bool, error) {
	channel = strings.ToLower(strings.TrimSpace(channel))
	var subscribed bool
	err := dbx.QueryRowContext(ctx, `SELECT subscribed FROM channels WHERE name=$1`, channel).Scan(&subscribed)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return subscribed, nil
}

// ListSubscribedChannels returns all channels with conversion enabled, in
// name order.
func ListSubscribedChannels(ctx context.Context, dbx *sql.DB) ([]string, error) {
	rows, err := dbx.QueryContext(ctx, `SELECT name FROM channels WHERE subscribed ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
