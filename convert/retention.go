package convert

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/tunebridge/backend/db"
)

// RetentionPolicy controls pruning of conversion audit rows.
type RetentionPolicy struct {
	// KeepDays: conversions older than this many days are pruned (0 = disabled)
	KeepDays int
	// DryRun: when true, log what would be pruned but don't delete
	DryRun bool
	// Interval: how often to run the prune job
	Interval time.Duration
}

// LoadRetentionPolicy loads retention configuration from environment variables.
func LoadRetentionPolicy() RetentionPolicy {
	policy := RetentionPolicy{
		KeepDays: 90,
		Interval: 6 * time.Hour,
	}

	if s := os.Getenv("CONVERSION_RETENTION_DAYS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			policy.KeepDays = n
		}
	}

	if os.Getenv("RETENTION_DRY_RUN") == "1" {
		policy.DryRun = true
	}

	if s := os.Getenv("RETENTION_INTERVAL"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			policy.Interval = d
		}
	}

	return policy
}

// StartRetentionJob runs a background job that periodically prunes old
// conversion audit rows. Blocks until ctx is canceled.
func StartRetentionJob(ctx context.Context, dbc *sql.DB) {
	policy := LoadRetentionPolicy()

	if policy.KeepDays == 0 {
		slog.Info("conversion retention disabled (CONVERSION_RETENTION_DAYS=0)")
		return
	}

	slog.Info("conversion retention job starting",
		slog.Int("keep_days", policy.KeepDays),
		slog.Bool("dry_run", policy.DryRun),
		slog.Duration("interval", policy.Interval))

	// Run immediately on start
	if err := runRetentionPrune(ctx, dbc, policy); err != nil {
		slog.Warn("conversion retention prune failed", slog.Any("err", err))
	}

	ticker := time.NewTicker(policy.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("conversion retention job stopped")
			return
		case <-ticker.C:
			if err := runRetentionPrune(ctx, dbc, policy); err != nil {
				slog.Warn("conversion retention prune failed", slog.Any("err", err))
			}
		}
	}
}

// runRetentionPrune performs a single prune cycle.
func runRetentionPrune(ctx context.Context, dbc *sql.DB, policy RetentionPolicy) error {
	logger := slog.Default().With(
		slog.String("component", "conversion_retention"),
		slog.Bool("dry_run", policy.DryRun),
	)

	cutoff := time.Now().Add(-time.Duration(policy.KeepDays) * 24 * time.Hour)

	if policy.DryRun {
		var eligible int64
		err := dbc.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM conversions WHERE created_at < $1`, cutoff).Scan(&eligible)
		if err != nil {
			return err
		}
		logger.Info("dry-run: would prune conversions",
			slog.Int64("count", eligible),
			slog.Time("cutoff", cutoff))
		return nil
	}

	pruned, err := db.PruneConversions(ctx, dbc, cutoff)
	if err != nil {
		return err
	}
	if pruned > 0 {
		logger.Info("pruned old conversions",
			slog.Int64("pruned", pruned),
			slog.Time("cutoff", cutoff))
	}
	return nil
}
