package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mordilloSan/go_logger/logger"
)

type WALCheckpointStats struct {
	Busy         int
	Log          int
	Checkpointed int
	Duration     time.Duration
}

// WALCheckpointTruncate checkpoints the WAL and truncates the -wal file.
// This helps prevent unbounded WAL growth in long-running processes.
func WALCheckpointTruncate(ctx context.Context, db *sql.DB) (WALCheckpointStats, error) {
	ctx = ensureContext(ctx)
	if db == nil {
		return WALCheckpointStats{}, fmt.Errorf("db is nil")
	}

	start := time.Now()
	var stats WALCheckpointStats
	err := db.QueryRowContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE);`).Scan(&stats.Busy, &stats.Log, &stats.Checkpointed)
	stats.Duration = time.Since(start).Truncate(time.Millisecond)
	if err != nil {
		return WALCheckpointStats{}, err
	}
	return stats, nil
}

// PruneStats holds statistics about the pruning operation
type PruneStats struct {
	DeletedRecords int64
	Duration       time.Duration
}

// PruneAccessLog removes access records older than maxAge.
func PruneAccessLog(ctx context.Context, db *sql.DB, maxAge time.Duration) (PruneStats, error) {
	ctx = ensureContext(ctx)
	if db == nil {
		return PruneStats{}, fmt.Errorf("db is nil")
	}
	if maxAge <= 0 {
		return PruneStats{}, fmt.Errorf("retention must be positive, got %v", maxAge)
	}

	start := time.Now()
	cutoff := time.Now().Add(-maxAge).UTC().Unix()

	result, err := db.ExecContext(ctx, `DELETE FROM access_log WHERE ts < ?;`, cutoff)
	if err != nil {
		return PruneStats{}, fmt.Errorf("delete old access records: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return PruneStats{}, fmt.Errorf("get rows affected: %w", err)
	}

	if _, err := db.ExecContext(ctx, `PRAGMA incremental_vacuum;`); err != nil {
		logger.Warnf("Incremental vacuum failed after pruning: %v", err)
	}

	return PruneStats{
		DeletedRecords: deleted,
		Duration:       time.Since(start).Truncate(time.Millisecond),
	}, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
