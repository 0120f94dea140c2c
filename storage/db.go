package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mordilloSan/go_logger/logger"
)

const (
	defaultDBPath = "access.db"
	busyTimeoutMS = 5000
	schemaTimeout = 30 * time.Second
	batchSize     = 500
	batchTimeout  = 1 * time.Second
)

// AccessRecord describes one completed response.
type AccessRecord struct {
	Time     time.Time
	Method   string
	Path     string
	Status   int
	Bytes    int64
	Encoding string
	Duration time.Duration
}

// StreamingWriter accepts records via a channel and writes them to the database in batches.
// Record never blocks the caller; when the buffer is full the record is dropped and counted.
type StreamingWriter struct {
	db      *sql.DB
	entryCh chan AccessRecord
	doneCh  chan error
	ctx     context.Context
	cancel  context.CancelFunc
	errVal  atomic.Value
	closed  atomic.Bool
	written atomic.Int64
	dropped atomic.Int64
}

// NewStreamingWriter creates a writer that batches records and commits periodically.
// The provided ctx allows callers to cancel the writer even if Close is not reached.
func NewStreamingWriter(ctx context.Context, db *sql.DB, bufferSize int) *StreamingWriter {
	if ctx == nil {
		ctx = context.Background()
	}
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	ctx, cancel := context.WithCancel(ctx)
	sw := &StreamingWriter{
		db:      db,
		entryCh: make(chan AccessRecord, bufferSize),
		doneCh:  make(chan error, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
	go sw.run()
	return sw
}

// Record queues rec for writing. It reports false when the record was dropped.
func (sw *StreamingWriter) Record(rec AccessRecord) bool {
	if sw.closed.Load() || sw.ctx.Err() != nil {
		sw.dropped.Add(1)
		return false
	}
	select {
	case sw.entryCh <- rec:
		return true
	default:
		sw.dropped.Add(1)
		return false
	}
}

// Close signals completion and waits for all pending writes to finish.
// Record must not be called concurrently with Close.
func (sw *StreamingWriter) Close() error {
	if !sw.closed.CompareAndSwap(false, true) {
		if v, ok := sw.errVal.Load().(error); ok {
			return v
		}
		return nil
	}
	close(sw.entryCh)
	err := <-sw.doneCh
	if n := sw.dropped.Load(); n > 0 {
		logger.Warnf("Access log dropped %d records", n)
	}
	return err
}

// Written returns the number of records committed so far.
func (sw *StreamingWriter) Written() int64 {
	return sw.written.Load()
}

// Dropped returns the number of records discarded because the buffer was full.
func (sw *StreamingWriter) Dropped() int64 {
	return sw.dropped.Load()
}

// run is the background goroutine that batches and writes records.
func (sw *StreamingWriter) run() {
	var err error
	defer func() {
		if err != nil {
			sw.errVal.Store(err)
		}
		sw.doneCh <- err
		sw.cancel()
	}()

	batch := make([]AccessRecord, 0, batchSize)
	ticker := time.NewTicker(batchTimeout)
	defer ticker.Stop()

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if e := sw.writeBatch(batch); e != nil {
			return e
		}
		sw.written.Add(int64(len(batch)))
		for i := range batch {
			batch[i] = AccessRecord{}
		}
		batch = batch[:0]
		return nil
	}

	for {
		select {
		case rec, ok := <-sw.entryCh:
			if !ok {
				err = flush()
				return
			}
			batch = append(batch, rec)
			if len(batch) >= batchSize {
				if err = flush(); err != nil {
					return
				}
			}
		case <-ticker.C:
			if err = flush(); err != nil {
				return
			}
		case <-sw.ctx.Done():
			err = sw.ctx.Err()
			return
		}
	}
}

// writeBatch writes a batch of records within a single transaction.
func (sw *StreamingWriter) writeBatch(batch []AccessRecord) (err error) {
	tx, err := sw.db.BeginTx(sw.ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(sw.ctx, `
		INSERT INTO access_log (ts, method, path, status, bytes, encoding, duration_us)
		VALUES (?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range batch {
		if _, err = stmt.ExecContext(sw.ctx,
			rec.Time.UTC().Unix(),
			rec.Method,
			rec.Path,
			rec.Status,
			rec.Bytes,
			rec.Encoding,
			rec.Duration.Microseconds(),
		); err != nil {
			return fmt.Errorf("insert access record %s: %w", rec.Path, err)
		}
	}

	return tx.Commit()
}

// Open creates (or reuses) a SQLite database and ensures the schema exists.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		path = defaultDBPath
	}
	// WAL lets the stats reader run while the server is appending.
	dsn := fmt.Sprintf("%s?_busy_timeout=%d&_journal_mode=WAL&_synchronous=NORMAL&_auto_vacuum=INCREMENTAL", path, busyTimeoutMS)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()

	var journalMode string
	if err := db.QueryRowContext(ctx, `PRAGMA journal_mode=WAL;`).Scan(&journalMode); err != nil {
		_ = db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := initSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// GetJournalMode returns the SQLite journal mode for the provided database.
func GetJournalMode(ctx context.Context, db *sql.DB) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if db == nil {
		return "", fmt.Errorf("db is nil")
	}

	var mode string
	if err := db.QueryRowContext(ctx, `PRAGMA journal_mode;`).Scan(&mode); err != nil {
		return "", err
	}
	return mode, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS access_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts INTEGER NOT NULL,
			method TEXT NOT NULL,
			path TEXT NOT NULL,
			status INTEGER NOT NULL,
			bytes INTEGER NOT NULL DEFAULT 0,
			encoding TEXT NOT NULL DEFAULT '',
			duration_us INTEGER NOT NULL DEFAULT 0
		);
	`); err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_access_log_ts ON access_log(ts);
	`); err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_access_log_path ON access_log(path);
	`); err != nil {
		return err
	}

	return nil
}
