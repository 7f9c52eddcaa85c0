package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/scopecrawl/internal/model"
)

// FileName is the name of the crawl log inside the database directory.
const FileName = "scopecrawl.db"

// CrawlDB provides SQLite-based storage for the crawl log.
// It records what happened to each processed page and every summary that
// was emitted.
//
// Design decision: The crawl log is write-only from the crawler's point of
// view. A new session always starts with an empty aggregation store; the
// log exists so a finished or interrupted crawl can be inspected later.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in the given directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, ErrNotFound
// is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; the crawl callbacks share it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- Pages store one row per processed URL
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		final_url TEXT,
		status_code INTEGER,
		title TEXT,
		links_found INTEGER DEFAULT 0,
		links_accepted INTEGER DEFAULT 0,
		token_count INTEGER DEFAULT 0,
		raw_hash TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_pages_timestamp ON pages(timestamp);

	-- Summaries store every emitted snapshot
	CREATE TABLE IF NOT EXISTS summaries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		word_limit INTEGER NOT NULL,
		unique_url_count INTEGER NOT NULL,
		top_words TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_summaries_timestamp ON summaries(timestamp);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// InsertPageRecord inserts or updates a page record.
// Uses UPSERT so a page processed twice keeps a single row.
func (cdb *CrawlDB) InsertPageRecord(ctx context.Context, record *model.PageRecord) error {
	if record == nil || record.URL == "" {
		return ErrInvalidRecord
	}

	query := `
	INSERT INTO pages (url, final_url, status_code, title, links_found, links_accepted, token_count, raw_hash)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		final_url = excluded.final_url,
		status_code = excluded.status_code,
		title = excluded.title,
		links_found = excluded.links_found,
		links_accepted = excluded.links_accepted,
		token_count = excluded.token_count,
		raw_hash = excluded.raw_hash,
		timestamp = CURRENT_TIMESTAMP
	`

	_, err := cdb.db.ExecContext(ctx, query,
		record.URL,
		record.FinalURL,
		record.StatusCode,
		record.Title,
		record.LinksFound,
		record.LinksAccepted,
		record.TokenCount,
		record.Hash,
	)
	if err != nil {
		return fmt.Errorf("failed to insert page record: %w", err)
	}

	return nil
}

// pageColumns is the column list shared by page queries.
const pageColumns = `id, url, final_url, status_code, title, links_found, links_accepted, token_count, raw_hash, timestamp`

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanPage reads one pages row.
func scanPage(row rowScanner) (*model.PageRecord, error) {
	var record model.PageRecord
	var finalURL, title, hash sql.NullString
	var timestamp string

	err := row.Scan(
		&record.ID,
		&record.URL,
		&finalURL,
		&record.StatusCode,
		&title,
		&record.LinksFound,
		&record.LinksAccepted,
		&record.TokenCount,
		&hash,
		&timestamp,
	)
	if err != nil {
		return nil, err
	}

	record.FinalURL = finalURL.String
	record.Title = title.String
	record.Hash = hash.String
	record.Timestamp = parseTimestamp(timestamp)

	return &record, nil
}

// GetPageRecord retrieves a page record by URL.
// It returns nil without an error if the page was never recorded.
func (cdb *CrawlDB) GetPageRecord(ctx context.Context, url string) (*model.PageRecord, error) {
	query := `SELECT ` + pageColumns + ` FROM pages WHERE url = ?`

	record, err := scanPage(cdb.db.QueryRowContext(ctx, query, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page record: %w", err)
	}

	return record, nil
}

// ListPageRecords returns the most recently processed pages first.
// A non-positive limit returns every page.
func (cdb *CrawlDB) ListPageRecords(ctx context.Context, limit int) ([]*model.PageRecord, error) {
	query := `SELECT ` + pageColumns + ` FROM pages ORDER BY timestamp DESC, id DESC`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list page records: %w", err)
	}
	defer rows.Close()

	records := make([]*model.PageRecord, 0)
	for rows.Next() {
		record, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page record: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// PageCount returns the number of recorded pages.
func (cdb *CrawlDB) PageCount(ctx context.Context) (int, error) {
	var count int
	if err := cdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return count, nil
}

// SummaryRecord is a stored summary snapshot.
type SummaryRecord struct {
	// ID is the unique identifier of the snapshot in the database.
	ID int64

	// Timestamp is when the snapshot was stored.
	Timestamp time.Time

	// Summary is the snapshot itself.
	Summary *model.Summary
}

// SaveSummary stores a summary snapshot.
func (cdb *CrawlDB) SaveSummary(ctx context.Context, summary *model.Summary) error {
	if summary == nil {
		return ErrInvalidRecord
	}

	wordsJSON, err := json.Marshal(summary.TopWords)
	if err != nil {
		return fmt.Errorf("failed to serialize top words: %w", err)
	}

	query := `
	INSERT INTO summaries (word_limit, unique_url_count, top_words)
	VALUES (?, ?, ?)
	`

	if _, err := cdb.db.ExecContext(ctx, query, summary.Limit, summary.UniqueURLCount, string(wordsJSON)); err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}

	return nil
}

// summaryColumns is the column list shared by summary queries.
const summaryColumns = `id, word_limit, unique_url_count, top_words, timestamp`

// scanSummary reads one summaries row.
func scanSummary(row rowScanner) (*SummaryRecord, error) {
	var record SummaryRecord
	var summary model.Summary
	var wordsJSON, timestamp string

	if err := row.Scan(&record.ID, &summary.Limit, &summary.UniqueURLCount, &wordsJSON, &timestamp); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(wordsJSON), &summary.TopWords); err != nil {
		return nil, fmt.Errorf("failed to parse top words: %w", err)
	}

	record.Timestamp = parseTimestamp(timestamp)
	record.Summary = &summary

	return &record, nil
}

// GetLatestSummary retrieves the most recent summary snapshot.
// It returns nil without an error if no summary was stored yet.
func (cdb *CrawlDB) GetLatestSummary(ctx context.Context) (*SummaryRecord, error) {
	query := `SELECT ` + summaryColumns + ` FROM summaries ORDER BY timestamp DESC, id DESC LIMIT 1`

	record, err := scanSummary(cdb.db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}

	return record, nil
}

// ListSummaries returns stored snapshots, newest first.
// A non-positive limit returns every snapshot.
func (cdb *CrawlDB) ListSummaries(ctx context.Context, limit int) ([]*SummaryRecord, error) {
	query := `SELECT ` + summaryColumns + ` FROM summaries ORDER BY timestamp DESC, id DESC`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	defer rows.Close()

	records := make([]*SummaryRecord, 0)
	for rows.Next() {
		record, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
