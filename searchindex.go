package termloom

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	_ "modernc.org/sqlite"
)

// ErrNoSearchIndex reports a scrollback search on a session opened without
// a search index directory.
var ErrNoSearchIndex = errors.New("search index not configured")

const searchSchemaVersion = "1"

const searchSchema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS lines (
	line INTEGER PRIMARY KEY,
	at   INTEGER NOT NULL,
	text TEXT NOT NULL
);
CREATE VIRTUAL TABLE IF NOT EXISTS lines_fts USING fts5(
	text,
	content='lines',
	content_rowid='line',
	tokenize='trigram'
);
CREATE TRIGGER IF NOT EXISTS lines_ai AFTER INSERT ON lines BEGIN
	INSERT INTO lines_fts(rowid, text) VALUES (new.line, new.text);
END;
CREATE TRIGGER IF NOT EXISTS lines_ad AFTER DELETE ON lines BEGIN
	INSERT INTO lines_fts(lines_fts, rowid, text) VALUES ('delete', old.line, old.text);
END;
CREATE TRIGGER IF NOT EXISTS lines_au AFTER UPDATE ON lines BEGIN
	INSERT INTO lines_fts(lines_fts, rowid, text) VALUES ('delete', old.line, old.text);
	INSERT INTO lines_fts(rowid, text) VALUES (new.line, new.text);
END;
`

const (
	indexBatchMax   = 64
	indexBatchDelay = 250 * time.Millisecond
	indexQueueSize  = 1024
)

// SearchResult is one scrollback line matching a search query.
type SearchResult struct {
	Line int64
	At   time.Time
	Text string
}

type indexEntry struct {
	line int64
	at   time.Time
	text string
}

// SearchIndex is a per-session full-text index over captured scrollback
// lines, backed by an SQLite FTS5 table. Writes are batched on a
// background goroutine; queries flush pending writes first.
type SearchIndex struct {
	db     *sql.DB
	logger Logger

	batchCh chan indexEntry
	flushCh chan chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// OpenSearchIndex opens or creates the index database at path and starts
// the batch writer.
func OpenSearchIndex(path string, logger Logger) (*SearchIndex, error) {
	if logger == nil {
		logger = NopLogger{}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("search index dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := initSearchSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	idx := &SearchIndex{
		db:      db,
		logger:  logger,
		batchCh: make(chan indexEntry, indexQueueSize),
		flushCh: make(chan chan struct{}),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go idx.run()
	return idx, nil
}

func initSearchSchema(db *sql.DB) error {
	if _, err := db.Exec(searchSchema); err != nil {
		return fmt.Errorf("search index schema: %w", err)
	}
	var ver string
	err := db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&ver)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.Exec(`INSERT INTO meta(key, value) VALUES ('schema_version', ?)`, searchSchemaVersion); err != nil {
			return fmt.Errorf("search index schema: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("search index schema: %w", err)
	case ver != searchSchemaVersion:
		return fmt.Errorf("search index schema version %s not supported", ver)
	}
	return nil
}

// IndexLine queues one captured line for indexing, keyed by its scrollback
// position. Re-indexing a position replaces the stored line. Best effort:
// a full queue drops the line.
func (idx *SearchIndex) IndexLine(line int64, at time.Time, text string) {
	select {
	case idx.batchCh <- indexEntry{line: line, at: at, text: text}:
	default:
		idx.logger.Debug("search index queue full, line dropped", "line", line)
	}
}

// DeleteLine removes one scrollback position from the index, after
// flushing queued writes so a pending insert cannot resurrect it.
func (idx *SearchIndex) DeleteLine(line int64) error {
	idx.Flush()
	if _, err := idx.db.Exec(`DELETE FROM lines WHERE line = ?`, line); err != nil {
		return fmt.Errorf("search index delete: %w", err)
	}
	return nil
}

// Search returns scrollback lines matching query, best match first. Short
// queries fall back to a substring scan because the trigram tokenizer
// needs at least three characters.
func (idx *SearchIndex) Search(query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	idx.Flush()

	var rows *sql.Rows
	var err error
	if utf8.RuneCountInString(query) < 3 {
		rows, err = idx.db.Query(
			`SELECT line, at, text FROM lines WHERE text LIKE ? ESCAPE '\' ORDER BY line LIMIT ?`,
			"%"+escapeLike(query)+"%", limit)
	} else {
		rows, err = idx.db.Query(
			`SELECT lines.line, lines.at, lines.text
			 FROM lines_fts JOIN lines ON lines.line = lines_fts.rowid
			 WHERE lines_fts MATCH ? ORDER BY rank LIMIT ?`,
			`"`+strings.ReplaceAll(query, `"`, `""`)+`"`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("search index query: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var at int64
		if err := rows.Scan(&r.Line, &at, &r.Text); err != nil {
			return nil, fmt.Errorf("search index scan: %w", err)
		}
		r.At = time.UnixMilli(at)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search index query: %w", err)
	}
	return out, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Flush blocks until every queued line reached the database.
func (idx *SearchIndex) Flush() {
	done := make(chan struct{})
	select {
	case idx.flushCh <- done:
		<-done
	case <-idx.doneCh:
	}
}

// Close stops the batch writer, writing out anything still queued, and
// closes the database.
func (idx *SearchIndex) Close() error {
	close(idx.stopCh)
	<-idx.doneCh
	return idx.db.Close()
}

func (idx *SearchIndex) run() {
	defer close(idx.doneCh)
	var pending []indexEntry
	var timeout <-chan time.Time
	flush := func() {
		timeout = nil
		if len(pending) == 0 {
			return
		}
		idx.writeBatch(pending)
		pending = pending[:0]
	}
	for {
		select {
		case e := <-idx.batchCh:
			pending = append(pending, e)
			if len(pending) >= indexBatchMax {
				flush()
			} else if timeout == nil {
				timeout = time.After(indexBatchDelay)
			}
		case <-timeout:
			flush()
		case done := <-idx.flushCh:
		drain:
			for {
				select {
				case e := <-idx.batchCh:
					pending = append(pending, e)
				default:
					break drain
				}
			}
			flush()
			close(done)
		case <-idx.stopCh:
			for {
				select {
				case e := <-idx.batchCh:
					pending = append(pending, e)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (idx *SearchIndex) writeBatch(entries []indexEntry) {
	tx, err := idx.db.Begin()
	if err != nil {
		idx.logger.Warn("search index batch begin failed", "error", err)
		return
	}
	stmt, err := tx.Prepare(
		`INSERT INTO lines(line, at, text) VALUES (?, ?, ?)
		 ON CONFLICT(line) DO UPDATE SET at = excluded.at, text = excluded.text`)
	if err != nil {
		tx.Rollback()
		idx.logger.Warn("search index batch prepare failed", "error", err)
		return
	}
	for _, e := range entries {
		if _, err := stmt.Exec(e.line, e.at.UnixMilli(), e.text); err != nil {
			idx.logger.Warn("search index write failed", "line", e.line, "error", err)
		}
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		idx.logger.Warn("search index batch commit failed", "error", err)
	}
}
