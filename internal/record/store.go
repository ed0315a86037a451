package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

var (
	// ErrDuplicateVectorKey is returned when a create would violate the
	// one-record-per-vector-key invariant.
	ErrDuplicateVectorKey = errors.New("vector key already exists")
)

const schema = `
CREATE TABLE IF NOT EXISTS memory_records (
	id              TEXT PRIMARY KEY,
	vector_key      TEXT NOT NULL UNIQUE,
	content         TEXT NOT NULL,
	content_type    TEXT NOT NULL,
	owner_id        TEXT NOT NULL,
	conversation_id TEXT,
	timestamp       INTEGER NOT NULL,
	relevance_score REAL NOT NULL DEFAULT 1.0,
	attributes      TEXT
);
CREATE INDEX IF NOT EXISTS idx_memory_records_owner ON memory_records(owner_id);
CREATE INDEX IF NOT EXISTS idx_memory_records_conversation ON memory_records(conversation_id);
`

// Store provides durable CRUD over memory records, backed by SQLite.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore opens (or creates) the record database at path.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating record db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening record db: %w", err)
	}
	// modernc.org/sqlite serializes writes per connection; a single
	// connection avoids SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing record schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create inserts a new record. A missing ID is generated, a zero timestamp
// is set to now, and a zero relevance score defaults to 1.0.
func (s *Store) Create(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	if rec.RelevanceScore == 0 {
		rec.RelevanceScore = 1.0
	}

	attrs, err := encodeAttributes(rec.Attributes)
	if err != nil {
		return fmt.Errorf("encoding attributes: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO memory_records
			(id, vector_key, content, content_type, owner_id, conversation_id, timestamp, relevance_score, attributes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.VectorKey, rec.Content, rec.ContentType, rec.OwnerID,
		nullable(rec.ConversationID), rec.Timestamp.UnixNano(), rec.RelevanceScore, attrs,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return fmt.Errorf("%w: %s", ErrDuplicateVectorKey, rec.VectorKey)
		}
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

// GetByVectorKey fetches the owner's record for a vector key.
// Returns (nil, false, nil) when absent.
func (s *Store) GetByVectorKey(ctx context.Context, ownerID, vectorKey string) (*Record, bool, error) {
	row := s.db.QueryRowContext(ctx,
		selectColumns+` WHERE owner_id = ? AND vector_key = ?`,
		ownerID, vectorKey,
	)
	return scanOne(row)
}

// GetByConsolidationKey fetches the owner's most recently timestamped record
// whose consolidation key attribute equals key.
// Returns (nil, false, nil) when absent.
func (s *Store) GetByConsolidationKey(ctx context.Context, ownerID, key string) (*Record, bool, error) {
	// json_extract compares the decoded attribute value, so keys survive
	// encoding artifacts (json.Marshal escapes &, <, > and quotes).
	row := s.db.QueryRowContext(ctx,
		selectColumns+` WHERE owner_id = ? AND json_extract(attributes, '$.`+AttrConsolidationKey+`') = ?
		ORDER BY timestamp DESC LIMIT 1`,
		ownerID, key,
	)
	return scanOne(row)
}

// ListByOwner returns the owner's records most-recent-first, optionally
// filtered by content type. contentType == "" disables the filter.
func (s *Store) ListByOwner(ctx context.Context, ownerID, contentType string, limit int) ([]*Record, error) {
	query := selectColumns + ` WHERE owner_id = ?`
	args := []any{ownerID}
	if contentType != "" {
		query += ` AND content_type = ?`
		args = append(args, contentType)
	}
	query += ` ORDER BY timestamp DESC LIMIT ?`
	args = append(args, limit)

	return s.list(ctx, query, args...)
}

// ListByConversation returns a conversation's records most-recent-first.
func (s *Store) ListByConversation(ctx context.Context, conversationID string, limit int) ([]*Record, error) {
	return s.list(ctx,
		selectColumns+` WHERE conversation_id = ? ORDER BY timestamp DESC LIMIT ?`,
		conversationID, limit,
	)
}

// DeleteByOwner removes all of an owner's records, returning the count
// deleted. Callers must also drop the owner's vector shard to avoid
// orphaned vectors.
func (s *Store) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM memory_records WHERE owner_id = ?`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("deleting records for owner %s: %w", ownerID, err)
	}
	return res.RowsAffected()
}

// UpdateRelevance sets the relevance score of the owner's record for a
// vector key. Returns false when the record does not exist.
func (s *Store) UpdateRelevance(ctx context.Context, ownerID, vectorKey string, score float64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE memory_records SET relevance_score = ? WHERE owner_id = ? AND vector_key = ?`,
		score, ownerID, vectorKey,
	)
	if err != nil {
		return false, fmt.Errorf("updating relevance: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpdateContentAndAttributes replaces the record's content and attributes in
// place, advancing its timestamp. ID and vector key are retained. Returns
// false when the record does not exist.
func (s *Store) UpdateContentAndAttributes(ctx context.Context, ownerID, vectorKey, content string, attributes map[string]string) (bool, error) {
	attrs, err := encodeAttributes(attributes)
	if err != nil {
		return false, fmt.Errorf("encoding attributes: %w", err)
	}

	// max() keeps the per-record timestamp monotonically non-decreasing
	// even if the wall clock steps backwards.
	res, err := s.db.ExecContext(ctx, `
		UPDATE memory_records
		SET content = ?, attributes = ?, timestamp = max(?, timestamp + 1)
		WHERE owner_id = ? AND vector_key = ?`,
		content, attrs, time.Now().UnixNano(), ownerID, vectorKey,
	)
	if err != nil {
		return false, fmt.Errorf("updating record content: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

const selectColumns = `
	SELECT id, vector_key, content, content_type, owner_id, conversation_id, timestamp, relevance_score, attributes
	FROM memory_records`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var conversationID sql.NullString
	var timestamp int64
	var attrs sql.NullString

	if err := row.Scan(&rec.ID, &rec.VectorKey, &rec.Content, &rec.ContentType,
		&rec.OwnerID, &conversationID, &timestamp, &rec.RelevanceScore, &attrs); err != nil {
		return nil, err
	}

	rec.ConversationID = conversationID.String
	rec.Timestamp = time.Unix(0, timestamp)
	if attrs.Valid && attrs.String != "" {
		if err := json.Unmarshal([]byte(attrs.String), &rec.Attributes); err != nil {
			return nil, fmt.Errorf("decoding attributes: %w", err)
		}
	}
	return &rec, nil
}

func scanOne(row *sql.Row) (*Record, bool, error) {
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func encodeAttributes(attrs map[string]string) (sql.NullString, error) {
	if len(attrs) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(attrs)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
