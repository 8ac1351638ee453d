package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joelkehle/idea-validation/internal/validation"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("validation report not found")

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS validations (
	id               TEXT PRIMARY KEY,
	business_idea    TEXT NOT NULL,
	validation_score INTEGER NOT NULL,
	confidence_level TEXT NOT NULL,
	published        INTEGER NOT NULL DEFAULT 0,
	report           TEXT NOT NULL,
	validated_at     INTEGER NOT NULL,
	expires_at       INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_validations_expires ON validations (expires_at);
CREATE INDEX IF NOT EXISTS idx_validations_published ON validations (published, validated_at);
`

// Summary is the list view of a stored report.
type Summary struct {
	ID              string    `json:"id"`
	BusinessIdea    string    `json:"business_idea"`
	ValidationScore int       `json:"validation_score"`
	ConfidenceLevel string    `json:"confidence_level"`
	Published       bool      `json:"published"`
	ValidatedAt     time.Time `json:"validated_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

type summaryRow struct {
	ID              string `db:"id"`
	BusinessIdea    string `db:"business_idea"`
	ValidationScore int    `db:"validation_score"`
	ConfidenceLevel string `db:"confidence_level"`
	Published       bool   `db:"published"`
	ValidatedAt     int64  `db:"validated_at"`
	ExpiresAt       int64  `db:"expires_at"`
}

func (r summaryRow) summary() Summary {
	return Summary{
		ID:              r.ID,
		BusinessIdea:    r.BusinessIdea,
		ValidationScore: r.ValidationScore,
		ConfidenceLevel: r.ConfidenceLevel,
		Published:       r.Published,
		ValidatedAt:     time.UnixMilli(r.ValidatedAt).UTC(),
		ExpiresAt:       time.UnixMilli(r.ExpiresAt).UTC(),
	}
}

type ListOptions struct {
	Limit         int
	Offset        int
	PublishedOnly bool
}

// SQLiteStore persists validation reports as JSON documents. Expired reports
// are invisible to reads and removed by DeleteExpired.
type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, r *validation.Report) error {
	if r == nil || r.ID == "" {
		return fmt.Errorf("save report: missing id")
	}
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO validations (id, business_idea, validation_score, confidence_level, published, report, validated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.BusinessIdea, r.ValidationScore, string(r.ConfidenceLevel), boolToInt(r.Published), string(doc),
		r.ValidatedAt.UnixMilli(), r.ExpiresAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save report %s: %w", r.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*validation.Report, error) {
	var row struct {
		Report    string `db:"report"`
		Published bool   `db:"published"`
	}
	err := s.db.GetContext(ctx, &row, `SELECT report, published FROM validations WHERE id = ? AND expires_at > ?`, id, s.now().UnixMilli())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", id, err)
	}
	var r validation.Report
	if err := json.Unmarshal([]byte(row.Report), &r); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", id, err)
	}
	r.Published = row.Published
	return &r, nil
}

// SetPublished toggles library visibility.
func (s *SQLiteStore) SetPublished(ctx context.Context, id string, published bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE validations SET published = ? WHERE id = ? AND expires_at > ?`,
		boolToInt(published), id, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("publish report %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("publish report %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns unexpired reports, newest first.
func (s *SQLiteStore) List(ctx context.Context, opts ListOptions) ([]Summary, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)
	offset := max(0, opts.Offset)

	query := `SELECT id, business_idea, validation_score, confidence_level, published, validated_at, expires_at
		FROM validations WHERE expires_at > ?`
	args := []any{s.now().UnixMilli()}
	if opts.PublishedOnly {
		query += ` AND published = 1`
	}
	query += ` ORDER BY validated_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var rows []summaryRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	out := make([]Summary, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.summary())
	}
	return out, nil
}

func (s *SQLiteStore) ListPublished(ctx context.Context, limit, offset int) ([]Summary, error) {
	return s.List(ctx, ListOptions{Limit: limit, Offset: offset, PublishedOnly: true})
}

func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM validations WHERE expires_at <= ?`, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("delete expired: %w", err)
	}
	return res.RowsAffected()
}

// RunSweeper deletes expired reports every interval until ctx is done.
func (s *SQLiteStore) RunSweeper(ctx context.Context, interval time.Duration, log logrus.FieldLogger) {
	if interval <= 0 {
		interval = time.Hour
	}
	log = log.WithField("component", "store")
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.DeleteExpired(ctx)
			if err != nil {
				log.WithError(err).Warn("sweep failed")
				continue
			}
			if n > 0 {
				log.WithField("deleted", n).Info("swept expired reports")
			}
		}
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
