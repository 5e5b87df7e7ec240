package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/truthledger/internal/model"
	_ "modernc.org/sqlite"
)

// ID strategies for store.ids
const (
	IDsRandom  = "random"
	IDsContent = "content"
)

// Store persists claim records in an embedded SQLite database
type Store struct {
	db  *sql.DB
	ids string
	now func() time.Time
}

// Open opens (creating if needed) the database at cfg.Path and ensures the
// claims table exists
func Open(cfg model.StoreConfig) (*Store, error) {
	ids := cfg.IDs
	switch ids {
	case "":
		ids = IDsRandom
	case IDsRandom, IDsContent:
	default:
		return nil, fmt.Errorf("unknown id strategy %q (available: %s, %s)", cfg.IDs, IDsRandom, IDsContent)
	}

	path := cfg.Path
	if path == "" {
		return nil, errors.New("store path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open claims db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure claims db: %w", err)
	}
	if _, err := db.Exec(claimsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create claims table: %w", err)
	}

	return &Store{db: db, ids: ids, now: time.Now}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveClaims inserts records, skipping any whose trimmed claim is empty.
// IDs and timestamps are assigned in place. A failing row is reported as a
// warning and the remaining rows are still written. saved counts rows that
// were actually inserted; ignored duplicates are not counted.
func (s *Store) SaveClaims(ctx context.Context, records []model.ClaimRecord) (saved int, warnings []error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, []error{fmt.Errorf("begin tx: %w", err)}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertClaim)
	if err != nil {
		return 0, []error{fmt.Errorf("prepare insert: %w", err)}
	}
	defer stmt.Close()

	for i := range records {
		r := &records[i]
		r.Normalize()
		if r.Claim == "" {
			continue
		}
		if r.ID == "" {
			r.ID = s.recordID(r)
		}
		if r.Timestamp == "" {
			r.Timestamp = s.now().Format(model.TimestampLayout)
		}

		res, err := stmt.ExecContext(ctx,
			r.ID, r.Title, r.Claim, r.Source, r.URL,
			string(r.TruthScore), string(r.BiasRating), r.Timestamp,
		)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("skip claim %q: %w", truncate(r.Claim, 60), err))
			continue
		}
		if n, err := res.RowsAffected(); err == nil {
			saved += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, append(warnings, fmt.Errorf("commit claims: %w", err))
	}
	return saved, warnings
}

// ListClaims returns records newest first. limit <= 0 returns every row.
func (s *Store) ListClaims(ctx context.Context, limit int) ([]model.ClaimRecord, error) {
	query := selectClaims
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query claims: %w", err)
	}
	defer rows.Close()

	var records []model.ClaimRecord
	for rows.Next() {
		var (
			r                  model.ClaimRecord
			title, source, url sql.NullString
			truth, bias, stamp sql.NullString
		)
		if err := rows.Scan(&r.ID, &title, &r.Claim, &source, &url, &truth, &bias, &stamp); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		r.Title = title.String
		r.Source = source.String
		r.URL = url.String
		r.TruthScore = model.TruthLabel(truth.String)
		r.BiasRating = model.BiasLabel(bias.String)
		r.Timestamp = stamp.String
		r.Normalize()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claims: %w", err)
	}
	return records, nil
}

// Count returns the number of stored claims
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, countClaims).Scan(&n); err != nil {
		return 0, fmt.Errorf("count claims: %w", err)
	}
	return n, nil
}

// recordID returns a random UUID, or a name-based one derived from the
// source URL and normalized claim when content ids are configured
func (s *Store) recordID(r *model.ClaimRecord) string {
	if s.ids == IDsContent {
		return ContentID(r.Source, r.Claim)
	}
	return uuid.New().String()
}

// ContentID derives a stable id so the same claim from the same source maps
// to the same row
func ContentID(source, claim string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(claim)), " ")
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(source+"\n"+normalized)).String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
