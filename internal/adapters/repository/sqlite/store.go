// Package sqlite is the durable family state store. Each family document is
// kept as one JSON row guarded by a version column.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/adapters/repository"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/adapters/repository/sqlite/migrations"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/pkg/metrics"
)

const defaultMaxRetries = 5

// Store provides SQLite-backed family state persistence.
type Store struct {
	sqlDB      *sql.DB
	labels     model.Labels
	maxRetries int
	now        func() time.Time
}

var _ repository.Store = (*Store)(nil)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithLabels sets the competitor labels used for new family documents.
func WithLabels(l model.Labels) Option {
	return func(s *Store) {
		if l.A != "" && l.B != "" {
			s.labels = l
		}
	}
}

// WithMaxRetries bounds how often an update is retried after a version conflict.
func WithMaxRetries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// WithClock overrides the time source used for row timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open opens a SQLite store at path and applies migrations.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer connection; SQLite serializes writes anyway.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{
		sqlDB:      sqlDB,
		labels:     model.DefaultLabels(),
		maxRetries: defaultMaxRetries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) loadDoc(ctx context.Context, q querier, familyID string) (model.FamilyRatings, bool, error) {
	var raw string
	var version int64
	err := q.QueryRowContext(ctx,
		"SELECT version, doc FROM family_ratings WHERE family_id = ?", familyID,
	).Scan(&version, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewFamilyRatings(familyID, s.labels), false, nil
	}
	if err != nil {
		return model.FamilyRatings{}, false, err
	}
	var doc model.FamilyRatings
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return model.FamilyRatings{}, false, fmt.Errorf("decode family document: %w", err)
	}
	doc.EnsureMaps()
	doc.FamilyID = familyID
	doc.Version = version
	return doc, true, nil
}

// Load returns the family document or an empty one for unknown families.
func (s *Store) Load(ctx context.Context, familyID string) (model.FamilyRatings, error) {
	if strings.TrimSpace(familyID) == "" {
		return model.FamilyRatings{}, repository.ErrMissingFamilyID
	}
	doc, _, err := s.loadDoc(ctx, s.sqlDB, familyID)
	if err != nil {
		metrics.RecordStoreError("load")
		return model.FamilyRatings{}, fmt.Errorf("load family %s: %w", familyID, err)
	}
	return doc, nil
}

// errConflict marks a lost compare-and-swap inside one attempt.
var errConflict = errors.New("version changed")

// Update runs fn on the stored document and writes it back only if the
// version is unchanged. fn may run more than once when a conflict forces a
// retry, so it must only touch the document it is given.
func (s *Store) Update(ctx context.Context, familyID string, fn repository.UpdateFunc) (*model.MatchRecord, error) {
	if strings.TrimSpace(familyID) == "" {
		return nil, repository.ErrMissingFamilyID
	}
	start := time.Now()
	defer func() {
		metrics.RecordRatingUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, fnErr, err := s.tryUpdate(ctx, familyID, fn)
		if fnErr != nil {
			return nil, fnErr
		}
		if errors.Is(err, errConflict) {
			metrics.RecordStoreConflict()
			continue
		}
		if err != nil {
			metrics.RecordStoreError("update")
			return nil, fmt.Errorf("%w: %w", repository.ErrPersist, err)
		}
		return rec, nil
	}
	return nil, fmt.Errorf("%w: family %s after %d attempts", repository.ErrConflict, familyID, s.maxRetries)
}

// tryUpdate performs one read-modify-write. fnErr reports a rejection by fn,
// err a storage failure or errConflict.
func (s *Store) tryUpdate(ctx context.Context, familyID string, fn repository.UpdateFunc) (rec *model.MatchRecord, fnErr, err error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil || fnErr != nil {
			_ = tx.Rollback()
		}
	}()

	doc, exists, err := s.loadDoc(ctx, tx, familyID)
	if err != nil {
		return nil, nil, err
	}
	prev := doc.Version
	rec, fnErr = fn(&doc)
	if fnErr != nil {
		return nil, fnErr, nil
	}
	doc.FamilyID = familyID
	doc.Version = prev + 1

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("encode family document: %w", err)
	}
	nowMs := s.now().UTC().UnixMilli()

	var res sql.Result
	if exists {
		res, err = tx.ExecContext(ctx,
			"UPDATE family_ratings SET version = ?, doc = ?, updated_at = ? WHERE family_id = ? AND version = ?",
			doc.Version, string(raw), nowMs, familyID, prev)
	} else {
		res, err = tx.ExecContext(ctx,
			"INSERT INTO family_ratings (family_id, version, doc, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT(family_id) DO NOTHING",
			familyID, doc.Version, string(raw), nowMs)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("write family document: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, nil, fmt.Errorf("write family document: %w", err)
	} else if n == 0 {
		return nil, nil, errConflict
	}

	if rec != nil {
		rawRec, err := json.Marshal(rec)
		if err != nil {
			return nil, nil, fmt.Errorf("encode match record: %w", err)
		}
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO match_history (family_id, event_id, record, created_at) VALUES (?, ?, ?, ?)",
			familyID, rec.EventID, string(rawRec), rec.Timestamp.UTC().UnixMilli()); err != nil {
			return nil, nil, fmt.Errorf("append match history: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}
	return rec, nil, nil
}

// RecentHistory returns up to limit match records, newest first.
func (s *Store) RecentHistory(ctx context.Context, familyID string, limit int) ([]model.MatchRecord, error) {
	if limit <= 0 {
		return nil, repository.ErrInvalidLimit
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT record
FROM match_history
WHERE family_id = ?
ORDER BY id DESC
LIMIT ?
`, familyID, limit)
	if err != nil {
		metrics.RecordStoreError("history")
		return nil, fmt.Errorf("list match history: %w", err)
	}
	defer rows.Close()

	out := make([]model.MatchRecord, 0, limit)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan match record: %w", err)
		}
		var rec model.MatchRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode match record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match history: %w", err)
	}
	return out, nil
}

// GetBaseline returns the stored baseline and whether one exists.
func (s *Store) GetBaseline(ctx context.Context, familyID string) (model.Baseline, bool, error) {
	var raw string
	var savedAt int64
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT score, saved_at FROM balance_baselines WHERE family_id = ?", familyID,
	).Scan(&raw, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Baseline{}, false, nil
	}
	if err != nil {
		metrics.RecordStoreError("baseline")
		return model.Baseline{}, false, fmt.Errorf("get baseline: %w", err)
	}
	var score model.BalanceScore
	if err := json.Unmarshal([]byte(raw), &score); err != nil {
		return model.Baseline{}, false, fmt.Errorf("decode baseline: %w", err)
	}
	return model.Baseline{Score: score, SavedAt: time.UnixMilli(savedAt).UTC()}, true, nil
}

// PutBaseline stores the first baseline of a family.
func (s *Store) PutBaseline(ctx context.Context, familyID string, b model.Baseline) error {
	if strings.TrimSpace(familyID) == "" {
		return repository.ErrMissingFamilyID
	}
	raw, err := json.Marshal(b.Score)
	if err != nil {
		return fmt.Errorf("encode baseline: %w", err)
	}
	res, err := s.sqlDB.ExecContext(ctx,
		"INSERT INTO balance_baselines (family_id, score, saved_at) VALUES (?, ?, ?) ON CONFLICT(family_id) DO NOTHING",
		familyID, string(raw), b.SavedAt.UTC().UnixMilli())
	if err != nil {
		metrics.RecordStoreError("baseline")
		return fmt.Errorf("%w: put baseline: %w", repository.ErrPersist, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: put baseline: %w", repository.ErrPersist, err)
	}
	if n == 0 {
		return repository.ErrBaselineExists
	}
	return nil
}

// PutWeeklyScore upserts the score of one ISO week.
func (s *Store) PutWeeklyScore(ctx context.Context, familyID string, ws model.WeeklyScore) error {
	if strings.TrimSpace(familyID) == "" {
		return repository.ErrMissingFamilyID
	}
	raw, err := json.Marshal(ws.Score)
	if err != nil {
		return fmt.Errorf("encode weekly score: %w", err)
	}
	if _, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO weekly_scores (family_id, week_id, score, recorded_at) VALUES (?, ?, ?, ?)
ON CONFLICT(family_id, week_id) DO UPDATE SET score = excluded.score, recorded_at = excluded.recorded_at
`, familyID, ws.WeekID, string(raw), ws.RecordedAt.UTC().UnixMilli()); err != nil {
		metrics.RecordStoreError("weekly")
		return fmt.Errorf("%w: put weekly score: %w", repository.ErrPersist, err)
	}
	return nil
}

// ListWeeklyScores returns up to limit weekly scores, newest week first.
func (s *Store) ListWeeklyScores(ctx context.Context, familyID string, limit int) ([]model.WeeklyScore, error) {
	if limit <= 0 {
		return nil, repository.ErrInvalidLimit
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT week_id, score, recorded_at
FROM weekly_scores
WHERE family_id = ?
ORDER BY week_id DESC
LIMIT ?
`, familyID, limit)
	if err != nil {
		metrics.RecordStoreError("weekly")
		return nil, fmt.Errorf("list weekly scores: %w", err)
	}
	defer rows.Close()

	out := make([]model.WeeklyScore, 0, limit)
	for rows.Next() {
		var ws model.WeeklyScore
		var raw string
		var recordedAt int64
		if err := rows.Scan(&ws.WeekID, &raw, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan weekly score: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &ws.Score); err != nil {
			return nil, fmt.Errorf("decode weekly score: %w", err)
		}
		ws.RecordedAt = time.UnixMilli(recordedAt).UTC()
		out = append(out, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weekly scores: %w", err)
	}
	return out, nil
}

// Count returns the number of families with a stored document.
func (s *Store) Count(ctx context.Context) int {
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, "SELECT COUNT(1) FROM family_ratings").Scan(&n); err != nil {
		metrics.RecordStoreError("count")
		return 0
	}
	return n
}
