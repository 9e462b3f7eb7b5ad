package manifest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"clipsmith/internal/config"
	"clipsmith/internal/services"
	"clipsmith/internal/services/render"
)

// Store manages manifest persistence backed by SQLite. A file lock on the
// store directory enforces single-process access; per-clip write ordering is
// the service layer's job.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open initializes or connects to the manifest database. It acquires the
// store lock first so a second process fails fast instead of corrupting
// write ordering.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lockPath := filepath.Join(cfg.Paths.StoreDir, "manifests.lock")
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire store lock: %w", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrStateConflict, "manifest", "open",
			fmt.Sprintf("store already locked by another process (%s)", lockPath), nil)
	}

	dbPath := filepath.Join(cfg.Paths.StoreDir, "manifests.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, lock: lock}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return store, nil
}

// Close releases the database connection and the store lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Create inserts a manifest for the source clip if none exists. It is
// idempotent: calling it again for the same sourceRef returns the existing
// manifest untouched.
func (s *Store) Create(ctx context.Context, sourceRef, clipPath, editContext string, duration float64) (*Manifest, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO manifests (source_ref, clip_path, context, duration, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT (source_ref) DO NOTHING`,
		sourceRef, clipPath, nullableString(editContext), duration, StatusPending, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert manifest: %w", err)
	}
	return s.Get(ctx, sourceRef)
}

// Get loads a manifest and its variations in creation order.
func (s *Store) Get(ctx context.Context, sourceRef string) (*Manifest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT source_ref, clip_path, context, duration, status, selected_id, analysis_json, created_at, updated_at
         FROM manifests WHERE source_ref = ?`, sourceRef)
	m, err := scanManifest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.Wrap(services.ErrNotFound, "manifest", "get",
				fmt.Sprintf("no manifest for %q", sourceRef), nil)
		}
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, seq, kind, trim_start, trim_end, speed, path, source, request_id, reasoning, created_at
         FROM variations WHERE source_ref = ? ORDER BY seq`, sourceRef)
	if err != nil {
		return nil, fmt.Errorf("load variations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		v, err := scanVariation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan variation: %w", err)
		}
		m.Variations = append(m.Variations, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variations: %w", err)
	}
	return m, nil
}

// List returns every manifest, variations included, ordered by source ref.
func (s *Store) List(ctx context.Context) ([]*Manifest, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source_ref FROM manifests ORDER BY source_ref`)
	if err != nil {
		return nil, fmt.Errorf("list manifests: %w", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("scan manifest ref: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate manifests: %w", err)
	}

	manifests := make([]*Manifest, 0, len(refs))
	for _, ref := range refs {
		m, err := s.Get(ctx, ref)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}

// NextSeq returns the next variation sequence number for the source clip.
// Only meaningful while the caller holds the clip's write lock.
func (s *Store) NextSeq(ctx context.Context, sourceRef string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM variations WHERE source_ref = ?`, sourceRef,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return seq, nil
}

// AppendVariation records a rendered variation and bumps a pending manifest
// to in_progress. The insert and the manifest update commit together.
func (s *Store) AppendVariation(ctx context.Context, sourceRef string, v Variation) (*Manifest, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO variations (source_ref, id, seq, kind, trim_start, trim_end, speed, path, source, request_id, reasoning, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sourceRef, v.ID, v.Seq, v.Kind,
		v.Params.TrimStart, v.Params.TrimEnd, v.Params.Speed,
		v.Path, v.Source, nullableString(v.RequestID), nullableString(v.Reasoning),
		v.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert variation: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE manifests SET status = CASE WHEN status = ? THEN ? ELSE status END, updated_at = ?
         WHERE source_ref = ?`,
		StatusPending, StatusInProgress, now.Format(time.RFC3339Nano), sourceRef,
	)
	if err != nil {
		return nil, fmt.Errorf("update manifest: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, services.Wrap(services.ErrNotFound, "manifest", "append",
			fmt.Sprintf("no manifest for %q", sourceRef), nil)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit variation: %w", err)
	}
	return s.Get(ctx, sourceRef)
}

// SetSelected marks a variation as the chosen edit and records the new status.
func (s *Store) SetSelected(ctx context.Context, sourceRef, variationID string, status Status) (*Manifest, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`UPDATE manifests SET selected_id = ?, status = ?, updated_at = ? WHERE source_ref = ?`,
		variationID, status, now, sourceRef,
	)
	if err != nil {
		return nil, fmt.Errorf("set selected: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	} else if affected == 0 {
		return nil, services.Wrap(services.ErrNotFound, "manifest", "select",
			fmt.Sprintf("no manifest for %q", sourceRef), nil)
	}
	return s.Get(ctx, sourceRef)
}

// SetStatus records a lifecycle state change.
func (s *Store) SetStatus(ctx context.Context, sourceRef string, status Status) (*Manifest, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`UPDATE manifests SET status = ?, updated_at = ? WHERE source_ref = ?`,
		status, now, sourceRef,
	)
	if err != nil {
		return nil, fmt.Errorf("set status: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	} else if affected == 0 {
		return nil, services.Wrap(services.ErrNotFound, "manifest", "status",
			fmt.Sprintf("no manifest for %q", sourceRef), nil)
	}
	return s.Get(ctx, sourceRef)
}

// SetAnalysis stores the latest analysis result JSON on the manifest.
func (s *Store) SetAnalysis(ctx context.Context, sourceRef, analysisJSON string) (*Manifest, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`UPDATE manifests SET analysis_json = ?, updated_at = ? WHERE source_ref = ?`,
		nullableString(analysisJSON), now, sourceRef,
	)
	if err != nil {
		return nil, fmt.Errorf("set analysis: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	} else if affected == 0 {
		return nil, services.Wrap(services.ErrNotFound, "manifest", "analysis",
			fmt.Sprintf("no manifest for %q", sourceRef), nil)
	}
	return s.Get(ctx, sourceRef)
}

func scanManifest(scanner interface{ Scan(dest ...any) error }) (*Manifest, error) {
	var (
		sourceRef   string
		clipPath    string
		editContext sql.NullString
		duration    float64
		statusStr   string
		selectedID  sql.NullString
		analysis    sql.NullString
		createdRaw  string
		updatedRaw  string
	)
	if err := scanner.Scan(&sourceRef, &clipPath, &editContext, &duration, &statusStr, &selectedID, &analysis, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	return &Manifest{
		SourceRef:    sourceRef,
		ClipPath:     clipPath,
		Context:      editContext.String,
		Duration:     duration,
		Status:       Status(statusStr),
		SelectedID:   selectedID.String,
		AnalysisJSON: analysis.String,
		CreatedAt:    parseTimestamp(createdRaw),
		UpdatedAt:    parseTimestamp(updatedRaw),
	}, nil
}

func scanVariation(scanner interface{ Scan(dest ...any) error }) (Variation, error) {
	var (
		id         string
		seq        int64
		kind       string
		trimStart  float64
		trimEnd    float64
		speed      float64
		path       string
		source     string
		requestID  sql.NullString
		reasoning  sql.NullString
		createdRaw string
	)
	if err := scanner.Scan(&id, &seq, &kind, &trimStart, &trimEnd, &speed, &path, &source, &requestID, &reasoning, &createdRaw); err != nil {
		return Variation{}, err
	}
	return Variation{
		ID:        id,
		Seq:       seq,
		Kind:      kind,
		Params:    render.Params{TrimStart: trimStart, TrimEnd: trimEnd, Speed: speed},
		Path:      path,
		Source:    VariationSource(source),
		RequestID: requestID.String,
		Reasoning: reasoning.String,
		CreatedAt: parseTimestamp(createdRaw),
	}, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func parseTimestamp(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
