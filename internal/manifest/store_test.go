package manifest_test

import (
	"context"
	"errors"
	"testing"

	"clipsmith/internal/manifest"
	"clipsmith/internal/services"
	"clipsmith/internal/services/render"
	"clipsmith/internal/testsupport"
)

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	m, err := store.Create(context.Background(), "scene01-take02", "/clips/take02.mkv", "two-shot by the door", 8.0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.Status != manifest.StatusPending {
		t.Fatalf("expected pending status, got %s", m.Status)
	}
	if m.Context != "two-shot by the door" || m.Duration != 8.0 {
		t.Fatalf("expected context and duration persisted, got %q/%v", m.Context, m.Duration)
	}
	if m.CreatedAt.IsZero() || m.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be recorded")
	}
}

func TestOpenRejectsSecondHolder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.MustOpenStore(t, cfg)

	_, err := manifest.Open(cfg)
	if !errors.Is(err, services.ErrStateConflict) {
		t.Fatalf("expected state-conflict error for second open, got %v", err)
	}
}

func TestCreateIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first, err := store.Create(ctx, "scene01-take02", "/clips/take02.mkv", "", 8.0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := store.Create(ctx, "scene01-take02", "/clips/other.mkv", "", 9.0)
	if err != nil {
		t.Fatalf("Create again: %v", err)
	}
	if second.ClipPath != first.ClipPath {
		t.Fatalf("second create must not overwrite clip path, got %q", second.ClipPath)
	}
}

func TestGetUnknownManifest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestAppendVariationOrdersAndBumpsStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.Create(ctx, "take02", "/clips/take02.mkv", "", 8.0); err != nil {
		t.Fatalf("Create: %v", err)
	}

	for seq := int64(1); seq <= 3; seq++ {
		id := manifest.FormatVariationID(seq)
		_, err := store.AppendVariation(ctx, "take02", manifest.Variation{
			ID:     id,
			Seq:    seq,
			Kind:   "trim",
			Params: render.Params{TrimStart: float64(seq)},
			Path:   "/renders/take02/" + id + ".mkv",
			Source: manifest.SourceManual,
		})
		if err != nil {
			t.Fatalf("AppendVariation %d: %v", seq, err)
		}
	}

	m, err := store.Get(ctx, "take02")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if m.Status != manifest.StatusInProgress {
		t.Fatalf("expected in_progress after first variation, got %s", m.Status)
	}
	if len(m.Variations) != 3 {
		t.Fatalf("expected 3 variations, got %d", len(m.Variations))
	}
	for i, v := range m.Variations {
		want := manifest.FormatVariationID(int64(i + 1))
		if v.ID != want {
			t.Fatalf("variation %d: expected id %s, got %s", i, want, v.ID)
		}
	}

	next, err := store.NextSeq(ctx, "take02")
	if err != nil {
		t.Fatalf("NextSeq: %v", err)
	}
	if next != 4 {
		t.Fatalf("expected next seq 4, got %d", next)
	}
}

func TestVariationIDFormat(t *testing.T) {
	if got := manifest.FormatVariationID(1); got != "v001" {
		t.Fatalf("expected v001, got %s", got)
	}
	if got := manifest.FormatVariationID(42); got != "v042" {
		t.Fatalf("expected v042, got %s", got)
	}
	if got := manifest.FormatVariationID(1234); got != "v1234" {
		t.Fatalf("expected v1234, got %s", got)
	}
}

func TestSetSelectedUnknownManifest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	_, err := store.SetSelected(context.Background(), "missing", "v001", manifest.StatusReview)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestCheckHealthReportsCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.Create(ctx, "take02", "/clips/take02.mkv", "", 8.0); err != nil {
		t.Fatalf("Create: %v", err)
	}

	health, err := store.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TablesExist || !health.IntegrityOK {
		t.Fatalf("unexpected health %+v", health)
	}
	if health.Manifests != 1 {
		t.Fatalf("expected 1 manifest, got %d", health.Manifests)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[manifest.StatusPending] != 1 {
		t.Fatalf("expected 1 pending manifest, got %+v", stats)
	}
}

func TestSetAnalysisRoundTrips(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.Create(ctx, "take02", "/clips/take02.mkv", "", 8.0); err != nil {
		t.Fatalf("Create: %v", err)
	}
	m, err := store.SetAnalysis(ctx, "take02", `{"request_id":"abc"}`)
	if err != nil {
		t.Fatalf("SetAnalysis: %v", err)
	}
	if m.AnalysisJSON != `{"request_id":"abc"}` {
		t.Fatalf("unexpected analysis payload %q", m.AnalysisJSON)
	}
}
