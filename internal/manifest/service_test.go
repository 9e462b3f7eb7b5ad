package manifest_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"clipsmith/internal/analysis"
	"clipsmith/internal/config"
	"clipsmith/internal/manifest"
	"clipsmith/internal/quality"
	"clipsmith/internal/services"
	"clipsmith/internal/services/render"
	"clipsmith/internal/suggest"
	"clipsmith/internal/testsupport"
)

type fakeRenderer struct {
	mu    sync.Mutex
	calls []render.Params
	err   error
}

func (f *fakeRenderer) Render(ctx context.Context, inputPath, outputPath string, params render.Params) error {
	f.mu.Lock()
	f.calls = append(f.calls, params)
	f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte("rendered"), 0o644)
}

type fakeAnalyzer struct {
	result *analysis.Result
	err    error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, clip string, opts analysis.Options) (*analysis.Result, error) {
	return f.result, f.err
}

type fakeProber struct {
	duration float64
	err      error
}

func (f fakeProber) Duration(ctx context.Context, path string) (float64, error) {
	return f.duration, f.err
}

func newTestService(t *testing.T, renderer render.Client, analyzer manifest.Analyzer) (*manifest.Service, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	return manifest.NewService(store, renderer, analyzer, fakeProber{duration: 10.0}, cfg.Paths.RenderDir, nil), cfg
}

func TestStartIdempotent(t *testing.T) {
	svc, _ := newTestService(t, &fakeRenderer{}, nil)
	ctx := context.Background()

	first, err := svc.Start(ctx, "take02", "/clips/take02.mkv", "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	second, err := svc.Start(ctx, "take02", "/clips/take02.mkv", "")
	if err != nil {
		t.Fatalf("Start again: %v", err)
	}
	if second.CreatedAt != first.CreatedAt {
		t.Fatal("second start must return the existing manifest")
	}

	_, err = svc.Start(ctx, "take02", "/clips/different.mkv", "")
	if !errors.Is(err, services.ErrStateConflict) {
		t.Fatalf("expected state-conflict for different clip path, got %v", err)
	}
}

func TestStartRejectsBadRefs(t *testing.T) {
	svc, _ := newTestService(t, &fakeRenderer{}, nil)
	ctx := context.Background()

	if _, err := svc.Start(ctx, "", "/clips/a.mkv", ""); !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected invalid-argument for empty ref, got %v", err)
	}
	if _, err := svc.Start(ctx, "a/b", "/clips/a.mkv", ""); !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected invalid-argument for ref with separator, got %v", err)
	}
}

func TestTrimRendersAndRecords(t *testing.T) {
	renderer := &fakeRenderer{}
	svc, _ := newTestService(t, renderer, nil)
	ctx := context.Background()

	if _, err := svc.Start(ctx, "take02", "/clips/take02.mkv", ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	m, err := svc.Trim(ctx, "take02", 1.05, 6.15, "")
	if err != nil {
		t.Fatalf("Trim: %v", err)
	}
	if m.Status != manifest.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", m.Status)
	}
	if len(m.Variations) != 1 {
		t.Fatalf("expected 1 variation, got %d", len(m.Variations))
	}
	v := m.Variations[0]
	if v.ID != "v001" {
		t.Fatalf("expected id v001, got %s", v.ID)
	}
	if v.Params.TrimStart != 1.05 || v.Params.TrimEnd != 6.15 {
		t.Fatalf("unexpected params %+v", v.Params)
	}
	if !strings.HasSuffix(v.Path, "take02/v001.mkv") {
		t.Fatalf("unexpected render path %q", v.Path)
	}
	if _, err := os.Stat(v.Path); err != nil {
		t.Fatalf("render output missing: %v", err)
	}
	if len(renderer.calls) != 1 {
		t.Fatalf("expected 1 render call, got %d", len(renderer.calls))
	}
}

func TestRenderFailureRecordsNothing(t *testing.T) {
	renderer := &fakeRenderer{err: errors.New("ffmpeg crashed")}
	svc, _ := newTestService(t, renderer, nil)
	ctx := context.Background()

	if _, err := svc.Start(ctx, "take02", "/clips/take02.mkv", ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	_, err := svc.Trim(ctx, "take02", 1.0, 2.0, "")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external-tool error, got %v", err)
	}

	m, err := svc.GetManifest(ctx, "take02")
	if err != nil {
		t.Fatalf("GetManifest: %v", err)
	}
	if len(m.Variations) != 0 {
		t.Fatalf("failed render must record no variation, got %d", len(m.Variations))
	}
	if m.Status != manifest.StatusPending {
		t.Fatalf("failed render must not advance status, got %s", m.Status)
	}
}

func TestVariationValidation(t *testing.T) {
	svc, _ := newTestService(t, &fakeRenderer{}, nil)
	ctx := context.Background()
	if _, err := svc.Start(ctx, "take02", "/clips/take02.mkv", ""); err != nil {
		t.Fatalf("Start: %v", err)
	}

	cases := []struct {
		name string
		call func() error
	}{
		{"trim end before start", func() error { _, err := svc.Trim(ctx, "take02", 5, 2, ""); return err }},
		{"negative trim start", func() error { _, err := svc.Trim(ctx, "take02", -1, 2, ""); return err }},
		{"zero speed", func() error { _, err := svc.Speed(ctx, "take02", 0, "", ""); return err }},
		{"speed out of range", func() error { _, err := svc.Speed(ctx, "take02", 9, "", ""); return err }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(); !errors.Is(err, services.ErrInvalidArgument) {
				t.Fatalf("expected invalid-argument, got %v", err)
			}
		})
	}
}

func TestVariationIDsStrictlyIncreasingUnderConcurrency(t *testing.T) {
	svc, _ := newTestService(t, &fakeRenderer{}, nil)
	ctx := context.Background()
	if _, err := svc.Start(ctx, "take02", "/clips/take02.mkv", ""); err != nil {
		t.Fatalf("Start: %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			if _, err := svc.Trim(ctx, "take02", float64(i)+1, float64(i)+2, ""); err != nil {
				t.Errorf("Trim %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	m, err := svc.GetManifest(ctx, "take02")
	if err != nil {
		t.Fatalf("GetManifest: %v", err)
	}
	if len(m.Variations) != workers {
		t.Fatalf("expected %d variations, got %d", workers, len(m.Variations))
	}
	ids := make([]string, 0, workers)
	for _, v := range m.Variations {
		ids = append(ids, v.ID)
	}
	if !sort.StringsAreSorted(ids) {
		t.Fatalf("variation ids out of order: %v", ids)
	}
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate variation id %s", id)
		}
		seen[id] = true
	}
}

func TestSelectUnknownVariationLeavesManifestUnchanged(t *testing.T) {
	svc, _ := newTestService(t, &fakeRenderer{}, nil)
	ctx := context.Background()
	if _, err := svc.Start(ctx, "take02", "/clips/take02.mkv", ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := svc.Trim(ctx, "take02", 1, 2, ""); err != nil {
		t.Fatalf("Trim: %v", err)
	}

	_, err := svc.Select(ctx, "take02", "v999")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}

	m, err := svc.GetManifest(ctx, "take02")
	if err != nil {
		t.Fatalf("GetManifest: %v", err)
	}
	if m.SelectedID != "" {
		t.Fatalf("failed select must not record a selection, got %q", m.SelectedID)
	}
	if m.Status != manifest.StatusInProgress {
		t.Fatalf("failed select must not advance status, got %s", m.Status)
	}
}

func TestSelectApprovesAndResolvesPath(t *testing.T) {
	svc, _ := newTestService(t, &fakeRenderer{}, nil)
	ctx := context.Background()
	if _, err := svc.Start(ctx, "take02", "/clips/take02.mkv", ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := svc.Trim(ctx, "take02", 1, 2, ""); err != nil {
		t.Fatalf("Trim: %v", err)
	}

	m, err := svc.Select(ctx, "take02", "v001")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if m.Status != manifest.StatusApproved {
		t.Fatalf("expected approved, got %s", m.Status)
	}
	if m.SelectedID != "v001" {
		t.Fatalf("expected v001 selected, got %q", m.SelectedID)
	}
	path, err := svc.GetSelectedPath(ctx, "take02")
	if err != nil {
		t.Fatalf("GetSelectedPath: %v", err)
	}
	if !strings.HasSuffix(path, "v001.mkv") {
		t.Fatalf("expected selected variation path, got %q", path)
	}
}

func TestGetSelectedPathDefaultsToSource(t *testing.T) {
	svc, _ := newTestService(t, &fakeRenderer{}, nil)
	ctx := context.Background()
	if _, err := svc.Start(ctx, "take02", "/clips/take02.mkv", ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	path, err := svc.GetSelectedPath(ctx, "take02")
	if err != nil {
		t.Fatalf("GetSelectedPath: %v", err)
	}
	if path != "/clips/take02.mkv" {
		t.Fatalf("expected source clip path, got %q", path)
	}
}

func TestAdvanceRejectsBackwardMoves(t *testing.T) {
	svc, _ := newTestService(t, &fakeRenderer{}, nil)
	ctx := context.Background()
	if _, err := svc.Start(ctx, "take02", "/clips/take02.mkv", ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := svc.Advance(ctx, "take02", manifest.StatusApproved); err != nil {
		t.Fatalf("Advance to approved: %v", err)
	}
	_, err := svc.Advance(ctx, "take02", manifest.StatusInProgress)
	if !errors.Is(err, services.ErrStateConflict) {
		t.Fatalf("expected state-conflict for backward move, got %v", err)
	}
}

func TestArchivedManifestRejectsEdits(t *testing.T) {
	svc, _ := newTestService(t, &fakeRenderer{}, nil)
	ctx := context.Background()
	if _, err := svc.Start(ctx, "take02", "/clips/take02.mkv", ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := svc.Advance(ctx, "take02", manifest.StatusArchived); err != nil {
		t.Fatalf("Advance to archived: %v", err)
	}
	if _, err := svc.Trim(ctx, "take02", 1, 2, ""); !errors.Is(err, services.ErrStateConflict) {
		t.Fatalf("expected state-conflict trimming archived manifest, got %v", err)
	}
}

func TestAutoAnalyzeAppliesTrimAndApproves(t *testing.T) {
	analyzer := &fakeAnalyzer{result: &analysis.Result{
		RequestID: "req-123",
		Duration:  8.0,
		Suggestions: []suggest.Suggestion{{
			Kind:       suggest.KindTrim,
			Parameters: suggest.Parameters{TrimStart: 1.05, TrimEnd: 6.15},
			Reasoning:  "dead air before and after speech",
			Confidence: 0.9,
		}},
		Assessment: quality.Assessment{Score: 0.85, RecommendedAction: quality.ActionTrim},
	}}
	svc, _ := newTestService(t, &fakeRenderer{}, analyzer)
	ctx := context.Background()
	if _, err := svc.Start(ctx, "take02", "/clips/take02.mkv", ""); err != nil {
		t.Fatalf("Start: %v", err)
	}

	m, result, err := svc.AutoAnalyze(ctx, "take02", true, analysis.Options{})
	if err != nil {
		t.Fatalf("AutoAnalyze: %v", err)
	}
	if result.RequestID != "req-123" {
		t.Fatalf("unexpected analysis result %+v", result)
	}
	if m.Status != manifest.StatusApproved {
		t.Fatalf("expected approved, got %s", m.Status)
	}
	if m.SelectedID != "v001" {
		t.Fatalf("expected v001 selected, got %q", m.SelectedID)
	}
	if len(m.Variations) != 1 {
		t.Fatalf("expected 1 variation, got %d", len(m.Variations))
	}
	v := m.Variations[0]
	if v.Source != manifest.SourceAuto {
		t.Fatalf("expected auto provenance, got %s", v.Source)
	}
	if v.RequestID != "req-123" {
		t.Fatalf("expected analysis request id on variation, got %q", v.RequestID)
	}
	if m.AnalysisJSON == "" {
		t.Fatal("expected analysis stored on manifest")
	}
}

func TestAutoAnalyzeUseAsIsApprovesWithoutVariation(t *testing.T) {
	analyzer := &fakeAnalyzer{result: &analysis.Result{
		RequestID:  "req-456",
		Assessment: quality.Assessment{Score: 0.95, RecommendedAction: quality.ActionUseAsIs},
	}}
	svc, _ := newTestService(t, &fakeRenderer{}, analyzer)
	ctx := context.Background()
	if _, err := svc.Start(ctx, "take02", "/clips/take02.mkv", ""); err != nil {
		t.Fatalf("Start: %v", err)
	}

	m, _, err := svc.AutoAnalyze(ctx, "take02", true, analysis.Options{})
	if err != nil {
		t.Fatalf("AutoAnalyze: %v", err)
	}
	if m.Status != manifest.StatusApproved {
		t.Fatalf("expected approved, got %s", m.Status)
	}
	if len(m.Variations) != 0 {
		t.Fatalf("use_as_is must not render, got %d variations", len(m.Variations))
	}
}

func TestAutoAnalyzeRegenerateParksInReview(t *testing.T) {
	analyzer := &fakeAnalyzer{result: &analysis.Result{
		RequestID:  "req-789",
		Assessment: quality.Assessment{Score: 0.2, RecommendedAction: quality.ActionRegenerate},
	}}
	svc, _ := newTestService(t, &fakeRenderer{}, analyzer)
	ctx := context.Background()
	if _, err := svc.Start(ctx, "take02", "/clips/take02.mkv", ""); err != nil {
		t.Fatalf("Start: %v", err)
	}

	m, _, err := svc.AutoAnalyze(ctx, "take02", true, analysis.Options{})
	if err != nil {
		t.Fatalf("AutoAnalyze: %v", err)
	}
	if m.Status != manifest.StatusReview {
		t.Fatalf("expected review, got %s", m.Status)
	}
}

func TestStartRecordsDurationAndContext(t *testing.T) {
	svc, _ := newTestService(t, &fakeRenderer{}, nil)
	ctx := context.Background()

	m, err := svc.Start(ctx, "take02", "/clips/take02.mkv", "hero walks into frame")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if m.Duration != 10.0 {
		t.Fatalf("expected probed duration 10.0, got %v", m.Duration)
	}
	if m.Context != "hero walks into frame" {
		t.Fatalf("expected context recorded, got %q", m.Context)
	}
}

func TestStartToleratesProbeFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	svc := manifest.NewService(store, &fakeRenderer{}, nil,
		fakeProber{err: errors.New("ffprobe exploded")}, cfg.Paths.RenderDir, nil)
	ctx := context.Background()

	m, err := svc.Start(ctx, "take02", "/clips/take02.mkv", "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if m.Duration != 0 {
		t.Fatalf("expected zero duration on probe failure, got %v", m.Duration)
	}
	// Without a known duration the upper trim bound cannot be checked.
	if _, err := svc.Trim(ctx, "take02", 1, 500, ""); err != nil {
		t.Fatalf("Trim without duration: %v", err)
	}
}

func TestTrimRejectsBoundsOutsideClip(t *testing.T) {
	svc, _ := newTestService(t, &fakeRenderer{}, nil)
	ctx := context.Background()
	if _, err := svc.Start(ctx, "take02", "/clips/take02.mkv", ""); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := svc.Trim(ctx, "take02", 5.0, 9999.0, ""); !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected invalid-argument for end past duration, got %v", err)
	}
	if _, err := svc.Trim(ctx, "take02", 11.0, 12.0, ""); !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected invalid-argument for start past duration, got %v", err)
	}

	m, err := svc.GetManifest(ctx, "take02")
	if err != nil {
		t.Fatalf("GetManifest: %v", err)
	}
	if len(m.Variations) != 0 {
		t.Fatalf("rejected trims must record nothing, got %d variations", len(m.Variations))
	}
}

func TestSpeedComposesBaseVariation(t *testing.T) {
	renderer := &fakeRenderer{}
	svc, _ := newTestService(t, renderer, nil)
	ctx := context.Background()
	if _, err := svc.Start(ctx, "take02", "/clips/take02.mkv", ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := svc.Trim(ctx, "take02", 1.0, 6.0, ""); err != nil {
		t.Fatalf("Trim: %v", err)
	}

	m, err := svc.Speed(ctx, "take02", 2.0, "v001", "")
	if err != nil {
		t.Fatalf("Speed with base: %v", err)
	}
	v := m.Variations[len(m.Variations)-1]
	if v.ID != "v002" {
		t.Fatalf("expected v002, got %s", v.ID)
	}
	if v.Params.TrimStart != 1.0 || v.Params.TrimEnd != 6.0 || v.Params.Speed != 2.0 {
		t.Fatalf("expected composed trim+speed params, got %+v", v.Params)
	}

	m, err = svc.Speed(ctx, "take02", 1.5, "v002", "")
	if err != nil {
		t.Fatalf("Speed on speed base: %v", err)
	}
	v = m.Variations[len(m.Variations)-1]
	if v.Params.Speed != 3.0 {
		t.Fatalf("expected multiplied speed 3.0, got %v", v.Params.Speed)
	}
	if len(renderer.calls) != 3 {
		t.Fatalf("expected 3 renders, got %d", len(renderer.calls))
	}
}

func TestSpeedUnknownBaseNotFound(t *testing.T) {
	svc, _ := newTestService(t, &fakeRenderer{}, nil)
	ctx := context.Background()
	if _, err := svc.Start(ctx, "take02", "/clips/take02.mkv", ""); err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err := svc.Speed(ctx, "take02", 2.0, "v999", "")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found for unknown base, got %v", err)
	}

	m, err := svc.GetManifest(ctx, "take02")
	if err != nil {
		t.Fatalf("GetManifest: %v", err)
	}
	if len(m.Variations) != 0 {
		t.Fatalf("failed speed must record nothing, got %d variations", len(m.Variations))
	}
}

func TestNotesRecordedOnVariations(t *testing.T) {
	svc, _ := newTestService(t, &fakeRenderer{}, nil)
	ctx := context.Background()
	if _, err := svc.Start(ctx, "take02", "/clips/take02.mkv", ""); err != nil {
		t.Fatalf("Start: %v", err)
	}

	m, err := svc.Trim(ctx, "take02", 1, 2, "tighter opening")
	if err != nil {
		t.Fatalf("Trim: %v", err)
	}
	if m.Variations[0].Reasoning != "tighter opening" {
		t.Fatalf("expected trim notes stored, got %q", m.Variations[0].Reasoning)
	}

	m, err = svc.Speed(ctx, "take02", 2, "", "double time for the montage")
	if err != nil {
		t.Fatalf("Speed: %v", err)
	}
	v := m.Variations[len(m.Variations)-1]
	if v.Reasoning != "double time for the montage" {
		t.Fatalf("expected speed notes stored, got %q", v.Reasoning)
	}
}

func TestAutoAnalyzeAppliesTrimDespiteLowScore(t *testing.T) {
	analyzer := &fakeAnalyzer{result: &analysis.Result{
		RequestID: "req-low",
		Duration:  8.0,
		Suggestions: []suggest.Suggestion{{
			Kind:       suggest.KindTrim,
			Parameters: suggest.Parameters{TrimStart: 1.05, TrimEnd: 6.15},
			Confidence: 0.9,
		}},
		Assessment: quality.Assessment{Score: 0.4, RecommendedAction: quality.ActionRegenerate},
	}}
	svc, _ := newTestService(t, &fakeRenderer{}, analyzer)
	ctx := context.Background()
	if _, err := svc.Start(ctx, "take02", "/clips/take02.mkv", ""); err != nil {
		t.Fatalf("Start: %v", err)
	}

	m, _, err := svc.AutoAnalyze(ctx, "take02", true, analysis.Options{})
	if err != nil {
		t.Fatalf("AutoAnalyze: %v", err)
	}
	if len(m.Variations) != 1 {
		t.Fatalf("trim suggestion must be applied regardless of score, got %d variations", len(m.Variations))
	}
	if m.SelectedID != "v001" || m.Status != manifest.StatusApproved {
		t.Fatalf("expected v001 selected and approved, got %q/%s", m.SelectedID, m.Status)
	}
}

func TestAutoAnalyzeWithoutApplyStoresAnalysisOnly(t *testing.T) {
	analyzer := &fakeAnalyzer{result: &analysis.Result{
		RequestID: "req-dry",
		Duration:  8.0,
		Suggestions: []suggest.Suggestion{{
			Kind:       suggest.KindTrim,
			Parameters: suggest.Parameters{TrimStart: 1.05, TrimEnd: 6.15},
			Confidence: 0.9,
		}},
		Assessment: quality.Assessment{Score: 0.85, RecommendedAction: quality.ActionTrim},
	}}
	svc, _ := newTestService(t, &fakeRenderer{}, analyzer)
	ctx := context.Background()
	if _, err := svc.Start(ctx, "take02", "/clips/take02.mkv", ""); err != nil {
		t.Fatalf("Start: %v", err)
	}

	m, _, err := svc.AutoAnalyze(ctx, "take02", false, analysis.Options{})
	if err != nil {
		t.Fatalf("AutoAnalyze: %v", err)
	}
	if len(m.Variations) != 0 {
		t.Fatalf("analysis-only run must not render, got %d variations", len(m.Variations))
	}
	if m.AnalysisJSON == "" {
		t.Fatal("expected analysis stored on manifest")
	}
	if m.Status != manifest.StatusReview {
		t.Fatalf("expected review, got %s", m.Status)
	}
}
