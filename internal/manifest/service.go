package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"clipsmith/internal/analysis"
	"clipsmith/internal/logging"
	"clipsmith/internal/quality"
	"clipsmith/internal/services"
	"clipsmith/internal/services/render"
	"clipsmith/internal/suggest"
)

// Storage is the persistence surface the service drives. *Store satisfies it;
// tests substitute an in-memory implementation.
type Storage interface {
	Create(ctx context.Context, sourceRef, clipPath, editContext string, duration float64) (*Manifest, error)
	Get(ctx context.Context, sourceRef string) (*Manifest, error)
	List(ctx context.Context) ([]*Manifest, error)
	NextSeq(ctx context.Context, sourceRef string) (int64, error)
	AppendVariation(ctx context.Context, sourceRef string, v Variation) (*Manifest, error)
	SetSelected(ctx context.Context, sourceRef, variationID string, status Status) (*Manifest, error)
	SetStatus(ctx context.Context, sourceRef string, status Status) (*Manifest, error)
	SetAnalysis(ctx context.Context, sourceRef, analysisJSON string) (*Manifest, error)
}

// Analyzer runs the signal pipeline over a clip.
type Analyzer interface {
	Analyze(ctx context.Context, clip string, opts analysis.Options) (*analysis.Result, error)
}

// DurationProber reports a clip's duration in seconds.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Service owns all manifest mutation. Writes to a given source clip are
// serialized through a per-clip mutex so variation ids stay strictly
// increasing and renders never race their manifest records.
type Service struct {
	store     Storage
	renderer  render.Client
	analyzer  Analyzer
	prober    DurationProber
	renderDir string
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService wires a manifest service.
func NewService(store Storage, renderer render.Client, analyzer Analyzer, prober DurationProber, renderDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		store:     store,
		renderer:  renderer,
		analyzer:  analyzer,
		prober:    prober,
		renderDir: renderDir,
		logger:    logging.NewComponentLogger(logger, "manifest"),
		locks:     make(map[string]*sync.Mutex),
	}
}

func (s *Service) lockFor(sourceRef string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sourceRef]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sourceRef] = lock
	}
	return lock
}

// Start registers a source clip for editing, recording its duration and the
// context it was generated from. Calling it again for the same sourceRef is a
// no-op returning the existing manifest, unless the clip path disagrees with
// the registered one.
func (s *Service) Start(ctx context.Context, sourceRef, clipPath, editContext string) (*Manifest, error) {
	sourceRef = strings.TrimSpace(sourceRef)
	clipPath = strings.TrimSpace(clipPath)
	if sourceRef == "" {
		return nil, services.Wrap(services.ErrInvalidArgument, "manifest", "start", "source ref required", nil)
	}
	if strings.ContainsAny(sourceRef, `/\`) {
		return nil, services.Wrap(services.ErrInvalidArgument, "manifest", "start",
			fmt.Sprintf("source ref %q must not contain path separators", sourceRef), nil)
	}
	if clipPath == "" {
		return nil, services.Wrap(services.ErrInvalidArgument, "manifest", "start", "clip path required", nil)
	}

	lock := s.lockFor(sourceRef)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.store.Get(ctx, sourceRef)
	if err == nil {
		if existing.ClipPath != clipPath {
			return nil, services.Wrap(services.ErrStateConflict, "manifest", "start",
				fmt.Sprintf("%q already registered with clip %q", sourceRef, existing.ClipPath), nil)
		}
		return existing, nil
	}

	var duration float64
	if s.prober != nil {
		d, probeErr := s.prober.Duration(ctx, clipPath)
		if probeErr != nil {
			s.logger.Warn("duration probe failed, trim bounds unchecked",
				logging.String(logging.FieldSourceRef, sourceRef),
				logging.Error(probeErr),
			)
		} else {
			duration = d
		}
	}

	m, err := s.store.Create(ctx, sourceRef, clipPath, editContext, duration)
	if err != nil {
		return nil, err
	}
	s.logger.Info("manifest started",
		logging.String(logging.FieldSourceRef, sourceRef),
		logging.String("clip", clipPath),
		logging.Float64("duration", duration),
	)
	return m, nil
}

// Trim renders a trimmed variation of the source clip and records it.
func (s *Service) Trim(ctx context.Context, sourceRef string, start, end float64, notes string) (*Manifest, error) {
	return s.AddVariation(ctx, sourceRef, "trim",
		render.Params{TrimStart: start, TrimEnd: end}, SourceManual, "", notes)
}

// Speed renders a speed-adjusted variation and records it. When baseID names
// an existing variation its parameters are composed with the factor, so the
// new render carries the base's trim and the combined playback rate; an
// unknown baseID fails with not-found. With no base the source clip is used.
func (s *Service) Speed(ctx context.Context, sourceRef string, factor float64, baseID, notes string) (*Manifest, error) {
	lock := s.lockFor(sourceRef)
	lock.Lock()
	defer lock.Unlock()

	params := render.Params{Speed: factor}
	if baseID != "" {
		m, err := s.store.Get(ctx, sourceRef)
		if err != nil {
			return nil, err
		}
		base, ok := m.Variation(baseID)
		if !ok {
			return nil, services.Wrap(services.ErrNotFound, "manifest", "speed",
				fmt.Sprintf("no base variation %q on %q", baseID, sourceRef), nil)
		}
		params.TrimStart = base.Params.TrimStart
		params.TrimEnd = base.Params.TrimEnd
		if base.Params.Speed != 0 {
			params.Speed = base.Params.Speed * factor
		}
	}
	return s.addVariationLocked(ctx, sourceRef, "speed", params, SourceManual, "", notes)
}

// AddVariation validates the edit, renders it, and records the result. The
// variation is only visible in the manifest after the render succeeded and
// the output file exists.
func (s *Service) AddVariation(ctx context.Context, sourceRef, kind string, params render.Params, source VariationSource, requestID, reasoning string) (*Manifest, error) {
	lock := s.lockFor(sourceRef)
	lock.Lock()
	defer lock.Unlock()
	return s.addVariationLocked(ctx, sourceRef, kind, params, source, requestID, reasoning)
}

func (s *Service) addVariationLocked(ctx context.Context, sourceRef, kind string, params render.Params, source VariationSource, requestID, reasoning string) (*Manifest, error) {
	m, err := s.store.Get(ctx, sourceRef)
	if err != nil {
		return nil, err
	}
	if err := validateParams(kind, params, m.Duration); err != nil {
		return nil, services.Wrap(services.ErrInvalidArgument, "manifest", kind, err.Error(), nil)
	}
	if m.Status == StatusArchived {
		return nil, services.Wrap(services.ErrStateConflict, "manifest", kind,
			fmt.Sprintf("%q is archived", sourceRef), nil)
	}

	seq, err := s.store.NextSeq(ctx, sourceRef)
	if err != nil {
		return nil, err
	}
	id := FormatVariationID(seq)
	outputPath := filepath.Join(s.renderDir, sourceRef, id+renderExt(m.ClipPath))

	if err := s.renderer.Render(ctx, m.ClipPath, outputPath, params); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "manifest", kind,
			fmt.Sprintf("render %s for %q", id, sourceRef), err)
	}

	updated, err := s.store.AppendVariation(ctx, sourceRef, Variation{
		ID:        id,
		Seq:       seq,
		Kind:      kind,
		Params:    params,
		Path:      outputPath,
		Source:    source,
		RequestID: requestID,
		Reasoning: reasoning,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("variation recorded",
		logging.String(logging.FieldSourceRef, sourceRef),
		logging.String("variation", id),
		logging.String("kind", kind),
		logging.String("output", outputPath),
	)
	return updated, nil
}

// Select marks a variation as the chosen edit and approves the manifest.
func (s *Service) Select(ctx context.Context, sourceRef, variationID string) (*Manifest, error) {
	lock := s.lockFor(sourceRef)
	lock.Lock()
	defer lock.Unlock()
	return s.selectLocked(ctx, sourceRef, variationID)
}

func (s *Service) selectLocked(ctx context.Context, sourceRef, variationID string) (*Manifest, error) {
	m, err := s.store.Get(ctx, sourceRef)
	if err != nil {
		return nil, err
	}
	if m.Status == StatusArchived {
		return nil, services.Wrap(services.ErrStateConflict, "manifest", "select",
			fmt.Sprintf("%q is archived", sourceRef), nil)
	}
	if _, ok := m.Variation(variationID); !ok {
		return nil, services.Wrap(services.ErrNotFound, "manifest", "select",
			fmt.Sprintf("no variation %q on %q", variationID, sourceRef), nil)
	}
	return s.store.SetSelected(ctx, sourceRef, variationID, StatusApproved)
}

// Advance moves the manifest to a later lifecycle state. Backward moves are
// rejected.
func (s *Service) Advance(ctx context.Context, sourceRef string, next Status) (*Manifest, error) {
	if !next.Valid() {
		return nil, services.Wrap(services.ErrInvalidArgument, "manifest", "advance",
			fmt.Sprintf("unknown status %q", next), nil)
	}

	lock := s.lockFor(sourceRef)
	lock.Lock()
	defer lock.Unlock()

	m, err := s.store.Get(ctx, sourceRef)
	if err != nil {
		return nil, err
	}
	if !m.Status.CanTransition(next) {
		return nil, services.Wrap(services.ErrStateConflict, "manifest", "advance",
			fmt.Sprintf("cannot move %q from %s to %s", sourceRef, m.Status, next), nil)
	}
	if next == m.Status {
		return m, nil
	}
	return s.store.SetStatus(ctx, sourceRef, next)
}

// StoreAnalysis persists an analysis result on the manifest.
func (s *Service) StoreAnalysis(ctx context.Context, sourceRef string, result *analysis.Result) (*Manifest, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis: %w", err)
	}

	lock := s.lockFor(sourceRef)
	lock.Lock()
	defer lock.Unlock()
	return s.store.SetAnalysis(ctx, sourceRef, string(payload))
}

// AutoAnalyze runs the signal pipeline over the registered clip and stores the
// result. When applySuggestions is set and the analysis produced a trim
// suggestion, the suggested trim is rendered and selected in the same step,
// approving the manifest. Otherwise the recommendation only moves the status:
// use_as_is approves the source as-is, anything else parks the manifest in
// review for a human.
func (s *Service) AutoAnalyze(ctx context.Context, sourceRef string, applySuggestions bool, opts analysis.Options) (*Manifest, *analysis.Result, error) {
	if s.analyzer == nil {
		return nil, nil, services.Wrap(services.ErrConfiguration, "manifest", "auto",
			"no analyzer configured", nil)
	}

	lock := s.lockFor(sourceRef)
	lock.Lock()
	defer lock.Unlock()

	m, err := s.store.Get(ctx, sourceRef)
	if err != nil {
		return nil, nil, err
	}
	if m.Status == StatusArchived {
		return nil, nil, services.Wrap(services.ErrStateConflict, "manifest", "auto",
			fmt.Sprintf("%q is archived", sourceRef), nil)
	}

	result, err := s.analyzer.Analyze(ctx, m.ClipPath, opts)
	if err != nil {
		return nil, nil, err
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal analysis: %w", err)
	}
	if m, err = s.store.SetAnalysis(ctx, sourceRef, string(payload)); err != nil {
		return nil, nil, err
	}

	if applySuggestions {
		if trim, ok := trimFromSuggestions(result.Suggestions, result.Duration); ok {
			m, err = s.addVariationLocked(ctx, sourceRef, string(suggest.KindTrim),
				trim.params, SourceAuto, result.RequestID, trim.reasoning)
			if err != nil {
				return nil, result, err
			}
			lastID := m.Variations[len(m.Variations)-1].ID
			m, err = s.selectLocked(ctx, sourceRef, lastID)
			return m, result, err
		}
	}

	switch result.Assessment.RecommendedAction {
	case quality.ActionUseAsIs:
		m, err = s.store.SetStatus(ctx, sourceRef, StatusApproved)
		return m, result, err
	default:
		if m.Status.CanTransition(StatusReview) && m.Status != StatusReview {
			m, err = s.store.SetStatus(ctx, sourceRef, StatusReview)
		}
		return m, result, err
	}
}

// GetManifest loads a manifest by source ref.
func (s *Service) GetManifest(ctx context.Context, sourceRef string) (*Manifest, error) {
	return s.store.Get(ctx, sourceRef)
}

// List returns every manifest in the store.
func (s *Service) List(ctx context.Context) ([]*Manifest, error) {
	return s.store.List(ctx)
}

// GetSelectedPath returns the file to use for the clip: the selected
// variation's render when one is chosen, the source clip otherwise.
func (s *Service) GetSelectedPath(ctx context.Context, sourceRef string) (string, error) {
	m, err := s.store.Get(ctx, sourceRef)
	if err != nil {
		return "", err
	}
	return m.SelectedPath(), nil
}

type trimPlan struct {
	params    render.Params
	reasoning string
}

// trimFromSuggestions picks the trim suggestion out of the generated set.
func trimFromSuggestions(suggestions []suggest.Suggestion, duration float64) (trimPlan, bool) {
	for _, sg := range suggestions {
		if sg.Kind != suggest.KindTrim {
			continue
		}
		end := sg.Parameters.TrimEnd
		if end >= duration {
			end = 0
		}
		return trimPlan{
			params:    render.Params{TrimStart: sg.Parameters.TrimStart, TrimEnd: end},
			reasoning: sg.Reasoning,
		}, true
	}
	return trimPlan{}, false
}

// validateParams checks an edit request against the manifest's recorded clip
// duration. A zero duration (probe unavailable at Start) disables the upper
// trim bound; the remaining checks always apply.
func validateParams(kind string, params render.Params, duration float64) error {
	switch kind {
	case "trim":
		if !params.HasTrim() {
			return fmt.Errorf("trim requires a start or end")
		}
	case "speed":
		if params.Speed <= 0 {
			return fmt.Errorf("speed factor must be positive")
		}
	default:
		return fmt.Errorf("unknown variation kind %q", kind)
	}
	if params.HasTrim() {
		if params.TrimStart < 0 {
			return fmt.Errorf("trim start must not be negative")
		}
		if params.TrimEnd > 0 && params.TrimEnd <= params.TrimStart {
			return fmt.Errorf("trim end must be after trim start")
		}
		if duration > 0 {
			if params.TrimStart >= duration {
				return fmt.Errorf("trim start %.2f is past the clip end %.2f", params.TrimStart, duration)
			}
			if params.TrimEnd > duration {
				return fmt.Errorf("trim end %.2f exceeds the clip duration %.2f", params.TrimEnd, duration)
			}
		}
	}
	if params.Speed != 0 && (params.Speed < 0.25 || params.Speed > 4) {
		return fmt.Errorf("speed %.2f outside supported range [0.25, 4]", params.Speed)
	}
	return nil
}

func renderExt(clipPath string) string {
	if ext := filepath.Ext(clipPath); ext != "" {
		return ext
	}
	return ".mkv"
}
