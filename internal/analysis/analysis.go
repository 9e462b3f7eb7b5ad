package analysis

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"clipsmith/internal/anomaly"
	"clipsmith/internal/config"
	"clipsmith/internal/correlate"
	"clipsmith/internal/logging"
	"clipsmith/internal/quality"
	"clipsmith/internal/services"
	"clipsmith/internal/suggest"
	"clipsmith/internal/timeline"
)

// SceneDetector reports visual cuts in a clip.
type SceneDetector interface {
	Detect(ctx context.Context, clip string, threshold float64) ([]timeline.SceneChange, error)
}

// SilenceDetector reports low-energy audio spans in a clip.
type SilenceDetector interface {
	Detect(ctx context.Context, clip string, noiseFloorDB, minDuration float64) ([]timeline.SilenceInterval, error)
}

// Transcriber produces a word-level transcript of a clip.
type Transcriber interface {
	Transcribe(ctx context.Context, clip string) (timeline.Transcript, error)
}

// Prober reports clip metadata.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// DegradedSignal records a signal source that returned no data and why.
type DegradedSignal struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// Result is the full output of one analysis pass over a clip.
type Result struct {
	RequestID    string                     `json:"request_id"`
	ClipPath     string                     `json:"clip_path"`
	Duration     float64                    `json:"duration"`
	Scenes       []timeline.SceneChange     `json:"scenes"`
	Silences     []timeline.SilenceInterval `json:"silences"`
	Transcript   timeline.Transcript        `json:"transcript"`
	Reconciled   []timeline.ReconciledWord  `json:"reconciled"`
	Segments     []timeline.SpeechSegment   `json:"segments"`
	Events       []timeline.Event           `json:"events"`
	Correlations []correlate.Correlation    `json:"correlations"`
	Anomalies    []anomaly.Anomaly          `json:"anomalies"`
	Suggestions  []suggest.Suggestion       `json:"suggestions"`
	Assessment   quality.Assessment         `json:"assessment"`
	Degraded     []DegradedSignal           `json:"degraded,omitempty"`
}

// Options carries per-request analysis inputs.
type Options struct {
	// ExpectedDialogue is the text the clip was generated from, when known.
	// It enables the dialogue-mismatch check.
	ExpectedDialogue string
}

// Analyzer runs the signal detectors over a clip and reconciles their output
// into a scored timeline.
type Analyzer struct {
	cfg         *config.Config
	logger      *slog.Logger
	scenes      SceneDetector
	silences    SilenceDetector
	transcriber Transcriber
	prober      Prober
}

// NewAnalyzer wires an analyzer from its signal sources.
func NewAnalyzer(cfg *config.Config, logger *slog.Logger, scenes SceneDetector, silences SilenceDetector, transcriber Transcriber, prober Prober) *Analyzer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Analyzer{
		cfg:         cfg,
		logger:      logging.NewComponentLogger(logger, "analysis"),
		scenes:      scenes,
		silences:    silences,
		transcriber: transcriber,
		prober:      prober,
	}
}

// Analyze probes and detects concurrently, then runs the reconciliation
// pipeline over whatever signals arrived. A failed or empty signal source
// degrades the result rather than aborting it; the analysis fails outright
// only when the clip path is empty or every source errored.
func (a *Analyzer) Analyze(ctx context.Context, clip string, opts Options) (*Result, error) {
	clip = strings.TrimSpace(clip)
	if clip == "" {
		return nil, services.Wrap(services.ErrInvalidArgument, "analysis", "analyze", "clip path required", nil)
	}

	requestID := uuid.NewString()
	ctx = services.WithRequestID(ctx, requestID)
	logger := a.logger.With(logging.String(logging.FieldRequestID, requestID))
	logger.Info("starting analysis", logging.String("clip", clip))

	result := &Result{RequestID: requestID, ClipPath: clip}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		duration float64
		failed   int
	)
	degrade := func(source, reason string) {
		mu.Lock()
		result.Degraded = append(result.Degraded, DegradedSignal{Source: source, Reason: reason})
		mu.Unlock()
		logger.Warn("signal source degraded",
			logging.String("source", source),
			logging.String("reason", reason),
		)
	}
	fail := func(source string, err error) {
		mu.Lock()
		failed++
		mu.Unlock()
		degrade(source, err.Error())
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		d, err := a.prober.Duration(ctx, clip)
		if err != nil {
			fail("probe", err)
			return
		}
		if d <= 0 {
			degrade("probe", "no duration reported")
			return
		}
		mu.Lock()
		duration = d
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		scenes, err := a.scenes.Detect(ctx, clip, a.cfg.Detection.SceneThreshold)
		if err != nil {
			fail("scene", err)
			return
		}
		if len(scenes) == 0 {
			degrade("scene", "no scene changes detected")
			return
		}
		mu.Lock()
		result.Scenes = scenes
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		silences, err := a.silences.Detect(ctx, clip, a.cfg.Detection.NoiseFloorDB, a.cfg.Detection.MinSilenceDuration)
		if err != nil {
			fail("silence", err)
			return
		}
		if len(silences) == 0 {
			degrade("silence", "no silence intervals detected")
			return
		}
		mu.Lock()
		result.Silences = silences
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		transcript, err := a.transcriber.Transcribe(ctx, clip)
		if err != nil {
			fail("transcript", err)
			return
		}
		if len(transcript.Words) == 0 {
			degrade("transcript", "no words transcribed")
			return
		}
		mu.Lock()
		result.Transcript = transcript
		mu.Unlock()
	}()
	wg.Wait()

	if failed == 4 {
		return nil, services.Wrap(services.ErrDegradedInput, "analysis", "analyze", "all signal sources failed", nil)
	}

	result.Duration = duration
	if result.Duration <= 0 {
		result.Duration = maxObservedTimestamp(result)
	}

	tolerance := a.cfg.Reconcile.ToleranceSeconds
	gap := a.cfg.Reconcile.SegmentGapSeconds
	result.Reconciled = timeline.Reconcile(result.Transcript.Words, result.Silences, tolerance)
	result.Segments = timeline.Segment(result.Reconciled, result.Silences, gap)
	result.Events = timeline.MergeEvents(result.Scenes, result.Silences, result.Segments)
	result.Correlations = correlate.Correlate(result.Scenes, result.Silences, result.Segments, correlate.Options{
		Tolerance: tolerance,
		Policy:    correlate.Policy(a.cfg.Reconcile.CorrelationPolicy),
	})
	result.Anomalies = anomaly.Classify(anomaly.Input{
		Scenes:           result.Scenes,
		Segments:         result.Segments,
		Duration:         result.Duration,
		ExpectedDialogue: opts.ExpectedDialogue,
		TranscriptText:   result.Transcript.Text,
		GuardBand:        tolerance,
	})
	result.Suggestions = suggest.Generate(result.Scenes, result.Silences, result.Segments, result.Duration)
	result.Assessment = quality.Score(quality.Input{
		Anomalies:      result.Anomalies,
		Correlations:   result.Correlations,
		Suggestions:    result.Suggestions,
		SpeechDuration: speechDuration(result.Segments),
		ClipDuration:   result.Duration,
		DegradedCount:  len(result.Degraded),
	})

	logger.Info("analysis complete",
		logging.Float64("score", result.Assessment.Score),
		logging.String("action", string(result.Assessment.RecommendedAction)),
		logging.Int("anomalies", len(result.Anomalies)),
		logging.Int("suggestions", len(result.Suggestions)),
		logging.Int("degraded", len(result.Degraded)),
	)
	return result, nil
}

// maxObservedTimestamp estimates the clip duration from the latest signal
// timestamp when the prober could not report one.
func maxObservedTimestamp(r *Result) float64 {
	var max float64
	for _, s := range r.Scenes {
		if s.Timestamp > max {
			max = s.Timestamp
		}
	}
	for _, s := range r.Silences {
		if s.End > max {
			max = s.End
		}
	}
	for _, w := range r.Transcript.Words {
		if w.End > max {
			max = w.End
		}
	}
	return max
}

func speechDuration(segments []timeline.SpeechSegment) float64 {
	var total float64
	for _, s := range segments {
		total += s.End - s.Start
	}
	return total
}
