package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"clipsmith/internal/timeline"
)

// Config describes the external transcription tool.
type Config struct {
	// Binary is the whisper CLI binary (empty means "whisper" on PATH).
	Binary string
	// Model is the model name passed to the CLI.
	Model string
	// OutputDir is where the CLI writes its JSON output. Empty means the
	// clip's directory.
	OutputDir string
}

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

// Service transcribes clips with word-level timestamps via the whisper CLI.
type Service struct {
	cfg    Config
	runner Runner
}

// NewService creates a transcription service with the given configuration.
func NewService(cfg Config) *Service {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = "whisper"
	}
	return &Service{cfg: cfg, runner: runCommand}
}

// WithRunner sets a custom command runner (for testing).
func (s *Service) WithRunner(runner Runner) *Service {
	if runner != nil {
		s.runner = runner
	}
	return s
}

// Transcribe runs the whisper CLI over the clip and parses its JSON output
// into a flat word list.
func (s *Service) Transcribe(ctx context.Context, clip string) (timeline.Transcript, error) {
	clip = strings.TrimSpace(clip)
	if clip == "" {
		return timeline.Transcript{}, errors.New("transcribe: empty clip path")
	}

	outputDir := s.cfg.OutputDir
	if outputDir == "" {
		outputDir = filepath.Dir(clip)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return timeline.Transcript{}, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	args := []string{
		clip,
		"--output_format", "json",
		"--output_dir", outputDir,
		"--word_timestamps", "True",
	}
	if s.cfg.Model != "" {
		args = append(args, "--model", s.cfg.Model)
	}

	if _, err := s.runner(ctx, s.cfg.Binary, args...); err != nil {
		return timeline.Transcript{}, fmt.Errorf("transcribe: %w", err)
	}

	jsonPath := outputJSONPath(clip, outputDir)
	payload, err := os.ReadFile(jsonPath)
	if err != nil {
		return timeline.Transcript{}, fmt.Errorf("transcribe: read output %s: %w", jsonPath, err)
	}
	return ParseOutput(payload)
}

// outputJSONPath mirrors the whisper CLI naming: <output_dir>/<stem>.json.
func outputJSONPath(clip, outputDir string) string {
	base := filepath.Base(clip)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, stem+".json")
}

// whisperOutput matches the whisper CLI JSON structure, keeping only the
// fields the pipeline consumes.
type whisperOutput struct {
	Text     string `json:"text"`
	Segments []struct {
		Words []struct {
			Word  string  `json:"word"`
			Start float64 `json:"start"`
			End   float64 `json:"end"`
		} `json:"words"`
	} `json:"segments"`
}

// ParseOutput decodes whisper JSON into a flat transcript.
func ParseOutput(payload []byte) (timeline.Transcript, error) {
	var out whisperOutput
	if err := json.Unmarshal(payload, &out); err != nil {
		return timeline.Transcript{}, fmt.Errorf("transcribe: parse output: %w", err)
	}

	transcript := timeline.Transcript{Text: strings.TrimSpace(out.Text)}
	for _, segment := range out.Segments {
		for _, word := range segment.Words {
			text := strings.TrimSpace(word.Word)
			if text == "" {
				continue
			}
			transcript.Words = append(transcript.Words, timeline.Word{
				Text:  text,
				Start: word.Start,
				End:   word.End,
			})
		}
	}
	return transcript, nil
}
