package scenedetect

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"clipsmith/internal/timeline"
)

// Runner executes a command and returns its combined stdout+stderr output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

// Detector finds visual scene changes using ffmpeg's scene filter.
type Detector struct {
	binary string
	runner Runner
}

// NewDetector constructs a Detector using the given ffmpeg binary (empty
// means "ffmpeg" on PATH).
func NewDetector(binary string) *Detector {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Detector{binary: binary, runner: runCommand}
}

// WithRunner sets a custom command runner (for testing).
func (d *Detector) WithRunner(runner Runner) *Detector {
	if runner != nil {
		d.runner = runner
	}
	return d
}

// Detect runs ffmpeg's select filter over the clip and returns the timestamps
// where the scene score exceeded threshold, in clip order.
func (d *Detector) Detect(ctx context.Context, clip string, threshold float64) ([]timeline.SceneChange, error) {
	clip = strings.TrimSpace(clip)
	if clip == "" {
		return nil, errors.New("scene detect: empty clip path")
	}
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("scene detect: threshold %v out of (0, 1]", threshold)
	}

	filter := fmt.Sprintf("select='gt(scene,%0.3f)',metadata=print", threshold)
	output, err := d.runner(ctx, d.binary,
		"-hide_banner", "-nostats",
		"-i", clip,
		"-vf", filter,
		"-an", "-f", "null", "-",
	)
	if err != nil {
		return nil, fmt.Errorf("scene detect: %w", err)
	}

	return parseMetadata(string(output)), nil
}

// parseMetadata extracts scene changes from metadata=print output. ffmpeg
// emits pairs of lines per selected frame:
//
//	[Parsed_metadata_1 @ 0x...] frame:0    pts:6006    pts_time:2.002
//	[Parsed_metadata_1 @ 0x...] lavfi.scene_score=0.421
func parseMetadata(output string) []timeline.SceneChange {
	var scenes []timeline.SceneChange
	pending := -1.0

	for _, line := range strings.Split(output, "\n") {
		if idx := strings.Index(line, "pts_time:"); idx >= 0 {
			field := strings.Fields(line[idx+len("pts_time:"):])
			if len(field) == 0 {
				continue
			}
			if ts, err := strconv.ParseFloat(field[0], 64); err == nil {
				pending = ts
			}
			continue
		}
		if idx := strings.Index(line, "lavfi.scene_score="); idx >= 0 && pending >= 0 {
			raw := strings.TrimSpace(line[idx+len("lavfi.scene_score="):])
			score, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				pending = -1
				continue
			}
			scenes = append(scenes, timeline.SceneChange{Timestamp: pending, Confidence: score})
			pending = -1
		}
	}
	return scenes
}
