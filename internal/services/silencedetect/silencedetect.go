package silencedetect

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

// Detector finds silence intervals using ffmpeg's silencedetect filter.
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

// Detect runs silencedetect over the clip's audio and returns the reported
// intervals in clip order. noiseFloorDB must be negative; minDuration is the
// shortest silence reported, in seconds.
func (d *Detector) Detect(ctx context.Context, clip string, noiseFloorDB, minDuration float64) ([]timeline.SilenceInterval, error) {
	clip = strings.TrimSpace(clip)
	if clip == "" {
		return nil, errors.New("silence detect: empty clip path")
	}
	if noiseFloorDB >= 0 {
		return nil, fmt.Errorf("silence detect: noise floor %v must be negative dBFS", noiseFloorDB)
	}
	if minDuration <= 0 {
		return nil, fmt.Errorf("silence detect: min duration %v must be positive", minDuration)
	}

	filter := fmt.Sprintf("silencedetect=noise=%gdB:d=%g", noiseFloorDB, minDuration)
	output, err := d.runner(ctx, d.binary,
		"-hide_banner", "-nostats",
		"-i", clip,
		"-af", filter,
		"-vn", "-f", "null", "-",
	)
	if err != nil {
		return nil, fmt.Errorf("silence detect: %w", err)
	}

	return parseSilences(string(output)), nil
}

// parseSilences extracts intervals from silencedetect log lines:
//
//	[silencedetect @ 0x...] silence_start: 4.01
//	[silencedetect @ 0x...] silence_end: 4.903 | silence_duration: 0.893
//
// A trailing silence_start with no matching end (silence running into the end
// of the clip) is dropped; the caller cannot know the interval's extent.
func parseSilences(output string) []timeline.SilenceInterval {
	var silences []timeline.SilenceInterval
	start := -1.0

	for _, line := range strings.Split(output, "\n") {
		if idx := strings.Index(line, "silence_start:"); idx >= 0 {
			if v, ok := firstFloat(line[idx+len("silence_start:"):]); ok {
				start = v
			}
			continue
		}
		if idx := strings.Index(line, "silence_end:"); idx >= 0 && start >= 0 {
			end, ok := firstFloat(line[idx+len("silence_end:"):])
			if !ok {
				start = -1
				continue
			}
			duration := end - start
			if di := strings.Index(line, "silence_duration:"); di >= 0 {
				if v, ok := firstFloat(line[di+len("silence_duration:"):]); ok {
					duration = v
				}
			}
			silences = append(silences, timeline.SilenceInterval{Start: start, End: end, Duration: duration})
			start = -1
		}
	}
	return silences
}

func firstFloat(s string) (float64, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
