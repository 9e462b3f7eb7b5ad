package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// Params describes a single render operation. Exactly one of the trim pair
// or Speed is expected to be meaningful; zero values leave the clip untouched
// for that dimension.
type Params struct {
	// TrimStart and TrimEnd bound the kept region in seconds. TrimEnd of 0
	// means "to the end of the clip".
	TrimStart float64
	TrimEnd   float64
	// Speed is a playback-rate multiplier. 0 means unchanged.
	Speed float64
}

// HasTrim reports whether the params request a trim.
func (p Params) HasTrim() bool {
	return p.TrimStart > 0 || p.TrimEnd > 0
}

// HasSpeed reports whether the params request a speed change.
func (p Params) HasSpeed() bool {
	return p.Speed != 0 && p.Speed != 1
}

// Client defines render behaviour.
type Client interface {
	Render(ctx context.Context, inputPath, outputPath string, params Params) error
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default ffmpeg binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithRunner overrides command execution (for testing).
func WithRunner(runner func(ctx context.Context, name string, args ...string) error) Option {
	return func(c *CLI) {
		if runner != nil {
			c.run = runner
		}
	}
}

// CLI renders edit variations by invoking ffmpeg.
type CLI struct {
	binary string
	run    func(ctx context.Context, name string, args ...string) error
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "ffmpeg"}
	cli.run = func(ctx context.Context, name string, args ...string) error {
		cmd := commandContext(ctx, name, args...) //nolint:gosec
		output, err := cmd.CombinedOutput()
		if err != nil {
			return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
		}
		return nil
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Render produces outputPath from inputPath according to params. The output
// file is confirmed to exist on disk before success is reported.
func (c *CLI) Render(ctx context.Context, inputPath, outputPath string, params Params) error {
	if strings.TrimSpace(inputPath) == "" {
		return errors.New("input path required")
	}
	if strings.TrimSpace(outputPath) == "" {
		return errors.New("output path required")
	}
	args, err := buildArgs(inputPath, outputPath, params)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("ensure render dir: %w", err)
	}
	if err := c.run(ctx, c.binary, args...); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	if _, err := os.Stat(outputPath); err != nil {
		return fmt.Errorf("render output missing: %w", err)
	}
	return nil
}

// buildArgs assembles the ffmpeg invocation for the requested edit.
func buildArgs(inputPath, outputPath string, params Params) ([]string, error) {
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}

	if params.HasTrim() {
		if params.TrimStart < 0 {
			return nil, errors.New("trim start must not be negative")
		}
		if params.TrimEnd > 0 && params.TrimEnd <= params.TrimStart {
			return nil, errors.New("trim end must be after trim start")
		}
		if params.TrimStart > 0 {
			args = append(args, "-ss", formatSeconds(params.TrimStart))
		}
		if params.TrimEnd > 0 {
			args = append(args, "-to", formatSeconds(params.TrimEnd))
		}
	}

	args = append(args, "-i", inputPath)

	if params.HasSpeed() {
		if params.Speed < 0.25 || params.Speed > 4 {
			return nil, fmt.Errorf("speed %.2f outside supported range [0.25, 4]", params.Speed)
		}
		args = append(args,
			"-vf", fmt.Sprintf("setpts=PTS/%s", formatSeconds(params.Speed)),
			"-af", atempoChain(params.Speed),
		)
	} else {
		// Stream copy keeps the render cheap when only trimming.
		args = append(args, "-c", "copy")
	}

	args = append(args, outputPath)
	return args, nil
}

// atempoChain builds an audio tempo filter. A single atempo stage accepts
// factors in [0.5, 2.0], so factors outside that range are split into stages.
func atempoChain(speed float64) string {
	var stages []string
	for speed > 2 {
		stages = append(stages, "atempo=2.0")
		speed /= 2
	}
	for speed < 0.5 {
		stages = append(stages, "atempo=0.5")
		speed /= 0.5
	}
	stages = append(stages, "atempo="+formatSeconds(speed))
	return strings.Join(stages, ",")
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var _ Client = (*CLI)(nil)
