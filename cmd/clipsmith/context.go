package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"clipsmith/internal/analysis"
	"clipsmith/internal/config"
	"clipsmith/internal/logging"
	"clipsmith/internal/manifest"
	"clipsmith/internal/media/ffprobe"
	"clipsmith/internal/services/render"
	"clipsmith/internal/services/scenedetect"
	"clipsmith/internal/services/silencedetect"
	"clipsmith/internal/services/transcribe"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	wireOnce sync.Once
	logger   *slog.Logger
	store    *manifest.Store
	service  *manifest.Service
	analyzer *analysis.Analyzer
	wireErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureAnalyzer wires the signal detectors without touching the store, so
// read-only analysis runs even while another process holds the store lock.
func (c *commandContext) ensureAnalyzer() (*analysis.Analyzer, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if c.analyzer != nil {
		return c.analyzer, nil
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	c.analyzer = analysis.NewAnalyzer(cfg, logger,
		scenedetect.NewDetector(cfg.FFmpegBinary()),
		silencedetect.NewDetector(cfg.FFmpegBinary()),
		transcribe.NewService(transcribe.Config{
			Binary:    cfg.WhisperBinary(),
			Model:     cfg.Tools.WhisperModel,
			OutputDir: cfg.Paths.WorkDir,
		}),
		ffprobe.NewProber(cfg.FFprobeBinary()),
	)
	return c.analyzer, nil
}

// ensureService opens the manifest store and wires the edit service. The
// store lock is held until close.
func (c *commandContext) ensureService() (*manifest.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.wireOnce.Do(func() {
		analyzer, err := c.ensureAnalyzer()
		if err != nil {
			c.wireErr = err
			return
		}
		store, err := manifest.Open(cfg)
		if err != nil {
			c.wireErr = err
			return
		}
		c.store = store
		c.service = manifest.NewService(store,
			render.NewCLI(render.WithBinary(cfg.FFmpegBinary())),
			analyzer,
			ffprobe.NewProber(cfg.FFprobeBinary()),
			cfg.Paths.RenderDir, c.logger)
	})
	return c.service, c.wireErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	c.logger = logger
	return c.logger, nil
}

func (c *commandContext) close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
