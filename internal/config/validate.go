package config

import (
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateReconcile(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDetection() error {
	if c.Detection.SceneThreshold <= 0 || c.Detection.SceneThreshold > 1 {
		return fmt.Errorf("detection.scene_threshold must be in (0, 1], got %v", c.Detection.SceneThreshold)
	}
	if c.Detection.NoiseFloorDB >= 0 {
		return fmt.Errorf("detection.noise_floor_db must be negative, got %v", c.Detection.NoiseFloorDB)
	}
	if c.Detection.MinSilenceDuration <= 0 {
		return fmt.Errorf("detection.min_silence_duration must be positive, got %v", c.Detection.MinSilenceDuration)
	}
	return nil
}

func (c *Config) validateReconcile() error {
	if c.Reconcile.ToleranceSeconds <= 0 {
		return fmt.Errorf("reconcile.tolerance_seconds must be positive, got %v", c.Reconcile.ToleranceSeconds)
	}
	if c.Reconcile.SegmentGapSeconds <= 0 {
		return fmt.Errorf("reconcile.segment_gap_seconds must be positive, got %v", c.Reconcile.SegmentGapSeconds)
	}
	switch c.Reconcile.CorrelationPolicy {
	case "exclusive", "both":
	default:
		return fmt.Errorf("reconcile.correlation_policy must be \"exclusive\" or \"both\", got %q", c.Reconcile.CorrelationPolicy)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}
