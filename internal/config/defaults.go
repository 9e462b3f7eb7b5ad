package config

const (
	defaultStoreDir           = "~/.local/share/clipsmith/store"
	defaultRenderDir          = "~/.local/share/clipsmith/renders"
	defaultWorkDir            = "~/.local/share/clipsmith/work"
	defaultLogDir             = "~/.local/share/clipsmith/logs"
	defaultWhisperModel       = "base.en"
	defaultSceneThreshold     = 0.4
	defaultNoiseFloorDB       = -30.0
	defaultMinSilenceDuration = 0.2
	defaultToleranceSeconds   = 0.15
	defaultSegmentGapSeconds  = 0.3
	defaultCorrelationPolicy  = "exclusive"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StoreDir:  defaultStoreDir,
			RenderDir: defaultRenderDir,
			WorkDir:   defaultWorkDir,
			LogDir:    defaultLogDir,
		},
		Tools: Tools{
			WhisperModel: defaultWhisperModel,
		},
		Detection: Detection{
			SceneThreshold:     defaultSceneThreshold,
			NoiseFloorDB:       defaultNoiseFloorDB,
			MinSilenceDuration: defaultMinSilenceDuration,
		},
		Reconcile: Reconcile{
			ToleranceSeconds:  defaultToleranceSeconds,
			SegmentGapSeconds: defaultSegmentGapSeconds,
			CorrelationPolicy: defaultCorrelationPolicy,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
