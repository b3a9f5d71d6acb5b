package config

import "runtime"

const (
	defaultOutputDir          = "~/.local/share/subseg/segments"
	defaultStateDir           = "~/.local/share/subseg"
	defaultLogDir             = "~/.local/share/subseg/logs"
	defaultFrameIntervalMS    = 1000
	defaultFrameManifest      = "frames.json"
	defaultTaskTimeoutSeconds = 60
	defaultLooseMinRegions    = 2
	defaultLooseMinPrecision  = 0.5
	defaultEngine             = "luminance"
	defaultLuminanceThreshold = 200
	defaultMinRegionArea      = 24
	defaultJoinGap            = 4
	defaultClipMargin         = 8
	defaultManifestName       = "segments.json"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

var defaultExtensions = []string{".png", ".jpg", ".jpeg"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
		},
		Frames: Frames{
			Extensions:      append([]string(nil), defaultExtensions...),
			FrameIntervalMS: defaultFrameIntervalMS,
			Manifest:        defaultFrameManifest,
		},
		Grouping: Grouping{
			Workers:            runtime.NumCPU(),
			PreMerge:           true,
			TaskTimeoutSeconds: defaultTaskTimeoutSeconds,
			LooseMinRegions:    defaultLooseMinRegions,
			LooseMinPrecision:  defaultLooseMinPrecision,
		},
		Detection: Detection{
			Engine:             defaultEngine,
			LuminanceThreshold: defaultLuminanceThreshold,
			MinRegionArea:      defaultMinRegionArea,
			JoinGap:            defaultJoinGap,
		},
		Output: Output{
			WriteImages:  true,
			Clip:         true,
			ClipMargin:   defaultClipMargin,
			ManifestName: defaultManifestName,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
