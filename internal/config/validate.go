package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFrames(); err != nil {
		return err
	}
	if err := c.validateGrouping(); err != nil {
		return err
	}
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateFrames() error {
	if c.Frames.FrameIntervalMS <= 0 {
		return errors.New("frames.frame_interval_ms must be positive")
	}
	return nil
}

func (c *Config) validateGrouping() error {
	if c.Grouping.Workers < 1 {
		return errors.New("grouping.workers must be at least 1")
	}
	if c.Grouping.TaskTimeoutSeconds < 0 {
		return errors.New("grouping.task_timeout_seconds must be zero or positive")
	}
	if c.Grouping.LooseMinRegions < 0 {
		return errors.New("grouping.loose_min_regions must be zero or positive")
	}
	if c.Grouping.LooseMinPrecision < 0 || c.Grouping.LooseMinPrecision > 1 {
		return errors.New("grouping.loose_min_precision must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateDetection() error {
	switch c.Detection.Engine {
	case "luminance", "opencv":
	default:
		return fmt.Errorf("detection.engine: unsupported value %q (use luminance or opencv)", c.Detection.Engine)
	}
	if c.Detection.LuminanceThreshold < 0 || c.Detection.LuminanceThreshold > 255 {
		return errors.New("detection.luminance_threshold must be between 0 and 255")
	}
	if c.Detection.MinRegionArea < 0 {
		return errors.New("detection.min_region_area must be zero or positive")
	}
	if c.Detection.JoinGap < 0 {
		return errors.New("detection.join_gap must be zero or positive")
	}
	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.ClipMargin < 0 {
		return errors.New("output.clip_margin must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
