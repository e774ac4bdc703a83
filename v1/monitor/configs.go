package monitor

import "time"

const (
	DefaultSlowThreshold  = time.Second
	DefaultTopN           = 10
	DefaultMaxSamples     = 100
	DefaultReportInterval = 5 * time.Minute
)

// Config tunes the monitor. Zero values take the defaults above.
type Config struct {
	// SlowThreshold marks a statement as slow once any of its samples exceeds it.
	SlowThreshold time.Duration `yaml:"slow_threshold"`
	// TopN bounds the number of slow statements in Stats.
	TopN int `yaml:"top_n"`
	// MaxSamples is how many recent durations are kept per statement.
	MaxSamples int `yaml:"max_samples"`
	// ReportInterval is the period of Report.
	ReportInterval time.Duration `yaml:"report_interval"`
}

func (c Config) withDefaults() Config {
	if c.SlowThreshold <= 0 {
		c.SlowThreshold = DefaultSlowThreshold
	}
	if c.TopN <= 0 {
		c.TopN = DefaultTopN
	}
	if c.MaxSamples <= 0 {
		c.MaxSamples = DefaultMaxSamples
	}
	if c.ReportInterval <= 0 {
		c.ReportInterval = DefaultReportInterval
	}
	return c
}
