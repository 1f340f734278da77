// Package gfeconfig loads the driver's TOML settings file.
package gfeconfig

import (
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/cwida/gfe-driver/gfelog"
)

const (
	// DefaultPort is used when [server].port is unset.
	DefaultPort = 18081

	// DefaultGranularity is the number of contiguous operations a worker
	// performs between scheduler checkpoints.
	DefaultGranularity = 1024

	// DefaultReportsPerOps sets how often progress snapshots are saved: one
	// every totalOps/finalEdges/reportsPerOps operations of the run.
	DefaultReportsPerOps = 1

	// DefaultMaxWeight bounds randomly generated edge weights; unused by the
	// driver itself (the graphlog already carries weights) but kept for
	// parity with callers that synthesize edges for local testing.
	DefaultMaxWeight = 1.0
)

// ServerSettings configures the RPC server.
type ServerSettings struct {
	Port                      int    `toml:"port"`
	LibraryName               string `toml:"library_name"`
	TerminateOnLastConnection bool   `toml:"terminate_on_last_connection"`
}

// AgingSettings configures the Aging2 workload driver.
type AgingSettings struct {
	GraphlogPath     string  `toml:"graphlog"`
	Threads          uint64  `toml:"threads"`
	Granularity      uint64  `toml:"granularity"`
	BuildFrequencyMs int64   `toml:"build_frequency_ms"`
	ReportsPerOps    uint64  `toml:"reports_per_ops"`
	MeasureLatency   bool    `toml:"measure_latency"`
	MaxWeight        float64 `toml:"max_weight"`
}

// Settings is the root of the TOML configuration file.
type Settings struct {
	Server  ServerSettings   `toml:"server"`
	Aging   AgingSettings    `toml:"aging"`
	Logging gfelog.LogConfig `toml:"logging"`
}

// Default returns a Settings populated with the driver's defaults.
func Default() Settings {
	return Settings{
		Server: ServerSettings{
			Port: DefaultPort,
		},
		Aging: AgingSettings{
			Threads:       1,
			Granularity:   DefaultGranularity,
			ReportsPerOps: DefaultReportsPerOps,
			MaxWeight:     DefaultMaxWeight,
		},
	}
}

// Load reads and parses a TOML settings file, converting any relative paths
// it names to be relative to the config file's own directory.
func Load(path string) (Settings, error) {
	s := Default()
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return Settings{}, gfelog.Wrap(gfelog.Config, err, "parsing config file %q", path)
	}
	s.convertPathsToAbsolute(path)
	return s, nil
}

func (s *Settings) convertPathsToAbsolute(configPath string) {
	dir := filepath.Dir(configPath)
	if s.Aging.GraphlogPath != "" && !filepath.IsAbs(s.Aging.GraphlogPath) {
		s.Aging.GraphlogPath = filepath.Join(dir, s.Aging.GraphlogPath)
	}
	if s.Logging.Logfile != "" && !filepath.IsAbs(s.Logging.Logfile) {
		s.Logging.Logfile = filepath.Join(dir, s.Logging.Logfile)
	}
}

// Validate rejects settings that cannot produce a runnable experiment or
// server, surfacing them as Config-kind errors per the error handling design.
func (s Settings) Validate() error {
	if s.Server.Port < 0 || s.Server.Port > 65535 {
		return gfelog.Newf(gfelog.Config, "port %d out of range", s.Server.Port)
	}
	if s.Aging.Threads == 0 {
		return gfelog.Newf(gfelog.Config, "threads must be positive")
	}
	if s.Aging.Granularity == 0 {
		return gfelog.Newf(gfelog.Config, "granularity must be positive")
	}
	if s.Aging.ReportsPerOps == 0 {
		return gfelog.Newf(gfelog.Config, "reports_per_ops must be at least 1")
	}
	return nil
}
