// Package config implements the YAML config file parser
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"PipelineMonitor/pkg/collecting"
	"PipelineMonitor/pkg/config/logger"
	"PipelineMonitor/pkg/metrics"
	"PipelineMonitor/pkg/storage"
)

// Sink types
const (
	SinkJSONL   = "jsonl"
	SinkCSV     = "csv"
	SinkTSV     = "tsv"
	SinkParquet = "parquet"
	SinkBlob    = "blob"
	SinkStdout  = "stdout"
)

// SinkTypes lists the accepted sink types.
var SinkTypes = []string{SinkJSONL, SinkCSV, SinkTSV, SinkParquet, SinkBlob, SinkStdout}

// Default values
const (
	DefaultOutputDir = "logs"
	DefaultSinkPath  = "metrics.jsonl"
)

// Config is the config root object
type Config struct {
	AppEnv    string        `yaml:"app_env"`    // Exported as APP_ENV when the variable is unset
	OutputDir string        `yaml:"output_dir"` // Base directory for relative file sink paths
	HostStats HostStats     `yaml:"host_stats"`
	Sinks     []Sink        `yaml:"sinks"`
	Log       logger.Config `yaml:"log"`
}

// HostStats configures host sampling for the stats command.
type HostStats struct {
	Unit       string `yaml:"unit"`        // MB or GB
	MountPoint string `yaml:"mount_point"` // Filesystem reported as disk usage
}

// Sink configures one output writer
type Sink struct {
	Type string `yaml:"type"`           // One of SinkTypes
	Name string `yaml:"name,omitempty"` // Name used in logs and errors

	// File sinks
	Path string `yaml:"path,omitempty"`

	// Blob sink
	Prefix   string  `yaml:"prefix,omitempty"`
	Compress bool    `yaml:"compress,omitempty"`
	Storage  Storage `yaml:"storage,omitempty"`
}

// Storage selects a simpleblob backend for the blob sink.
type Storage struct {
	Type    string                 `yaml:"type"`              // "fs", "memory", ...
	Options map[string]interface{} `yaml:"options,omitempty"` // Backend specific
}

// IsFile reports whether the sink writes a local file.
func (s Sink) IsFile() bool {
	return lo.Contains([]string{SinkJSONL, SinkCSV, SinkTSV, SinkParquet}, s.Type)
}

// Check validates a Config instance
func (c Config) Check() error {
	if err := c.Log.Check(); err != nil {
		return err
	}
	if _, err := collecting.ParseUnit(c.HostStats.Unit); err != nil {
		return errors.Wrap(err, "host_stats.unit")
	}
	for i, s := range c.Sinks {
		if !lo.Contains(SinkTypes, s.Type) {
			return errors.Errorf("sinks[%d].type: must be one of: %s", i, strings.Join(SinkTypes, ", "))
		}
		if s.IsFile() && s.Path == "" {
			return errors.Errorf("sinks[%d]: no path configured for %s sink", i, s.Type)
		}
		if s.Type == SinkBlob && s.Storage.Type == "" {
			return errors.Errorf("sinks[%d]: no storage.type configured for blob sink", i)
		}
		if s.Type == SinkBlob {
			if err := storage.CheckPrefix(s.Prefix); err != nil {
				return errors.Wrapf(err, "sinks[%d].prefix", i)
			}
		}
	}
	return nil
}

// String returns the config as a YAML string.
func (c Config) String() string {
	y, err := yaml.Marshal(c)
	if err != nil {
		logrus.Panicf("YAML marshal of config failed: %v", err) // Should never happen
	}
	return string(y)
}

// LoadYAML loads config from YAML. Any set value overwrites any existing value,
// but omitted keys are untouched.
func (c *Config) LoadYAML(yamlContents []byte, expandEnv bool) error {
	if expandEnv {
		yamlContents = []byte(os.ExpandEnv(string(yamlContents)))
	}
	return yaml.UnmarshalStrict(yamlContents, c)
}

// LoadYAMLFile loads config from a YAML file. Any set value overwrites any existing value,
// but omitted keys are untouched.
func (c *Config) LoadYAMLFile(fpath string, expandEnv bool) error {
	contents, err := os.ReadFile(fpath)
	if err != nil {
		return errors.Wrap(err, "open yaml file")
	}
	return c.LoadYAML(contents, expandEnv)
}

// ExportEnv sets APP_ENV from app_env unless the environment already has
// it. Records pick the value up through their environment back-fill.
func (c Config) ExportEnv() error {
	if c.AppEnv == "" {
		return nil
	}
	if _, ok := os.LookupEnv(metrics.EnvAppEnv); ok {
		return nil
	}
	return errors.Wrap(os.Setenv(metrics.EnvAppEnv, c.AppEnv), "export app_env")
}

// Default returns a Config with default settings
func Default() Config {
	return Config{
		OutputDir: DefaultOutputDir,
		HostStats: HostStats{
			Unit:       string(metrics.HostStatsUnit),
			MountPoint: "/",
		},
		Sinks: []Sink{{Type: SinkJSONL, Path: DefaultSinkPath}},
		Log:   logger.DefaultConfig,
	}
}

// Merge returns c with every non-empty value of o applied on top. Flag
// values are collected in a zero Config and merged after the file is read.
func (c Config) Merge(o Config) Config {
	if o.AppEnv != "" {
		c.AppEnv = o.AppEnv
	}
	if o.OutputDir != "" {
		c.OutputDir = o.OutputDir
	}
	if o.HostStats.Unit != "" {
		c.HostStats.Unit = o.HostStats.Unit
	}
	if o.HostStats.MountPoint != "" {
		c.HostStats.MountPoint = o.HostStats.MountPoint
	}
	if len(o.Sinks) > 0 {
		c.Sinks = o.Sinks
	}
	c.Log = c.Log.Merge(o.Log)
	return c
}
