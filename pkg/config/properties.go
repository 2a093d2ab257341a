package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/downfa11-org/logseg/pkg/disk"
	"github.com/downfa11-org/logseg/pkg/types"
	"github.com/downfa11-org/logseg/util"
	"gopkg.in/yaml.v3"
)

const (
	defaultLogDir        = "segment-logs"
	defaultMaxRecordSize = 1 << 20 // 1MB
	defaultExporterPort  = 9100
)

// Config holds the settings shared by the segment tooling.
type Config struct {
	LogDir   string        `yaml:"log_dir" json:"log.dir"`
	LogLevel util.LogLevel `yaml:"log_level" json:"log_level"`

	// Frame limits
	MaxRecordSize  int32 `yaml:"max_record_size" json:"max.record.size"`
	MinPayloadSize int32 `yaml:"min_payload_size" json:"min.payload.size"`

	// PreallocateSize is applied to newly created segments (0 = disabled).
	PreallocateSize int64 `yaml:"preallocate_size" json:"preallocate.size"`

	EnableExporter bool `yaml:"enable_exporter" json:"enable.exporter"`
	ExporterPort   int  `yaml:"exporter_port" json:"exporter.port"`
}

func newConfig() *Config {
	return &Config{
		LogLevel:       util.LogLevelInfo,
		MinPayloadSize: types.MessageHeaderSize,
	}
}

// Default returns a normalized configuration.
func Default() *Config {
	cfg := newConfig()
	cfg.Normalize()
	return cfg
}

// LoadFile reads a YAML or JSON config (chosen by extension), applies
// environment overrides and fills defaults. An empty path yields the
// defaults plus environment; CONFIG_PATH is used when path is empty.
func LoadFile(path string) (*Config, error) {
	cfg := newConfig()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		if strings.HasSuffix(path, ".json") {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	cfg.ApplyEnv()
	cfg.Normalize()
	util.SetLevel(cfg.LogLevel)
	return cfg, nil
}

// ApplyEnv overrides fields from LOGSEG_* environment variables.
func (cfg *Config) ApplyEnv() {
	if v := os.Getenv("LOGSEG_LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	if v := os.Getenv("LOGSEG_LOG_LEVEL"); v != "" {
		cfg.LogLevel = util.ParseLogLevel(v)
	}
	if v := os.Getenv("LOGSEG_MAX_RECORD_SIZE"); v != "" {
		cfg.MaxRecordSize = util.ParseInt32(v, cfg.MaxRecordSize)
	}
	if v := os.Getenv("LOGSEG_MIN_PAYLOAD_SIZE"); v != "" {
		cfg.MinPayloadSize = util.ParseInt32(v, cfg.MinPayloadSize)
	}
	if v := os.Getenv("LOGSEG_PREALLOCATE_SIZE"); v != "" {
		cfg.PreallocateSize = util.ParseInt64(v, cfg.PreallocateSize)
	}
	if v := os.Getenv("LOGSEG_EXPORTER"); v != "" {
		cfg.EnableExporter = util.ParseBool(v, cfg.EnableExporter)
	}
	if v := os.Getenv("LOGSEG_EXPORTER_PORT"); v != "" {
		cfg.ExporterPort = util.ParseInt(v, cfg.ExporterPort)
	}
}

func (cfg *Config) Normalize() {
	if strings.TrimSpace(cfg.LogDir) == "" {
		cfg.LogDir = defaultLogDir
	}
	if cfg.MaxRecordSize <= 0 {
		cfg.MaxRecordSize = defaultMaxRecordSize
	}
	// zero turns the payload minimum off
	if cfg.MinPayloadSize < 0 {
		cfg.MinPayloadSize = types.MessageHeaderSize
	}
	if cfg.MinPayloadSize > cfg.MaxRecordSize {
		util.Warn("min_payload_size (%d) > max_record_size (%d), lowering min_payload_size",
			cfg.MinPayloadSize, cfg.MaxRecordSize)
		cfg.MinPayloadSize = cfg.MaxRecordSize
	}
	if cfg.PreallocateSize < 0 {
		cfg.PreallocateSize = 0
	}
	if cfg.ExporterPort <= 0 {
		cfg.ExporterPort = defaultExporterPort
	}
}

// SegmentOptions builds the disk options for opening a segment.
func (cfg *Config) SegmentOptions(writable bool) disk.Options {
	opts := disk.Options{
		Writable:       writable,
		MinPayloadSize: cfg.MinPayloadSize,
	}
	if writable {
		opts.PreallocateSize = cfg.PreallocateSize
	}
	return opts
}

// SegmentPath resolves a segment name against LogDir; absolute paths and
// paths with a directory component are used as given.
func (cfg *Config) SegmentPath(name string) string {
	if filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) {
		return name
	}
	return filepath.Join(cfg.LogDir, name)
}
