package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/downfa11-org/logseg/pkg/config"
	"github.com/downfa11-org/logseg/pkg/types"
	"github.com/downfa11-org/logseg/util"
)

func TestNormalizeDefaults(t *testing.T) {
	cfg := config.Default()

	if cfg.LogDir != "segment-logs" {
		t.Errorf("LogDir default incorrect: %q", cfg.LogDir)
	}
	if cfg.MaxRecordSize != 1<<20 {
		t.Errorf("MaxRecordSize default incorrect: %d", cfg.MaxRecordSize)
	}
	if cfg.MinPayloadSize != types.MessageHeaderSize {
		t.Errorf("MinPayloadSize default incorrect: %d", cfg.MinPayloadSize)
	}
	if cfg.ExporterPort != 9100 {
		t.Errorf("ExporterPort default incorrect: %d", cfg.ExporterPort)
	}
}

func TestZeroMinPayloadDisablesCheck(t *testing.T) {
	cfg := &config.Config{MinPayloadSize: 0}
	cfg.Normalize()
	if cfg.MinPayloadSize != 0 {
		t.Errorf("MinPayloadSize 0 should be kept, got %d", cfg.MinPayloadSize)
	}

	cfg = &config.Config{MinPayloadSize: -3}
	cfg.Normalize()
	if cfg.MinPayloadSize != types.MessageHeaderSize {
		t.Errorf("negative MinPayloadSize should fall back to %d, got %d", types.MessageHeaderSize, cfg.MinPayloadSize)
	}

	path := filepath.Join(t.TempDir(), "zero.yaml")
	if err := os.WriteFile(path, []byte("min_payload_size: 0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	loaded, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.MinPayloadSize != 0 || loaded.SegmentOptions(false).MinPayloadSize != 0 {
		t.Errorf("min_payload_size: 0 not honored: %+v", loaded)
	}
}

func TestApplyEnvRejectsOutOfRangeSizes(t *testing.T) {
	t.Setenv("LOGSEG_MAX_RECORD_SIZE", "4294967297")
	t.Setenv("LOGSEG_MIN_PAYLOAD_SIZE", "0")

	cfg := config.Default()
	cfg.ApplyEnv()
	cfg.Normalize()
	if cfg.MaxRecordSize != 1<<20 {
		t.Errorf("out of range max record size should be ignored, got %d", cfg.MaxRecordSize)
	}
	if cfg.MinPayloadSize != 0 {
		t.Errorf("MinPayloadSize = %d, want 0", cfg.MinPayloadSize)
	}
}

func TestNormalizeClampsMinPayload(t *testing.T) {
	cfg := &config.Config{MaxRecordSize: 10, MinPayloadSize: 64, PreallocateSize: -5}
	cfg.Normalize()

	if cfg.MinPayloadSize != 10 {
		t.Errorf("MinPayloadSize should be clamped to 10, got %d", cfg.MinPayloadSize)
	}
	if cfg.PreallocateSize != 0 {
		t.Errorf("PreallocateSize should be reset to 0, got %d", cfg.PreallocateSize)
	}
}

func TestLoadFileYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logseg.yaml")
	doc := "log_dir: /data/segments\nlog_level: warn\nmax_record_size: 4096\npreallocate_size: 65536\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LOGSEG_EXPORTER_PORT", "9200")
	defer util.SetLevel(util.LogLevelInfo)

	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.LogDir != "/data/segments" {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
	if cfg.LogLevel != util.LogLevelWarn || util.Level() != util.LogLevelWarn {
		t.Errorf("LogLevel = %v, global = %v", cfg.LogLevel, util.Level())
	}
	if cfg.MaxRecordSize != 4096 {
		t.Errorf("MaxRecordSize = %d", cfg.MaxRecordSize)
	}
	if cfg.ExporterPort != 9200 {
		t.Errorf("ExporterPort = %d", cfg.ExporterPort)
	}

	opts := cfg.SegmentOptions(true)
	if !opts.Writable || opts.PreallocateSize != 65536 || opts.MinPayloadSize != types.MessageHeaderSize {
		t.Errorf("unexpected writable options %+v", opts)
	}
	if ro := cfg.SegmentOptions(false); ro.Writable || ro.PreallocateSize != 0 {
		t.Errorf("unexpected read-only options %+v", ro)
	}
}

func TestLoadFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logseg.json")
	doc := `{"log.dir": "json-logs", "log_level": "debug", "min.payload.size": 4}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	defer util.SetLevel(util.LogLevelInfo)

	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.LogDir != "json-logs" || cfg.LogLevel != util.LogLevelDebug || cfg.MinPayloadSize != 4 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := config.LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestSegmentPath(t *testing.T) {
	cfg := &config.Config{LogDir: "/var/segments"}
	if got := cfg.SegmentPath("00000000000000000000.log"); got != "/var/segments/00000000000000000000.log" {
		t.Errorf("SegmentPath relative = %q", got)
	}
	if got := cfg.SegmentPath("/tmp/a.log"); got != "/tmp/a.log" {
		t.Errorf("SegmentPath absolute = %q", got)
	}
}
