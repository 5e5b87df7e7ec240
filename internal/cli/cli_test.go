package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/truthledger/internal/model"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetEnvPrefix("TRUTHLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := registerDefaults(v, model.DefaultConfig()); err != nil {
		t.Fatalf("registerDefaults failed: %v", err)
	}
	return v
}

func TestDecodeConfig_Defaults(t *testing.T) {
	cfg, err := decodeConfig(newTestViper(t))
	if err != nil {
		t.Fatalf("decodeConfig failed: %v", err)
	}

	def := model.DefaultConfig()
	if cfg.HTTP.Timeout != def.HTTP.Timeout {
		t.Errorf("expected timeout %v, got %v", def.HTTP.Timeout, cfg.HTTP.Timeout)
	}
	if cfg.Server.Addr != def.Server.Addr {
		t.Errorf("expected addr %s, got %s", def.Server.Addr, cfg.Server.Addr)
	}
	if len(cfg.Extract.Keywords) != 5 {
		t.Errorf("expected 5 keywords, got %v", cfg.Extract.Keywords)
	}
	if cfg.Scoring.SimilarityThreshold != 0.6 {
		t.Errorf("expected threshold 0.6, got %v", cfg.Scoring.SimilarityThreshold)
	}
}

func TestDecodeConfig_Environment(t *testing.T) {
	t.Setenv("TRUTHLEDGER_SERVER_ADDR", ":9000")
	t.Setenv("TRUTHLEDGER_HTTP_TIMEOUT", "7s")
	t.Setenv("TRUTHLEDGER_CONCURRENCY_WORKERS", "4")

	cfg, err := decodeConfig(newTestViper(t))
	if err != nil {
		t.Fatalf("decodeConfig failed: %v", err)
	}

	if cfg.Server.Addr != ":9000" {
		t.Errorf("expected addr from env, got %s", cfg.Server.Addr)
	}
	if cfg.HTTP.Timeout != 7*time.Second {
		t.Errorf("expected 7s timeout from env, got %v", cfg.HTTP.Timeout)
	}
	if cfg.Concurrency.Workers != 4 {
		t.Errorf("expected 4 workers from env, got %d", cfg.Concurrency.Workers)
	}
}

func TestDecodeConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "scoring:\n  strategy: keyword\nstore:\n  ids: content\nserver:\n  refresh_interval: 30s\n" +
		"rate_limiting:\n  hosts:\n    - host: www.bbc.com\n      requests_per_second: 0.5\n      burst_size: 1\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	v := newTestViper(t)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig failed: %v", err)
	}

	cfg, err := decodeConfig(v)
	if err != nil {
		t.Fatalf("decodeConfig failed: %v", err)
	}
	if cfg.Scoring.Strategy != "keyword" || cfg.Store.IDs != "content" {
		t.Errorf("file values not applied: %+v %+v", cfg.Scoring, cfg.Store)
	}
	if cfg.Server.RefreshInterval != 30*time.Second {
		t.Errorf("expected 30s refresh, got %v", cfg.Server.RefreshInterval)
	}
	if len(cfg.RateLimiting.Hosts) != 1 || cfg.RateLimiting.Hosts[0].Host != "www.bbc.com" ||
		cfg.RateLimiting.Hosts[0].RequestsPerSecond != 0.5 {
		t.Errorf("host override not decoded: %+v", cfg.RateLimiting.Hosts)
	}
	// Untouched keys keep defaults
	if cfg.Scoring.TrueAgreement != 0.8 {
		t.Errorf("expected default true agreement, got %v", cfg.Scoring.TrueAgreement)
	}
}

func TestFlattenKeys(t *testing.T) {
	got := flattenKeys("", map[string]any{
		"http": map[string]any{"timeout": "5s"},
		"top":  1,
	})
	if got["http.timeout"] != "5s" || got["top"] != 1 || len(got) != 2 {
		t.Errorf("unexpected flattened keys: %v", got)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# TruthLedger Configuration File") {
		t.Errorf("missing header: %q", string(data[:40]))
	}

	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config is not valid YAML: %v", err)
	}
	if cfg.HTTP.Timeout != 5*time.Second || cfg.Store.Path != "claims.db" {
		t.Errorf("unexpected written config: %+v", cfg)
	}

	if err := writeDefaultConfig(path); err == nil {
		t.Error("expected error when config already exists")
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)

	if !strings.Contains(buf.String(), "truthledger v"+version) {
		t.Errorf("unexpected version output %q", buf.String())
	}
}
