package config

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func parseConfig(t *testing.T, raw string) Config {
	t.Helper()
	var cfg Config
	if err := yaml.Unmarshal(expandEnvVars([]byte(raw)), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := parseConfig(t, "http:\n  port: 8080\n")

	if cfg.HTTP.ReadTimeoutSec != 10 || cfg.HTTP.WriteTimeoutSec != 30 || cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("http timeouts = %+v", cfg.HTTP)
	}
	if cfg.Storage.DataDir != "data" {
		t.Errorf("DataDir = %q, want data", cfg.Storage.DataDir)
	}
	if cfg.Storage.ShardCapacity != 16384 {
		t.Errorf("ShardCapacity = %d, want 16384", cfg.Storage.ShardCapacity)
	}
	if cfg.Storage.DensityThreshold != 0.3 {
		t.Errorf("DensityThreshold = %g, want 0.3", cfg.Storage.DensityThreshold)
	}
	if cfg.Vectorizer.Topics != 200 {
		t.Errorf("Topics = %d, want 200", cfg.Vectorizer.Topics)
	}
	if cfg.Cache.TTLHours != 168 {
		t.Errorf("TTLHours = %d, want 168", cfg.Cache.TTLHours)
	}
}

func TestApplyDefaults_RemoteProviderName(t *testing.T) {
	cfg := parseConfig(t, `
http:
  port: 8080
vectorizer:
  remote:
    model: text-embedding-3-small
`)

	if cfg.Vectorizer.Remote == nil {
		t.Fatal("remote provider not parsed")
	}
	if cfg.Vectorizer.Remote.Name != "openai" {
		t.Errorf("remote name = %q, want openai", cfg.Vectorizer.Remote.Name)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(_ *Config) {}, ""},
		{
			"zero port",
			func(c *Config) { c.HTTP.Port = 0 },
			"http.port",
		},
		{
			"port too large",
			func(c *Config) { c.HTTP.Port = 70000 },
			"http.port",
		},
		{
			"density threshold above 1",
			func(c *Config) { c.Storage.DensityThreshold = 1.5 },
			"density_threshold",
		},
		{
			"remote shadows local provider",
			func(c *Config) {
				c.Vectorizer.Remote = &RemoteProviderConfig{Name: "local", Model: "m"}
			},
			"local",
		},
		{
			"remote without model",
			func(c *Config) {
				c.Vectorizer.Remote = &RemoteProviderConfig{Name: "openai"}
			},
			"model",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := parseConfig(t, "http:\n  port: 8080\n")
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SIMDEX_TEST_PORT", "9191")
	t.Setenv("SIMDEX_TEST_EMPTY", "")

	cfg := parseConfig(t, `
http:
  port: ${SIMDEX_TEST_PORT}
storage:
  data_dir: ${SIMDEX_TEST_EMPTY:-/var/lib/simdex}
`)

	if cfg.HTTP.Port != 9191 {
		t.Errorf("Port = %d, want 9191 from env", cfg.HTTP.Port)
	}
	if cfg.Storage.DataDir != "/var/lib/simdex" {
		t.Errorf("DataDir = %q, want the default fallback", cfg.Storage.DataDir)
	}
}

func TestExpandEnvVars_UnsetWithoutDefault(t *testing.T) {
	got := string(expandEnvVars([]byte("key: ${SIMDEX_TEST_SURELY_UNSET}")))
	if got != "key: " {
		t.Errorf("expanded = %q, want empty substitution", got)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if env := GetEnv(); env != "local" {
		t.Errorf("GetEnv = %q, want local", env)
	}

	t.Setenv("ENV", "prod")
	if env := GetEnv(); env != "prod" {
		t.Errorf("GetEnv = %q, want prod", env)
	}
}

func TestLoadBundledConfigs(t *testing.T) {
	for _, env := range []string{"local", "prod"} {
		t.Run(env, func(t *testing.T) {
			cfg, err := Load(env)
			if err != nil {
				t.Fatalf("Load(%q): %v", env, err)
			}
			if cfg.HTTP.Port <= 0 {
				t.Errorf("port = %d", cfg.HTTP.Port)
			}
		})
	}
}
