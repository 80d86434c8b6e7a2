package config

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// TestDefaultConfig verifies that DefaultConfig returns valid defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Run defaults
	if cfg.Run.V != 2.0 {
		t.Errorf("Expected default ship speed 2.0, got %f", cfg.Run.V)
	}
	if cfg.Run.L != 10.0 {
		t.Errorf("Expected default distance 10.0, got %f", cfg.Run.L)
	}
	if math.Abs(cfg.Run.Fi-math.Pi/3) > 1e-15 {
		t.Errorf("Expected default bearing π/3, got %f", cfg.Run.Fi)
	}
	if cfg.Run.N != 1000 || cfg.Run.K != 1 {
		t.Errorf("Expected N=1000 K=1, got N=%d K=%d", cfg.Run.N, cfg.Run.K)
	}
	if cfg.Run.Drift != "constant:1" {
		t.Errorf("Expected constant:1 drift, got %s", cfg.Run.Drift)
	}

	// Database defaults
	if cfg.Database.Enabled {
		t.Error("Expected persistence disabled by default")
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Expected postgres driver, got %s", cfg.Database.Driver)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Expected default postgres port 5432, got %d", cfg.Database.Port)
	}

	// Logger defaults
	if cfg.Logger.Format != "console" {
		t.Errorf("Expected console log format, got %s", cfg.Logger.Format)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got: %v", err)
	}
}

// TestLoadNonExistentFile tests that a missing file yields defaults.
func TestLoadNonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.json")
	if err != nil {
		t.Fatalf("Expected no error for non-existent file, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected default config, got nil")
	}
	if cfg.Run.N != 1000 {
		t.Error("Did not get default config for non-existent file")
	}
}

// TestLoadValidConfig tests loading a valid configuration file.
func TestLoadValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.json")

	testConfig := DefaultConfig()
	testConfig.Run.V = 3.5
	testConfig.Run.Drift = "parabolic:0,5"
	testConfig.Run.Seed = 77
	testConfig.Database.Host = "db.example.com"
	testConfig.Sweep.Workers = 8

	data, err := json.MarshalIndent(testConfig, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal test config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Run.V != 3.5 {
		t.Errorf("Expected ship speed 3.5, got %f", cfg.Run.V)
	}
	if cfg.Run.Drift != "parabolic:0,5" {
		t.Errorf("Expected parabolic drift, got %s", cfg.Run.Drift)
	}
	if cfg.Run.Seed != 77 {
		t.Errorf("Expected seed 77, got %d", cfg.Run.Seed)
	}
	if cfg.Database.Host != "db.example.com" {
		t.Errorf("Expected db.example.com, got %s", cfg.Database.Host)
	}
	if cfg.Sweep.Workers != 8 {
		t.Errorf("Expected 8 workers, got %d", cfg.Sweep.Workers)
	}
}

// TestLoadPartialConfig tests that missing keys keep their defaults.
func TestLoadPartialConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "partial.json")

	if err := os.WriteFile(configPath, []byte(`{"run": {"epsilon": 0.5}}`), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Run.Epsilon != 0.5 {
		t.Errorf("Expected epsilon 0.5, got %f", cfg.Run.Epsilon)
	}
	if cfg.Run.V != 2.0 {
		t.Errorf("Expected default ship speed, got %f", cfg.Run.V)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Expected default port, got %d", cfg.Database.Port)
	}
}

// TestLoadInvalidJSON tests error handling for malformed JSON.
func TestLoadInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.json")

	if err := os.WriteFile(configPath, []byte("{ invalid json }"), 0644); err != nil {
		t.Fatalf("Failed to write invalid config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid JSON, got nil")
	}
	if !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("Expected parse error, got: %v", err)
	}
}

// TestSaveConfig tests saving configuration to file.
func TestSaveConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "dir", "saved-config.json")

	cfg := DefaultConfig()
	cfg.Run.K = 250
	cfg.Output.Format = "csv"

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	if loaded.Run.K != 250 {
		t.Errorf("Expected K 250, got %d", loaded.Run.K)
	}
	if loaded.Output.Format != "csv" {
		t.Errorf("Expected csv output, got %s", loaded.Output.Format)
	}
	if loaded.Run.AMax != cfg.Run.AMax {
		t.Errorf("Expected a_max %f, got %f", cfg.Run.AMax, loaded.Run.AMax)
	}
}

// TestEnvironmentOverrides tests environment variable overrides.
func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SHIPNAV_DATABASE_PASSWORD", "env-password")
	t.Setenv("SHIPNAV_DATABASE_HOST", "env-db-host")
	t.Setenv("SHIPNAV_RUN_DRIFT", "linear:0.1,1")
	t.Setenv("SHIPNAV_RUN_N", "400")
	t.Setenv("SHIPNAV_SWEEP_WORKERS", "2")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")
	testCfg := DefaultConfig()
	testCfg.Database.Password = "original-password"
	if err := testCfg.Save(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Database.Password != "env-password" {
		t.Errorf("Expected env-password from env, got %s", cfg.Database.Password)
	}
	if cfg.Database.Host != "env-db-host" {
		t.Errorf("Expected env-db-host from env, got %s", cfg.Database.Host)
	}
	if cfg.Run.Drift != "linear:0.1,1" {
		t.Errorf("Expected drift from env, got %s", cfg.Run.Drift)
	}
	if cfg.Run.N != 400 {
		t.Errorf("Expected N 400 from env, got %d", cfg.Run.N)
	}
	if cfg.Sweep.Workers != 2 {
		t.Errorf("Expected 2 workers from env, got %d", cfg.Sweep.Workers)
	}
}

// TestNewConfigFromViper tests decoding values set directly on viper.
func TestNewConfigFromViper(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("run.v_destination", 1.25)
	v.Set("output.show_samples", true)

	cfg, err := NewConfigFromViper(v)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if cfg.Run.VDestination != 1.25 {
		t.Errorf("Expected v_destination 1.25, got %f", cfg.Run.VDestination)
	}
	if !cfg.Output.ShowSamples {
		t.Error("Expected show_samples true")
	}
}

// TestValidate tests configuration validation.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"Defaults are valid", func(c *Config) {}, false},
		{"Zero ship speed", func(c *Config) { c.Run.V = 0 }, true},
		{"Inverted heading bounds", func(c *Config) { c.Run.AMin, c.Run.AMax = 1, 0 }, true},
		{"Empty drift", func(c *Config) { c.Run.Drift = " " }, true},
		{"Zero workers", func(c *Config) { c.Sweep.Workers = 0 }, true},
		{"Zero bearing steps", func(c *Config) { c.Sweep.BearingSteps = 0 }, true},
		{"Zero persist rate", func(c *Config) { c.Sweep.PersistPerSecond = 0 }, true},
		{"Unknown output format", func(c *Config) { c.Output.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

// TestSweepExpansion tests bearing and seed expansion.
func TestSweepExpansion(t *testing.T) {
	t.Run("Bearings span the range inclusively", func(t *testing.T) {
		s := SweepConfig{BearingFrom: 0, BearingTo: 1, BearingSteps: 5}
		got := s.Bearings()
		want := []float64{0, 0.25, 0.5, 0.75, 1}
		if len(got) != len(want) {
			t.Fatalf("Expected %d bearings, got %d", len(want), len(got))
		}
		for i := range want {
			if math.Abs(got[i]-want[i]) > 1e-12 {
				t.Errorf("Bearing %d: expected %f, got %f", i, want[i], got[i])
			}
		}
	})

	t.Run("Single step yields the start bearing", func(t *testing.T) {
		s := SweepConfig{BearingFrom: 0.3, BearingTo: 1, BearingSteps: 1}
		got := s.Bearings()
		if len(got) != 1 || got[0] != 0.3 {
			t.Errorf("Expected [0.3], got %v", got)
		}
	})

	t.Run("Seeds count up from the base", func(t *testing.T) {
		s := SweepConfig{Seeds: 3, SeedBase: 10}
		got := s.SeedList()
		if len(got) != 3 || got[0] != 10 || got[2] != 12 {
			t.Errorf("Expected [10 11 12], got %v", got)
		}
	})

	t.Run("No seeds shares one source", func(t *testing.T) {
		if got := (SweepConfig{}).SeedList(); got != nil {
			t.Errorf("Expected nil seeds, got %v", got)
		}
	})
}

// TestRunConfigParams tests conversion to engine parameters.
func TestRunConfigParams(t *testing.T) {
	r := DefaultConfig().Run
	p := r.PursuitParams()

	if p.V != r.V || p.N != r.N || p.Epsilon != r.Epsilon {
		t.Error("Base parameters not carried over")
	}
	if p.VDestination != r.VDestination || p.AMax != r.AMax {
		t.Error("Destination parameters not carried over")
	}
}

// TestLoadWithFlags verifies that only flags set on the command line override the file.
func TestLoadWithFlags(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.json")
	if err := os.WriteFile(path, []byte(`{"run": {"v": 3, "n": 50}}`), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Float64("v", 9, "ship speed")
	flags.Int("n", 9, "steps")
	if err := flags.Parse([]string{"--n", "75"}); err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}

	cfg, err := LoadWith(path, func(v *viper.Viper) error {
		if err := v.BindPFlag("run.v", flags.Lookup("v")); err != nil {
			return err
		}
		return v.BindPFlag("run.n", flags.Lookup("n"))
	})
	if err != nil {
		t.Fatalf("LoadWith failed: %v", err)
	}

	if cfg.Run.N != 75 {
		t.Errorf("Expected flag to set n=75, got %d", cfg.Run.N)
	}
	if cfg.Run.V != 3 {
		t.Errorf("Expected unset flag to leave v=3 from file, got %f", cfg.Run.V)
	}
}
