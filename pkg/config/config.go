package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/unklstewy/shipnav/pkg/navigation"
)

// EnvPrefix is the prefix for environment overrides, e.g. SHIPNAV_DATABASE_PASSWORD.
const EnvPrefix = "SHIPNAV"

// Config represents the complete application configuration.
// Configuration is loaded from a JSON file and environment variables.
type Config struct {
	Logger   LoggerConfig   `json:"logger" mapstructure:"logger"`
	Database DatabaseConfig `json:"database" mapstructure:"database"`
	Run      RunConfig      `json:"run" mapstructure:"run"`
	Sweep    SweepConfig    `json:"sweep" mapstructure:"sweep"`
	Output   OutputConfig   `json:"output" mapstructure:"output"`
}

// LoggerConfig contains structured logging settings.
type LoggerConfig struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string `json:"level" mapstructure:"level"`

	// Format is "console" for colored terminal output or "json"
	Format string `json:"format" mapstructure:"format"`

	// AddSource adds the caller file and line to each entry
	AddSource bool `json:"add_source" mapstructure:"add_source"`

	// ServiceName names the root logger
	ServiceName string `json:"service_name" mapstructure:"service_name"`

	// LogFile enables a rotating JSON log file when set
	LogFile string `json:"log_file" mapstructure:"log_file"`

	// MaxSize is the log file size in megabytes before rotation
	MaxSize int `json:"max_size" mapstructure:"max_size"`

	// MaxBackups is the number of rotated files to keep
	MaxBackups int `json:"max_backups" mapstructure:"max_backups"`

	// MaxAge is the number of days to keep rotated files
	MaxAge int `json:"max_age" mapstructure:"max_age"`

	// Compress gzips rotated files
	Compress bool `json:"compress" mapstructure:"compress"`

	// Colors maps levels to color names for console output
	Colors ColorConfig `json:"colors" mapstructure:"colors"`
}

// ColorConfig names the console color per log level.
type ColorConfig struct {
	Debug  string `json:"debug" mapstructure:"debug"`
	Info   string `json:"info" mapstructure:"info"`
	Warn   string `json:"warn" mapstructure:"warn"`
	Error  string `json:"error" mapstructure:"error"`
	DPanic string `json:"dpanic" mapstructure:"dpanic"`
	Panic  string `json:"panic" mapstructure:"panic"`
	Fatal  string `json:"fatal" mapstructure:"fatal"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	// Enabled turns on run persistence
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// Driver is the database driver (postgres)
	Driver string `json:"driver" mapstructure:"driver"`

	// Host is the database server hostname
	Host string `json:"host" mapstructure:"host"`

	// Port is the database server port
	Port int `json:"port" mapstructure:"port"`

	// Database is the database name
	Database string `json:"database" mapstructure:"database"`

	// Username for database authentication
	Username string `json:"username" mapstructure:"username"`

	// Password for database authentication (should be loaded from environment)
	Password string `json:"password" mapstructure:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode" mapstructure:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `json:"max_open_conns" mapstructure:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns" mapstructure:"max_idle_conns"`
}

// RunConfig holds the default parameters of a single trajectory run.
// Angles are in radians.
type RunConfig struct {
	// Drift is the stream profile: a preset ("constant:1", "linear:a,b",
	// "parabolic:center,halfWidth") or an expression in x
	Drift string `json:"drift" mapstructure:"drift"`

	// S0 is the stream speed scale
	S0 float64 `json:"s0" mapstructure:"s0"`

	// V is the ship speed
	V float64 `json:"v" mapstructure:"v"`

	// L is the initial distance to the destination
	L float64 `json:"l" mapstructure:"l"`

	// Fi is the initial bearing of the destination
	Fi float64 `json:"fi" mapstructure:"fi"`

	// N is the nominal step count
	N int `json:"n" mapstructure:"n"`

	// K is the number of extra steps allowed beyond N
	K int `json:"k" mapstructure:"k"`

	// Epsilon is the arrival radius
	Epsilon float64 `json:"epsilon" mapstructure:"epsilon"`

	// VDestination is the moving destination's own speed
	VDestination float64 `json:"v_destination" mapstructure:"v_destination"`

	// AMin is the lower bound of the destination heading
	AMin float64 `json:"a_min" mapstructure:"a_min"`

	// AMax is the upper bound of the destination heading
	AMax float64 `json:"a_max" mapstructure:"a_max"`

	// Seed seeds the destination heading source
	Seed uint64 `json:"seed" mapstructure:"seed"`
}

// SweepConfig controls batch runs over a grid of bearings and seeds.
type SweepConfig struct {
	// Workers is the number of runs computed in parallel
	Workers int `json:"workers" mapstructure:"workers"`

	// BearingFrom is the first destination bearing in radians
	BearingFrom float64 `json:"bearing_from" mapstructure:"bearing_from"`

	// BearingTo is the last destination bearing in radians
	BearingTo float64 `json:"bearing_to" mapstructure:"bearing_to"`

	// BearingSteps is how many bearings span [BearingFrom, BearingTo]
	BearingSteps int `json:"bearing_steps" mapstructure:"bearing_steps"`

	// Seeds is how many seeds to run per bearing (moving destination only)
	// 0 shares one heading source across all runs
	Seeds int `json:"seeds" mapstructure:"seeds"`

	// SeedBase is the first seed; seeds are SeedBase, SeedBase+1, ...
	SeedBase uint64 `json:"seed_base" mapstructure:"seed_base"`

	// PersistPerSecond caps how many results per second are written to the database
	PersistPerSecond float64 `json:"persist_per_second" mapstructure:"persist_per_second"`

	// RetryAttempts is how many times a failed write is retried on connection errors
	RetryAttempts int `json:"retry_attempts" mapstructure:"retry_attempts"`
}

// OutputConfig controls how runs are printed.
type OutputConfig struct {
	// Format is "text", "json" or "csv"
	Format string `json:"format" mapstructure:"format"`

	// ShowSamples prints every ship position after the text report
	ShowSamples bool `json:"show_samples" mapstructure:"show_samples"`
}

// Load reads configuration from a JSON file and the environment.
// If the file doesn't exist, defaults are used. Environment variables
// override both, with the SHIPNAV_ prefix and "_" in place of ".":
// SHIPNAV_RUN_DRIFT, SHIPNAV_DATABASE_PASSWORD, SHIPNAV_SWEEP_WORKERS.
func Load(path string) (*Config, error) {
	return LoadWith(path, nil)
}

// LoadWith is Load with an extra binding step, typically command-line
// flags bound with v.BindPFlag. Bound values override every other source
// once they are set.
func LoadWith(path string, bind func(v *viper.Viper) error) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if bind != nil {
		if err := bind(v); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("json")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return NewConfigFromViper(v)
}

// NewConfigFromViper decodes a populated viper instance.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
// The run defaults reproduce the reference scenario: a uniform stream,
// ship speed 2, destination 10 away at 60 degrees.
func DefaultConfig() *Config {
	return &Config{
		Logger: LoggerConfig{
			Level:       "info",
			Format:      "console",
			ServiceName: "shipnav",
			MaxSize:     10,
			MaxBackups:  3,
			MaxAge:      28,
			Colors: ColorConfig{
				Debug:  "cyan",
				Info:   "green",
				Warn:   "yellow",
				Error:  "red",
				DPanic: "magenta",
				Panic:  "magenta",
				Fatal:  "magenta",
			},
		},
		Database: DatabaseConfig{
			Enabled:      false,
			Driver:       "postgres",
			Host:         "localhost",
			Port:         5432,
			Database:     "shipnav",
			Username:     "shipnav",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Run: RunConfig{
			Drift:        "constant:1",
			S0:           1.0,
			V:            2.0,
			L:            10.0,
			Fi:           1.0471975511965976, // π/3
			N:            1000,
			K:            1,
			Epsilon:      0.01,
			VDestination: 0.5,
			AMin:         0.0,
			AMax:         6.283185307179586, // 2π
			Seed:         1,
		},
		Sweep: SweepConfig{
			Workers:          4,
			BearingFrom:      0.0,
			BearingTo:        1.5707963267948966, // π/2
			BearingSteps:     7,
			Seeds:            0,
			SeedBase:         1,
			PersistPerSecond: 20,
			RetryAttempts:    3,
		},
		Output: OutputConfig{
			Format:      "text",
			ShowSamples: false,
		},
	}
}

// SetDefaults registers every key of DefaultConfig with viper.
// Registration is what lets AutomaticEnv resolve nested keys on Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("logger.level", d.Logger.Level)
	v.SetDefault("logger.format", d.Logger.Format)
	v.SetDefault("logger.add_source", d.Logger.AddSource)
	v.SetDefault("logger.service_name", d.Logger.ServiceName)
	v.SetDefault("logger.log_file", d.Logger.LogFile)
	v.SetDefault("logger.max_size", d.Logger.MaxSize)
	v.SetDefault("logger.max_backups", d.Logger.MaxBackups)
	v.SetDefault("logger.max_age", d.Logger.MaxAge)
	v.SetDefault("logger.compress", d.Logger.Compress)
	v.SetDefault("logger.colors.debug", d.Logger.Colors.Debug)
	v.SetDefault("logger.colors.info", d.Logger.Colors.Info)
	v.SetDefault("logger.colors.warn", d.Logger.Colors.Warn)
	v.SetDefault("logger.colors.error", d.Logger.Colors.Error)
	v.SetDefault("logger.colors.dpanic", d.Logger.Colors.DPanic)
	v.SetDefault("logger.colors.panic", d.Logger.Colors.Panic)
	v.SetDefault("logger.colors.fatal", d.Logger.Colors.Fatal)

	v.SetDefault("database.enabled", d.Database.Enabled)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.database", d.Database.Database)
	v.SetDefault("database.username", d.Database.Username)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.ssl_mode", d.Database.SSLMode)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)

	v.SetDefault("run.drift", d.Run.Drift)
	v.SetDefault("run.s0", d.Run.S0)
	v.SetDefault("run.v", d.Run.V)
	v.SetDefault("run.l", d.Run.L)
	v.SetDefault("run.fi", d.Run.Fi)
	v.SetDefault("run.n", d.Run.N)
	v.SetDefault("run.k", d.Run.K)
	v.SetDefault("run.epsilon", d.Run.Epsilon)
	v.SetDefault("run.v_destination", d.Run.VDestination)
	v.SetDefault("run.a_min", d.Run.AMin)
	v.SetDefault("run.a_max", d.Run.AMax)
	v.SetDefault("run.seed", d.Run.Seed)

	v.SetDefault("sweep.workers", d.Sweep.Workers)
	v.SetDefault("sweep.bearing_from", d.Sweep.BearingFrom)
	v.SetDefault("sweep.bearing_to", d.Sweep.BearingTo)
	v.SetDefault("sweep.bearing_steps", d.Sweep.BearingSteps)
	v.SetDefault("sweep.seeds", d.Sweep.Seeds)
	v.SetDefault("sweep.seed_base", d.Sweep.SeedBase)
	v.SetDefault("sweep.persist_per_second", d.Sweep.PersistPerSecond)
	v.SetDefault("sweep.retry_attempts", d.Sweep.RetryAttempts)

	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.show_samples", d.Output.ShowSamples)
}

// Params converts the run section to fixed-destination engine parameters.
func (r RunConfig) Params() navigation.Params {
	return navigation.Params{
		S0:      r.S0,
		V:       r.V,
		L:       r.L,
		Fi:      r.Fi,
		N:       r.N,
		K:       r.K,
		Epsilon: r.Epsilon,
	}
}

// PursuitParams converts the run section to moving-destination engine parameters.
func (r RunConfig) PursuitParams() navigation.PursuitParams {
	return navigation.PursuitParams{
		Params:       r.Params(),
		VDestination: r.VDestination,
		AMin:         r.AMin,
		AMax:         r.AMax,
	}
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := c.Run.PursuitParams().Validate(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if strings.TrimSpace(c.Run.Drift) == "" {
		return fmt.Errorf("run: drift profile is empty")
	}
	if err := c.Sweep.Validate(); err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	switch c.Output.Format {
	case "text", "json", "csv":
	default:
		return fmt.Errorf("output: unknown format %q", c.Output.Format)
	}
	return nil
}

// Validate checks the sweep section.
func (s SweepConfig) Validate() error {
	if s.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", s.Workers)
	}
	if s.BearingSteps <= 0 {
		return fmt.Errorf("bearing_steps must be positive, got %d", s.BearingSteps)
	}
	if s.Seeds < 0 {
		return fmt.Errorf("seeds must not be negative, got %d", s.Seeds)
	}
	if s.PersistPerSecond <= 0 {
		return fmt.Errorf("persist_per_second must be positive, got %g", s.PersistPerSecond)
	}
	if s.RetryAttempts < 0 {
		return fmt.Errorf("retry_attempts must not be negative, got %d", s.RetryAttempts)
	}
	return nil
}

// Bearings expands the sweep's bearing range into evenly spaced values.
// A single step yields BearingFrom.
func (s SweepConfig) Bearings() []float64 {
	if s.BearingSteps <= 1 {
		return []float64{s.BearingFrom}
	}

	out := make([]float64, s.BearingSteps)
	step := (s.BearingTo - s.BearingFrom) / float64(s.BearingSteps-1)
	for i := range out {
		out[i] = s.BearingFrom + float64(i)*step
	}
	return out
}

// SeedList returns the per-run seeds, or nil when runs share one source.
func (s SweepConfig) SeedList() []uint64 {
	if s.Seeds <= 0 {
		return nil
	}

	out := make([]uint64, s.Seeds)
	for i := range out {
		out[i] = s.SeedBase + uint64(i)
	}
	return out
}
