package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata" // timezone names resolve without system zoneinfo

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Data     DataConfig     `yaml:"data"`
	Storage  StorageConfig  `yaml:"storage"`
	Timezone string         `yaml:"timezone"`
	Matching MatchingConfig `yaml:"matching"`

	Location *time.Location `yaml:"-"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// LoggingConfig selects the zap preset and minimum level.
type LoggingConfig struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

// DataConfig points at the CSV files holding reference data and bookings.
type DataConfig struct {
	Dir           string `yaml:"dir"`
	DoctorsFile   string `yaml:"doctors_file"`
	SpacesFile    string `yaml:"spaces_file"`
	CalendarsFile string `yaml:"calendars_file"`
	BookingsFile  string `yaml:"bookings_file"`
}

// StorageConfig selects where bookings are persisted. The "csv" driver
// rewrites BookingsFile; "sqlite" and "postgres" keep a database ledger.
type StorageConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// MatchingConfig holds the ordered classification tables. Empty lists fall
// back to the built-in defaults.
type MatchingConfig struct {
	ActivityRules  []ActivityRule  `yaml:"activity_rules"`
	SpecialtyRules []SpecialtyRule `yaml:"specialty_rules"`
}

// ActivityRule maps activity keywords to the spaces considered suitable.
type ActivityRule struct {
	ActivityKeywords []string `yaml:"activity_keywords"`
	UsesKeywords     []string `yaml:"uses_keywords"`
	CategoryKeywords []string `yaml:"category_keywords"`
	Specialty        string   `yaml:"specialty"`
}

// SpecialtyRule restricts a specialty to spaces of the listed categories.
type SpecialtyRule struct {
	SpecialtyKeywords []string `yaml:"specialty_keywords"`
	CategoryKeywords  []string `yaml:"category_keywords"`
}

// Load reads the configuration from the given path. A .env file in the
// working directory is applied to the environment first, if present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded environment overrides from .env")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default filled in.
func Default() *Config {
	cfg := &Config{}
	if err := cfg.applyDefaults(); err != nil {
		panic(err)
	}
	return cfg
}

func (cfg *Config) applyDefaults() error {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	// Negative disables the response cache.
	if cfg.Server.CacheTTLSeconds == 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.Logging.Env == "" {
		cfg.Logging.Env = os.Getenv("ENV")
	}
	if cfg.Logging.Env == "" {
		cfg.Logging.Env = "development"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Data.Dir == "" {
		cfg.Data.Dir = "./data"
	}
	if cfg.Data.DoctorsFile == "" {
		cfg.Data.DoctorsFile = "Doctors.csv"
	}
	if cfg.Data.SpacesFile == "" {
		cfg.Data.SpacesFile = "Spaces.csv"
	}
	if cfg.Data.CalendarsFile == "" {
		cfg.Data.CalendarsFile = "DoctorCalendars.csv"
	}
	if cfg.Data.BookingsFile == "" {
		cfg.Data.BookingsFile = "SpaceBookings.csv"
	}

	switch cfg.Storage.Driver {
	case "":
		cfg.Storage.Driver = "csv"
	case "csv", "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported storage.driver %q", cfg.Storage.Driver)
	}
	if cfg.Storage.Driver != "csv" && cfg.Storage.DSN == "" {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			cfg.Storage.DSN = dsn
		} else {
			return fmt.Errorf("storage.dsn is required for driver %q", cfg.Storage.Driver)
		}
	}

	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if len(cfg.Matching.ActivityRules) == 0 {
		cfg.Matching.ActivityRules = DefaultActivityRules()
	}
	if len(cfg.Matching.SpecialtyRules) == 0 {
		cfg.Matching.SpecialtyRules = DefaultSpecialtyRules()
	}
	return nil
}

// DefaultActivityRules is the activity table used when none is configured.
// Order matters: the first rule whose activity keyword matches wins.
func DefaultActivityRules() []ActivityRule {
	return []ActivityRule{
		{
			ActivityKeywords: []string{"labwork", "lab work"},
			UsesKeywords:     []string{"lab work", "research"},
			CategoryKeywords: []string{"research", "lab"},
			Specialty:        "pathology",
		},
		{
			ActivityKeywords: []string{"consultation"},
			UsesKeywords:     []string{"patient consultation", "consultation"},
			CategoryKeywords: []string{"clinical", "education"},
			Specialty:        "general practice",
		},
		{
			ActivityKeywords: []string{"research"},
			UsesKeywords:     []string{"research"},
			CategoryKeywords: []string{"research"},
			Specialty:        "research",
		},
		{
			ActivityKeywords: []string{"teaching", "education"},
			UsesKeywords:     []string{"teaching", "education"},
			CategoryKeywords: []string{"education"},
			Specialty:        "education",
		},
		{
			ActivityKeywords: []string{"administration", "admin"},
			UsesKeywords:     []string{"administration", "admin"},
			CategoryKeywords: []string{"admin"},
			Specialty:        "administration",
		},
		{
			ActivityKeywords: []string{"private"},
			UsesKeywords:     []string{"private"},
			CategoryKeywords: []string{"admin"},
		},
	}
}

// DefaultSpecialtyRules is the specialty/category table used when none is
// configured. Specialties matching no rule are compatible with every space.
func DefaultSpecialtyRules() []SpecialtyRule {
	return []SpecialtyRule{
		{SpecialtyKeywords: []string{"surgery", "anesthesiology"}, CategoryKeywords: []string{"operating", "clinical"}},
		{SpecialtyKeywords: []string{"cardiology"}, CategoryKeywords: []string{"clinical", "diagnostic"}},
		{SpecialtyKeywords: []string{"pediatric"}, CategoryKeywords: []string{"clinical", "education"}},
	}
}

// DataPath joins a data file name onto the configured data directory.
func (d DataConfig) DataPath(name string) string {
	return filepath.Join(d.Dir, name)
}
