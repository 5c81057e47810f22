// Package daemon resolves the runtime configuration shared by the server
// and the CLI: where state lives, how to log, what to listen on, and the
// reward table itself.
package daemon

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/milestone"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/rewards"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/domain"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/logging"
)

// Environment overrides.
const (
	EnvHome     = "ECOREWARDS_HOME"
	EnvLogLevel = "ECOREWARDS_LOG_LEVEL"
	EnvAPIPort  = "ECOREWARDS_API_PORT"
	EnvUser     = "ECOREWARDS_USER"
)

// ConfigFile is the config file name inside the home directory.
const ConfigFile = "config.toml"

// Config is the full runtime configuration.
type Config struct {
	Home string `toml:"-"`
	User string `toml:"user"`

	API          APIConfig          `toml:"api"`
	Log          logging.Config     `toml:"log"`
	Metrics      MetricsConfig      `toml:"metrics"`
	Rewards      rewards.Config     `toml:"rewards"`
	Achievements AchievementsConfig `toml:"achievements"`
}

// APIConfig is the HTTP listener.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	// AllowedOrigins feeds the CORS header; empty means same-origin only.
	AllowedOrigins []string `toml:"allowed_origins"`
}

// MetricsConfig controls Prometheus exposition.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
	Runtime bool `toml:"runtime"` // include Go runtime and process collectors
}

// AchievementsConfig holds rules added on top of the built-in table. A rule
// whose key matches a built-in replaces it.
type AchievementsConfig struct {
	Rules []milestone.Rule `toml:"rules"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Home: DefaultHome(),
		User: "local",
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8787,
		},
		Log:     logging.DefaultConfig(),
		Metrics: MetricsConfig{Enabled: true},
		Rewards: rewards.DefaultConfig(),
	}
}

// DefaultHome is ~/.ecorewards, or ./.ecorewards when no home is known.
func DefaultHome() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".ecorewards")
	}
	return ".ecorewards"
}

// ResolveHome picks the data directory: home if set, then ECOREWARDS_HOME,
// then DefaultHome.
func ResolveHome(home string) string {
	switch {
	case home != "":
		return home
	case os.Getenv(EnvHome) != "":
		return os.Getenv(EnvHome)
	}
	return DefaultHome()
}

// Addr returns host:port for the API listener.
func (c Config) Addr() string {
	return net.JoinHostPort(c.API.Host, strconv.Itoa(c.API.Port))
}

// ConfigPath returns the config file path inside Home.
func (c Config) ConfigPath() string { return filepath.Join(c.Home, ConfigFile) }

// LoadDotEnv loads .env files into the environment without overriding
// variables already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadConfig resolves the configuration. home overrides ECOREWARDS_HOME;
// both empty means DefaultHome. A missing config file is not an error.
// Environment variables win over file values.
func LoadConfig(home string) (Config, error) {
	cfg := DefaultConfig()
	cfg.Home = ResolveHome(home)

	// The decoder writes into existing slice elements, so every list is
	// taken out of cfg before decoding and put back when the file omits it.
	builtin := cfg.Rewards
	cfg.Rewards.Catalog = nil
	cfg.Rewards.Rules = nil
	cfg.Rewards.StreakThresholds = nil
	cfg.Rewards.FeedbackCategories = nil
	cfg.Rewards.SellerSteps = nil

	md, err := toml.DecodeFile(cfg.ConfigPath(), &cfg)
	switch {
	case err == nil:
		if keys := md.Undecoded(); len(keys) > 0 {
			return cfg, fmt.Errorf("config %s: unknown keys %v", cfg.ConfigPath(), keys)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return cfg, fmt.Errorf("config %s: %w", cfg.ConfigPath(), err)
	}

	cfg.Rewards.Catalog = mergeCatalog(builtin.Catalog, cfg.Rewards.Catalog)
	cfg.Rewards.Rules = mergeRules(builtin.Rules, cfg.Rewards.Rules)
	if !md.IsDefined("rewards", "streak_thresholds") {
		cfg.Rewards.StreakThresholds = builtin.StreakThresholds
	}
	if !md.IsDefined("rewards", "feedback_categories") {
		cfg.Rewards.FeedbackCategories = builtin.FeedbackCategories
	}
	if !md.IsDefined("rewards", "seller_steps") {
		cfg.Rewards.SellerSteps = builtin.SellerSteps
	}
	cfg.Rewards.Rules = mergeRules(cfg.Rewards.Rules, cfg.Achievements.Rules)

	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvAPIPort); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = p
		}
	}
	if v := os.Getenv(EnvUser); v != "" {
		cfg.User = v
	}
}

// Validate checks values the engine cannot recover from.
func (c Config) Validate() error {
	var errs []error
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api.port %d out of range", c.API.Port))
	}
	if c.User == "" {
		errs = append(errs, errors.New("user must not be empty"))
	}
	r := c.Rewards
	if r.StartingBalance < 0 {
		errs = append(errs, errors.New("rewards.starting_balance must not be negative"))
	}
	if r.CoinsPerKgCO2 < 0 || r.MinCoinsPerAnalysis < 0 {
		errs = append(errs, errors.New("rewards analysis amounts must not be negative"))
	}
	ids := make(map[string]bool, len(r.Catalog))
	for _, item := range r.Catalog {
		if item.ID == "" || item.Cost <= 0 {
			errs = append(errs, fmt.Errorf("catalog item %q needs an id and a positive cost", item.ID))
		}
		if ids[item.ID] {
			errs = append(errs, fmt.Errorf("catalog item %q defined twice", item.ID))
		}
		ids[item.ID] = true
	}
	return errors.Join(errs...)
}

// Save writes c as TOML to path, creating parent directories.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}

// mergeCatalog overlays extra onto base by ID, keeping base order and
// appending new items.
func mergeCatalog(base, extra []domain.CoinReward) []domain.CoinReward {
	out := append([]domain.CoinReward(nil), base...)
	for _, item := range extra {
		replaced := false
		for i := range out {
			if out[i].ID == item.ID {
				out[i], replaced = item, true
				break
			}
		}
		if !replaced {
			out = append(out, item)
		}
	}
	return out
}

// mergeRules overlays extra onto base by key.
func mergeRules(base, extra []milestone.Rule) []milestone.Rule {
	out := append([]milestone.Rule(nil), base...)
	for _, r := range extra {
		replaced := false
		for i := range out {
			if out[i].Key == r.Key {
				out[i], replaced = r, true
				break
			}
		}
		if !replaced {
			out = append(out, r)
		}
	}
	return out
}
