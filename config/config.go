package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// MaxInterval is the largest interval, in milliseconds, that timers accept
const MaxInterval = 2147483647

// Discord's ADMINISTRATOR permission bit
const permissionAdministrator = 0x8

// Storage backends
const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken string `env:"DISCORD_TOKEN" json:"-"`

	// Bot configuration
	BotName                  string   `env:"BOT_NAME" envDefault:"engage-bot"`
	CommandPrefix            string   `env:"COMMAND_PREFIX" envDefault:"--"`
	DisplayChatErrors        bool     `env:"DISPLAY_CHAT_ERRORS" envDefault:"false"`
	LogAllMessages           bool     `env:"LOG_ALL_MESSAGES" envDefault:"false"`
	InvalidCommandMessage    string   `env:"INVALID_COMMAND_MESSAGE" envDefault:"Invalid Command!"`
	InvalidPermissionMessage string   `env:"INVALID_PERMISSION_MESSAGE" envDefault:"Invalid Permission!"`
	DefaultMessage           string   `env:"DEFAULT_MESSAGE"`
	AboutMessage             string   `env:"ABOUT_MESSAGE"`
	ConsoleEnabled           bool     `env:"CONSOLE_ENABLED" envDefault:"true"`
	Blacklist                []string `env:"BLACKLIST" envSeparator:","`

	// Admin policy
	AdminRoles       []string `env:"ADMIN_ROLES" envSeparator:","`
	AdminUsers       []string `env:"ADMIN_USERS" envSeparator:","`
	AdminPermissions int64    `env:"ADMIN_PERMISSIONS" envDefault:"8"`

	// Scoring configuration
	Unit    string  `env:"SCORE_UNIT" envDefault:"points"`
	Scoring Scoring `envPrefix:"SCORE_"`

	// Timer intervals
	Intervals Intervals `envPrefix:"INTERVAL_"`

	// Slots game
	Slots Slots `envPrefix:"SLOTS_"`

	// Storage configuration
	DataPath       string `env:"DATA_PATH" envDefault:"./cache"`
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"file"`
	DatabaseURL    string `env:"DATABASE_URL" json:"-"`
	DatabaseName   string `env:"DATABASE_NAME" envDefault:"engagebot"`

	// Transport
	SendRatePerSecond float64 `env:"SEND_RATE_PER_SECOND" envDefault:"1"`
	SendBurst         int     `env:"SEND_BURST" envDefault:"5"`

	// Observability
	MetricsAddr string `env:"METRICS_ADDR"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text"`

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

// Scoring holds the points granted for each kind of activity
type Scoring struct {
	Message  int64 `env:"MESSAGE" envDefault:"10"`
	Typing   int64 `env:"TYPING" envDefault:"1"`
	Speaking int64 `env:"SPEAKING" envDefault:"20"`
	Bonus    int64 `env:"BONUS" envDefault:"100"`
}

// Intervals holds timer periods. Invalid intervals disable the timer.
type Intervals struct {
	Bonus    time.Duration `env:"BONUS" envDefault:"24h"`
	Speaking time.Duration `env:"SPEAKING" envDefault:"10s"`
	Save     time.Duration `env:"SAVE" envDefault:"1m"`
	Prune    time.Duration `env:"PRUNE" envDefault:"336h"`
}

// Slots configures the slot machine game
type Slots struct {
	Wheel       []string `env:"WHEEL" envSeparator:"," envDefault:"💖,🍌,🍒,🍆,💯,🔞,⚜,🤑,☄,👌,🗽,🍭,🎱,🍄,🌚"`
	ScoreFactor float64  `env:"SCORE_FACTOR" envDefault:"0.25"`
	WheelCount  int      `env:"WHEEL_COUNT" envDefault:"4"`
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from an optional .env file and the environment
func load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using process environment")
	}

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}

	if cfg.Environment != "test" && cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}
	return cfg, nil
}

// Parse reads configuration from the process environment without validation
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{}}); err != nil {
		panic(fmt.Sprintf("invalid config defaults: %v", err))
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.DefaultMessage == "" {
		c.DefaultMessage = c.BotName + " was here!"
	}
	if c.AdminPermissions == 0 {
		c.AdminPermissions = permissionAdministrator
	}
}

// Validate checks values that would otherwise fail later at runtime
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageFile:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres storage backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.Slots.WheelCount < 1 || len(c.Slots.Wheel) == 0 {
		return fmt.Errorf("slots need at least one wheel and one symbol")
	}
	return nil
}

// IsValidInterval reports whether d can drive a timer.
// Zero and negative intervals disable the feature they control.
func IsValidInterval(d time.Duration) bool {
	return d > 0 && d.Milliseconds() <= MaxInterval
}

// IsValidInterval reports whether d can drive a timer
func (c *Config) IsValidInterval(d time.Duration) bool {
	return IsValidInterval(d)
}

// ScoringTable returns the activity point values in display order
func (c *Config) ScoringTable() []ScoringRow {
	return []ScoringRow{
		{Name: "message", Points: c.Scoring.Message},
		{Name: "typing", Points: c.Scoring.Typing},
		{Name: "speaking", Points: c.Scoring.Speaking, Interval: c.Intervals.Speaking, HasInterval: true},
		{Name: "bonus", Points: c.Scoring.Bonus, Interval: c.Intervals.Bonus, HasInterval: true},
	}
}

// ScoringRow is one line of the scoring table
type ScoringRow struct {
	Name        string
	Points      int64
	Interval    time.Duration
	HasInterval bool
}

// IsTest reports whether the bot runs under the test environment
func (c *Config) IsTest() bool {
	return c.Environment == "test"
}
