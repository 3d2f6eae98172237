package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/pablo-flores/wa-3fecta/internal/logger"
	"github.com/pablo-flores/wa-3fecta/internal/masking"
)

// Config holds the settings shared by the masking binaries.
type Config struct {
	// Mongo describes where the alarm collection lives.
	Mongo MongoConfig `yaml:"mongo"`
	// Masking controls how the masking filter is executed.
	Masking MaskingConfig `yaml:"masking"`
	// Clearer configures the periodic clear notifier.
	Clearer ClearerConfig `yaml:"clearer"`
	// Server configures the gRPC server.
	Server ServerConfig `yaml:"server"`
	// Log configures logging output.
	Log LogConfig `yaml:"log"`
	// MetricsAddress enables a Prometheus /metrics endpoint when not empty.
	MetricsAddress string `yaml:"metrics_addr"`
	// Timeout bounds connection setup and remote calls.
	Timeout time.Duration `yaml:"timeout"`
}

// MongoConfig describes the alarm collection.
type MongoConfig struct {
	// URI is the connection string. ${MONGO_USER} and ${MONGO_PASS}
	// placeholders are replaced with User and Password.
	URI string `yaml:"uri"`
	// User replaces the ${MONGO_USER} placeholder.
	User string `yaml:"user"`
	// Password replaces the ${MONGO_PASS} placeholder.
	Password string `yaml:"password"`
	// Database is the database holding the alarm collection.
	Database string `yaml:"database"`
	// Collection is the alarm collection name.
	Collection string `yaml:"collection"`
	// BatchSize is the cursor batch size used while scanning.
	BatchSize int32 `yaml:"batch_size"`
}

// MaskingConfig controls how the masking filter runs.
type MaskingConfig struct {
	// Mode is ModeLocal (group in process) or ModePushdown (aggregate in MongoDB).
	Mode string `yaml:"mode"`
	// AllowDiskUse permits intermediate groups to be kept on disk.
	AllowDiskUse bool `yaml:"allow_disk_use"`
	// MaxMemoryRecords bounds how many selected records are grouped in memory.
	MaxMemoryRecords int `yaml:"max_memory_records"`
	// Workers is the number of grouping shards; zero means one per CPU.
	Workers int `yaml:"workers"`
	// SpillDir is where on-disk groups are written; empty means the system temp dir.
	SpillDir string `yaml:"spill_dir"`
	// SpillMemoryLimit caps the memory of the on-disk engine, e.g. "512MB".
	SpillMemoryLimit string `yaml:"spill_memory_limit"`
	// InputFile reads alarms from a mongoexport file instead of MongoDB.
	InputFile string `yaml:"input_file"`
}

// ClearerConfig configures the periodic clear notifier.
type ClearerConfig struct {
	// ClearURL is the endpoint prefix; the alarm identifier is appended to it.
	ClearURL string `yaml:"clear_url"`
	// Schedule is a cron expression or descriptor such as "@every 5m".
	Schedule string `yaml:"schedule"`
	// Pause is the minimum spacing between two clear requests; negative disables it.
	Pause time.Duration `yaml:"pause"`
	// Cooldown suppresses repeated clears of the same alarm; negative disables it.
	Cooldown time.Duration `yaml:"cooldown"`
	// JournalFile stores the alarms cleared recently.
	JournalFile string `yaml:"journal_file"`
	// RequestTimeout bounds a single clear request.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// ServerConfig configures the gRPC server.
type ServerConfig struct {
	// ListenAddress is the gRPC listen address.
	ListenAddress string `yaml:"listen_addr"`
	// MaxConcurrentRuns bounds how many masking runs execute at once.
	MaxConcurrentRuns int64 `yaml:"max_concurrent_runs"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is console or json.
	Format string `yaml:"format"`
}

const (
	// ModeLocal groups alarms inside the process.
	ModeLocal = "local"
	// ModePushdown runs the aggregation pipeline inside MongoDB.
	ModePushdown = "pushdown"
)

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "wa-3fecta.yaml"

	// DefaultJournalFilename is the default filename for the clear journal.
	DefaultJournalFilename = "masked-alarm-clearer-journal.json"

	// DefaultDatabase is the database the original tooling used.
	DefaultDatabase = "OutageManager"

	// DefaultCollection is the alarm collection name.
	DefaultCollection = "alarm"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 30 * time.Second

	// DefaultSchedule runs the clearer every five minutes.
	DefaultSchedule = "@every 5m"

	// DefaultPause spaces clear requests ten seconds apart.
	DefaultPause = 10 * time.Second

	// DefaultCooldown suppresses repeated clears for an hour.
	DefaultCooldown = time.Hour

	// DefaultListenAddress is the gRPC listen address.
	DefaultListenAddress = ":50061"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// mongoUserPlaceholder and mongoPasswordPlaceholder appear in MONGODB_URI.
	mongoUserPlaceholder     = "${MONGO_USER}"
	mongoPasswordPlaceholder = "${MONGO_PASS}"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errUnknownMode is returned for a masking mode other than local or pushdown.
	errUnknownMode = errors.New("masking mode must be local or pushdown")
	// errPushdownNeedsMongo is returned when pushdown is combined with a file input.
	errPushdownNeedsMongo = errors.New("pushdown mode cannot read from an input file")
	// errMongoURIRequired is returned when a Mongo connection is needed but not configured.
	errMongoURIRequired = errors.New("mongo uri must be provided")
	// errMongoCredentialsRequired is returned when placeholders have no values.
	errMongoCredentialsRequired = errors.New("mongo uri has credential placeholders but user or password is empty")
)

// Load reads configuration from the provided path, applies environment
// overrides and validates the result. A missing file at the default path is
// not an error: the settings then come from the environment and defaults.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	var cfg Config

	contents, err := os.ReadFile(filepath.Clean(path))

	switch {
	case err == nil:
		if err := yaml.Unmarshal(contents, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// Environment and defaults only.
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	applyEnv(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file may carry credentials.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills in defaults.
//
//nolint:cyclop // Flat list of defaults and checks.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.Mongo.Database == "" {
		settings.Mongo.Database = DefaultDatabase
	}

	if settings.Mongo.Collection == "" {
		settings.Mongo.Collection = DefaultCollection
	}

	settings.Masking.Mode = strings.ToLower(strings.TrimSpace(settings.Masking.Mode))
	if settings.Masking.Mode == "" {
		settings.Masking.Mode = ModeLocal
	}

	if settings.Masking.Mode != ModeLocal && settings.Masking.Mode != ModePushdown {
		return fmt.Errorf("%w: %q", errUnknownMode, settings.Masking.Mode)
	}

	if settings.Masking.Mode == ModePushdown && settings.Masking.InputFile != "" {
		return errPushdownNeedsMongo
	}

	if settings.Masking.MaxMemoryRecords <= 0 {
		settings.Masking.MaxMemoryRecords = masking.DefaultMaxMemoryRecords
	}

	if settings.Masking.Workers < 0 {
		settings.Masking.Workers = 0
	}

	if err := validateClearer(&settings.Clearer, settings.Timeout); err != nil {
		return err
	}

	if settings.Server.ListenAddress == "" {
		settings.Server.ListenAddress = DefaultListenAddress
	}

	if settings.Server.MaxConcurrentRuns <= 0 {
		settings.Server.MaxConcurrentRuns = 1
	}

	if _, ok := logger.ParseLogLevel(settings.Log.Level); !ok && settings.Log.Level != "" {
		return fmt.Errorf("invalid log level %q", settings.Log.Level)
	}

	if settings.MetricsAddress != "" {
		if _, _, err := net.SplitHostPort(settings.MetricsAddress); err != nil {
			return fmt.Errorf("invalid metrics address: %w", err)
		}
	}

	return nil
}

// validateClearer fills clearer defaults and checks the endpoint.
func validateClearer(clearer *ClearerConfig, timeout time.Duration) error {
	if clearer.Schedule == "" {
		clearer.Schedule = DefaultSchedule
	}

	if _, err := cron.ParseStandard(clearer.Schedule); err != nil {
		return fmt.Errorf("invalid clear schedule %q: %w", clearer.Schedule, err)
	}

	if clearer.Pause == 0 {
		clearer.Pause = DefaultPause
	}

	if clearer.Cooldown == 0 {
		clearer.Cooldown = DefaultCooldown
	}

	if clearer.JournalFile == "" {
		clearer.JournalFile = DefaultJournalFilename
	}

	if clearer.RequestTimeout <= 0 {
		clearer.RequestTimeout = timeout
	}

	if clearer.ClearURL == "" {
		return nil
	}

	if _, err := url.ParseRequestURI(clearer.ClearURL); err != nil {
		return fmt.Errorf("invalid clear url: %w", err)
	}

	return nil
}

// ConnectionString returns the Mongo URI with credential placeholders replaced.
func (m *MongoConfig) ConnectionString() (string, error) {
	if m.URI == "" {
		return "", errMongoURIRequired
	}

	hasPlaceholders := strings.Contains(m.URI, mongoUserPlaceholder) ||
		strings.Contains(m.URI, mongoPasswordPlaceholder)
	if !hasPlaceholders {
		return m.URI, nil
	}

	if m.User == "" || m.Password == "" {
		return "", errMongoCredentialsRequired
	}

	replacer := strings.NewReplacer(
		mongoUserPlaceholder, m.User,
		mongoPasswordPlaceholder, m.Password,
	)

	return replacer.Replace(m.URI), nil
}
