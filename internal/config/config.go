package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Env prefixes for the two database roles.
const (
	SourcePrefix = "ORACLE_SOURCE"
	TargetPrefix = "ORACLE_TARGET"
)

// DefaultBatchSize is the insert batch size used when neither the flag nor
// ORASHIFT_BATCH_SIZE overrides it.
const DefaultBatchSize = 500

// Config holds the resolved connection parameters for one database role.
// It is immutable once resolved; the migration core receives it opaquely.
type Config struct {
	DSN        string
	User       string
	Password   string
	Schema     string
	ClientPath string
}

// FromEnv resolves a role's connection parameters from <prefix>_* variables.
// DSN, user and password are required; the client library path falls back to
// the global ORACLE_CLIENT_PATH.
func FromEnv(prefix string) (Config, error) {
	cfg := Config{
		DSN:        os.Getenv(prefix + "_DSN"),
		User:       os.Getenv(prefix + "_USER"),
		Password:   os.Getenv(prefix + "_PASSWORD"),
		Schema:     os.Getenv(prefix + "_SCHEMA"),
		ClientPath: os.Getenv(prefix + "_CLIENT_PATH"),
	}
	if cfg.ClientPath == "" {
		cfg.ClientPath = os.Getenv("ORACLE_CLIENT_PATH")
	}

	var missing []string
	for _, v := range []struct{ name, value string }{
		{prefix + "_DSN", cfg.DSN},
		{prefix + "_USER", cfg.User},
		{prefix + "_PASSWORD", cfg.Password},
	} {
		if v.value == "" {
			missing = append(missing, v.name)
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables for %s: %s",
			prefix, strings.Join(missing, ", "))
	}
	return cfg, nil
}

// ProjectConfig is the full resolved configuration for one invocation.
type ProjectConfig struct {
	Source    Config
	Target    Config
	Schemas   []string
	BatchSize int
}

// Load resolves both roles from the environment and parses the schema list.
// It fails fast, before any network call, when required variables are absent.
func Load(schemasCSV string, batchSize int) (ProjectConfig, error) {
	source, err := FromEnv(SourcePrefix)
	if err != nil {
		return ProjectConfig{}, err
	}
	target, err := FromEnv(TargetPrefix)
	if err != nil {
		return ProjectConfig{}, err
	}
	if batchSize <= 0 {
		return ProjectConfig{}, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	cfg := ProjectConfig{
		Source:    source,
		Target:    target,
		Schemas:   ParseSchemas(schemasCSV),
		BatchSize: batchSize,
	}
	if len(cfg.Schemas) == 0 {
		cfg.Schemas = []string{defaultSchema(source)}
	}
	return cfg, nil
}

// ParseSchemas splits a comma-separated schema list, trimming, upper-casing
// and dropping empty entries while preserving order.
func ParseSchemas(csv string) []string {
	var schemas []string
	for _, part := range strings.Split(csv, ",") {
		if s := strings.ToUpper(strings.TrimSpace(part)); s != "" {
			schemas = append(schemas, s)
		}
	}
	return schemas
}

// defaultSchema is the source's configured schema, else its own user.
func defaultSchema(source Config) string {
	if source.Schema != "" {
		return strings.ToUpper(source.Schema)
	}
	return strings.ToUpper(source.User)
}

// LoadEnvFile loads environment variables from a .env file if it exists.
// Missing files are not an error; existing variables always win.
func LoadEnvFile(envFile string, logger *logrus.Logger) {
	if _, err := os.Stat(envFile); err != nil {
		logger.Debugf("No %s file found, using existing environment variables", envFile)
		return
	}
	if err := godotenv.Load(envFile); err != nil {
		logger.Warningf("Error loading %s file: %v", envFile, err)
		return
	}
	logger.Infof("Loaded environment variables from %s", envFile)
}

// GetEnvInt gets an integer value from an environment variable.
func GetEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}
