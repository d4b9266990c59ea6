package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/studyarc/resourcebank-backend/internal/platform/envutil"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

// Config is assembled from environment variables, with an optional YAML file
// (RESOURCEBANK_CONFIG) layered underneath for values the env does not set.
type Config struct {
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	Port        string `yaml:"port"`

	JWTSecretKey string   `yaml:"jwt_secret_key"`
	CORSOrigins  []string `yaml:"cors_origins"`

	LocalStoreRoot string `yaml:"local_store_root"`
	CacheDir       string `yaml:"cache_dir"`

	BackupEncryptionKey string        `yaml:"backup_encryption_key"`
	BackupMaxAttempts   int           `yaml:"backup_max_attempts"`
	BackupBaseBackoff   time.Duration `yaml:"backup_base_backoff"`

	QuotaLimit            int           `yaml:"quota_limit"`
	ExtractionMinChars    int           `yaml:"extraction_min_chars"`
	ExtractionMaxAttempts int           `yaml:"extraction_max_attempts"`
	ExtractionBaseBackoff time.Duration `yaml:"extraction_base_backoff"`

	CatalogName    string        `yaml:"catalog_name"`
	CatalogListURL string        `yaml:"catalog_list_url"`
	SyncInterval   time.Duration `yaml:"sync_interval"`
	SyncLockTTL    time.Duration `yaml:"sync_lock_ttl"`
	SyncListDelay  time.Duration `yaml:"sync_list_delay"`
	SyncWorkers    int           `yaml:"sync_workers"`

	JobWorkers      int           `yaml:"job_workers"`
	JobPollInterval time.Duration `yaml:"job_poll_interval"`
}

func LoadConfig(log *logger.Logger) Config {
	cfg := fileConfig(log)

	cfg.Environment = envutil.String("ENVIRONMENT", orDefault(cfg.Environment, "development"))
	cfg.Version = envutil.String("SERVICE_VERSION", orDefault(cfg.Version, "dev"))
	cfg.Port = envutil.String("PORT", orDefault(cfg.Port, "8080"))

	cfg.JWTSecretKey = envutil.String("JWT_SECRET_KEY", orDefault(cfg.JWTSecretKey, "defaultsecret"))
	if raw := envutil.String("CORS_ORIGINS", ""); raw != "" {
		cfg.CORSOrigins = splitAndTrim(raw)
	}

	cfg.LocalStoreRoot = envutil.String("LOCAL_STORE_ROOT", orDefault(cfg.LocalStoreRoot, "/var/lib/resourcebank/store"))
	cfg.CacheDir = envutil.String("CACHE_DIR", orDefault(cfg.CacheDir, "/var/lib/resourcebank/cache"))

	cfg.BackupEncryptionKey = envutil.String("BACKUP_ENCRYPTION_KEY", cfg.BackupEncryptionKey)
	cfg.BackupMaxAttempts = envutil.Int("BACKUP_MAX_ATTEMPTS", orDefaultInt(cfg.BackupMaxAttempts, 3))
	cfg.BackupBaseBackoff = envutil.Duration("BACKUP_BASE_BACKOFF", orDefaultDur(cfg.BackupBaseBackoff, 5*time.Second))

	cfg.QuotaLimit = envutil.Int("TENANT_QUOTA_LIMIT", orDefaultInt(cfg.QuotaLimit, 100))
	cfg.ExtractionMinChars = envutil.Int("EXTRACTION_MIN_CHARS", orDefaultInt(cfg.ExtractionMinChars, 200))
	cfg.ExtractionMaxAttempts = envutil.Int("EXTRACTION_MAX_ATTEMPTS", orDefaultInt(cfg.ExtractionMaxAttempts, 3))
	cfg.ExtractionBaseBackoff = envutil.Duration("EXTRACTION_BASE_BACKOFF", orDefaultDur(cfg.ExtractionBaseBackoff, 10*time.Second))

	cfg.CatalogName = envutil.String("CATALOG_NAME", orDefault(cfg.CatalogName, "examboard"))
	cfg.CatalogListURL = envutil.String("CATALOG_LIST_URL", cfg.CatalogListURL)
	cfg.SyncInterval = envutil.Duration("SYNC_INTERVAL", orDefaultDur(cfg.SyncInterval, 24*time.Hour))
	cfg.SyncLockTTL = envutil.Duration("SYNC_LOCK_TTL", orDefaultDur(cfg.SyncLockTTL, 2*time.Hour))
	cfg.SyncListDelay = envutil.Duration("SYNC_LIST_DELAY", orDefaultDur(cfg.SyncListDelay, 10*time.Second))
	cfg.SyncWorkers = envutil.Int("SYNC_WORKERS", orDefaultInt(cfg.SyncWorkers, 4))

	cfg.JobWorkers = envutil.Int("JOB_WORKERS", orDefaultInt(cfg.JobWorkers, 2))
	cfg.JobPollInterval = envutil.Duration("JOB_POLL_INTERVAL", orDefaultDur(cfg.JobPollInterval, 2*time.Second))

	return cfg
}

func fileConfig(log *logger.Logger) Config {
	var cfg Config
	path := envutil.String("RESOURCEBANK_CONFIG", "")
	if path == "" {
		return cfg
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warn("config file unreadable, using env only", "path", path, "error", err)
		return cfg
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		log.Warn("config file invalid, using env only", "path", path, "error", err)
		return Config{}
	}
	log.Info("config file loaded", "path", path)
	return cfg
}

// Validate catches the settings the server cannot run without.
func (c Config) Validate() error {
	if c.BackupEncryptionKey == "" {
		return fmt.Errorf("BACKUP_ENCRYPTION_KEY is required")
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orDefaultDur(v, def time.Duration) time.Duration {
	if v == 0 {
		return def
	}
	return v
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
