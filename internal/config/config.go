package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default configuration file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	BotToken             string   `yaml:"botToken"`
	LogLevel             string   `yaml:"logLevel"`
	AdminIDs             []int64  `yaml:"adminIds"`
	ChannelID            string   `yaml:"channelId"`
	StoragePath          string   `yaml:"storagePath"`
	BackupIntervalHours  int      `yaml:"backupIntervalHours"`
	CleanupRetentionDays int      `yaml:"cleanupRetentionDays"`
	MaxSubmissionsPerDay int      `yaml:"maxSubmissionsPerDay"`
	MaxUploadBytes       int64    `yaml:"maxUploadBytes"`
	AllowedExtensions    []string `yaml:"allowedExtensions"`
	RedisAddr            string   `yaml:"redisAddr"`
	RedisPassword        string   `yaml:"redisPassword"`
}

// Load reads config from path (defaults to config.yaml), applies env
// overrides, fills defaults and validates.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.BotToken = strings.TrimSpace(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("ADMIN_IDS"); v != "" {
		ids, err := parseIDList(v)
		if err != nil {
			return cfg, fmt.Errorf("parse ADMIN_IDS: %w", err)
		}
		cfg.AdminIDs = ids
	}
	if v := os.Getenv("CHANNEL_ID"); v != "" {
		cfg.ChannelID = strings.TrimSpace(v)
	}
	if v := os.Getenv("STORAGE_PATH"); v != "" {
		cfg.StoragePath = strings.TrimSpace(v)
	}
	if v := os.Getenv("BACKUP_INTERVAL_HOURS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.BackupIntervalHours = n
		}
	}
	if v := os.Getenv("CLEANUP_RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.CleanupRetentionDays = n
		}
	}
	if v := os.Getenv("MAX_SUBMISSIONS_PER_DAY"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.MaxSubmissionsPerDay = n
		}
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			cfg.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("ALLOWED_EXTENSIONS"); v != "" {
		cfg.AllowedExtensions = splitCSV(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = strings.TrimSpace(v)
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *FileConfig) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.StoragePath == "" {
		cfg.StoragePath = "storage.json"
	}
	if cfg.BackupIntervalHours == 0 {
		cfg.BackupIntervalHours = 24
	}
	if cfg.CleanupRetentionDays == 0 {
		cfg.CleanupRetentionDays = 90
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 50 * 1024 * 1024
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = []string{".pdf", ".doc", ".docx", ".txt", ".epub"}
	}
}

func validateConfig(cfg FileConfig) error {
	if strings.TrimSpace(cfg.BotToken) == "" {
		return errors.New("config: botToken is required (set in config.yaml or BOT_TOKEN)")
	}
	if len(cfg.AdminIDs) == 0 {
		return errors.New("config: at least one admin ID is required (set adminIds or ADMIN_IDS)")
	}
	if cfg.BackupIntervalHours < 0 {
		return errors.New("config: backupIntervalHours must be >= 0")
	}
	if cfg.CleanupRetentionDays < 0 {
		return errors.New("config: cleanupRetentionDays must be >= 0")
	}
	if cfg.MaxSubmissionsPerDay < 0 {
		return errors.New("config: maxSubmissionsPerDay must be >= 0")
	}
	if cfg.MaxSubmissionsPerDay > 0 && strings.TrimSpace(cfg.RedisAddr) == "" {
		return errors.New("config: redisAddr is required when maxSubmissionsPerDay is set")
	}
	if cfg.MaxUploadBytes <= 0 {
		return errors.New("config: maxUploadBytes must be > 0")
	}
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func parseIDList(value string) ([]int64, error) {
	parts := splitCSV(value)
	out := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin ID %q: %w", part, err)
		}
		out = append(out, id)
	}
	return out, nil
}
