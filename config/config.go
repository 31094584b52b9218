package config

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

var current atomic.Pointer[Config]

// Get returns the active configuration. It is nil until Init or Set is called.
func Get() *Config {
	return current.Load()
}

// Set replaces the active configuration.
func Set(c *Config) {
	current.Store(c)
}

func Init(filePath string) {
	c, err := Load(filePath)
	if err != nil {
		panic(err)
	}
	Set(c)
}

// Load reads, defaults and verifies a config file without activating it.
func Load(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	c.FillDefault()
	if err := c.Verify(); err != nil {
		return nil, err
	}
	return c, nil
}

type Config struct {
	LogLevel      string `yaml:"log_level"`
	LogFile       string `yaml:"log_file"`
	LogMaxSize    int    `yaml:"log_max_size"`
	LogMaxBackups int    `yaml:"log_max_backups"`
	LogMaxAge     int    `yaml:"log_max_age"`

	StorageEnabled  bool   `yaml:"storage_enabled"`
	StorageSupplier string `yaml:"storage_supplier"`
	LocalDir        string `yaml:"local_dir"`
	URLExpires      string `yaml:"url_expires"`
	AliOss          `yaml:"ali_oss"`
	MySQL           `yaml:"mysql"`

	Gemini      `yaml:"gemini"`
	Credentials `yaml:"credentials"`
	Retry       `yaml:"retry"`
	Batch       `yaml:"batch"`
	HTTP        `yaml:"http"`
	Task        `yaml:"task"`
}

const (
	BackendREST = "rest"
	BackendSDK  = "sdk"

	BatchConcurrent = "concurrent"
	BatchSequential = "sequential"

	StorageLocal  = "local"
	StorageAliOss = "ali_oss"
)

func (c *Config) FillDefault() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFile == "" {
		c.LogFile = "logs/draw-studio.log"
	}
	if c.LogMaxSize == 0 {
		c.LogMaxSize = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 7
	}
	if c.LogMaxAge == 0 {
		c.LogMaxAge = 30
	}
	if c.URLExpires == "" {
		c.URLExpires = "168h"
	}
	if c.StorageSupplier == "" {
		c.StorageSupplier = StorageLocal
	}
	if c.LocalDir == "" {
		c.LocalDir = "data/output"
	}
	if c.Gemini.Backend == "" {
		c.Gemini.Backend = BackendREST
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash-image"
	}
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if c.Gemini.APIVersion == "" {
		c.Gemini.APIVersion = "v1beta"
	}
	if c.Gemini.Timeout == 0 {
		c.Gemini.Timeout = 3 * time.Minute
	}
	if len(c.Credentials.Sources) == 0 {
		c.Credentials.Sources = []string{"API_KEY", "VITE_API_KEY"}
	}
	if c.Retry.QuotaCooldown == 0 {
		c.Retry.QuotaCooldown = 2 * time.Second
	}
	if c.Retry.QuotaMaxCooldown == 0 {
		c.Retry.QuotaMaxCooldown = 30 * time.Second
	}
	if c.Retry.QuotaMargin == 0 {
		c.Retry.QuotaMargin = 2 * time.Second
	}
	if c.Retry.TransientDelay == 0 {
		c.Retry.TransientDelay = time.Second
	}
	if c.Batch.Slots == 0 {
		c.Batch.Slots = 4
	}
	if c.Batch.Strategy == "" {
		c.Batch.Strategy = BatchConcurrent
	}
	if c.Batch.Cooldown == 0 {
		c.Batch.Cooldown = 3 * time.Second
	}
	if c.Batch.MaxConcurrent == 0 {
		c.Batch.MaxConcurrent = 4
	}
	if c.HTTP.RateLimit == 0 {
		c.HTTP.RateLimit = 5
	}
	if c.HTTP.Burst == 0 {
		c.HTTP.Burst = 10
	}
	if c.HTTP.MaxUploadMB == 0 {
		c.HTTP.MaxUploadMB = 25
	}
	if c.Task.ResultTTL == 0 {
		c.Task.ResultTTL = 30 * time.Minute
	}
	if c.Task.QueueSize == 0 {
		c.Task.QueueSize = 100
	}
}

func (c *Config) Verify() error {
	if _, err := time.ParseDuration(c.URLExpires); err != nil {
		return err
	}
	if c.Gemini.Backend != BackendREST && c.Gemini.Backend != BackendSDK {
		return fmt.Errorf("gemini.backend must be %s or %s", BackendREST, BackendSDK)
	}
	if c.Batch.Strategy != BatchConcurrent && c.Batch.Strategy != BatchSequential {
		return fmt.Errorf("batch.strategy must be %s or %s", BatchConcurrent, BatchSequential)
	}
	if c.Batch.Slots < 1 || c.Batch.MaxConcurrent < 1 {
		return fmt.Errorf("batch.slots and batch.max_concurrent must be positive")
	}
	if c.StorageEnabled && c.StorageSupplier != StorageLocal && c.StorageSupplier != StorageAliOss {
		return fmt.Errorf("storage_supplier must be %s or %s", StorageLocal, StorageAliOss)
	}
	if c.Retry.QuotaMaxCooldown < c.Retry.QuotaCooldown {
		return fmt.Errorf("retry.quota_max_cooldown must not be below retry.quota_cooldown")
	}
	return nil
}

type AliOss struct {
	AccessKeyId     string `yaml:"access_key_id"`
	AccessKeySecret string `yaml:"access_key_secret"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	Directory       string `yaml:"directory"`
}

type MySQL struct {
	Enabled      bool   `yaml:"enabled"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	Charset      string `yaml:"charset"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type Gemini struct {
	Backend    string        `yaml:"backend"` // rest | sdk
	Model      string        `yaml:"model"`
	BaseURL    string        `yaml:"base_url"`
	APIVersion string        `yaml:"api_version"`
	Timeout    time.Duration `yaml:"timeout"` // per attempt
}

// Credentials lists the places API keys are read from. Sources are environment
// variable names tried in order; Keys is the inline fallback used last.
type Credentials struct {
	Sources []string `yaml:"sources"`
	Keys    string   `yaml:"keys"`
}

type Retry struct {
	QuotaCooldown    time.Duration `yaml:"quota_cooldown"`
	QuotaMaxCooldown time.Duration `yaml:"quota_max_cooldown"`
	QuotaMargin      time.Duration `yaml:"quota_margin"`
	TransientDelay   time.Duration `yaml:"transient_delay"`
}

type Batch struct {
	Slots         int           `yaml:"slots"`
	Strategy      string        `yaml:"strategy"` // concurrent | sequential
	Cooldown      time.Duration `yaml:"cooldown"` // sequential only
	MaxConcurrent int           `yaml:"max_concurrent"`
}

type HTTP struct {
	RateLimit   float64 `yaml:"rate_limit"` // requests per second
	Burst       int     `yaml:"burst"`
	MaxUploadMB int64   `yaml:"max_upload_mb"`
}

type Task struct {
	ResultTTL time.Duration `yaml:"result_ttl"`
	QueueSize int           `yaml:"queue_size"`
}
