package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/theokoles7/parcus/pkg/logging"
)

const EnvPrefix = "PARCUS"

var log = logging.Get("config")

type Config struct {
	Hub       Hub       `yaml:"hub"`
	Inference Inference `yaml:"inference"`
	Output    Output    `yaml:"output"`
	Database  Database  `yaml:"database"`
	Elastic   Elastic   `yaml:"elastic"`
	Storage   Storage   `yaml:"storage"`
	Metrics   Metrics   `yaml:"metrics"`
}

type Hub struct {
	Endpoint  string  `yaml:"endpoint"`
	Token     string  `yaml:"token" envconfig:"HF_TOKEN"`
	Timeout   int     `yaml:"timeout"`
	RateLimit float64 `yaml:"rate_limit" split_words:"true"`
	PageSize  int     `yaml:"page_size" split_words:"true"`
	CacheDir  string  `yaml:"cache_dir" split_words:"true"`
	NoCache   bool    `yaml:"no_cache" split_words:"true"`
}

type Inference struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key" split_words:"true"`
	Timeout  int    `yaml:"timeout"`
	Retries  int    `yaml:"retries"`
	Workers  int    `yaml:"workers"`
}

type Output struct {
	Dir string `yaml:"dir"`
}

type Database struct {
	Enabled  bool   `yaml:"enabled"`
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

type Elastic struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Index    string `yaml:"index"`
}

type Storage struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	Prefix          string `yaml:"prefix"`
	PathStyle       bool   `yaml:"path_style" split_words:"true"`
	AccessKeyID     string `yaml:"access_key_id" split_words:"true"`
	SecretAccessKey string `yaml:"secret_access_key" split_words:"true"`
}

type Metrics struct {
	Enabled  bool   `yaml:"enabled"`
	Textfile string `yaml:"textfile"`
}

func Defaults() *Config {
	return &Config{
		Hub: Hub{
			Endpoint:  "https://datasets-server.huggingface.co",
			Timeout:   30,
			RateLimit: 5,
			PageSize:  100,
			CacheDir:  GetHubCacheDir(),
		},
		Inference: Inference{
			Endpoint: "http://localhost:8000/v1",
			Timeout:  120,
			Retries:  3,
			Workers:  1,
		},
		Output: Output{
			Dir: "output",
		},
		Database: Database{
			Driver:  "sqlite",
			Path:    filepath.Join("output", "parcus.db"),
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			Name:    "parcus",
			SSLMode: "disable",
		},
		Elastic: Elastic{
			Index: "parcus_results",
		},
		Storage: Storage{
			Region: "us-east-1",
			Prefix: "parcus",
		},
		Metrics: Metrics{
			Textfile: filepath.Join("output", "parcus.prom"),
		},
	}
}

type Manager struct {
	config     *Config
	configPath string
}

func NewManager(configPath string) *Manager {
	return &Manager{
		configPath: configPath,
	}
}

// LoadConfig layers the config file and then the environment over Defaults.
// A missing file is only an error when its path was given explicitly.
func (m *Manager) LoadConfig() error {
	explicit := m.configPath != ""
	if !explicit {
		m.configPath = m.findConfigFile()
	}

	config := Defaults()

	if m.configPath != "" {
		log.Debugf("loading config from %s", m.configPath)

		data, err := os.ReadFile(m.configPath)
		switch {
		case errors.Is(err, os.ErrNotExist) && !explicit:
			log.Debugf("no config file found, using defaults")
		case err != nil:
			return fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, config); err != nil {
				return fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, config); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	if err := m.validateConfig(config); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	m.config = config
	return nil
}

func (m *Manager) GetConfig() *Config {
	return m.config
}

func (m *Manager) Path() string {
	return m.configPath
}

func (m *Manager) findConfigFile() string {
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}

	if _, err := os.Stat("config/config.yaml"); err == nil {
		return "config/config.yaml"
	}

	if configPath := GetDefaultConfigPath(); configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}

	return ""
}

func (m *Manager) validateConfig(config *Config) error {
	if config.Hub.Timeout <= 0 {
		return fmt.Errorf("hub timeout must be greater than 0")
	}

	if config.Hub.PageSize <= 0 || config.Hub.PageSize > 100 {
		return fmt.Errorf("hub page_size must be between 1 and 100")
	}

	if config.Inference.Timeout <= 0 {
		return fmt.Errorf("inference timeout must be greater than 0")
	}

	if config.Inference.Workers < 0 {
		return fmt.Errorf("inference workers must not be negative")
	}

	if config.Database.Enabled {
		switch strings.ToLower(config.Database.Driver) {
		case "sqlite":
			if config.Database.Path == "" {
				return fmt.Errorf("database path is required for sqlite")
			}
		case "postgres":
		default:
			return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
		}
	}

	if config.Elastic.Enabled && config.Elastic.URL == "" {
		return fmt.Errorf("elastic url is required when elastic is enabled")
	}

	if config.Storage.Enabled && config.Storage.Bucket == "" {
		return fmt.Errorf("storage bucket is required when storage is enabled")
	}

	return nil
}
