package domain

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "entity_manager.yaml"
	ConfigPathEnv     = "ENTITY_MANAGER_CONFIG"

	// TenantNameFallback is what ends up in principal names when TENANT_NAME is unset.
	TenantNameFallback = "undefined"
)

// Config holds local settings read from entity_manager.yaml. Credentials never
// live here, they come from the environment.
type Config struct {
	DBPath         string        `yaml:"db_path"`
	LogLevel       string        `yaml:"log_level"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	EnvFile        string        `yaml:"env_file"`

	// Authority and GraphURL override the public cloud endpoints when set.
	Authority string `yaml:"authority"`
	GraphURL  string `yaml:"graph_url"`
}

func defaultConfig() Config {
	return Config{
		DBPath:   "entity_manager.db",
		LogLevel: "info",
		EnvFile:  ".env",
	}
}

// ConfigPath resolves the settings file location.
func ConfigPath() string {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p
	}
	return DefaultConfigPath
}

// LoadConfig reads the settings file at path, falling back to defaults for a
// missing file or missing keys.
func LoadConfig(path string) *Config {
	cfg := defaultConfig()

	cfgfile, cfgErr := os.ReadFile(path)
	if cfgErr != nil {
		log.Debug().Msgf("open config file, using defaults: %s", cfgErr.Error())
		return &cfg
	}

	if cfgErr = yaml.Unmarshal(cfgfile, &cfg); cfgErr != nil {
		log.Warn().Msgf("parse config file, using defaults: %s", cfgErr.Error())
		cfg = defaultConfig()
	}

	return &cfg
}

// Credentials are the client-credentials inputs plus the tenant details used
// to shape new accounts.
type Credentials struct {
	TenantID       string
	ClientID       string
	ClientSecret   string
	TenantName     string
	ExtensionAppID string
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set.
func LoadEnvFile(path string) {
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Debug().Str("file", path).Msg("env file not loaded, using process environment")
	}
}

// LoadCredentials resolves credentials through lookup, normally os.LookupEnv.
func LoadCredentials(lookup func(string) (string, bool)) (Credentials, error) {
	required := func(key string) (string, error) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return "", fmt.Errorf("%s not set: %w", key, ErrMissingCredential)
		}
		return v, nil
	}

	var (
		creds Credentials
		err   error
	)

	if creds.TenantID, err = required("TENANT_ID"); err != nil {
		return Credentials{}, err
	}
	if creds.ClientID, err = required("CLIENT_ID"); err != nil {
		return Credentials{}, err
	}
	if creds.ClientSecret, err = required("CLIENT_SECRET"); err != nil {
		return Credentials{}, err
	}

	var ok bool
	if creds.TenantName, ok = lookup("TENANT_NAME"); !ok {
		log.Warn().Msg("TENANT_NAME not set, principal names will use " + TenantNameFallback)
		creds.TenantName = TenantNameFallback
	}

	creds.ExtensionAppID, _ = lookup("EXTENSION_APP_ID")

	return creds, nil
}
