package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	LogMode bool   `mapstructure:"log_mode"`
}

// JWTConfig configures user authentication tokens (login sessions).
type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// SessionConfig configures workshop sessions and participant credentials.
type SessionConfig struct {
	CodeLength          int    `mapstructure:"code_length"`
	DefaultParticipants int    `mapstructure:"default_participants"`
	MaxParticipants     int    `mapstructure:"max_participants"`
	TokenSecret         string `mapstructure:"token_secret"`
	TokenTTLMinutes     int    `mapstructure:"token_ttl_minutes"`
}

// CleanupConfig controls the expired-token sweep.
type CleanupConfig struct {
	IntervalMinutes   int `mapstructure:"interval_minutes"`
	RevokedGraceHours int `mapstructure:"revoked_grace_hours"`
}

type InviteConfig struct {
	ExpireHours int `mapstructure:"expire_hours"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Session  SessionConfig  `mapstructure:"session"`
	Cleanup  CleanupConfig  `mapstructure:"cleanup"`
	Invite   InviteConfig   `mapstructure:"invite"`
}

var (
	appConfig *Config
	once      sync.Once
)

// Load loads configuration from given file path (e.g. "config.yaml").
// If path is empty, it defaults to "config.yaml" in current working directory.
func Load(path string) (*Config, error) {
	var err error
	once.Do(func() {
		v := viper.New()

		if path == "" {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath(".")
		} else {
			v.SetConfigFile(path)
		}

		// environment overrides, e.g. WH_SESSION_TOKEN_SECRET=...
		v.SetEnvPrefix("WH") // workshop hub
		v.AutomaticEnv()

		if err = v.ReadInConfig(); err != nil {
			err = fmt.Errorf("read config: %w", err)
			return
		}

		var c Config
		if err = v.Unmarshal(&c); err != nil {
			err = fmt.Errorf("unmarshal config: %w", err)
			return
		}

		applyDefaults(&c)
		appConfig = &c
	})

	if err != nil {
		return nil, err
	}
	return appConfig, nil
}

func applyDefaults(c *Config) {
	if c.Session.CodeLength <= 0 {
		c.Session.CodeLength = 6
	}
	if c.Session.DefaultParticipants <= 0 {
		c.Session.DefaultParticipants = 8
	}
	if c.Session.MaxParticipants <= 0 {
		c.Session.MaxParticipants = 100
	}
	if c.Cleanup.IntervalMinutes <= 0 {
		c.Cleanup.IntervalMinutes = 60
	}
	if c.Cleanup.RevokedGraceHours <= 0 {
		c.Cleanup.RevokedGraceHours = 24
	}
	if c.Invite.ExpireHours <= 0 {
		c.Invite.ExpireHours = 72
	}
}

// Get returns the loaded global configuration.
// Call Load() once at application startup.
func Get() *Config {
	return appConfig
}
