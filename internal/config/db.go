package config

import (
	"errors"
	"net/url"
	"time"
)

type DbConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Address  string `mapstructure:"address"`
	DbName   string `mapstructure:"db-name"`

	// MaxUpdateRetries bounds the read-mutate-write cycles attempted when
	// concurrent writers keep winning the version race.
	MaxUpdateRetries uint          `mapstructure:"max-update-retries"`
	UpdateRetryDelay time.Duration `mapstructure:"update-retry-delay"`
}

const (
	defaultMaxUpdateRetries = 10
	defaultUpdateRetryDelay = 10 * time.Millisecond
)

func (cfg *DbConfig) Validate() error {
	if cfg.Address == "" {
		return errors.New("db address is required")
	}

	u, err := url.ParseRequestURI(cfg.Address)
	if err != nil {
		return errors.New("invalid db address")
	}
	if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
		return errors.New("unsupported db scheme")
	}

	if cfg.Username == "" {
		return errors.New("db username is required")
	}
	if cfg.Password == "" {
		return errors.New("db password is required")
	}
	if cfg.DbName == "" {
		return errors.New("db name is required")
	}

	if cfg.MaxUpdateRetries == 0 {
		cfg.MaxUpdateRetries = defaultMaxUpdateRetries
	}
	if cfg.UpdateRetryDelay <= 0 {
		cfg.UpdateRetryDelay = defaultUpdateRetryDelay
	}

	return nil
}
