package config

import (
	"errors"
	"time"
)

// EconomyConfig is the seed used when the economy document is created for
// the first time. Once the document exists its embedded config is
// authoritative; this section is only read again by the reset-doc command.
type EconomyConfig struct {
	InterestRate          float64       `mapstructure:"interest-rate"`
	StorableValueRatio    float64       `mapstructure:"storable-value-ratio"`
	InterestTickRate      time.Duration `mapstructure:"interest-tick-rate"`
	WithdrawalTime        time.Duration `mapstructure:"withdrawal-time"`
	CurrencyEmoji         string        `mapstructure:"currency-emoji"`
	InitialCurrencyAmount int64         `mapstructure:"initial-currency-amount"`
}

func (cfg *EconomyConfig) Validate() error {
	if cfg.InterestRate < 0 {
		return errors.New("interest-rate must not be negative")
	}

	if cfg.StorableValueRatio < 0 || cfg.StorableValueRatio > 1 {
		return errors.New("storable-value-ratio must be between 0 and 1")
	}

	if cfg.InterestTickRate <= 0 {
		return errors.New("interest-tick-rate must be positive")
	}

	if cfg.WithdrawalTime <= 0 {
		return errors.New("withdrawal-time must be positive")
	}

	if cfg.InitialCurrencyAmount < 0 {
		return errors.New("initial-currency-amount must not be negative")
	}

	return nil
}
