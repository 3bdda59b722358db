package auth

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Defaults applied by Config.withDefaults.
const (
	DefaultIssuer     = "movie-api"
	DefaultTokenTTL   = 7 * 24 * time.Hour
	DefaultBcryptCost = 10
)

// Config is fixed at startup and shared read-only by the hasher, the token
// manager and the strategies.
type Config struct {
	Secret     string
	Issuer     string
	TokenTTL   time.Duration
	BcryptCost int

	// Now is the clock used for iat/exp and expiry checks. Defaults to time.Now.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Issuer == "" {
		c.Issuer = DefaultIssuer
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = DefaultTokenTTL
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = DefaultBcryptCost
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

func validateCost(cost int) error {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cost)
	}
	return nil
}

func (c Config) validate() error {
	var errs []error
	if c.Secret == "" {
		errs = append(errs, errors.New("token secret must not be empty"))
	}
	if c.TokenTTL < 0 {
		errs = append(errs, fmt.Errorf("token TTL must be positive, got %s", c.TokenTTL))
	}
	if err := validateCost(c.BcryptCost); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
