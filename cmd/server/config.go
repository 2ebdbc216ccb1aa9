package main

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// AppConfig holds server configuration loaded from environment variables.
// It satisfies the users.Config interface consumed by the token service
// and route guard.
type AppConfig struct {
	ServerAddr    string        `env:"SERVER_ADDR" envDefault:":8080"`
	DSN           string        `env:"DB_DSN" envDefault:"file::memory:?cache=shared"`
	SigningKey    string        `env:"JWT_SECRET,required"`
	SigningMethod string        `env:"JWT_SIGNING_METHOD" envDefault:"HS256"`
	TokenLifetime time.Duration `env:"JWT_EXPIRES_IN" envDefault:"1h"`
	Issuer        string        `env:"JWT_ISSUER"`
	Audience      []string      `env:"JWT_AUDIENCE" envSeparator:","`
	ContextKey    string        `env:"AUTH_CONTEXT_KEY" envDefault:"user"`
	TokenLookup   string        `env:"AUTH_TOKEN_LOOKUP" envDefault:"header:Authorization"`
	AuthScheme    string        `env:"AUTH_SCHEME" envDefault:"Bearer"`
	HashCost      int           `env:"AUTH_HASH_COST" envDefault:"12"`
	Debug         bool          `env:"DEBUG" envDefault:"false"`
}

// LoadConfigFromEnv loads server configuration from environment variables.
func LoadConfigFromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c *AppConfig) GetSigningMethod() string {
	return c.SigningMethod
}

func (c *AppConfig) GetContextKey() string {
	return c.ContextKey
}

func (c *AppConfig) GetTokenLifetime() time.Duration {
	return c.TokenLifetime
}

func (c *AppConfig) GetTokenLookup() string {
	return c.TokenLookup
}

func (c *AppConfig) GetAuthScheme() string {
	return c.AuthScheme
}

func (c *AppConfig) GetIssuer() string {
	return c.Issuer
}

func (c *AppConfig) GetAudience() []string {
	return c.Audience
}

func (c *AppConfig) GetHashCost() int {
	return c.HashCost
}
