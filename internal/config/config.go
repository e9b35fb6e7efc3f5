// Package config loads the whisperd server configuration from YAML via
// viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config is the whisperd runtime configuration.
type Config struct {
	Server    Server
	Mongo     Mongo
	JWT       JWT
	Challenge Challenge
	Logger    Logger
}

// Server holds the listen options.
type Server struct {
	Addr string
}

// Mongo holds the database connection. An empty URI selects the in-memory
// store (development and tests).
type Mongo struct {
	URI      string
	Database string
}

// JWT holds bearer-token signing options.
type JWT struct {
	Secret string
	Expiry time.Duration
}

// Challenge configures the signup bot-detection gate. An empty endpoint
// disables the gate (every signup passes).
type Challenge struct {
	Endpoint string
	Secret   string
	MinScore float64
}

// Logger holds logging options.
type Logger struct {
	Level string
}

// Load reads and parses the named YAML file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("mongo.database", "whisperchat")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("challenge.minscore", 0.5)
	v.SetDefault("logger.level", "info")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if c.JWT.Secret == "" {
		return nil, errors.New("jwt.secret is required")
	}
	return &c, nil
}
