// Package config loads settings for the sharevault command-line client.
//
// Sources, later ones winning: built-in defaults, an optional JSON file
// selected with -c or -config, then flags.
//
//	-a string     host:port of the gRPC endpoint
//	-k string     access token
//	-t duration   per-call timeout
//
// JSON keys are server_endpoint_addr, access_token and request_timeout; the
// timeout accepts "10s" or integer nanoseconds.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	ServerEndpointAddr string        `validate:"required,hostname_port"`
	AccessToken        string        `validate:"required"`
	RequestTimeout     time.Duration `validate:"gte=0"`
}

var validate = validator.New()

func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 10 * time.Second
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// LoadConfig applies defaults, the JSON file and flags from args (without the
// program name). It returns the positional arguments left after the flags.
func LoadConfig(args []string) (*Config, []string, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, nil, err
	}
	rest, err := parseFlags(cfg, args)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, rest, nil
}
