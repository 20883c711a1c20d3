package config

import (
	"errors"
	"os"
	"time"
)

// Config holds runtime settings for the gophauth CLI.
type Config struct {
	// ServerEndpointAddr is host:port of the gRPC endpoint.
	ServerEndpointAddr string
	// RequestTimeout bounds a single RPC.
	RequestTimeout time.Duration
	// RetryMaxElapsed bounds retries while the server is unavailable.
	// Zero disables retries.
	RetryMaxElapsed time.Duration
}

func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 5 * time.Second
	c.RetryMaxElapsed = 10 * time.Second
}

func (c *Config) Validate() error {
	var errs []error
	if c.ServerEndpointAddr == "" {
		errs = append(errs, errors.New("server address is required"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.RetryMaxElapsed < 0 {
		errs = append(errs, errors.New("retry window must not be negative"))
	}
	return errors.Join(errs...)
}

// LoadConfig reads configuration from os.Args.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
