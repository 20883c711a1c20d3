package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Pointer fields distinguish
// "absent" from "zero" so a partial file only overrides what it names.
type JsonConfig struct {
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC            *string         `json:"endpoint_addr_grpc"`
	DatabaseDriver              *string         `json:"database_driver"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	ServiceName                 *string         `json:"service_name"`
	Version                     *string         `json:"version"`
	Environment                 *string         `json:"environment"`
	LogFormat                   *string         `json:"log_format"`
	LogLevel                    *string         `json:"log_level"`
	RequestTimeout              *timex.Duration `json:"request_timeout"`
	CORSOrigins                 []string        `json:"cors_origins"`
	HashMemoryKiB               *uint32         `json:"hash_memory_kib"`
	HashIterations              *uint32         `json:"hash_iterations"`
	HashParallelism             *uint8          `json:"hash_parallelism"`
}

// parseJson overlays values from the file named by -c / -config in args.
// Without such a flag nothing is loaded.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	set(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	set(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	set(&config.DatabaseDriver, c.DatabaseDriver)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.SecretKey, c.SecretKey)
	set(&config.ServiceName, c.ServiceName)
	set(&config.Version, c.Version)
	set(&config.Environment, c.Environment)
	set(&config.LogFormat, c.LogFormat)
	set(&config.LogLevel, c.LogLevel)
	set(&config.HashMemoryKiB, c.HashMemoryKiB)
	set(&config.HashIterations, c.HashIterations)
	set(&config.HashParallelism, c.HashParallelism)

	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RequestTimeout != nil {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if c.CORSOrigins != nil {
		config.CORSOrigins = c.CORSOrigins
	}
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
