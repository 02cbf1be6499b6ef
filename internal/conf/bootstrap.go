// Package conf provides configuration management using Viper.
// It supports loading configuration from YAML files and environment
// variables, with CLI flag overrides.
package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"google.golang.org/protobuf/types/known/durationpb"
)

// NewBootstrap creates and initializes a Bootstrap configuration.
// It loads configuration from the specified config file path, applies
// defaults, and allows overrides from environment variables prefixed with
// KOSBRIDGE_.
//
// Configuration priority: CLI flags > Environment variables > Config file > Defaults
//
// Required environment variables:
//   - MYSQL_DSN or KOSBRIDGE_DATA_DATABASE_SOURCE: MySQL connection string
func NewBootstrap(configPath string) (*Bootstrap, error) {
	v := viper.New()

	setDefaults(v)

	// Enable environment variable support with KOSBRIDGE_ prefix
	v.SetEnvPrefix("KOSBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow direct environment variable names for required fields
	_ = v.BindEnv("data.database.source", "MYSQL_DSN", "KOSBRIDGE_DATA_DATABASE_SOURCE")
	_ = v.BindEnv("data.redis.addr", "KOSBRIDGE_DATA_REDIS_ADDR")
	_ = v.BindEnv("kos.base_url", "KOS_BASE_URL", "KOSBRIDGE_KOS_BASE_URL")
	_ = v.BindEnv("kos.real_base_url", "KOS_REAL_BASE_URL", "KOSBRIDGE_KOS_REAL_BASE_URL")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	bc := &Bootstrap{
		Server: &Server{
			Http: &Server_HTTP{
				Network: v.GetString("server.http.network"),
				Addr:    v.GetString("server.http.addr"),
				Timeout: durationpb.New(v.GetDuration("server.http.timeout")),
			},
		},
		Data: &Data{
			Database: &Data_Database{
				Driver: v.GetString("data.database.driver"),
				Source: v.GetString("data.database.source"),
			},
			Redis: &Data_Redis{
				Network:      v.GetString("data.redis.network"),
				Addr:         v.GetString("data.redis.addr"),
				ReadTimeout:  durationpb.New(v.GetDuration("data.redis.read_timeout")),
				WriteTimeout: durationpb.New(v.GetDuration("data.redis.write_timeout")),
			},
		},
		Kos: &Kos{
			BaseUrl:          v.GetString("kos.base_url"),
			RealBaseUrl:      v.GetString("kos.real_base_url"),
			UseReal:          v.GetBool("kos.use_real"),
			Timeout:          durationpb.New(v.GetDuration("kos.timeout")),
			ProductCacheSize: v.GetInt("kos.product_cache_size"),
			ProductCacheTtl:  durationpb.New(v.GetDuration("kos.product_cache_ttl")),
		},
		Breaker: &Breaker{
			SlidingWindowSize:      v.GetInt("breaker.sliding_window_size"),
			MinimumCalls:           v.GetInt("breaker.minimum_calls"),
			FailureRateThreshold:   v.GetFloat64("breaker.failure_rate_threshold"),
			WaitDurationOpen:       durationpb.New(v.GetDuration("breaker.wait_duration_open")),
			PermittedHalfOpenCalls: v.GetInt("breaker.permitted_half_open_calls"),
		},
		Cache: &Cache{
			BillingTtl: durationpb.New(v.GetDuration("cache.billing_ttl")),
		},
		Worker: &Worker{
			RetryInterval: durationpb.New(v.GetDuration("worker.retry_interval")),
			MaxAttempts:   v.GetInt("worker.max_attempts"),
		},
		Log: &Log{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Env:        v.GetString("log.env"),
			OutputFile: v.GetString("log.output_file"),
		},
	}

	if err := Validate(bc); err != nil {
		return nil, err
	}

	return bc, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.http.network", "tcp")
	v.SetDefault("server.http.addr", ":8080")
	v.SetDefault("server.http.timeout", 30*time.Second)

	// Data defaults
	v.SetDefault("data.database.driver", "mysql")
	// Note: data.database.source (MYSQL_DSN) is required from environment

	v.SetDefault("data.redis.network", "tcp")
	v.SetDefault("data.redis.addr", "127.0.0.1:6379")
	v.SetDefault("data.redis.read_timeout", 200*time.Millisecond)
	v.SetDefault("data.redis.write_timeout", 200*time.Millisecond)

	// KOS gateway defaults: local mock, 5s hard timeout per call
	v.SetDefault("kos.base_url", "http://localhost:8084")
	v.SetDefault("kos.use_real", false)
	v.SetDefault("kos.timeout", 5*time.Second)
	v.SetDefault("kos.product_cache_size", 256)
	v.SetDefault("kos.product_cache_ttl", 10*time.Minute)

	// Breaker defaults match the KOS adapter settings
	v.SetDefault("breaker.sliding_window_size", 10)
	v.SetDefault("breaker.minimum_calls", 5)
	v.SetDefault("breaker.failure_rate_threshold", 50.0)
	v.SetDefault("breaker.wait_duration_open", 30*time.Second)
	v.SetDefault("breaker.permitted_half_open_calls", 3)

	// Billing cache entries live for a day unless invalidated
	v.SetDefault("cache.billing_ttl", 24*time.Hour)

	// Retry worker defaults
	v.SetDefault("worker.retry_interval", 60*time.Second)
	v.SetDefault("worker.max_attempts", 10)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that all required configuration fields are present and valid.
// It returns an error listing all missing required fields.
func Validate(bc *Bootstrap) error {
	var missingFields []string

	if bc.Data == nil || bc.Data.Database == nil || bc.Data.Database.Source == "" {
		missingFields = append(missingFields, "data.database.source (MYSQL_DSN)")
	}

	if bc.Kos == nil || bc.Kos.BaseUrl == "" {
		missingFields = append(missingFields, "kos.base_url (KOS_BASE_URL)")
	}

	if bc.Kos != nil && bc.Kos.UseReal && bc.Kos.RealBaseUrl == "" {
		missingFields = append(missingFields, "kos.real_base_url (required when kos.use_real is set)")
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("missing required configuration fields: %s", strings.Join(missingFields, ", "))
	}

	if bc.Breaker != nil {
		if bc.Breaker.FailureRateThreshold < 0 || bc.Breaker.FailureRateThreshold > 100 {
			return fmt.Errorf("breaker.failure_rate_threshold must be between 0 and 100, got %v", bc.Breaker.FailureRateThreshold)
		}
	}

	return nil
}
