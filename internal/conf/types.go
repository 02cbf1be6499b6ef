package conf

import "google.golang.org/protobuf/types/known/durationpb"

// Bootstrap is the root configuration structure.
type Bootstrap struct {
	Server  *Server
	Data    *Data
	Kos     *Kos
	Breaker *Breaker
	Cache   *Cache
	Worker  *Worker
	Log     *Log
}

// Server holds transport server configuration.
type Server struct {
	Http *Server_HTTP
}

// Server_HTTP holds HTTP server configuration.
type Server_HTTP struct {
	Network string
	Addr    string
	Timeout *durationpb.Duration
}

// Data holds data layer configuration.
type Data struct {
	Database *Data_Database
	Redis    *Data_Redis
}

// Data_Database holds MySQL configuration.
type Data_Database struct {
	Driver string
	Source string
}

// Data_Redis holds Redis configuration.
type Data_Redis struct {
	Network      string
	Addr         string
	ReadTimeout  *durationpb.Duration
	WriteTimeout *durationpb.Duration
}

// Kos holds KOS transport client configuration.
type Kos struct {
	// BaseUrl is the mock gateway address used in every environment that has
	// no real KOS uplink.
	BaseUrl string
	// RealBaseUrl is the production KOS gateway, used when UseReal is set.
	RealBaseUrl string
	UseReal     bool
	Timeout     *durationpb.Duration
	// ProductCacheSize / ProductCacheTtl configure the in-process product
	// catalog cache (catalog entries get no invalidation pushes).
	ProductCacheSize int
	ProductCacheTtl  *durationpb.Duration
}

// Breaker holds circuit breaker tuning shared by every operation class.
type Breaker struct {
	SlidingWindowSize      int
	MinimumCalls           int
	FailureRateThreshold   float64
	WaitDurationOpen       *durationpb.Duration
	PermittedHalfOpenCalls int
}

// Cache holds read-through cache configuration.
type Cache struct {
	BillingTtl *durationpb.Duration
}

// Worker holds retry worker configuration.
type Worker struct {
	RetryInterval *durationpb.Duration
	// MaxAttempts bounds retries per change request; 0 retries forever.
	MaxAttempts int
}

// Log holds logging configuration.
type Log struct {
	Level      string
	Format     string
	Env        string
	OutputFile string
}
