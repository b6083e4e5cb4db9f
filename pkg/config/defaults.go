package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "reservd"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// DefaultHoldTTL is how long an unconfirmed hold survives before the
	// expiration monitor releases it.
	DefaultHoldTTL = 30 * time.Minute

	// DefaultLeadTime is the minimum interval between "now" and a slot's
	// start for a hold to be allowed.
	DefaultLeadTime = 24 * time.Hour

	DefaultSlotLockTTL = 10 * time.Second

	DefaultWorkDayStart = "09:00"
	DefaultWorkDayEnd   = "17:00"

	DefaultPaginationLimit = 100
)

// DefaultBlockLengths is the provider-independent fallback for supported slot
// lengths, in minutes.
var DefaultBlockLengths = []int{15, 30, 60}
