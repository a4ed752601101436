package constants

import "time"

const (
	DefaultTimeout = 10 * time.Second

	DatabaseSSLMode         = "disable"
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes

	// SphereExternal is the reserved category that marks events sourced from
	// the external calendar provider. Events carrying it are read-only.
	SphereExternal = "google-calendar"

	// CacheWeekTTL bounds staleness for the merged week view between
	// explicit invalidations.
	CacheWeekTTL = 5 * time.Minute
)
