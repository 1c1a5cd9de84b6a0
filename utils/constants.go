package utils

import (
	"time"
)

// Carrier integration constants
const (
	// CarrierTokenRefreshMargin is how long before actual expiry a cached
	// carrier token is treated as expired (refresh one minute early)
	CarrierTokenRefreshMargin = time.Minute

	// DefaultCarrierTimeout bounds every outbound carrier HTTP call
	DefaultCarrierTimeout = 30 * time.Second
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Rate and currency constants
const (
	// RateCurrency is the only currency the carrier quotes in
	RateCurrency = "USD"
)

// Cache constants
const (
	// ActiveConfigCacheKey stores the serialized active shipping configuration
	ActiveConfigCacheKey = "shipping:active_config"

	// ActiveConfigCacheTTL keeps the active configuration briefly cached so
	// rate bursts during checkout do not hammer the database
	ActiveConfigCacheTTL = 30 * time.Second
)
