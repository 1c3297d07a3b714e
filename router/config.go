package router

import (
	"slices"
	"time"
)

// DefaultTimeout bounds request handling unless Config.Timeout says otherwise.
const DefaultTimeout = 30 * time.Second

// Config holds the tunables of the default middleware chain.
type Config struct {
	// Timeout bounds request handling; zero disables the timeout middleware.
	Timeout time.Duration
	CORS    CORSConfig
	// QuietdownRoutes are paths the logging middleware skips, e.g. probes.
	QuietdownRoutes []string
	// HideHeaders are redacted before request headers are logged.
	HideHeaders []string
}

// CORSConfig controls the CORS middleware. It is only installed when at
// least one origin is configured.
type CORSConfig struct {
	Origins          []string
	Methods          []string
	Headers          []string
	AllowCredentials bool
}

func (c Config) clone() Config {
	c.QuietdownRoutes = slices.Clone(c.QuietdownRoutes)
	c.HideHeaders = slices.Clone(c.HideHeaders)
	c.CORS = c.CORS.clone()
	return c
}

func (c CORSConfig) clone() CORSConfig {
	c.Origins = slices.Clone(c.Origins)
	c.Methods = slices.Clone(c.Methods)
	c.Headers = slices.Clone(c.Headers)
	return c
}

func (c CORSConfig) enabled() bool {
	return len(c.Origins) > 0
}
