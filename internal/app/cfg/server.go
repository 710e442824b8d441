package cfg

import (
	"time"

	"rankstream/internal"
	"rankstream/internal/app/apps"
)

// ServerCfg is configuration specific to the server app.
type ServerCfg struct {
	metricsPort uint16
	maxStreams  uint32
	cacheTTL    time.Duration
}

// NewServerCfg creates a new ServerCfg from the given config.
func NewServerCfg(metricsPort uint16, maxStreams uint32, cacheTTL time.Duration) *ServerCfg {
	return &ServerCfg{
		metricsPort: metricsPort,
		maxStreams:  maxStreams,
		cacheTTL:    cacheTTL,
	}
}

// ServerFromEnv creates a new ServerCfg from the current environment.
func ServerFromEnv() *ServerCfg {
	return NewServerCfg(internal.MetricsPort, internal.MaxStreams, internal.CacheTTL)
}

// ApplyServerApp applies the ServerCfg to a ServerApp.
func (cfg ServerCfg) ApplyServerApp(app *apps.ServerApp) error {
	app.MetricsPort = cfg.metricsPort
	app.MaxStreams = cfg.maxStreams
	app.CacheTTL = cfg.cacheTTL
	return nil
}

// HostCfg is configuration for the host the client connects to.
type HostCfg struct {
	host string
}

// NewHostCfg creates a new HostCfg from the given config.
func NewHostCfg(host string) *HostCfg {
	return &HostCfg{host: host}
}

// HostFromEnv creates a new HostCfg from the current environment.
func HostFromEnv() *HostCfg {
	return NewHostCfg(internal.Host)
}

// ApplyClientApp applies the HostCfg to a ClientApp.
func (cfg HostCfg) ApplyClientApp(app *apps.ClientApp) error {
	app.Host = cfg.host
	return nil
}
