package cfg

import (
	"time"

	"rankstream/internal"
	"rankstream/internal/app/apps"
)

// TimingCfg is configuration for the protocol delays and the client cutover
// range.
type TimingCfg struct {
	sendDelay     time.Duration
	deferredDelay time.Duration
	cutoverMin    time.Duration
	cutoverMax    time.Duration
}

// NewTimingCfg creates a new TimingCfg from the given config.
func NewTimingCfg(sendDelay, deferredDelay, cutoverMin, cutoverMax time.Duration) *TimingCfg {
	return &TimingCfg{
		sendDelay:     sendDelay,
		deferredDelay: deferredDelay,
		cutoverMin:    cutoverMin,
		cutoverMax:    cutoverMax,
	}
}

// TimingFromEnv creates a new TimingCfg from the current environment.
func TimingFromEnv() *TimingCfg {
	return NewTimingCfg(internal.SendDelay, internal.DeferredDelay, internal.CutoverMin, internal.CutoverMax)
}

// ApplyClientApp applies the client side delays to a ClientApp.
func (cfg TimingCfg) ApplyClientApp(app *apps.ClientApp) error {
	app.SendDelay = cfg.sendDelay
	app.CutoverMin = cfg.cutoverMin
	app.CutoverMax = cfg.cutoverMax
	return nil
}

// ApplyServerApp applies the deferred delay to a ServerApp.
func (cfg TimingCfg) ApplyServerApp(app *apps.ServerApp) error {
	app.DeferredDelay = cfg.deferredDelay
	return nil
}
