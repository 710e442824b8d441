package internal

import (
	"io/fs"
	"strings"
	"time"

	"rankstream/internal/pkg/validate"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Environment values, set by ValidateEnv.
var (
	Env           string
	LogLevel      string
	Port          uint16
	MetricsPort   uint16
	MaxStreams    uint32
	Host          string
	SendDelay     time.Duration
	DeferredDelay time.Duration
	CutoverMin    time.Duration
	CutoverMax    time.Duration
	CacheTTL      time.Duration
)

type settings struct {
	Env             string `validate:"oneof=development production test"`
	LogLevel        string `validate:"oneof=trace debug info warn error"`
	Port            int    `validate:"min=1,max=65535"`
	MetricsPort     int    `validate:"min=0,max=65535"`
	MaxStreams      int    `validate:"min=1"`
	Host            string `validate:"required"`
	SendDelayMS     int    `validate:"min=0"`
	DeferredDelayMS int    `validate:"min=0"`
	CutoverMinMS    int    `validate:"min=0"`
	CutoverMaxMS    int    `validate:"gtefield=CutoverMinMS"`
	CacheTTLMS      int    `validate:"min=0"`
}

// ValidateEnv loads an optional .env file, reads every flag's value from the
// flags, environment or defaults, validates them and publishes them in the
// package variables.
func ValidateEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "load .env failed")
	}
	s := settings{
		Env:             strings.ToLower(viper.GetString(EnvFlag.Name)),
		LogLevel:        strings.ToLower(viper.GetString(LogLevelFlag.Name)),
		Port:            viper.GetInt(PortFlag.Name),
		MetricsPort:     viper.GetInt(MetricsPortFlag.Name),
		MaxStreams:      viper.GetInt(MaxStreamsFlag.Name),
		Host:            viper.GetString(HostFlag.Name),
		SendDelayMS:     viper.GetInt(SendDelayMSFlag.Name),
		DeferredDelayMS: viper.GetInt(DeferredDelayMSFlag.Name),
		CutoverMinMS:    viper.GetInt(CutoverMinMSFlag.Name),
		CutoverMaxMS:    viper.GetInt(CutoverMaxMSFlag.Name),
		CacheTTLMS:      viper.GetInt(CacheTTLMSFlag.Name),
	}
	if err := validate.Validate().Struct(s); err != nil {
		return errors.Wrap(err, "validate environment failed")
	}
	Env = s.Env
	LogLevel = s.LogLevel
	Port = uint16(s.Port)
	MetricsPort = uint16(s.MetricsPort)
	MaxStreams = uint32(s.MaxStreams)
	Host = s.Host
	SendDelay = ms(s.SendDelayMS)
	DeferredDelay = ms(s.DeferredDelayMS)
	CutoverMin = ms(s.CutoverMinMS)
	CutoverMax = ms(s.CutoverMaxMS)
	CacheTTL = ms(s.CacheTTLMS)
	return nil
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
