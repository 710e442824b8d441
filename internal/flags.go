// Package internal holds the command line flags and the validated
// environment shared by the rankstream apps.
//
// Every flag can also be set through the environment as RANKSTREAM_<NAME>,
// with dashes replaced by underscores, or through a .env file in the working
// directory.
package internal

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by rankstream.
const EnvPrefix = "RANKSTREAM"

// Flag is a command line flag bound to a configuration key of the same name.
// Default must be a string or an int.
type Flag struct {
	Name    string
	Usage   string
	Default interface{}
}

// Flag definitions.
var (
	EnvFlag = Flag{
		Name:    "env",
		Usage:   "deployment environment (development, production, test)",
		Default: "development",
	}
	LogLevelFlag = Flag{
		Name:    "log-level",
		Usage:   "log level (trace, debug, info, warn, error)",
		Default: "info",
	}
	PortFlag = Flag{
		Name:    "port",
		Usage:   "gRPC port the server listens on and the client connects to",
		Default: 50051,
	}
	MetricsPortFlag = Flag{
		Name:    "metrics-port",
		Usage:   "port serving Prometheus metrics on /metrics, 0 to disable",
		Default: 9090,
	}
	MaxStreamsFlag = Flag{
		Name:    "max-streams",
		Usage:   "maximum number of concurrent streams per client connection",
		Default: 100,
	}
	HostFlag = Flag{
		Name:    "host",
		Usage:   "server host the client connects to",
		Default: "localhost",
	}
	SendDelayMSFlag = Flag{
		Name:    "send-delay-ms",
		Usage:   "client delay between the first and second context, in milliseconds",
		Default: 50,
	}
	DeferredDelayMSFlag = Flag{
		Name:    "deferred-delay-ms",
		Usage:   "server delay between version 2 and version 3, in milliseconds",
		Default: 50,
	}
	CutoverMinMSFlag = Flag{
		Name:    "cutover-min-ms",
		Usage:   "lower bound of the client cutover deadline, in milliseconds",
		Default: 30,
	}
	CutoverMaxMSFlag = Flag{
		Name:    "cutover-max-ms",
		Usage:   "upper bound of the client cutover deadline, in milliseconds",
		Default: 120,
	}
	CacheTTLMSFlag = Flag{
		Name:    "cache-ttl-ms",
		Usage:   "server ranking cache TTL in milliseconds, 0 to disable",
		Default: 0,
	}
)

var allFlags = []*Flag{
	&EnvFlag,
	&LogLevelFlag,
	&PortFlag,
	&MetricsPortFlag,
	&MaxStreamsFlag,
	&HostFlag,
	&SendDelayMSFlag,
	&DeferredDelayMSFlag,
	&CutoverMinMSFlag,
	&CutoverMaxMSFlag,
	&CacheTTLMSFlag,
}

func init() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	for _, f := range allFlags {
		viper.SetDefault(f.Name, f.Default)
	}
}

// RegisterCommandFlags adds the flags to cmd as persistent flags and binds
// them to their configuration keys.
func RegisterCommandFlags(cmd *cobra.Command, flags []*Flag) error {
	fs := cmd.PersistentFlags()
	for _, f := range flags {
		if err := addFlag(fs, f); err != nil {
			return err
		}
		if err := viper.BindPFlag(f.Name, fs.Lookup(f.Name)); err != nil {
			return errors.Wrapf(err, "bind flag %s failed", f.Name)
		}
	}
	return nil
}

func addFlag(fs *pflag.FlagSet, f *Flag) error {
	switch d := f.Default.(type) {
	case string:
		fs.String(f.Name, d, f.Usage)
	case int:
		fs.Int(f.Name, d, f.Usage)
	default:
		return errors.Errorf("flag %s has unsupported default type %T", f.Name, f.Default)
	}
	return nil
}
