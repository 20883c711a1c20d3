package config

import (
	"flag"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

var knownFlags = []string{"-a", "-g", "-d", "-driver", "-s", "-t", "-e", "-log-format", "-log-level", "-timeout", "-cors"}

// parseFlags overlays command-line flags.
//
//	-a string         HTTP bind address (":8000")
//	-g string         gRPC bind address (":50051")
//	-d string         database DSN
//	-driver string    database driver: postgres | sqlite
//	-s string         token signing secret
//	-t int            access token validity, minutes
//	-e string         environment name
//	-log-format       json | text | zerolog | zap
//	-log-level        debug | info | warn | error
//	-timeout duration per-request store timeout
//	-cors string      comma-separated allowed origins
//
// Unrecognised arguments (for example -c) are filtered out first.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("gophauth", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.DatabaseDriver, "driver", config.DatabaseDriver, "database driver")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	ttl := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (minutes)")
	fs.StringVar(&config.Environment, "e", config.Environment, "environment")
	fs.StringVar(&config.LogFormat, "log-format", config.LogFormat, "log format")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	fs.DurationVar(&config.RequestTimeout, "timeout", config.RequestTimeout, "request timeout")
	cors := fs.String("cors", strings.Join(config.CORSOrigins, ","), "allowed CORS origins")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// only touch derived fields when the flag was actually given
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = minutes(*ttl)
		case "cors":
			config.CORSOrigins = splitList(*cors)
		}
	})
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
