package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// parseFlags overlays command-line flags:
//
//	-a string          server host:port
//	-timeout duration  per-call timeout
//	-retry duration    how long to retry while the server is unavailable
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-timeout", "-retry"})

	fs := flag.NewFlagSet("gophauth-cli", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "per-call timeout")
	fs.DurationVar(&cfg.RetryMaxElapsed, "retry", cfg.RetryMaxElapsed, "retry window while the server is unavailable")

	return fs.Parse(args)
}
