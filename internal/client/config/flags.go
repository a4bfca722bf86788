package config

import (
	"flag"
	"io"
)

func parseFlags(cfg *Config, args []string) ([]string, error) {
	fs := flag.NewFlagSet("sharevault", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port of the server")
	fs.StringVar(&cfg.AccessToken, "k", cfg.AccessToken, "access token")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "per-call timeout")

	// consumed by parseJson
	var path string
	fs.StringVar(&path, "c", "", "path to config file")
	fs.StringVar(&path, "config", "", "path to config file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return fs.Args(), nil
}
