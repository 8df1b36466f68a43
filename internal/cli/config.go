package cli

import (
	"flag"
	"io"
	"time"

	"github.com/Skotchmaster/medflow/internal/config"
	"github.com/Skotchmaster/medflow/pkg/querycache"
)

type Config struct {
	BaseURL   string
	StaleTime time.Duration
}

// ParseFlags reads flags over MEDFLOW_URL and MEDFLOW_STALE_TIME. It returns the
// arguments left after the flags.
func ParseFlags(args []string, errOut io.Writer) (Config, []string, error) {
	cfg := Config{
		BaseURL:   config.EnvDefault("MEDFLOW_URL", "http://localhost:8080"),
		StaleTime: config.EnvDurationDefault("MEDFLOW_STALE_TIME", querycache.DefaultStaleTime),
	}

	fs := flag.NewFlagSet("medflow", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "base URL of the MedFlow API")
	fs.DurationVar(&cfg.StaleTime, "stale", cfg.StaleTime, "how long fetched pages are served from cache")
	if err := fs.Parse(args); err != nil {
		return Config{}, nil, err
	}
	return cfg, fs.Args(), nil
}
