// Package director parses director command flags and launches the runtime.
package director

import (
	"context"
	"flag"
	"time"

	"github.com/louisbranch/dramaturge/internal/director/app"
	entrypoint "github.com/louisbranch/dramaturge/internal/platform/cmd"
)

// Config holds director command configuration.
type Config struct {
	Port         int           `env:"DRAMATURGE_DIRECTOR_PORT" envDefault:"8093"`
	DBPath       string        `env:"DRAMATURGE_DIRECTOR_DB_PATH" envDefault:"data/director.db"`
	PollInterval time.Duration `env:"DRAMATURGE_DIRECTOR_POLL_INTERVAL" envDefault:"1m"`
	ListLimit    int           `env:"DRAMATURGE_DIRECTOR_LIST_LIMIT" envDefault:"200"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The director health gRPC server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The director SQLite database path")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Orchestration sweep interval")
	fs.IntVar(&cfg.ListLimit, "list-limit", cfg.ListLimit, "Record batch size per sweep query")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the director runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceDirector, func(context.Context) error {
		return app.Run(ctx, app.RuntimeConfig{
			Port:         cfg.Port,
			DBPath:       cfg.DBPath,
			PollInterval: cfg.PollInterval,
			ListLimit:    cfg.ListLimit,
		})
	})
}
