// Command movie-api-ctl performs operator tasks against a movie API
// deployment: hashing passwords, minting tokens, applying the schema and
// loading the movie catalog.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"

	"github.com/mayyinandprojects/Movie-API/pkg/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		slog.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "movie-api-ctl",
		Usage: "Operator tools for the movie API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error",
				Value:   "warn",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			hashPasswordCmd(),
			issueTokenCmd(),
			migrateCmd(),
			seedMoviesCmd(),
		},
	}
}

func commandLogger(c *cli.Context) *slog.Logger {
	return logger.NewWithWriter("movie-api-ctl", c.String("log-level"), c.App.ErrWriter)
}
