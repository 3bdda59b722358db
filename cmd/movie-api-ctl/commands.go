package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mayyinandprojects/Movie-API/internal/app"
	"github.com/mayyinandprojects/Movie-API/internal/auth"
	"github.com/mayyinandprojects/Movie-API/internal/config"
	"github.com/mayyinandprojects/Movie-API/internal/domain"
	"github.com/mayyinandprojects/Movie-API/internal/service"
	"github.com/mayyinandprojects/Movie-API/migrations"
	"github.com/mayyinandprojects/Movie-API/pkg/database"
)

func hashPasswordCmd() *cli.Command {
	var cost int
	return &cli.Command{
		Name:  "hash-password",
		Usage: "Hash a password read from stdin, e.g. to seed or reset an account",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "cost",
				Usage:       "bcrypt cost factor (4-31)",
				Value:       auth.DefaultBcryptCost,
				EnvVars:     []string{"BCRYPT_COST"},
				Destination: &cost,
			},
		},
		Action: func(c *cli.Context) error {
			password, err := readSecret(c)
			if err != nil {
				return err
			}

			hasher, err := auth.NewPasswordHasher(cost)
			if err != nil {
				return err
			}
			hash, err := hasher.Hash(password)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(c.App.Writer, hash)
			return err
		},
	}
}

func issueTokenCmd() *cli.Command {
	var username string
	return &cli.Command{
		Name:  "issue-token",
		Usage: "Issue a bearer token for an existing user without their password",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "username",
				Aliases:     []string{"u"},
				Usage:       "user to issue the token for",
				Destination: &username,
				Required:    true,
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := commandLogger(c)

			tokens, err := auth.NewTokenManager(cfg.AuthConfig())
			if err != nil {
				return err
			}

			store, err := app.OpenStore(c.Context, cfg, log)
			if err != nil {
				return err
			}
			defer store.Close(c.Context)

			user, err := store.Users.GetByUsername(c.Context, username)
			if err != nil {
				return fmt.Errorf("look up %q: %w", username, err)
			}

			token, err := tokens.Issue(user)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, token)
			return err
		},
	}
}

func migrateCmd() *cli.Command {
	var dryRun bool
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply the Postgres migrations, or create the Mongo indexes",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "list the Postgres migration files without applying them",
				Destination: &dryRun,
			},
		},
		Action: func(c *cli.Context) error {
			if dryRun {
				names, err := database.PendingMigrations(migrations.FS)
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(c.App.Writer, n)
				}
				return nil
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := commandLogger(c)

			if cfg.StoreDriver == config.DriverMongo {
				store, err := app.OpenStore(c.Context, cfg, log)
				if err != nil {
					return err
				}
				fmt.Fprintln(c.App.Writer, "mongo indexes ensured")
				return store.Close(c.Context)
			}

			pool, err := app.ConnectPostgres(c.Context, cfg, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := database.RunMigrations(c.Context, pool, migrations.FS, log)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(c.App.Writer, "schema is up to date")
			}
			for _, v := range applied {
				fmt.Fprintln(c.App.Writer, "applied", v)
			}
			return nil
		},
	}
}

func seedMoviesCmd() *cli.Command {
	var file string
	return &cli.Command{
		Name:  "seed-movies",
		Usage: "Load a JSON array of movies into the catalog, replacing movies with the same id",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "JSON file to read, or - for stdin",
				Value:       "-",
				Destination: &file,
			},
		},
		Action: func(c *cli.Context) error {
			movies, err := readMovies(c, file)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := commandLogger(c)

			store, err := app.OpenStore(c.Context, cfg, log)
			if err != nil {
				return err
			}
			defer store.Close(c.Context)

			n, err := service.NewMovieService(store.Movies).Import(c.Context, movies)
			fmt.Fprintf(c.App.Writer, "seeded %d of %d movies\n", n, len(movies))
			return err
		},
	}
}

func readMovies(c *cli.Context, file string) ([]domain.Movie, error) {
	r := c.App.Reader
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var movies []domain.Movie
	if err := json.NewDecoder(r).Decode(&movies); err != nil {
		return nil, fmt.Errorf("decode movies: %w", err)
	}
	return movies, nil
}

// readSecret reads the first line of stdin.
func readSecret(c *cli.Context) (string, error) {
	sc := bufio.NewScanner(c.App.Reader)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", errors.New("missing password on stdin")
	}
	secret := strings.TrimRight(sc.Text(), "\r\n")
	if secret == "" {
		return "", errors.New("missing password on stdin")
	}
	return secret, nil
}
