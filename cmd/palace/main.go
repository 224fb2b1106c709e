// cmd/palace is a command line front end to the palace game controller.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/palace/internal/cache"
	"github.com/jason-s-yu/palace/internal/config"
	"github.com/jason-s-yu/palace/internal/controller"
	"github.com/jason-s-yu/palace/internal/database"
	_ "github.com/joho/godotenv/autoload"
)

const usage = `usage: palace [-no-redis] <command> [flags]

commands:
  new      -player ID [-rules JSON]       start a game
  join     -game ID -player ID            join a game, dealing once it is full
  act      -game ID -player ID -action A [-cards h-0,h-1]
  state    -game ID -player ID            show the game as the player sees it
  check    -game ID                       print the game checksum
  games    -player ID [-finished]         list the player's games
  open     -player ID                     list games the player can join
  migrate                                 create the database tables
  demo     [-players N] [-seed S]         play a bot game in memory
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "palace:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	global := flag.NewFlagSet("palace", flag.ContinueOnError)
	global.Usage = func() { fmt.Fprint(global.Output(), usage) }
	noRedis := global.Bool("no-redis", false, "skip the action log and checksum cache")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("no command given")
	}
	cmd, rest := global.Arg(0), global.Args()[1:]

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd == "demo" {
		return runDemo(ctx, rest, out, logger)
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cmd == "migrate" {
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
		logger.Info("database migrated")
		return nil
	}

	var opts []controller.Option
	if !*noRedis {
		rdb, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.DB)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, continuing without action log")
		} else {
			defer rdb.Close()
			opts = append(opts,
				controller.WithActionLog(cache.NewActionLog(rdb, cfg.Historian.QueueName)),
				controller.WithChecksumCache(cache.NewChecksumCache(rdb, cfg.Redis.ChecksumTTL)),
			)
		}
	}
	c := controller.New(database.NewPostgresStore(pool), logger, opts...)

	dbCtx, cancel := context.WithTimeout(ctx, cfg.DBTimeout)
	defer cancel()
	return dispatch(dbCtx, c, cmd, rest, out)
}

func dispatch(ctx context.Context, c *controller.Controller, cmd string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	gameID := fs.Int("game", 0, "game id")
	playerID := fs.Int("player", 0, "player id")

	switch cmd {
	case "new":
		rulesJSON := fs.String("rules", "", `requested settings as an object or a serialized form`)
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := requireID("player", *playerID); err != nil {
			return err
		}
		requested, err := parseRequestedRules(*rulesJSON)
		if err != nil {
			return err
		}
		resp, err := c.StartNewGame(ctx, *playerID, requested)
		if err != nil {
			return err
		}
		return writeJSON(out, resp)

	case "join":
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := requireID("game", *gameID); err != nil {
			return err
		}
		if err := requireID("player", *playerID); err != nil {
			return err
		}
		resp, err := c.AddToGame(ctx, *gameID, *playerID)
		if err != nil {
			return err
		}
		return writeJSON(out, resp)

	case "act":
		action := fs.String("action", "", "swap, no_swap, play or pick")
		cards := fs.String("cards", "", "comma separated card descriptions")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := requireID("game", *gameID); err != nil {
			return err
		}
		if err := requireID("player", *playerID); err != nil {
			return err
		}
		resp, err := c.PlayCards(ctx, *gameID, *playerID, newRequest(*action, *cards))
		if err != nil {
			return err
		}
		return writeJSON(out, resp)

	case "state":
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := requireID("game", *gameID); err != nil {
			return err
		}
		if err := requireID("player", *playerID); err != nil {
			return err
		}
		view, err := c.GameState(ctx, *gameID, *playerID)
		if err != nil {
			return err
		}
		return writeJSON(out, view)

	case "check":
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := requireID("game", *gameID); err != nil {
			return err
		}
		sum, err := c.CheckState(ctx, *gameID)
		if err != nil {
			return err
		}
		return writeJSON(out, map[string]interface{}{"game_id": *gameID, "checksum": sum})

	case "games":
		finished := fs.Bool("finished", false, "include finished games")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := requireID("player", *playerID); err != nil {
			return err
		}
		games, err := c.ListGames(ctx, *playerID, *finished)
		if err != nil {
			return err
		}
		return writeJSON(out, games)

	case "open":
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := requireID("player", *playerID); err != nil {
			return err
		}
		games, err := c.GamesLookingForPlayers(ctx, *playerID)
		if err != nil {
			return err
		}
		return writeJSON(out, games)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// requireID rejects an id flag that was left unset or is not positive.
func requireID(flagName string, id int) error {
	if id <= 0 {
		return fmt.Errorf("-%s is required and must be a positive id", flagName)
	}
	return nil
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
