// Package cli implements the statements subcommands.
package cli

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"github.com/jask/statements/internal/adapters"
	"github.com/jask/statements/internal/config"
	"github.com/jask/statements/internal/database"
	"github.com/jask/statements/internal/logging"
	"github.com/jask/statements/internal/refdata"
	"github.com/jask/statements/internal/symbols"
)

// App carries what every command needs: configuration, output streams and a
// logger.
type App struct {
	Config config.Config
	Out    io.Writer
	Err    io.Writer
	Log    zerolog.Logger
}

// NewApp builds an App writing reports to stdout and logs to stderr.
func NewApp(cfg config.Config) *App {
	return &App{
		Config: cfg,
		Out:    os.Stdout,
		Err:    os.Stderr,
		Log:    logging.New(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty}),
	}
}

// Commands lists every subcommand bound to a.
func (a *App) Commands() []subcommands.Command {
	return []subcommands.Command{
		&importCmd{app: a},
		&exportCmd{app: a},
		&checkCmd{app: a},
		&statusCmd{app: a},
		&platformsCmd{app: a},
	}
}

// Register adds the commands of a and the built-in help commands to cdr.
func (a *App) Register(cdr *subcommands.Commander) {
	cdr.Register(cdr.HelpCommand(), "")
	cdr.Register(cdr.FlagsCommand(), "")
	cdr.Register(cdr.CommandsCommand(), "")
	for _, c := range a.Commands() {
		cdr.Register(c, "")
	}
}

func (a *App) openDB() (*sql.DB, error) {
	db, err := database.Bootstrap(a.Config.Database.Driver, a.Config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", a.Config.Database.Path, err)
	}
	return db, nil
}

func (a *App) adapterOptions() (adapters.Options, error) {
	ref, err := refdata.Load(a.Config.Refdata.Path)
	if err != nil {
		return adapters.Options{}, err
	}
	return adapters.Options{
		Symbols:         symbols.FromReference(ref, a.Config.Symbols.Offline, a.Config.Symbols.CacheTTL, a.Log),
		Rates:           ref,
		DefaultCurrency: a.Config.Coinbase.DefaultCurrency,
		Log:             a.Log,
	}, nil
}

// fail prints err and returns the failure status.
func (a *App) fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(a.Err, errorStyle.Render("error:"), err)
	return subcommands.ExitFailure
}
