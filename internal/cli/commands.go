package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"github.com/jask/statements/internal/adapters"
	"github.com/jask/statements/internal/database/repository"
	"github.com/jask/statements/internal/export"
	"github.com/jask/statements/internal/service"
)

type importCmd struct {
	app      *App
	dir      string
	platform string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "merge a directory of platform statements into the store" }
func (*importCmd) Usage() string {
	return `import -d <dir> -r <platform>

  Reads every CSV file directly inside <dir> as a statement of <platform>,
  normalizes the rows and appends the new ones to the store. Rows already
  stored are left untouched, so importing the same files again is a no-op.
  Exits non-zero when any file was rejected.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dir, "d", "", "Directory holding the statement files.")
	f.StringVar(&c.platform, "r", "", "Platform of the statements ("+strings.Join(adapters.Platforms(), ", ")+").")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.dir == "" || c.platform == "" {
		fmt.Fprint(c.app.Err, c.Usage())
		return subcommands.ExitUsageError
	}
	opts, err := c.app.adapterOptions()
	if err != nil {
		return c.app.fail(err)
	}
	db, err := c.app.openDB()
	if err != nil {
		return c.app.fail(err)
	}
	defer db.Close()

	res, err := service.NewIngestService(db, opts, c.app.Log).ImportDir(ctx, c.dir, c.platform)
	if err != nil {
		return c.app.fail(err)
	}
	renderRun(c.app.Out, res)
	if res.Failed() > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type exportCmd struct {
	app       *App
	dir       string
	overwrite bool
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the stored tables out as CSV files" }
func (*exportCmd) Usage() string {
	return `export -o <dir> [-overwrite]

  Writes transactions.csv, deposits_and_withdrawals.csv and forex.csv into
  <dir>, ordered by date. Existing files are only replaced with -overwrite.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dir, "o", "", "Output directory.")
	f.BoolVar(&c.overwrite, "overwrite", false, "Replace the CSV files already in the output directory.")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.dir == "" {
		fmt.Fprint(c.app.Err, c.Usage())
		return subcommands.ExitUsageError
	}
	db, err := c.app.openDB()
	if err != nil {
		return c.app.fail(err)
	}
	defer db.Close()

	paths, err := export.Tables(ctx, repository.NewStore(db), c.dir, c.overwrite)
	if errors.Is(err, export.ErrExists) {
		return c.app.fail(fmt.Errorf("%w (use -overwrite)", err))
	}
	if err != nil {
		return c.app.fail(err)
	}
	for _, p := range paths {
		fmt.Fprintln(c.app.Out, okStyle.Render("wrote"), p)
	}
	return subcommands.ExitSuccess
}

type checkCmd struct {
	app *App
}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "list dividends that look stored twice" }
func (*checkCmd) Usage() string {
	return `check

  Reports dividends sharing date, item and rate. The store is not changed.
`
}

func (*checkCmd) SetFlags(*flag.FlagSet) {}

func (c *checkCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	db, err := c.app.openDB()
	if err != nil {
		return c.app.fail(err)
	}
	defer db.Close()

	suspects, err := service.NewValidator(repository.NewTransactionRepo(db), c.app.Log).FindDuplicateSuspects(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	renderSuspects(c.app.Out, suspects)
	return subcommands.ExitSuccess
}

type statusCmd struct {
	app    *App
	recent int
}

func (*statusCmd) Name() string     { return "status" }
func (*statusCmd) Synopsis() string { return "show table sizes and recent imports" }
func (*statusCmd) Usage() string {
	return `status [-n <count>]
`
}

func (c *statusCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.recent, "n", 10, "Number of recent import log entries to show (0 for all).")
}

func (c *statusCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	db, err := c.app.openDB()
	if err != nil {
		return c.app.fail(err)
	}
	defer db.Close()

	sum, err := (&service.MaintenanceService{DB: db}).Summary(ctx, c.recent)
	if err != nil {
		return c.app.fail(err)
	}
	renderSummary(c.app.Out, c.app.Config.Database.Path, sum)
	return subcommands.ExitSuccess
}

type platformsCmd struct {
	app *App
}

func (*platformsCmd) Name() string           { return "platforms" }
func (*platformsCmd) Synopsis() string       { return "list the supported statement platforms" }
func (*platformsCmd) Usage() string          { return "platforms\n" }
func (*platformsCmd) SetFlags(*flag.FlagSet) {}

func (c *platformsCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	renderPlatforms(c.app.Out, adapters.Platforms())
	return subcommands.ExitSuccess
}
