// Command itemlist browses the item collection in the terminal.
//
// Without flags it starts the interactive list view. --once prints the first
// page and exits, --dump prints every matching item as JSON lines and
// --health checks the collection service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"github.com/Sternrassler/item-list-client/internal/config"
	"github.com/Sternrassler/item-list-client/internal/tui"
	"github.com/Sternrassler/item-list-client/pkg/client"
	"github.com/Sternrassler/item-list-client/pkg/controller"
	"github.com/Sternrassler/item-list-client/pkg/listing"
	"github.com/Sternrassler/item-list-client/pkg/logging"
	"github.com/Sternrassler/item-list-client/pkg/pagination"
	"github.com/Sternrassler/item-list-client/pkg/view"
)

type options struct {
	apiBase  string
	search   string
	pageSize int
	once     bool
	dump     bool
	health   bool
	parallel int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(stderr, "itemlist: %v\n", err)
		return 2
	}

	opts, err := parseFlags(args, cfg, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "itemlist: %v\n", err)
		return 2
	}

	interactive := !opts.once && !opts.dump && !opts.health
	closeLog, err := setupLogging(cfg, interactive, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "itemlist: %v\n", err)
		return 1
	}
	defer closeLog()

	clientCfg := client.DefaultConfig(opts.apiBase)
	clientCfg.UserAgent = cfg.UserAgent
	clientCfg.Timeout = cfg.RequestTimeout
	c, err := client.New(clientCfg)
	if err != nil {
		fmt.Fprintf(stderr, "itemlist: %v\n", err)
		return 2
	}

	switch {
	case opts.health:
		return runHealth(ctx, c, stdout, stderr)
	case opts.dump:
		return runDump(ctx, c, opts, stdout, stderr)
	case opts.once:
		return runOnce(ctx, c, opts, stdout, stderr)
	default:
		return runInteractive(ctx, c, opts, stderr)
	}
}

func parseFlags(args []string, cfg *config.Client, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("itemlist", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.apiBase, "api", cfg.APIBase, "collection service base URL (API_BASE)")
	fs.StringVarP(&opts.search, "search", "s", "", "initial search text")
	fs.IntVarP(&opts.pageSize, "page-size", "n", cfg.PageSize, "items per page: 5, 10, 20, 50 or 100 (PAGE_SIZE)")
	fs.BoolVar(&opts.once, "once", false, "print the first page and exit")
	fs.BoolVar(&opts.dump, "dump", false, "print every matching item as JSON lines and exit")
	fs.BoolVar(&opts.health, "health", false, "check the collection service and exit")
	fs.IntVar(&opts.parallel, "parallel", pagination.DefaultConfig().MaxConcurrency, "concurrent page requests for --dump")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if _, err := listing.ParsePageSize(opts.pageSize); err != nil {
		return opts, err
	}
	return opts, nil
}

// setupLogging sends logs to LOG_FILE when set. The interactive view owns
// the terminal, so without a log file it runs with logging disabled.
func setupLogging(cfg *config.Client, interactive bool, stderr io.Writer) (func(), error) {
	logCfg := cfg.Log.Logging()
	logCfg.Output = stderr

	if cfg.Log.File != "" {
		_, closer, err := logging.SetupFile(logCfg, cfg.Log.File)
		if err != nil {
			return nil, err
		}
		return func() { closer.Close() }, nil
	}

	if interactive {
		logCfg.Level = logging.LevelDisabled
	}
	logging.Setup(logCfg)
	return func() {}, nil
}

func newController(c *client.Client, opts options) (*controller.Controller, error) {
	size, err := listing.ParsePageSize(opts.pageSize)
	if err != nil {
		return nil, err
	}
	return controller.New(c, controller.Options{
		PageSize: size,
		Search:   opts.search,
	})
}

func runInteractive(ctx context.Context, c *client.Client, opts options, stderr io.Writer) int {
	ctrl, err := newController(c, opts)
	if err != nil {
		fmt.Fprintf(stderr, "itemlist: %v\n", err)
		return 2
	}
	defer ctrl.Close()

	model := tui.New(ctrl)
	if err := ctrl.Start(ctx); err != nil {
		fmt.Fprintf(stderr, "itemlist: %v\n", err)
		return 1
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(stderr, "itemlist: %v\n", err)
		return 1
	}
	return 0
}

func runOnce(ctx context.Context, c *client.Client, opts options, stdout, stderr io.Writer) int {
	ctrl, err := newController(c, opts)
	if err != nil {
		fmt.Fprintf(stderr, "itemlist: %v\n", err)
		return 2
	}
	defer ctrl.Close()

	if err := ctrl.Start(ctx); err != nil {
		fmt.Fprintf(stderr, "itemlist: %v\n", err)
		return 1
	}
	ctrl.Wait()

	screen := view.Render(ctrl.Snapshot())
	for _, line := range screen.Lines() {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout, screen.Summary)

	// a cancelled run never settles and counts as a failure
	if screen.Body == view.BodyError || screen.Body == view.BodyLoading {
		return 1
	}
	return 0
}

func runDump(ctx context.Context, c *client.Client, opts options, stdout, stderr io.Writer) int {
	bf := pagination.NewBatchFetcher(c, pagination.Config{
		MaxConcurrency: opts.parallel,
		Timeout:        pagination.DefaultConfig().Timeout,
	})

	items, err := bf.FetchAll(ctx, opts.search, listing.PageSize(opts.pageSize))
	if err != nil {
		log.Error().Err(err).Msg("Dump failed")
		fmt.Fprintf(stderr, "itemlist: %v\n", err)
		return 1
	}

	enc := json.NewEncoder(stdout)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			fmt.Fprintf(stderr, "itemlist: %v\n", err)
			return 1
		}
	}
	return 0
}

func runHealth(ctx context.Context, c *client.Client, stdout, stderr io.Writer) int {
	if err := c.Health(ctx); err != nil {
		log.Warn().Err(err).Str("base_url", c.BaseURL()).Msg("Health check failed")
		fmt.Fprintf(stderr, "itemlist: %s unhealthy: %v\n", c.BaseURL(), err)
		return 1
	}
	fmt.Fprintf(stdout, "%s ok\n", c.BaseURL())
	return 0
}
