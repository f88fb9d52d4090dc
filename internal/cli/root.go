// Package cli dispatches the gesturekeeper subcommands. With no command it
// starts the terminal UI.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/sadopc/gesturekeeper/internal/config"
	"github.com/sadopc/gesturekeeper/internal/events"
	"github.com/sadopc/gesturekeeper/internal/keeper"
	"github.com/sadopc/gesturekeeper/internal/logging"
	"github.com/sadopc/gesturekeeper/internal/store"
)

const defaultCommand = "ui"

type command struct {
	name        string
	description string
	configure   func(fs *flag.FlagSet)
	run         func(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error
	// logToFile sends logs to the configured file because the command owns
	// the terminal.
	logToFile bool
}

// AppContext carries what every command needs once configuration is loaded.
type AppContext struct {
	Config config.Config
	Logger *slog.Logger
	Store  *store.Store
	Bus    *events.Bus
	Keeper *keeper.Service

	closers []io.Closer
}

// Close releases the service, database and log file.
func (c *AppContext) Close() {
	if c.Keeper != nil {
		c.Keeper.Close()
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i].Close()
	}
}

type RootCommand struct {
	commands   map[string]command
	stdout     io.Writer
	stderr     io.Writer
	configPath string
	dbPath     string
	logLevel   string
	logFormat  string
}

func NewRootCommand() *RootCommand {
	rc := &RootCommand{
		commands: make(map[string]command),
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}

	rc.register(newUICommand())
	rc.register(newListCommand())
	rc.register(newFeaturesCommand())
	rc.register(newExportCommand())
	rc.register(newPlayCommand())

	return rc
}

func (rc *RootCommand) register(cmd command) {
	rc.commands[cmd.name] = cmd
}

// Execute parses global flags and dispatches to a subcommand.
func (rc *RootCommand) Execute(args []string) error {
	rootFlags := flag.NewFlagSet("gesturekeeper", flag.ContinueOnError)
	rootFlags.SetOutput(rc.stderr)
	rootFlags.Usage = func() { rc.printHelp() }

	rootFlags.StringVar(&rc.configPath, "config", "", "Path to config file (default: ./keeper.toml if present)")
	rootFlags.StringVar(&rc.dbPath, "db", "", "Override the SQLite database path")
	rootFlags.StringVar(&rc.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	rootFlags.StringVar(&rc.logFormat, "log-format", "", "Override log output format (json, text)")

	if err := rootFlags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	remaining := rootFlags.Args()
	name := defaultCommand
	if len(remaining) > 0 {
		name, remaining = remaining[0], remaining[1:]
	}

	subcommand, ok := rc.commands[name]
	if !ok {
		fmt.Fprintf(rc.stderr, "Unknown command %q\n\n", name)
		rc.printHelp()
		return fmt.Errorf("unknown command %q", name)
	}

	fs := flag.NewFlagSet(subcommand.name, flag.ContinueOnError)
	fs.SetOutput(rc.stderr)
	fs.Usage = func() {
		fmt.Fprintf(rc.stdout, "Usage: gesturekeeper %s [flags]\n", subcommand.name)
		if subcommand.description != "" {
			fmt.Fprintln(rc.stdout, subcommand.description)
		}
		fs.PrintDefaults()
	}
	if subcommand.configure != nil {
		subcommand.configure(fs)
	}
	if err := fs.Parse(remaining); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	ctx, err := rc.newAppContext(subcommand.logToFile)
	if err != nil {
		return err
	}
	defer ctx.Close()

	return subcommand.run(fs, fs.Args(), ctx, rc.stdout, rc.stderr)
}

func (rc *RootCommand) newAppContext(logToFile bool) (*AppContext, error) {
	cfg, err := config.Load(rc.configPath)
	if err != nil {
		return nil, err
	}
	if rc.dbPath != "" {
		cfg.Storage.DBPath = rc.dbPath
	}
	if rc.logLevel != "" {
		cfg.Logging.Level = rc.logLevel
	}
	if rc.logFormat != "" {
		cfg.Logging.Format = rc.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx := &AppContext{Config: cfg}

	var out io.Writer = rc.stderr
	if logToFile {
		path, err := cfg.LogFile()
		if err != nil {
			return nil, err
		}
		f, err := logging.OpenFile(path)
		if err != nil {
			return nil, err
		}
		ctx.closers = append(ctx.closers, f)
		out = f
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: out,
	})
	if err != nil {
		ctx.Close()
		return nil, err
	}
	ctx.Logger = logger

	dbPath := cfg.Storage.DBPath
	if dbPath == "" {
		if dbPath, err = store.DefaultDBPath(); err != nil {
			ctx.Close()
			return nil, err
		}
	}
	s, err := store.New(dbPath)
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	ctx.Store = s
	ctx.closers = append(ctx.closers, s)

	ctx.Bus = events.NewBus(logger)
	svc, err := keeper.New(s, ctx.Bus, logger)
	if err != nil {
		ctx.Close()
		return nil, err
	}
	ctx.Keeper = svc

	logger.Info("configuration loaded", "source", cfg.Source, "db", dbPath)
	return ctx, nil
}

func (rc *RootCommand) printHelp() {
	fmt.Fprintln(rc.stdout, "gesturekeeper - record gestures and replay tap sequences")
	fmt.Fprintln(rc.stdout, "")
	fmt.Fprintln(rc.stdout, "Usage: gesturekeeper [global flags] [command] [command flags]")
	fmt.Fprintln(rc.stdout, "Global flags:")
	fmt.Fprintln(rc.stdout, "  --config string      Path to config file (default: ./keeper.toml if present)")
	fmt.Fprintln(rc.stdout, "  --db string          Override the SQLite database path")
	fmt.Fprintln(rc.stdout, "  --log-level string   Override log level (debug, info, warn, error)")
	fmt.Fprintln(rc.stdout, "  --log-format string  Override log output format (json, text)")
	fmt.Fprintln(rc.stdout, "")
	fmt.Fprintln(rc.stdout, "Available commands (default: ui):")

	names := make([]string, 0, len(rc.commands))
	for name := range rc.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(rc.stdout, "  %-10s %s\n", name, rc.commands[name].description)
	}
}
