// Package cmd implements the CLI command structure for tasklist.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist/internal/config"
	"github.com/nibzard/tasklist/internal/logging"
	"github.com/nibzard/tasklist/internal/storage"
	"github.com/nibzard/tasklist/internal/todo"
	"github.com/nibzard/tasklist/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// app carries what every subcommand needs.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	stdout io.Writer
	stderr io.Writer
}

// Run executes the tasklist CLI.
func Run(ctx context.Context, args []string) error {
	return RunWithIO(ctx, args, os.Stdout, os.Stderr)
}

// RunWithIO executes the tasklist CLI writing to the given streams.
func RunWithIO(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("tasklist", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cfg, err := config.Load(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, stdout)
		return nil
	}

	logOpts := logging.DefaultOptions()
	if cfg.LogLevel != "" {
		logOpts.Level = cfg.LogLevel
	}
	if cfg.LogFormat != "" {
		logOpts.Format = cfg.LogFormat
	}
	logOpts.ReportTimestamp = cfg.LogTimestamps
	logOpts.ReportCaller = cfg.LogCaller
	logger, err := logging.New(stderr, logOpts)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	a := &app{cfg: cfg, logger: logger, stdout: stdout, stderr: stderr}

	if *showVersion {
		return a.versionCommand()
	}

	// Determine the subcommand; with none, list tasks.
	subcommand := "ls"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	// Execute the subcommand
	switch subcommand {
	case "add":
		return a.addCommand(ctx, remainingArgs)
	case "ls", "list":
		return a.lsCommand(ctx, remainingArgs)
	case "toggle":
		return a.toggleCommand(ctx, remainingArgs)
	case "rm", "remove":
		return a.rmCommand(ctx, remainingArgs)
	case "clear":
		return a.clearCommand(ctx, remainingArgs)
	case "tui":
		return a.tuiCommand(ctx, remainingArgs)
	case "export":
		return a.exportCommand(ctx, remainingArgs)
	case "doctor":
		return a.doctorCommand(ctx, remainingArgs)
	case "config":
		return a.configCommand(remainingArgs)
	case "version":
		return a.versionCommand()
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// openStore builds the configured backend and opens the task store on it.
// A corrupt snapshot is logged and the store starts empty.
func (a *app) openStore(ctx context.Context) (*todo.Store, func() error, error) {
	snap, err := a.openSnapshot(ctx)
	if err != nil {
		return nil, nil, err
	}

	store, err := todo.Open(snap, todo.WithLogger(a.logger))
	if err != nil && !errors.Is(err, todo.ErrCorruptSnapshot) {
		_ = snap.Close()
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	return store, snap.Close, nil
}

func (a *app) openSnapshot(ctx context.Context) (*storage.Snapshot, error) {
	codec, err := storage.CodecFor(a.cfg.Format)
	if err != nil {
		return nil, err
	}

	var kv storage.KV
	switch a.cfg.Backend {
	case config.BackendMemory:
		kv = storage.NewMemory()
	case config.BackendMySQL:
		kv, err = storage.OpenMySQL(ctx, a.cfg.DSN)
	default:
		kv, err = storage.NewFile(a.cfg.DataDir, codec.Ext())
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s backend: %w", a.cfg.Backend, err)
	}

	snap, err := storage.NewSnapshot(kv, codec, a.cfg.Key)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	snap.SetContext(ctx)
	snap.SetTimeout(a.cfg.Timeout())
	a.logger.Debug("Backend ready", "backend", a.cfg.Backend, "format", snap.Codec().Name(), "key", snap.Key())
	return snap, nil
}

// withStore opens the store, runs fn and closes the backend.
func (a *app) withStore(ctx context.Context, fn func(*todo.Store) error) (err error) {
	store, closeFn, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = fmt.Errorf("closing backend: %w", cerr)
		}
	}()
	return fn(store)
}

// addCommand appends a task made of all remaining arguments.
func (a *app) addCommand(ctx context.Context, args []string) error {
	text := strings.Join(args, " ")
	return a.withStore(ctx, func(store *todo.Store) error {
		task, err := store.Add(text)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Added %d: %s\n", task.ID, ui.SanitizeText(task.Text))
		return nil
	})
}

// lsCommand prints the visible tasks and the active count.
func (a *app) lsCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tasklist ls", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	filterName := fs.String("filter", "all", "Filter (all|active|completed)")
	fs.StringVar(filterName, "f", "all", "Filter (all|active|completed)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	remaining := fs.Args()
	if len(remaining) > 1 {
		return fmt.Errorf("unexpected arguments: %v", remaining[1:])
	}
	if len(remaining) == 1 {
		*filterName = remaining[0]
	}
	filter, err := todo.ParseFilter(*filterName)
	if err != nil {
		return err
	}

	return a.withStore(ctx, func(store *todo.Store) error {
		store.SetFilter(filter)
		printView(a.stdout, store.Query())
		return nil
	})
}

// toggleCommand flips the completed flag of one task.
func (a *app) toggleCommand(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	return a.withStore(ctx, func(store *todo.Store) error {
		task, err := store.Toggle(id)
		if err != nil {
			return err
		}
		state := "active"
		if task.Completed {
			state = "completed"
		}
		fmt.Fprintf(a.stdout, "Marked %d %s\n", task.ID, state)
		return nil
	})
}

// rmCommand deletes one task.
func (a *app) rmCommand(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	return a.withStore(ctx, func(store *todo.Store) error {
		if err := store.Remove(id); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Removed %d\n", id)
		return nil
	})
}

// clearCommand removes all completed tasks.
func (a *app) clearCommand(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	return a.withStore(ctx, func(store *todo.Store) error {
		removed, err := store.ClearCompleted()
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Cleared %d completed %s\n", removed, plural(removed, "task", "tasks"))
		return nil
	})
}

// tuiCommand launches the interactive terminal UI.
func (a *app) tuiCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tasklist tui", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	inline := fs.Bool("inline", false, "Render inline instead of using the alternate screen")
	title := fs.String("title", "", "Heading shown above the filter tabs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	return a.withStore(ctx, func(store *todo.Store) error {
		return ui.RunTUI(ctx, store, ui.WithTitle(*title), ui.WithAltScreen(!*inline))
	})
}

// versionCommand prints version information.
func (a *app) versionCommand() error {
	fmt.Fprintf(a.stdout, "tasklist version %s\n", Version)
	return nil
}

// printView prints tasks the way the list view shows them.
func printView(w io.Writer, view todo.View) {
	if len(view.Visible) == 0 {
		fmt.Fprintln(w, "No tasks")
	}
	for _, t := range view.Visible {
		box := "[ ]"
		if t.Completed {
			box = "[x]"
		}
		fmt.Fprintf(w, "%s %d %s\n", box, t.ID, ui.SanitizeText(t.Text))
	}
	fmt.Fprintln(w, view.CountLabel())
}

// parseID reads the single task ID argument.
func parseID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("missing task id")
	}
	if len(args) > 1 {
		return 0, fmt.Errorf("unexpected arguments: %v", args[1:])
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", args[0])
	}
	return id, nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "tasklist - a small to-do list kept in one snapshot")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tasklist [options] [command] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  add <text...>         Add a task")
	fmt.Fprintln(w, "  ls [filter]           List tasks (default command)")
	fmt.Fprintln(w, "  toggle <id>           Toggle a task between active and completed")
	fmt.Fprintln(w, "  rm <id>               Remove a task")
	fmt.Fprintln(w, "  clear                 Remove all completed tasks")
	fmt.Fprintln(w, "  tui                   Launch terminal UI")
	fmt.Fprintln(w, "  export                Export visible tasks (json|yaml|toml|csv|pdf)")
	fmt.Fprintln(w, "  doctor                Check config and storage")
	fmt.Fprintln(w, "  config [example]      Show effective config or an example file")
	fmt.Fprintln(w, "  version               Show version information")
	fmt.Fprintln(w, "  help                  Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ls Options:")
	fmt.Fprintln(w, "  -filter, -f string")
	fmt.Fprintln(w, "        Filter (all|active|completed) (default \"all\")")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Export Options:")
	fmt.Fprintln(w, "  -format string")
	fmt.Fprintln(w, "        Output format (json|yaml|toml|csv|pdf) (default \"json\")")
	fmt.Fprintln(w, "  -filter string")
	fmt.Fprintln(w, "        Filter (all|active|completed) (default \"all\")")
	fmt.Fprintln(w, "  -out string")
	fmt.Fprintln(w, "        Write to file instead of stdout")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tui Options:")
	fmt.Fprintln(w, "  -inline")
	fmt.Fprintln(w, "        Render inline instead of using the alternate screen")
}
