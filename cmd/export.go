package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nibzard/tasklist/internal/export"
	"github.com/nibzard/tasklist/internal/todo"
)

// exportCommand writes the visible tasks in a chosen format.
func (a *app) exportCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tasklist export", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	format := fs.String("format", "json", "Output format (json|yaml|toml|csv|pdf)")
	filterName := fs.String("filter", "all", "Filter (all|active|completed)")
	out := fs.String("out", "", "Write to file instead of stdout")
	title := fs.String("title", "Tasks", "Heading for pdf output")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	filter, err := todo.ParseFilter(*filterName)
	if err != nil {
		return err
	}

	return a.withStore(ctx, func(store *todo.Store) error {
		store.SetFilter(filter)
		data, err := export.NewExporter(store, export.WithTitle(*title)).Export(*format)
		if err != nil {
			return err
		}

		if *out == "" {
			_, err := a.stdout.Write(data)
			return err
		}
		path := *out
		if !filepath.IsAbs(path) {
			path = filepath.Join(a.cfg.ProjectRoot, path)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		a.logger.Info("Exported tasks", "format", *format, "path", path, "bytes", len(data))
		return nil
	})
}
