package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/nibzard/tasklist/internal/config"
	"github.com/nibzard/tasklist/internal/storage"
	"github.com/nibzard/tasklist/internal/todo"
)

// doctorCommand checks configuration, backend and snapshot health.
func (a *app) doctorCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tasklist doctor", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	verbose := fs.Bool("v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	w := a.stdout
	fmt.Fprintln(w, "Tasklist Doctor")
	fmt.Fprintln(w, "===============")
	fmt.Fprintln(w)

	allOK := true

	// Config
	fmt.Fprintln(w, "Config:")
	if len(a.cfg.Files) == 0 {
		fmt.Fprintln(w, "  ⚠️  No config file (using defaults)")
	} else {
		for _, f := range a.cfg.Files {
			fmt.Fprintf(w, "  ✅ File: %s\n", f)
		}
	}
	if err := a.cfg.Validate(); err != nil {
		fmt.Fprintf(w, "  ❌ %v\n", err)
		allOK = false
	} else {
		fmt.Fprintf(w, "  ✅ Backend: %s\n", a.cfg.Backend)
		fmt.Fprintf(w, "  ✅ Format: %s\n", a.cfg.Format)
		fmt.Fprintf(w, "  ✅ Key: %s\n", a.cfg.Key)
	}
	fmt.Fprintln(w)

	// Backend
	fmt.Fprintln(w, "Storage:")
	switch a.cfg.Backend {
	case config.BackendMemory:
		fmt.Fprintln(w, "  ⚠️  Memory backend does not persist between runs")
	case config.BackendMySQL:
		fmt.Fprintf(w, "  DSN: %s\n", redactDSN(a.cfg.DSN))
	default:
		fmt.Fprintf(w, "  Data dir: %s\n", a.cfg.DataDir)
		info, err := os.Stat(a.cfg.DataDir)
		switch {
		case os.IsNotExist(err):
			fmt.Fprintln(w, "  ⚠️  Not found (will be created on first save)")
		case err != nil:
			fmt.Fprintf(w, "  ❌ Error: %v\n", err)
			allOK = false
		case !info.IsDir():
			fmt.Fprintln(w, "  ❌ Error: path is not a directory")
			allOK = false
		default:
			fmt.Fprintln(w, "  ✅ OK")
		}
	}

	snap, err := a.openSnapshot(ctx)
	if err != nil {
		fmt.Fprintf(w, "  ❌ Backend: %v\n", err)
		allOK = false
	} else {
		defer func() { _ = snap.Close() }()
		fmt.Fprintln(w, "  ✅ Backend reachable")
	}
	fmt.Fprintln(w)

	// Snapshot
	if snap != nil {
		fmt.Fprintf(w, "Snapshot %q:\n", snap.Key())
		tasks, ok, err := snap.Load()
		switch {
		case errors.Is(err, todo.ErrCorruptSnapshot):
			fmt.Fprintln(w, "  ❌ Corrupt (it will be replaced on the next save):")
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Fprintf(w, "     - %s\n", line)
			}
			allOK = false
		case err != nil:
			fmt.Fprintf(w, "  ❌ Load error: %v\n", err)
			allOK = false
		case !ok:
			fmt.Fprintln(w, "  ⚠️  Not found (starts empty)")
		default:
			active := 0
			for _, t := range tasks {
				if !t.Completed {
					active++
				}
			}
			fmt.Fprintln(w, "  ✅ Valid")
			fmt.Fprintf(w, "  Tasks: %d (%d active)\n", len(tasks), active)
			if *verbose {
				printView(w, todo.View{Visible: tasks, ActiveCount: active, Filter: todo.FilterAll})
			}
		}
		if *verbose {
			if file, isFile := snapshotFile(snap); isFile {
				fmt.Fprintf(w, "  Path: %s\n", file)
			}
		}
		fmt.Fprintln(w)
	}

	if allOK {
		fmt.Fprintln(w, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(w, "⚠️  Some checks failed.")
	return fmt.Errorf("doctor checks failed")
}

func snapshotFile(snap *storage.Snapshot) (string, bool) {
	f, ok := snap.Backend().(*storage.File)
	if !ok {
		return "", false
	}
	return f.Path(snap.Key()), true
}

// redactDSN hides the password in a MySQL DSN. A DSN the driver cannot
// parse is replaced entirely since its credentials cannot be located.
func redactDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "(unparseable DSN)"
	}
	if cfg.Passwd != "" {
		cfg.Passwd = "***"
	}
	return cfg.FormatDSN()
}
