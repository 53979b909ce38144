package cmd

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/nibzard/tasklist/internal/config"
)

// configCommand prints the effective configuration, or an example file.
func (a *app) configCommand(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("unexpected arguments: %v", args[1:])
	}
	if len(args) == 1 {
		if args[0] != "example" {
			return fmt.Errorf("unknown config subcommand: %s", args[0])
		}
		fmt.Fprint(a.stdout, config.ExampleConfig())
		return nil
	}

	if len(a.cfg.Files) == 0 {
		fmt.Fprintln(a.stdout, "# no config files found, showing defaults with env and flags applied")
	} else {
		fmt.Fprintf(a.stdout, "# loaded from: %s\n", strings.Join(a.cfg.Files, ", "))
	}
	shown := *a.cfg
	shown.DSN = redactDSN(shown.DSN)
	return toml.NewEncoder(a.stdout).Encode(shown)
}
