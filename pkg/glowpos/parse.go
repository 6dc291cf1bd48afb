package glowpos

import (
	"flag"
	"fmt"
)

// Parse parses command line arguments and returns the command to execute and
// the application configuration. Configuration defaults come from the
// environment; flags override them.
func Parse(args []string) (Command, *Config, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	flagSet := flag.NewFlagSet("glowpos", flag.ContinueOnError)

	var (
		port   = flagSet.String("port", config.Port, "Server port")
		seed   = flagSet.String("seed", config.SeedPath, "Seed catalog JSON file used when the backend holds no document")
		cache  = flagSet.String("cache", config.CachePath, "Local cache database file")
		remote = flagSet.String("remote", config.RemoteURL, "Base URL of the remote API for the data commands")
		logOut = flagSet.String("log", config.LogPath, "Log file (default stderr)")
		out    = flagSet.String("out", "", "Backup file written by export (default skc-backup-<date>.json)")
		in     = flagSet.String("in", "", "Backup file read by import")
	)

	if err := flagSet.Parse(args); err != nil {
		return nil, nil, err
	}

	remainingArgs := flagSet.Args()
	if len(remainingArgs) == 0 {
		return nil, nil, fmt.Errorf(`subcommand required

Usage: glowpos [flags] <command>

Commands:
  serve     Start the glowpos API server
  export    Write the collections to a backup file
  import    Replace the collections with a backup file
  reset     Restore the seed catalog and empty sales and customers

Examples:
  # Serve against the configured KV backend
  KV_REST_API_URL=... KV_REST_API_TOKEN=... glowpos serve

  # Serve without a backend (document lives in process memory)
  glowpos serve

  # Data commands against a local cache and a running server
  glowpos -remote http://localhost:8080 export
  glowpos -remote http://localhost:8080 import -in skc-backup-2026-01-15.json
  glowpos reset

  # Custom port and seed catalog
  glowpos -port=8090 -seed=catalog.json serve`)
	}

	var cmd Command
	switch remainingArgs[0] {
	case "serve":
		cmd = &ServeCommand{}
	case "export":
		cmd = &ExportCommand{Output: *out}
	case "import":
		cmd = &ImportCommand{Input: *in}
	case "reset":
		cmd = &ResetCommand{}
	default:
		return nil, nil, fmt.Errorf("unknown command: %s\n\nValid commands: serve, export, import, reset", remainingArgs[0])
	}

	config.Port = *port
	config.SeedPath = *seed
	config.CachePath = *cache
	config.RemoteURL = *remote
	config.LogPath = *logOut

	return cmd, config, nil
}
