package glowpos

import (
	"context"
	"fmt"
)

// Main is the entry point for the glowpos application. It parses the
// arguments, builds the application and dispatches to the requested command.
// Tests call it directly without building the binary.
//
// # Environment Variables
//
//	KV_REST_API_URL     - Remote key-value REST endpoint (optional)
//	KV_REST_API_TOKEN   - Bearer token for the endpoint (optional)
//	PORT                - Server port (default 8080)
//	SEED_PATH           - Seed catalog JSON file (optional)
//	GLOWPOS_CACHE       - Local cache database file (default glowpos.db)
//	GLOWPOS_REMOTE_URL  - Remote API base URL for the data commands
//	GLOWPOS_LOG         - Log file (default stderr)
//
// When the KV pair is absent the server keeps the document in process memory
// and every response reports storage "memory". This is the documented
// no-backend mode, not an error.
func Main(ctx context.Context, args []string) error {
	cmd, config, err := Parse(args)
	if err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	app, err := New(config)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	switch c := cmd.(type) {
	case *ServeCommand:
		if err := app.Run(ctx, c); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case *ExportCommand:
		if err := app.Export(ctx, c); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
	case *ImportCommand:
		if err := app.Import(ctx, c); err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
	case *ResetCommand:
		if err := app.Reset(ctx, c); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
	default:
		return fmt.Errorf("unknown command type: %T", cmd)
	}

	return nil
}
