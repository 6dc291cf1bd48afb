package glowpos

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/skcglow/glowpos/pkg/backup"
)

const backupFileMode = 0644

// Export writes a versioned snapshot of the collections to a file. When a
// remote API is configured the session is hydrated first so the snapshot
// reflects the shared document rather than a stale cache.
func (a *App) Export(ctx context.Context, cmd *ExportCommand) error {
	stack, err := a.openSession()
	if err != nil {
		return err
	}
	defer stack.close()

	if stack.gateway != nil {
		// Best effort; the local cache serves when the remote is down.
		_ = stack.session.Hydrate(ctx, stack.gateway)
	}

	out := cmd.Output
	if out == "" {
		out = fmt.Sprintf("skc-backup-%s.json", time.Now().Format("2006-01-02"))
	}

	data, err := backup.EncodeSnapshot(stack.session.Export())
	if err != nil {
		return errors.Wrap(err, "encode backup")
	}
	if err := os.WriteFile(out, data, backupFileMode); err != nil {
		return errors.Wrap(err, "write backup file")
	}
	a.log.Info().Str("file", out).Msg("backup exported")
	return nil
}

// Import replaces the collections with the content of a backup file and
// pushes the result to the remote API before exiting.
func (a *App) Import(ctx context.Context, cmd *ImportCommand) error {
	if cmd.Input == "" {
		return errors.New("import requires -in <file>")
	}
	raw, err := os.ReadFile(cmd.Input)
	if err != nil {
		return errors.Wrap(err, "read backup file")
	}

	stack, err := a.openSession()
	if err != nil {
		return err
	}
	defer stack.close()

	if err := stack.session.Import(raw); err != nil {
		return err
	}
	stack.queue.Flush(ctx)
	return nil
}

// Reset restores the seed catalog, empties sales and customers, and pushes
// the reset state to the remote API before exiting.
func (a *App) Reset(ctx context.Context, cmd *ResetCommand) error {
	stack, err := a.openSession()
	if err != nil {
		return err
	}
	defer stack.close()

	stack.session.Reset()
	stack.queue.Flush(ctx)
	return nil
}
