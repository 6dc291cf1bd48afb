package glowpos

// Command represents a discrete application operation with its specific
// options. Commands are created by Parse and executed by the matching method
// on App.
type Command interface {
	// Name returns the CLI sub-command this command was parsed from.
	Name() string
}

// ServeCommand starts the HTTP API server. All configuration comes from the
// application Config.
type ServeCommand struct{}

func (c *ServeCommand) Name() string {
	return "serve"
}

// ExportCommand writes the current collections to a backup file. When Output
// is empty a dated default name is used.
type ExportCommand struct {
	Output string
}

func (c *ExportCommand) Name() string {
	return "export"
}

// ImportCommand replaces the collections with the content of a backup file.
// The file must carry catalog, sales and customers as arrays, either at the
// top level or under "data"; anything else is rejected without touching the
// current state.
type ImportCommand struct {
	Input string
}

func (c *ImportCommand) Name() string {
	return "import"
}

// ResetCommand restores the seed catalog and empties the sales ledger and
// customer roster.
type ResetCommand struct{}

func (c *ResetCommand) Name() string {
	return "reset"
}
