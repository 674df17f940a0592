package commands

import (
	"context"
	"fmt"
)

// CleanCacheCmd implements the 'clean-cache' command.
type CleanCacheCmd struct{}

func (c *CleanCacheCmd) Run(g *Global, root *CLI) error {
	app, err := loadApp(g, root)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	removed, err := app.Cleaner().Clean(context.Background())
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.stdout(), "Removed %d stale cache entries\n", removed)
	return nil
}
