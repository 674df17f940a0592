package commands

import (
	"fmt"

	"git.home.luguber.info/inful/rulesweb/internal/assets"
	"git.home.luguber.info/inful/rulesweb/internal/logfields"
)

// AssetsCmd implements the 'assets' command.
type AssetsCmd struct {
	Root   string `arg:"" help:"Directory to scan" type:"path"`
	Suffix string `short:"s" default:".css" help:"File suffix to collect"`
	Sorted bool   `help:"Order files of equal depth by path"`
	Depth  bool   `short:"d" help:"Print the depth of every file"`
}

func (a *AssetsCmd) Run(g *Global, _ *CLI) error {
	opts := []assets.Option{assets.WithLogger(g.Logger)}
	if a.Sorted {
		opts = append(opts, assets.WithSortedSiblings())
	}
	layers, err := assets.NewResolver(a.Suffix, opts...).Layers(a.Root)
	if layers == nil && err != nil {
		return err
	}
	if err != nil {
		g.Logger.Warn("Some directories could not be scanned", logfields.Root(a.Root), logfields.Error(err))
	}

	out := g.stdout()
	for _, l := range layers {
		if a.Depth {
			_, _ = fmt.Fprintf(out, "%d\t%s\n", l.Depth, l.RelativePath)
			continue
		}
		_, _ = fmt.Fprintln(out, l.RelativePath)
	}
	return nil
}
