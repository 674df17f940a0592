package commands

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"git.home.luguber.info/inful/rulesweb/internal/foundation/errors"
	"git.home.luguber.info/inful/rulesweb/internal/logfields"
)

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	Target string `arg:"" optional:"" default:"/" help:"Request path with optional query, e.g. /tables?tables=zbroj"`
	Output string `short:"o" help:"Write the page to this file instead of stdout"`
}

func (r *RenderCmd) Run(g *Global, root *CLI) error {
	u, err := url.Parse(r.Target)
	if err != nil {
		return errors.ValidationError("invalid render target").WithContext("target", r.Target).Build()
	}

	app, err := loadApp(g, root)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	route, body, err := app.Render(context.Background(), u)
	if err != nil {
		return err
	}
	g.Logger.Info("Rendered page",
		logfields.Kind(route.Kind.String()),
		logfields.Identity(route.Identity),
		logfields.Bytes(len(body)))

	if r.Output == "" {
		_, err = g.stdout().Write(body)
		return err
	}
	if err := os.WriteFile(r.Output, body, 0o600); err != nil {
		return errors.FileSystemError(err, "failed to write rendered page").WithContext("path", r.Output).Fatal().Build()
	}
	_, _ = fmt.Fprintf(g.stdout(), "Wrote %s\n", r.Output)
	return nil
}
