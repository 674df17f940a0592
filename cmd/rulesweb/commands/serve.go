package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/rulesweb/internal/logfields"
	"git.home.luguber.info/inful/rulesweb/internal/server"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr string `short:"a" help:"Listen address, overrides server.addr"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	app, err := loadApp(g, root)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			g.Logger.Warn("Failed to release resources", logfields.Error(cerr))
		}
	}()
	if s.Addr != "" {
		app.Config.Server.Addr = s.Addr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return server.New(app).Run(ctx)
}
