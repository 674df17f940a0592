// Package commands implements the rulesweb command line.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/rulesweb/internal/config"
	"git.home.luguber.info/inful/rulesweb/internal/server"
)

// Global carries state shared by all subcommands.
type Global struct {
	Logger *slog.Logger
	// Stdout receives command output; nil means os.Stdout.
	Stdout io.Writer
}

func (g *Global) stdout() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"rulesweb.yaml" env:"RULESWEB_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve      ServeCmd      `cmd:"" help:"Serve the rules site over HTTP"`
	Render     RenderCmd     `cmd:"" help:"Render one page through the cache and print it"`
	Assets     AssetsCmd     `cmd:"" help:"List the assets of a directory in layer order"`
	CleanCache CleanCacheCmd `cmd:"" name:"clean-cache" help:"Remove cached pages of other content versions"`
	Init       InitCmd       `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; it sets up the default logger.
func (c *CLI) AfterApply(g *Global) error {
	g.Logger = newLogger(c.Verbose, config.LogLevelInfo, config.LogFormatText)
	slog.SetDefault(g.Logger)
	return nil
}

func newLogger(verbose bool, level config.LogLevel, format config.LogFormat) *slog.Logger {
	lvl := level.SlogLevel()
	if verbose {
		lvl = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// loadApp loads the configuration, reconfigures logging from it and builds
// the application.
func loadApp(g *Global, root *CLI) (*server.App, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	g.Logger = newLogger(root.Verbose, cfg.Monitoring.Logging.Level, cfg.Monitoring.Logging.Format)
	slog.SetDefault(g.Logger)
	return server.NewApp(cfg, g.Logger)
}
