package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/rulesweb/cmd/rulesweb/commands"
	"git.home.luguber.info/inful/rulesweb/internal/foundation/errors"
	"git.home.luguber.info/inful/rulesweb/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{}
	ctx := kong.Parse(cli,
		kong.Name("rulesweb"),
		kong.Description("Serve versioned rule books from a cached rendering pipeline."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)
	if err := ctx.Run(cli); err != nil {
		adapter := errors.NewCLIErrorAdapter(cli.Verbose, global.Logger)
		adapter.Report(os.Stderr, err)
		os.Exit(adapter.ExitCodeFor(err))
	}
}
