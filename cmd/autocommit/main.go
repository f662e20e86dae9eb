package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/autocommit/cmd/autocommit/commands"
	"git.home.luguber.info/inful/autocommit/internal/version"
)

func main() {
	cli := commands.CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("autocommit"),
		kong.Description("Scheduled git commits with AI-assisted commit messages."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	err := ctx.Run(&commands.Global{}, &cli)
	ctx.FatalIfErrorf(err)
}
