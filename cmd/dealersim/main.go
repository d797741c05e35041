package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version    kong.VersionFlag `short:"v" help:"Show version"`
	Run        RunCmd           `cmd:"" help:"Run a simulation and print the comparison"`
	Watch      WatchCmd         `cmd:"" help:"Run a simulation with a live dashboard"`
	History    HistoryCmd       `cmd:"" help:"List stored runs or show one run's summaries"`
	VersionCmd VersionCmd       `cmd:"version" help:"Print the version"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("dealersim"),
		kong.Description("Compare blackjack dealer hit-until strategies by simulation"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
