package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/juju/errors"
	"github.com/mattn/go-isatty"
	"github.com/temoto/panel/cmd/panel/console"
	"github.com/temoto/panel/cmd/panel/run"
	"github.com/temoto/panel/cmd/panel/subcmd"
	"github.com/temoto/panel/internal/state"
	"github.com/temoto/panel/log2"
)

var BuildVersion = "unknown" // set by ldflags -X

var log = log2.NewStderr(log2.LDebug)

var modules = []subcmd.Mod{
	run.Mod,
	console.Mod,
}

func main() {
	flagConfig := flag.String("config", "panel.hcl", "")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [option...] command\n", os.Args[0])
		fmt.Fprintf(flag.CommandLine.Output(), "Commands: %s\n", subcmd.Names(modules))
		flag.PrintDefaults()
	}
	flag.Parse()

	if subcmd.SdNotify("start") {
		// we're under systemd, assume systemd journal logging, remove timestamp
		log.SetFlags(log2.LServiceFlags)
	} else if isatty.IsTerminal(os.Stderr.Fd()) {
		log.SetFlags(log2.LInteractiveFlags)
	}

	mod, err := subcmd.Parse(flag.Arg(0), modules)
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("panel version=%s command=%s", BuildVersion, mod.Name)

	config := state.MustReadConfig(log, state.NewOsFullReader(), *flagConfig)
	ctx, g := state.NewContext(log)
	g.BuildVersion = BuildVersion
	if err := mod.Main(ctx, config); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
}
