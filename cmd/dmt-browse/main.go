package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	wiring "dmt/internal/adapters"
	"dmt/internal/adapters/editor"
	"dmt/internal/adapters/tui"
	"dmt/internal/application/commands"
)

func main() {
	configFlag := flag.String("config", "", "path to the dmt config file")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: dmt-browse [--config FILE] <file.docx|file.md>")
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, adapters, err := wiring.Load(*configFlag, "", false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	res, err := commands.NewThreadsCommand(adapters, flag.Arg(0), cfg.Pandoc.ExtraArgs).Execute(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := tui.Run(res.Path, res.Graph, editor.NewOpener()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
