// Command shopctl manages the shop catalog and cart over the HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Skotchmaster/minishop/internal/cmd/shopctl"
)

const usage = `usage: shopctl [-addr URL] [-y] <command> [args]

commands:
  items                              list items
  search <query>                     search items by name or description
  add-item -name N -price P [-image I] [-desc D] [-stock S]
  update-item <item-id> [-name N] [-price P] [-image I] [-desc D] [-stock S]
  delete-item <item-id>              delete an item and its cart lines
  cart                               show the cart and its total
  add <item-id> [qty]                add an item to the cart
  inc <line-id> [n]                  raise a line's quantity
  dec <line-id> [n]                  lower a line's quantity
  set <line-id> <qty>                set a line's quantity (0 removes it)
  remove <line-id>                   remove a line from the cart
`

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("shopctl", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }

	cfg, err := shopctl.ParseConfig(fs, os.Args[1:], os.LookupEnv)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
			fs.Usage()
		}
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	r := shopctl.NewRunner(cfg, os.Stdin, os.Stdout)
	if err := r.Run(ctx, cfg.Command, cfg.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
