// Package main provides fusegen, a command-line front end for fusing a
// depthwise convolution with the 1x1 convolution that follows it.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "fusegen",
		Usage: "Fuse depthwise + 1x1 convolutions into one generated kernel",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			checkCmd(),
			packCmd(),
			generateCmd(),
			batchCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
