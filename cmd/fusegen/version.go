package main

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/urfave/cli/v3"
)

// version is overridden at release time with -ldflags "-X main.version=...".
var version = "v0.1.0-dev"

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			fmt.Printf("version:    %s\n", version)
			fmt.Printf("go:         %s\n", runtime.Version())
			if info, ok := debug.ReadBuildInfo(); ok {
				for _, s := range info.Settings {
					if s.Key == "vcs.revision" {
						fmt.Printf("commit:     %s\n", s.Value)
					}
				}
			}
			return nil
		},
	}
}
