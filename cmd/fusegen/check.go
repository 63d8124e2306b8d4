package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func checkCmd() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Report whether a problem can be fused, and why not",
		ArgsUsage: "<problem.yaml|problem.json>",
		Flags:     commonFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			p, err := problemArg(cmd)
			if err != nil {
				return err
			}
			dw, pw, err := p.Attributes()
			if err != nil {
				return err
			}

			v := s.cfg.Thresholds.Check(dw, pw)
			fmt.Printf("problem:    %s\n", p.Name)
			fmt.Printf("legal:      %t\n", v.Legal)
			fmt.Printf("profitable: %t\n", v.Profitable)
			fmt.Printf("fusable:    %t\n", v.Fusable())
			for _, reason := range v.Reasons {
				fmt.Printf("  - %s\n", reason)
			}
			return nil
		},
	}
}
