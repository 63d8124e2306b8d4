package main

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/born-ml/fusion/internal/backend/cpu"
	"github.com/born-ml/fusion/internal/logger"
)

var showArgs bool

func generateCmd() *cli.Command {
	flags := append(commonFlags(),
		outFlag("write the kernel source to this file"),
		&cli.BoolFlag{
			Name:        "args",
			Usage:       "append the argument table as a comment block",
			Destination: &showArgs,
		},
	)
	return &cli.Command{
		Name:      "generate",
		Usage:     "Generate the fused kernel source for a problem",
		ArgsUsage: "<problem.yaml|problem.json>",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			p, err := problemArg(cmd)
			if err != nil {
				return err
			}

			host := cpu.New()
			r, op, err := build(logger.WithContext(ctx, s.log), s, host, p)
			if err != nil {
				return err
			}
			if op == nil {
				return fmt.Errorf("generate: %s is not fusable: %v", p.Name, r.Reasons)
			}
			defer op.Release()

			w, closeOut, err := output()
			if err != nil {
				return err
			}
			if _, err := io.WriteString(w, op.Code()); err != nil {
				_ = closeOut()
				return err
			}
			if showArgs {
				fmt.Fprintf(w, "\n/*\n%s*/\n", op.Args())
			}
			if r.Grid != nil {
				s.log.Info("dispatch", "grid", *r.Grid, "work_groups", *r.WorkGroups, "work_group_size", op.WorkGroupSize())
			}
			return closeOut()
		},
	}
}
