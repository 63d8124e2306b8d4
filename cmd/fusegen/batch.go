package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/born-ml/fusion/internal/backend/cpu"
	"github.com/born-ml/fusion/internal/config"
	"github.com/born-ml/fusion/internal/kernel"
	"github.com/born-ml/fusion/internal/logger"
)

var jobs int64

func batchCmd() *cli.Command {
	flags := append(commonFlags(),
		outFlag("write the JSON report to this file"),
		&cli.Int64Flag{
			Name:        "jobs",
			Aliases:     []string{"j"},
			Usage:       "problems built concurrently (0 = GOMAXPROCS)",
			Destination: &jobs,
		},
	)
	return &cli.Command{
		Name:      "batch",
		Usage:     "Build many problems concurrently and print a JSON report",
		ArgsUsage: "<problem>...",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if cmd.Args().Len() == 0 {
				return errors.New("batch: no problem files given")
			}

			ctx = logger.WithContext(ctx, s.log)
			reports, err := runBatch(ctx, s, cpu.New(), cmd.Args().Slice(), int(jobs))
			if err != nil {
				return err
			}

			w, closeOut, err := output()
			if err != nil {
				return err
			}
			if err := writeReports(w, reports); err != nil {
				_ = closeOut()
				return err
			}
			if err := closeOut(); err != nil {
				return err
			}

			failed := 0
			for _, r := range reports {
				if r.Error != "" {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("batch: %d of %d problems failed", failed, len(reports))
			}
			return nil
		},
	}
}

// runBatch builds every problem file with at most limit in flight. Per-problem
// failures are recorded in the reports; only cancellation aborts the batch.
func runBatch(ctx context.Context, s settings, alloc kernel.Allocator, paths []string, limit int) ([]report, error) {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	reports := make([]report, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			p, err := config.LoadProblem(path)
			if err != nil {
				reports[i] = report{Name: path, Error: err.Error()}
				return nil
			}
			r, op, err := build(ctx, s, alloc, p)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			if err != nil {
				r.Error = err.Error()
				logger.FromContext(ctx).Warn("problem failed", "problem", p.Name, "error", err)
			}
			if op != nil {
				op.Release()
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func writeReports(w io.Writer, reports []report) error {
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
