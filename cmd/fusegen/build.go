package main

import (
	"context"
	"errors"

	"github.com/born-ml/fusion/internal/config"
	"github.com/born-ml/fusion/internal/fusion"
	"github.com/born-ml/fusion/internal/kernel"
	"github.com/born-ml/fusion/internal/logger"
)

// report summarizes one problem for the batch output and the pack header.
type report struct {
	Name       string   `json:"name"`
	Fusable    bool     `json:"fusable"`
	Reasons    []string `json:"reasons,omitempty"`
	ID         string   `json:"id,omitempty"`
	Precision  string   `json:"precision"`
	Dialect    string   `json:"dialect"`
	Vectors    int      `json:"vectors,omitempty"`
	Bytes      int      `json:"bytes,omitempty"`
	SourceSize int      `json:"source_bytes,omitempty"`
	Grid       *[3]int  `json:"grid,omitempty"`
	WorkGroups *[3]int  `json:"work_groups,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// build checks p and, when it is fusable, constructs the fused operation with
// constants uploaded through alloc. The operation logs to the Logger carried by
// ctx. A pair that is not fusable yields a report
// and a nil operation without error. The caller releases the operation.
func build(ctx context.Context, s settings, alloc kernel.Allocator, p config.Problem) (report, *fusion.DepthwiseConvPlus1x1Conv, error) {
	r := report{Name: p.Name, Precision: s.def.Precision.String(), Dialect: s.dialect.Name()}
	if err := ctx.Err(); err != nil {
		return r, nil, err
	}

	dw, pw, err := p.Attributes()
	if err != nil {
		return r, nil, err
	}
	verdict := s.cfg.Thresholds.Check(dw, pw)
	r.Fusable = verdict.Fusable()
	r.Reasons = verdict.Reasons
	if !r.Fusable {
		return r, nil, nil
	}

	op, err := fusion.NewDepthwiseConvPlus1x1Conv(fusion.CreationContext{
		Allocator:  alloc,
		Dialect:    s.dialect,
		Thresholds: s.cfg.Thresholds,
		Logger:     logger.FromContext(ctx).With("problem", p.Name),
	}, s.def, dw, pw)
	if errors.Is(err, fusion.ErrNotFusable) {
		r.Fusable = false
		return r, nil, nil
	}
	if err != nil {
		return r, nil, err
	}

	r.ID = op.ID()
	r.Vectors = op.Layout().Vectors()
	r.Bytes = int(op.Constants().Size())
	r.SourceSize = len(op.Code())
	if dst, ok := p.Destination(dw); ok {
		grid := op.GridSize(dst)
		groups := kernel.WorkGroupCount(grid, op.WorkGroupSize())
		r.Grid = &grid
		r.WorkGroups = &groups
	}
	return r, op, nil
}
