package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/born-ml/fusion/internal/fusion"
	"github.com/born-ml/fusion/internal/serialization"
)

var (
	rawPath         string
	safetensorsPath string
	showSlots       bool
)

func packCmd() *cli.Command {
	flags := append(commonFlags(),
		&cli.StringFlag{
			Name:        "raw",
			Usage:       "write the packed constant bytes to this file",
			Destination: &rawPath,
		},
		&cli.StringFlag{
			Name:        "safetensors",
			Usage:       "write the packed regions as a SafeTensors file",
			Destination: &safetensorsPath,
		},
		&cli.BoolFlag{
			Name:        "slots",
			Usage:       "list every 4-wide element with its meaning and values",
			Destination: &showSlots,
		},
	)
	return &cli.Command{
		Name:      "pack",
		Usage:     "Pack a problem's weights and print the constant buffer layout",
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
			dw, pw, err := p.Attributes()
			if err != nil {
				return err
			}
			if v := s.cfg.Thresholds.Check(dw, pw); !v.Fusable() {
				return fmt.Errorf("pack: %w: %s", fusion.ErrNotFusable, strings.Join(v.Reasons, "; "))
			}

			packed := fusion.Pack(dw, pw, s.def.Precision)
			if rawPath != "" {
				if err := os.WriteFile(rawPath, packed.Data, 0o644); err != nil {
					return fmt.Errorf("pack: %w", err)
				}
			}
			layout := fusion.NewLayout(dw, pw)
			if safetensorsPath != "" {
				if err := writeSafeTensors(safetensorsPath, p.Name, s.def.Precision.String(), layout, packed); err != nil {
					return fmt.Errorf("pack: %w", err)
				}
			}
			writeLayout(os.Stdout, layout, packed, showSlots)
			return nil
		},
	}
}

func writeLayout(w io.Writer, layout fusion.Layout, packed fusion.PackedBuffer, slots bool) {
	fmt.Fprintf(w, "type:    %s\n", packed.Type)
	fmt.Fprintf(w, "scalars: %d\n", packed.Len)
	fmt.Fprintf(w, "vectors: %d\n", packed.Vectors())
	fmt.Fprintf(w, "bytes:   %d\n", len(packed.Data))
	for r := fusion.RegionDepthwiseBias; r <= fusion.RegionPointwiseWeights; r++ {
		fmt.Fprintf(w, "  %-10s offset %4d  vectors %4d\n", r, layout.RegionOffset(r), layout.RegionVectors(r))
	}
	if !slots {
		return
	}
	values := packed.Float32s()
	for i := 0; i < layout.Vectors(); i++ {
		v := values[i*4 : i*4+4]
		fmt.Fprintf(w, "%4d %-28s %g %g %g %g\n", i, layout.Slot(i), v[0], v[1], v[2], v[3])
	}
}

// regionEntries splits packed into one [vectors, 4] tensor per region.
func regionEntries(layout fusion.Layout, packed fusion.PackedBuffer) []serialization.Entry {
	vecBytes := 4 * packed.Type.Size()
	entries := make([]serialization.Entry, 0, 4)
	for r := fusion.RegionDepthwiseBias; r <= fusion.RegionPointwiseWeights; r++ {
		start := layout.RegionOffset(r) * vecBytes
		n := layout.RegionVectors(r)
		entries = append(entries, serialization.Entry{
			Name:  r.String(),
			DType: packed.Type,
			Shape: []int{n, 4},
			Data:  packed.Data[start : start+n*vecBytes],
		})
	}
	return entries
}

func writeSafeTensors(path, name, precision string, layout fusion.Layout, packed fusion.PackedBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	meta := map[string]string{
		"problem":   name,
		"precision": precision,
		"kernel":    strconv.Itoa(layout.KernelH) + "x" + strconv.Itoa(layout.KernelW),
		"channels":  strconv.Itoa(layout.DepthwiseChannels),
		"outputs":   strconv.Itoa(layout.OutputChannels),
	}
	if err := serialization.WriteSafeTensors(f, regionEntries(layout, packed), meta); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
