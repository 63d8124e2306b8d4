package fusion

import (
	"fmt"

	"github.com/born-ml/fusion/internal/kernel/codegen"
	"github.com/born-ml/fusion/internal/ops"
	"github.com/born-ml/fusion/internal/tensor"
)

// vectorWidth is the number of scalars per constant-buffer element.
const vectorWidth = 4

// Region is one of the four contiguous parts of the packed constant buffer.
type Region int

// Regions in buffer order.
const (
	RegionDepthwiseBias Region = iota
	RegionDepthwiseWeights
	RegionPointwiseBias
	RegionPointwiseWeights
)

// String returns the short name of the region.
func (r Region) String() string {
	switch r {
	case RegionDepthwiseBias:
		return "dw_bias"
	case RegionDepthwiseWeights:
		return "dw_weights"
	case RegionPointwiseBias:
		return "pw_bias"
	case RegionPointwiseWeights:
		return "pw_weights"
	default:
		return "unknown"
	}
}

// Slot is the meaning of one 4-wide element of the constant buffer.
//
// Group indexes intermediate channel groups for the depthwise regions and
// output groups for the pointwise bias. Pointwise weight slots hold the four
// output lanes of OutGroup that multiply lane InLane of intermediate group InGroup.
type Slot struct {
	Region   Region
	KernelY  int
	KernelX  int
	Group    int
	OutGroup int
	InGroup  int
	InLane   int
}

// String renders the slot for reports.
func (s Slot) String() string {
	switch s.Region {
	case RegionDepthwiseBias, RegionPointwiseBias:
		return fmt.Sprintf("%s[g%d]", s.Region, s.Group)
	case RegionDepthwiseWeights:
		return fmt.Sprintf("%s[y%d x%d g%d]", s.Region, s.KernelY, s.KernelX, s.Group)
	default:
		return fmt.Sprintf("%s[o%d i%d %s]", s.Region, s.OutGroup, s.InGroup, laneName(s.InLane))
	}
}

func laneName(l int) string {
	if l >= 0 && l < 4 {
		return codegen.Lanes[l]
	}
	return "?"
}

// Layout gives the geometry of the packed constant buffer.
type Layout struct {
	DepthwiseChannels int
	KernelH           int
	KernelW           int
	OutputChannels    int
}

// NewLayout returns the layout for a depthwise and 1x1 pair.
func NewLayout(dw ops.DepthwiseConv2DAttributes, pw ops.Conv2DAttributes) Layout {
	k := dw.KernelSize()
	return Layout{
		DepthwiseChannels: dw.Channels(),
		KernelH:           k.H,
		KernelW:           k.W,
		OutputChannels:    pw.OutputChannels(),
	}
}

// IntermediateGroups is the number of 4-channel groups of the depthwise output.
func (l Layout) IntermediateGroups() int {
	return tensor.DivideRoundUp(l.DepthwiseChannels, vectorWidth)
}

// OutputGroups is the number of 4-channel groups of the 1x1 output.
func (l Layout) OutputGroups() int {
	return tensor.DivideRoundUp(l.OutputChannels, vectorWidth)
}

// RegionVectors returns the number of 4-wide elements in region r.
func (l Layout) RegionVectors(r Region) int {
	switch r {
	case RegionDepthwiseBias:
		return l.IntermediateGroups()
	case RegionDepthwiseWeights:
		return l.KernelH * l.KernelW * l.IntermediateGroups()
	case RegionPointwiseBias:
		return l.OutputGroups()
	case RegionPointwiseWeights:
		return l.OutputGroups() * l.IntermediateGroups() * vectorWidth
	default:
		return 0
	}
}

// RegionOffset returns the index of the first 4-wide element of region r.
func (l Layout) RegionOffset(r Region) int {
	offset := 0
	for prev := RegionDepthwiseBias; prev < r; prev++ {
		offset += l.RegionVectors(prev)
	}
	return offset
}

// Vectors returns the number of 4-wide elements in the buffer.
func (l Layout) Vectors() int {
	return l.RegionOffset(RegionPointwiseWeights) + l.RegionVectors(RegionPointwiseWeights)
}

// Len returns the number of scalars in the buffer:
//
//	A(dw) + kh*kw*A(dw) + A(out) + (A(out)/4)*(A(dw)/4)*16
//
// where A rounds up to a multiple of 4.
func (l Layout) Len() int {
	return l.Vectors() * vectorWidth
}

// Slot decodes vector element i. It panics when i is outside the buffer.
func (l Layout) Slot(i int) Slot {
	if i < 0 || i >= l.Vectors() {
		panic(fmt.Sprintf("fusion: slot %d out of range [0, %d)", i, l.Vectors()))
	}
	groups := l.IntermediateGroups()
	for r := RegionPointwiseWeights; r >= RegionDepthwiseBias; r-- {
		start := l.RegionOffset(r)
		if i < start {
			continue
		}
		rel := i - start
		switch r {
		case RegionDepthwiseBias:
			return Slot{Region: r, Group: rel}
		case RegionDepthwiseWeights:
			return Slot{
				Region:  r,
				KernelY: rel / (l.KernelW * groups),
				KernelX: rel / groups % l.KernelW,
				Group:   rel % groups,
			}
		case RegionPointwiseBias:
			return Slot{Region: r, Group: rel}
		default:
			return Slot{
				Region:   r,
				OutGroup: rel / (groups * vectorWidth),
				InGroup:  rel / vectorWidth % groups,
				InLane:   rel % vectorWidth,
			}
		}
	}
	panic("unreachable")
}
