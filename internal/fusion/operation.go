package fusion

import (
	"errors"

	"github.com/google/uuid"

	"github.com/born-ml/fusion/internal/kernel"
	"github.com/born-ml/fusion/internal/kernel/codegen"
	"github.com/born-ml/fusion/internal/logger"
	"github.com/born-ml/fusion/internal/ops"
	"github.com/born-ml/fusion/internal/tensor"
)

// ErrNotFusable is returned when a pair fails the eligibility check. Callers
// should fall back to running the two convolutions separately.
var ErrNotFusable = errors.New("fusion: depthwise and 1x1 convolution cannot be fused")

// CreationContext carries the collaborators needed to build a fused operation.
type CreationContext struct {
	// Allocator uploads the packed constant buffer. Required.
	Allocator kernel.Allocator
	// Dialect selects the kernel language; nil means WGSL.
	Dialect codegen.Dialect
	// Thresholds bound fusion; zero fields take DefaultThresholds.
	Thresholds Thresholds
	// Logger receives construction records; nil means no logging.
	Logger logger.Logger
}

// noCopy makes go vet's copylocks check flag copies of the operation.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// DepthwiseConvPlus1x1Conv is a depthwise convolution and the 1x1 convolution
// consuming it, generated as one kernel.
//
// The operation exclusively owns its constant buffer. Pass it by pointer and
// call Release once it is no longer dispatched.
type DepthwiseConvPlus1x1Conv struct {
	_ noCopy

	id        string
	op        kernel.Operation
	dw        ops.DepthwiseConv2DAttributes
	layout    Layout
	refs      []ConstRef
	constants kernel.Buffer
}

// NewDepthwiseConvPlus1x1Conv builds the fused operation: it fixes the work
// group, generates the kernel source, then packs and uploads the weights.
// It returns ErrNotFusable when the pair fails the eligibility check, and the
// allocator's error when the upload fails; no partial operation is returned.
func NewDepthwiseConvPlus1x1Conv(
	ctx CreationContext,
	def kernel.OperationDef,
	dw ops.DepthwiseConv2DAttributes,
	pw ops.Conv2DAttributes,
) (*DepthwiseConvPlus1x1Conv, error) {
	if ctx.Allocator == nil {
		return nil, errors.New("fusion: creation context has no allocator")
	}
	log := ctx.Logger
	if log == nil {
		log = logger.Nop()
	}
	verdict := ctx.Thresholds.Check(dw, pw)
	if !verdict.Fusable() {
		log.Debug("fusion rejected", "reasons", verdict.Reasons)
		return nil, ErrNotFusable
	}

	id := uuid.NewString()
	log = log.With("op", "dw_conv_plus_1x1", "id", id)

	op := kernel.NewOperation(def)
	layout := NewLayout(dw, pw)
	k := GenerateCode(def, dw, layout.OutputGroups(), op.WorkGroupSize, ctx.Dialect)
	op.Code = k.Source
	op.Args = k.Args

	packed := Pack(dw, pw, def.Precision)
	buf, err := UploadWeights(ctx.Allocator, op.Args, packed)
	if err != nil {
		log.Warn("constant upload failed", "bytes", len(packed.Data), "error", err)
		return nil, err
	}

	log.Debug("fused operation built",
		"channels", layout.DepthwiseChannels,
		"outputs", layout.OutputChannels,
		"kernel", [2]int{layout.KernelH, layout.KernelW},
		"vectors", layout.Vectors(),
		"precision", def.Precision.String(),
	)
	return &DepthwiseConvPlus1x1Conv{
		id:        id,
		op:        op,
		dw:        dw,
		layout:    layout,
		refs:      k.Refs,
		constants: buf,
	}, nil
}

// ID returns the unique id assigned at construction.
func (o *DepthwiseConvPlus1x1Conv) ID() string { return o.id }

// Code returns the generated kernel source.
func (o *DepthwiseConvPlus1x1Conv) Code() string { return o.op.Code }

// Args returns the argument table the source references.
func (o *DepthwiseConvPlus1x1Conv) Args() *kernel.Arguments { return o.op.Args }

// Definition returns the precision and tensor storage the kernel targets.
func (o *DepthwiseConvPlus1x1Conv) Definition() kernel.OperationDef { return o.op.Definition }

// WorkGroupSize returns the fixed work-group size.
func (o *DepthwiseConvPlus1x1Conv) WorkGroupSize() [3]int { return o.op.WorkGroupSize }

// Layout returns the geometry of the constant buffer.
func (o *DepthwiseConvPlus1x1Conv) Layout() Layout { return o.layout }

// Refs returns the constant-buffer reads of the generated source in order.
func (o *DepthwiseConvPlus1x1Conv) Refs() []ConstRef { return o.refs }

// Constants returns the uploaded constant buffer, or nil after Release.
func (o *DepthwiseConvPlus1x1Conv) Constants() kernel.Buffer { return o.constants }

// DepthwiseAttributes returns the depthwise attributes captured at construction.
func (o *DepthwiseConvPlus1x1Conv) DepthwiseAttributes() ops.DepthwiseConv2DAttributes { return o.dw }

// GridSize returns the launch grid for dst: one invocation per output pixel and
// batch element, (width*batch, height, 1).
func (o *DepthwiseConvPlus1x1Conv) GridSize(dst tensor.BHWC) [3]int {
	return [3]int{dst.W * dst.B, dst.H, 1}
}

// Release frees the constant buffer and drops it from the argument table.
// Later calls do nothing.
func (o *DepthwiseConvPlus1x1Conv) Release() {
	if o.constants == nil {
		return
	}
	o.constants.Release()
	o.constants = nil
	o.op.Args.Remove(codegen.ConstantsName)
}

var _ kernel.GridSizer = (*DepthwiseConvPlus1x1Conv)(nil)
