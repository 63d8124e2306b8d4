package fusion

import (
	"strconv"

	"github.com/born-ml/fusion/internal/kernel"
	cg "github.com/born-ml/fusion/internal/kernel/codegen"
	"github.com/born-ml/fusion/internal/ops"
	"github.com/born-ml/fusion/internal/tensor"
)

// ConstRef is one read of the constant buffer by generated code, with the slot
// the generator meant to read.
type ConstRef struct {
	Index int
	Slot  Slot
}

// Kernel is generated source plus the arguments it references.
type Kernel struct {
	Source string
	Args   *kernel.Arguments
	// Refs lists constant-buffer reads in emission order.
	Refs []ConstRef
	// Vectors is the number of constant-buffer elements the source reads.
	Vectors int
}

// emission collects the statements and constant reads of one generation stage.
type emission struct {
	body []cg.Gen
	refs []ConstRef
}

func (e *emission) stmt(g cg.Gen) {
	e.body = append(e.body, cg.Stmt{X: g})
}

func (e *emission) raw(g cg.Gen) {
	e.body = append(e.body, g)
}

// constant reads the element under cur and returns the advanced cursor.
func (e *emission) constant(d cg.Dialect, cur cg.Cursor, slot Slot) (cg.Gen, cg.Cursor) {
	i, next := cur.Next()
	e.refs = append(e.refs, ConstRef{Index: i, Slot: slot})
	return d.Constant(i), next
}

func (e *emission) extend(other emission) {
	e.body = append(e.body, other.body...)
	e.refs = append(e.refs, other.refs...)
}

var (
	srcTensor = cg.Args("src_tensor")
	dstTensor = cg.Args("dst_tensor")
)

func dwRes(d int) string   { return "dw_res_" + strconv.Itoa(d) }
func convRes(d int) string { return "conv_res_" + strconv.Itoa(d) }

// GenerateCode emits a kernel computing the depthwise convolution dw followed by
// a 1x1 convolution with resultDepth output channel groups, one invocation per
// output pixel. It registers the tensor and scalar arguments it references; the
// constants buffer is registered by UploadWeights.
func GenerateCode(def kernel.OperationDef, dw ops.DepthwiseConv2DAttributes, resultDepth int, workGroup [3]int, d cg.Dialect) Kernel {
	if d == nil {
		d = cg.WGSL{}
	}
	args := kernel.NewArguments()

	src := kernel.TensorDescriptor{}
	if len(def.Src) > 0 {
		src = def.Src[0]
	}
	src.AddressMode = kernel.AddressZero
	args.AddTensor("src_tensor", kernel.AccessRead, src)
	dst := kernel.TensorDescriptor{}
	if len(def.Dst) > 0 {
		dst = def.Dst[0]
	}
	args.AddTensor("dst_tensor", kernel.AccessWrite, dst)

	args.AddInt("stride_x", dw.Strides.W)
	args.AddInt("padding_x", -dw.Padding.Prepended.W)
	args.AddInt("dilation_x", dw.Dilations.W)
	args.AddInt("stride_y", dw.Strides.H)
	args.AddInt("padding_y", -dw.Padding.Prepended.H)
	args.AddInt("dilation_y", dw.Dilations.H)

	manualClamp := !def.SrcStorage().ZeroClampAddressing()
	intermediateDepth := tensor.DivideRoundUp(dw.Channels(), vectorWidth)

	var body emission
	body.extend(emitPrologue(d, def.DstBatched()))
	cur := cg.Cursor{}
	var stage emission
	stage, cur = emitDepthwise(d, dw.KernelSize(), intermediateDepth, manualClamp, cur)
	body.extend(stage)
	stage, cur = emitPointwise(d, intermediateDepth, resultDepth, cur)
	body.extend(stage)

	source := cg.Render(cg.Seq{
		d.Preamble(def.Precision),
		d.Entry(workGroup),
		cg.Block{Depth: 1, Body: body.body},
		cg.Ident("}\n"),
	})
	return Kernel{Source: source, Args: args, Refs: body.refs, Vectors: cur.Count()}
}

// emitPrologue derives X, Y (and B) from the invocation ids and exits
// invocations outside the destination.
func emitPrologue(d cg.Dialect, batched bool) emission {
	var e emission
	x, y := cg.Ident("X"), cg.Ident("Y")
	if batched {
		linear := cg.Ident("linear_id")
		batch := cg.Method{Recv: dstTensor, Name: "Batch"}
		e.stmt(d.Let(cg.TypeInt, "linear_id", d.GlobalID(0)))
		e.stmt(d.Let(cg.TypeInt, "X", cg.Div(linear, batch)))
		e.stmt(d.Let(cg.TypeInt, "B", cg.Mod(linear, batch)))
		e.stmt(cg.Method{Recv: dstTensor, Name: "SetBatchRef", Args: []cg.Gen{cg.Ident("B")}})
		e.stmt(cg.Method{Recv: srcTensor, Name: "SetBatchRef", Args: []cg.Gen{cg.Ident("B")}})
	} else {
		e.stmt(d.Let(cg.TypeInt, "X", d.GlobalID(0)))
	}
	e.stmt(d.Let(cg.TypeInt, "Y", d.GlobalID(1)))
	e.raw(cg.If{
		Depth: 1,
		Cond: cg.Or(
			cg.Ge(x, cg.Method{Recv: dstTensor, Name: "Width"}),
			cg.Ge(y, cg.Method{Recv: dstTensor, Name: "Height"}),
		),
		Then: []cg.Gen{cg.Return{}},
	})
	for _, s := range d.ConstantsSetup() {
		e.raw(s)
	}
	return e
}

// emitDepthwise seeds one accumulator per intermediate group with its bias and
// accumulates every kernel tap. Reads are clamped by hand when the source
// storage has no zero-clamp addressing.
func emitDepthwise(d cg.Dialect, k tensor.HW, depth int, manualClamp bool, cur cg.Cursor) (emission, cg.Cursor) {
	var e emission
	var c cg.Gen
	for g := 0; g < depth; g++ {
		c, cur = e.constant(d, cur, Slot{Region: RegionDepthwiseBias, Group: g})
		e.stmt(d.Var(cg.TypeFLT4, dwRes(g), c))
	}

	xOff, yOff := cg.Ident("x_offseted"), cg.Ident("y_offseted")
	xc, yc := cg.Ident("x_c"), cg.Ident("y_c")
	xIn, yIn := cg.Ident("x_in"), cg.Ident("y_in")
	e.stmt(d.Let(cg.TypeInt, "x_offseted", cg.Add(cg.Mul(cg.Ident("X"), cg.Args("stride_x")), cg.Args("padding_x"))))
	e.stmt(d.Let(cg.TypeInt, "y_offseted", cg.Add(cg.Mul(cg.Ident("Y"), cg.Args("stride_y")), cg.Args("padding_y"))))
	e.stmt(d.Var(cg.TypeInt, "x_c", nil))
	e.stmt(d.Var(cg.TypeInt, "y_c", nil))
	if manualClamp {
		e.stmt(d.Var(cg.TypeBool, "x_in", nil))
		e.stmt(d.Var(cg.TypeBool, "y_in", nil))
	}
	e.stmt(d.Var(cg.TypeFLT4, "src", nil))

	height := cg.Method{Recv: srcTensor, Name: "Height"}
	width := cg.Method{Recv: srcTensor, Name: "Width"}
	for ky := 0; ky < k.H; ky++ {
		e.stmt(cg.Assign{X: yc, Y: cg.Add(yOff, cg.Mul(cg.IntLit(ky), cg.Args("dilation_y")))})
		if manualClamp {
			e.stmt(cg.Assign{X: yIn, Y: cg.And(cg.Ge(yc, cg.IntLit(0)), cg.Lt(yc, height))})
			e.stmt(cg.Assign{X: yc, Y: cg.Call{Func: "clamp", Args: []cg.Gen{yc, cg.IntLit(0), cg.Sub(height, cg.IntLit(1))}}})
		}
		for kx := 0; kx < k.W; kx++ {
			e.stmt(cg.Assign{X: xc, Y: cg.Add(xOff, cg.Mul(cg.IntLit(kx), cg.Args("dilation_x")))})
			if manualClamp {
				e.stmt(cg.Assign{X: xIn, Y: cg.And(cg.Ge(xc, cg.IntLit(0)), cg.Lt(xc, width))})
				e.stmt(cg.Assign{X: xc, Y: cg.Call{Func: "clamp", Args: []cg.Gen{xc, cg.IntLit(0), cg.Sub(width, cg.IntLit(1))}}})
			}
			for g := 0; g < depth; g++ {
				var read cg.Gen = cg.Method{Recv: srcTensor, Name: "Read", Args: []cg.Gen{xc, yc, cg.IntLit(g)}}
				if manualClamp {
					read = cg.Mul(read, d.Cast(cg.TypeFLT, cg.And(xIn, yIn)))
				}
				e.stmt(cg.Assign{X: cg.Ident("src"), Y: read})
				c, cur = e.constant(d, cur, Slot{Region: RegionDepthwiseWeights, KernelY: ky, KernelX: kx, Group: g})
				e.stmt(cg.AddAssign{X: cg.Ident(dwRes(g)), Y: cg.Mul(cg.Ident("src"), c)})
			}
		}
	}
	return e, cur
}

// emitPointwise multiplies the intermediate accumulators by the 1x1 weights and
// writes each output group as soon as it is complete.
func emitPointwise(d cg.Dialect, depth, resultDepth int, cur cg.Cursor) (emission, cg.Cursor) {
	var e emission
	var c cg.Gen
	for o := 0; o < resultDepth; o++ {
		c, cur = e.constant(d, cur, Slot{Region: RegionPointwiseBias, Group: o})
		e.stmt(d.Var(cg.TypeFLT4, convRes(o), c))
	}
	for o := 0; o < resultDepth; o++ {
		acc := cg.Ident(convRes(o))
		for s := 0; s < depth; s++ {
			for lane := 0; lane < vectorWidth; lane++ {
				c, cur = e.constant(d, cur, Slot{Region: RegionPointwiseWeights, OutGroup: o, InGroup: s, InLane: lane})
				e.stmt(cg.AddAssign{X: acc, Y: cg.Mul(cg.Field{X: cg.Ident(dwRes(s)), Name: cg.Lanes[lane]}, c)})
			}
		}
		e.stmt(cg.Method{Recv: dstTensor, Name: "Write", Args: []cg.Gen{acc, cg.Ident("X"), cg.Ident("Y"), cg.IntLit(o)}})
	}
	return e, cur
}
