package codegen

import (
	"fmt"

	"github.com/born-ml/fusion/internal/kernel"
)

// Type is a value type used by generated kernels.
type Type int

// Kernel value types. FLT and FLT4 are aliases the preamble binds to the
// precision-dependent scalar and 4-vector types.
const (
	TypeInt Type = iota
	TypeBool
	TypeFLT
	TypeFLT4
)

// Dialect spells the constructs that differ between kernel languages.
type Dialect interface {
	// Name identifies the dialect in configuration and logs.
	Name() string
	// Preamble defines FLT and FLT4 for the precision.
	Preamble(p kernel.Precision) Gen
	// Entry opens the kernel function. Its parameter list ends with the
	// ArgsPlaceholder, which the binding step replaces with the declared
	// arguments, and holds whatever built-in GlobalID reads.
	Entry(workGroup [3]int) Gen
	// GlobalID is the integer invocation index along axis 0, 1 or 2.
	GlobalID(axis int) Gen
	// Var declares a mutable variable; init may be nil.
	Var(typ Type, name string, init Gen) Gen
	// Let declares an immutable value.
	Let(typ Type, name string, init Gen) Gen
	// Cast converts x to typ.
	Cast(typ Type, x Gen) Gen
	// ConstantsSetup returns statements that make the constant buffer addressable.
	ConstantsSetup() []Gen
	// Constant reads vector element i of the constant buffer.
	Constant(i int) Gen
}

// Args refers to an argument object, as in args.src_tensor.
func Args(name string) Gen {
	return Field{X: Ident("args"), Name: name}
}

// ConstantsName is the argument name of the packed constant buffer.
const ConstantsName = "constants"

// WGSL emits WebGPU shading language.
type WGSL struct{}

func (WGSL) Name() string { return "wgsl" }

func (WGSL) Preamble(p kernel.Precision) Gen {
	if p == kernel.F32 {
		return Lines{
			Ident("alias FLT = f32;"),
			Ident("alias FLT4 = vec4<f32>;"),
		}
	}
	return Lines{
		Ident("enable f16;"),
		Ident("alias FLT = f16;"),
		Ident("alias FLT4 = vec4<f16>;"),
	}
}

// GlobalIDParam declares the invocation id that GlobalID reads. Bound
// arguments follow it in the WGSL parameter list.
const GlobalIDParam = "@builtin(global_invocation_id) global_id: vec3<u32>"

func (WGSL) Entry(wg [3]int) Gen {
	return Lines{
		Ident(fmt.Sprintf("@compute @workgroup_size(%d, %d, %d)", wg[0], wg[1], wg[2])),
		Ident("fn " + kernel.EntryPoint + "("),
		Ident(GlobalIDParam + ","),
		Ident(kernel.ArgsPlaceholder + ") {"),
	}
}

func (WGSL) GlobalID(axis int) Gen {
	return Call{Func: "i32", Args: []Gen{Field{X: Ident("global_id"), Name: Lanes[axis]}}}
}

func (w WGSL) Var(typ Type, name string, init Gen) Gen {
	decl := Ident("var " + name + ": " + w.typeName(typ))
	if init == nil {
		return decl
	}
	return Assign{X: decl, Y: init}
}

func (w WGSL) Let(typ Type, name string, init Gen) Gen {
	return Assign{X: Ident("let " + name + ": " + w.typeName(typ)), Y: init}
}

func (w WGSL) Cast(typ Type, x Gen) Gen {
	return Call{Func: w.typeName(typ), Args: []Gen{x}}
}

func (WGSL) ConstantsSetup() []Gen { return nil }

func (WGSL) Constant(i int) Gen {
	return Index{X: Args(ConstantsName), I: IntLit(i)}
}

func (WGSL) typeName(typ Type) string {
	switch typ {
	case TypeInt:
		return "i32"
	case TypeBool:
		return "bool"
	case TypeFLT:
		return "FLT"
	default:
		return "FLT4"
	}
}

// OpenCL emits OpenCL C.
type OpenCL struct{}

func (OpenCL) Name() string { return "opencl" }

func (OpenCL) Preamble(p kernel.Precision) Gen {
	if p == kernel.F32 {
		return Lines{
			Ident("#define FLT float"),
			Ident("#define FLT4 float4"),
		}
	}
	return Lines{
		Ident("#pragma OPENCL EXTENSION cl_khr_fp16 : enable"),
		Ident("#define FLT half"),
		Ident("#define FLT4 half4"),
	}
}

func (OpenCL) Entry([3]int) Gen {
	return Lines{
		Ident("__kernel void " + kernel.EntryPoint + "("),
		Ident(kernel.ArgsPlaceholder + ") {"),
	}
}

func (OpenCL) GlobalID(axis int) Gen {
	return Call{Func: "get_global_id", Args: []Gen{IntLit(axis)}}
}

func (c OpenCL) Var(typ Type, name string, init Gen) Gen {
	decl := Ident(c.typeName(typ) + " " + name)
	if init == nil {
		return decl
	}
	return Assign{X: decl, Y: init}
}

func (c OpenCL) Let(typ Type, name string, init Gen) Gen {
	return c.Var(typ, name, init)
}

func (c OpenCL) Cast(typ Type, x Gen) Gen {
	return Seq{Paren{X: Ident(c.typeName(typ))}, Paren{X: x}}
}

func (OpenCL) ConstantsSetup() []Gen {
	return []Gen{Stmt{X: Assign{
		X: Ident("__constant FLT4* " + ConstantsName),
		Y: Method{Recv: Args(ConstantsName), Name: "GetPtr"},
	}}}
}

func (OpenCL) Constant(i int) Gen {
	return Index{X: Ident(ConstantsName), I: IntLit(i)}
}

func (OpenCL) typeName(typ Type) string {
	switch typ {
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	case TypeFLT:
		return "FLT"
	default:
		return "FLT4"
	}
}

// DialectByName returns the dialect registered under name.
func DialectByName(name string) (Dialect, bool) {
	switch name {
	case "", "wgsl":
		return WGSL{}, true
	case "opencl", "cl":
		return OpenCL{}, true
	default:
		return nil, false
	}
}
