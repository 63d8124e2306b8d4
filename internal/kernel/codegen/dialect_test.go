package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/fusion/internal/kernel"
)

func TestWGSL(t *testing.T) {
	d := WGSL{}
	assert.Equal(t, "wgsl", d.Name())
	assert.Equal(t, "alias FLT = f32;\nalias FLT4 = vec4<f32>;\n", Render(d.Preamble(kernel.F32)))
	assert.Equal(t, "enable f16;\nalias FLT = f16;\nalias FLT4 = vec4<f16>;\n", Render(d.Preamble(kernel.F32F16)))
	assert.Equal(t,
		"@compute @workgroup_size(8, 8, 1)\nfn main_function(\n@builtin(global_invocation_id) global_id: vec3<u32>,\n$0) {\n",
		Render(d.Entry([3]int{8, 8, 1})))
	assert.Equal(t, "i32(global_id.y)", Render(d.GlobalID(1)))
	assert.Equal(t, "var r0: FLT4", Render(d.Var(TypeFLT4, "r0", nil)))
	assert.Equal(t, "var X: i32 = 0", Render(d.Var(TypeInt, "X", IntLit(0))))
	assert.Equal(t, "let ok: bool = true", Render(d.Let(TypeBool, "ok", Ident("true"))))
	assert.Equal(t, "FLT(x)", Render(d.Cast(TypeFLT, Ident("x"))))
	assert.Empty(t, d.ConstantsSetup())
	assert.Equal(t, "args.constants[7]", Render(d.Constant(7)))
}

func TestOpenCL(t *testing.T) {
	d := OpenCL{}
	assert.Equal(t, "opencl", d.Name())
	assert.Equal(t, "#define FLT float\n#define FLT4 float4\n", Render(d.Preamble(kernel.F32)))
	assert.Equal(t, "#pragma OPENCL EXTENSION cl_khr_fp16 : enable\n#define FLT half\n#define FLT4 half4\n", Render(d.Preamble(kernel.F16)))
	assert.Equal(t, "__kernel void main_function(\n$0) {\n", Render(d.Entry([3]int{8, 8, 1})))
	assert.Equal(t, "get_global_id(2)", Render(d.GlobalID(2)))
	assert.Equal(t, "int Y = 3", Render(d.Let(TypeInt, "Y", IntLit(3))))
	assert.Equal(t, "(FLT4)(v)", Render(d.Cast(TypeFLT4, Ident("v"))))

	setup := d.ConstantsSetup()
	require.Len(t, setup, 1)
	assert.Equal(t, "__constant FLT4* constants = args.constants.GetPtr();", Render(setup[0]))
	assert.Equal(t, "constants[0]", Render(d.Constant(0)))
}

func TestDialectByName(t *testing.T) {
	tests := []struct {
		name string
		want Dialect
	}{
		{"", WGSL{}},
		{"wgsl", WGSL{}},
		{"opencl", OpenCL{}},
		{"cl", OpenCL{}},
	}
	for _, tt := range tests {
		d, ok := DialectByName(tt.name)
		require.True(t, ok, tt.name)
		assert.Equal(t, tt.want, d)
	}

	_, ok := DialectByName("metal")
	assert.False(t, ok)
}
