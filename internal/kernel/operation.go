package kernel

import "github.com/born-ml/fusion/internal/tensor"

// ArgsPlaceholder marks where the binding step splices the kernel parameter list.
const ArgsPlaceholder = "$0"

// EntryPoint is the name of the generated kernel function.
const EntryPoint = "main_function"

// Operation is the part of a GPU operation the execution layer needs to compile
// and dispatch it: generated source, argument table and work-group size.
type Operation struct {
	Definition    OperationDef
	Code          string
	Args          *Arguments
	WorkGroupSize [3]int
}

// NewOperation creates an operation for def with an empty argument table and a
// (8, 8, 1) work group.
func NewOperation(def OperationDef) Operation {
	return Operation{
		Definition:    def,
		Args:          NewArguments(),
		WorkGroupSize: [3]int{8, 8, 1},
	}
}

// GridSizer is implemented by operations that know their launch grid.
type GridSizer interface {
	GridSize(dst tensor.BHWC) [3]int
}

// WorkGroupCount returns how many work groups cover grid: ceil(grid / wg) per axis.
func WorkGroupCount(grid, wg [3]int) [3]int {
	var out [3]int
	for i := range grid {
		size := wg[i]
		if size < 1 {
			size = 1
		}
		out[i] = tensor.DivideRoundUp(grid[i], size)
	}
	return out
}
