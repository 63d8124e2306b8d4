package kernel

import (
	"fmt"
	"sort"
	"strings"
)

// AccessMode says how a kernel uses an argument object.
type AccessMode int

// Access modes.
const (
	AccessRead AccessMode = iota
	AccessWrite
	AccessReadWrite
)

// String returns the short name of the access mode.
func (m AccessMode) String() string {
	switch m {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessReadWrite:
		return "read_write"
	default:
		return "unknown"
	}
}

// Object is one named resource referenced by generated source as args.<name>.
//
// Tensor objects carry a TensorDescriptor and are bound by the execution layer;
// buffer objects carry a BufferDescriptor and, once uploaded, the Buffer itself.
type Object struct {
	Name     string
	Access   AccessMode
	Tensor   *TensorDescriptor
	Buffer   *BufferDescriptor
	Resource Buffer
}

// Arguments is the name to argument table consumed by the compile/link step.
// Insertion order is kept so bindings are deterministic.
type Arguments struct {
	objects map[string]*Object
	order   []string
	ints    map[string]int
}

// NewArguments creates an empty argument table.
func NewArguments() *Arguments {
	return &Arguments{
		objects: make(map[string]*Object),
		ints:    make(map[string]int),
	}
}

// AddInt registers an integer scalar argument. Re-adding a name overwrites it.
func (a *Arguments) AddInt(name string, value int) {
	a.ints[name] = value
}

// Int returns the value of an integer scalar argument.
func (a *Arguments) Int(name string) (int, bool) {
	v, ok := a.ints[name]
	return v, ok
}

// IntNames returns the names of all integer scalars, sorted.
func (a *Arguments) IntNames() []string {
	names := make([]string, 0, len(a.ints))
	for name := range a.ints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddTensor registers a tensor object.
func (a *Arguments) AddTensor(name string, access AccessMode, desc TensorDescriptor) {
	d := desc
	a.add(&Object{Name: name, Access: access, Tensor: &d})
}

// AddBuffer registers an uploaded buffer object. The table does not take
// ownership of the resource.
func (a *Arguments) AddBuffer(name string, desc BufferDescriptor, resource Buffer) {
	d := desc
	a.add(&Object{Name: name, Access: AccessRead, Buffer: &d, Resource: resource})
}

func (a *Arguments) add(obj *Object) {
	if _, exists := a.objects[obj.Name]; !exists {
		a.order = append(a.order, obj.Name)
	}
	a.objects[obj.Name] = obj
}

// Object returns the object registered under name.
func (a *Arguments) Object(name string) (*Object, bool) {
	obj, ok := a.objects[name]
	return obj, ok
}

// Objects returns all objects in registration order.
func (a *Arguments) Objects() []*Object {
	out := make([]*Object, 0, len(a.order))
	for _, name := range a.order {
		out = append(out, a.objects[name])
	}
	return out
}

// Remove drops an object from the table.
func (a *Arguments) Remove(name string) {
	if _, ok := a.objects[name]; !ok {
		return
	}
	delete(a.objects, name)
	for i, n := range a.order {
		if n == name {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

// String renders the table for logs and CLI output.
func (a *Arguments) String() string {
	var sb strings.Builder
	for _, obj := range a.Objects() {
		switch {
		case obj.Tensor != nil:
			fmt.Fprintf(&sb, "%s: tensor %s %s %s\n", obj.Name, obj.Access, obj.Tensor.Storage, obj.Tensor.DataType)
		case obj.Buffer != nil:
			fmt.Fprintf(&sb, "%s: buffer %s %s x%d %s\n", obj.Name, obj.Access, obj.Buffer.ElementType, obj.Buffer.ElementSize, obj.Buffer.MemoryType)
		}
	}
	for _, name := range a.IntNames() {
		fmt.Fprintf(&sb, "%s: int %d\n", name, a.ints[name])
	}
	return sb.String()
}
