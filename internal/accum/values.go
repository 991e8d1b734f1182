package accum

import (
	"slices"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Values buffers the numeric projection of a column for order statistics.
// Values are appended to an Arrow builder and sealed into immutable chunks;
// merging two buffers shares their chunks by reference count instead of
// copying. Callers must call Release when done.
type Values struct {
	mem     memory.Allocator
	builder *array.Float64Builder
	chunks  []*array.Float64
}

// NewValues creates an empty buffer backed by mem.
func NewValues(mem memory.Allocator) *Values {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &Values{mem: mem}
}

// Add appends one value.
func (v *Values) Add(x float64) {
	if v.builder == nil {
		v.builder = array.NewFloat64Builder(v.mem)
	}
	v.builder.Append(x)
}

// Len returns the number of buffered values.
func (v *Values) Len() int {
	n := 0
	for _, c := range v.chunks {
		n += c.Len()
	}
	if v.builder != nil {
		n += v.builder.Len()
	}
	return n
}

// seal moves pending builder contents into an immutable chunk.
func (v *Values) seal() {
	if v.builder == nil || v.builder.Len() == 0 {
		return
	}
	v.chunks = append(v.chunks, v.builder.NewFloat64Array())
}

// MergeValues returns a new buffer holding the values of a followed by those
// of b. a and b remain valid and must still be released by their owners.
func MergeValues(a, b *Values) *Values {
	a.seal()
	b.seal()
	out := &Values{mem: a.mem, chunks: make([]*array.Float64, 0, len(a.chunks)+len(b.chunks))}
	for _, c := range a.chunks {
		c.Retain()
		out.chunks = append(out.chunks, c)
	}
	for _, c := range b.chunks {
		c.Retain()
		out.chunks = append(out.chunks, c)
	}
	return out
}

// Sorted returns a sorted copy of every buffered value.
func (v *Values) Sorted() []float64 {
	v.seal()
	out := make([]float64, 0, v.Len())
	for _, c := range v.chunks {
		out = append(out, c.Float64Values()...)
	}
	slices.Sort(out)
	return out
}

// Release frees the buffer's Arrow memory.
func (v *Values) Release() {
	for _, c := range v.chunks {
		c.Release()
	}
	v.chunks = nil
	if v.builder != nil {
		v.builder.Release()
		v.builder = nil
	}
}
