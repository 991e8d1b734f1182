package stats

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tabstat/internal/accum"
	"github.com/paveg/tabstat/internal/fieldtype"
)

// ColumnSpec identifies a tracked column.
type ColumnSpec struct {
	// Index is the zero-based field position in a record.
	Index int
	Name  string
}

// columnKey is the part of a Column's configuration that must match for two
// Columns to merge.
type columnKey struct {
	index        int
	families     Family
	classify     fieldtype.Options
	includeNulls bool
	typesOnly    bool
}

// Column accumulates statistics for one column. Sub-accumulators are
// allocated at construction for the enabled families only and stay nil
// otherwise. A Column is not safe for concurrent use.
type Column struct {
	key  columnKey
	name string
	opts *Options

	// origin is the row number of the first value fed to this Column.
	origin uint64
	rows   uint64

	typ       fieldtype.FieldType
	nulls     uint64
	ascii     bool
	precision int

	sum     *accum.Sum
	minmax  *accum.MinMax
	moments *accum.Moments
	lengths *accum.Moments
	values  *accum.Values
	freqs   *accum.Frequencies
}

// NewColumn creates an empty Column whose first value is row origin of the
// input. opts must not be modified while the Column is in use.
func NewColumn(spec ColumnSpec, origin uint64, opts *Options, mem memory.Allocator) *Column {
	c := &Column{
		key: columnKey{
			index:    spec.Index,
			families: opts.Families,
			classify: fieldtype.Options{
				InferDates: opts.InfersDates(spec.Name),
				PreferDMY:  opts.PreferDMY,
			},
			includeNulls: opts.IncludeNulls,
			typesOnly:    opts.TypesOnly,
		},
		name:   spec.Name,
		opts:   opts,
		origin: origin,
		ascii:  true,
	}

	f := opts.Families
	if f.Has(FamilySum) {
		c.sum = &accum.Sum{}
	}
	if f.Has(FamilyRange) {
		c.minmax = &accum.MinMax{}
	}
	if f.Has(FamilyMoments) {
		c.moments = &accum.Moments{}
		c.lengths = &accum.Moments{}
	}
	if f&orderFamilies != 0 {
		c.values = accum.NewValues(mem)
	}
	if f&freqFamilies != 0 {
		c.freqs = accum.NewFrequencies()
	}
	return c
}

// Add feeds the next value of the column. The empty string is null.
func (c *Column) Add(value string) {
	row := c.origin + c.rows
	c.rows++

	s := fieldtype.Classify(value, c.typ, c.key.classify)
	c.typ = fieldtype.Merge(c.typ, s.Type)

	if c.freqs != nil {
		c.freqs.Add(value)
	}

	if s.Type == fieldtype.Null {
		c.nulls++
		if c.minmax != nil {
			c.minmax.AddNull(row)
		}
		if c.key.includeNulls && c.moments != nil {
			c.moments.AddNull()
			c.lengths.AddNull()
		}
		return
	}

	if c.ascii && !isASCII(value) {
		c.ascii = false
	}
	if s.Type == fieldtype.Float {
		c.precision = max(c.precision, fieldtype.Precision(value))
	}

	// Everything below sees the post-merge type, so a value that just widened
	// the column is routed under its widened type.
	t := c.typ
	if c.sum != nil {
		c.sum.Add(t, s)
		c.sum.AddLength(len(value))
	}
	if c.minmax != nil {
		c.minmax.Add(row, t, value, s)
	}
	if c.lengths != nil {
		c.lengths.Add(float64(len(value)))
	}

	x, ok := project(t, s)
	if !ok {
		return
	}
	if c.moments != nil {
		c.moments.Add(x)
	}
	if c.values != nil {
		c.values.Add(x)
	}
}

// project maps a sample to the number used by moments and order statistics:
// the value itself for numbers, the epoch-millisecond timestamp for dates.
func project(t fieldtype.FieldType, s fieldtype.Sample) (float64, bool) {
	switch t {
	case fieldtype.Integer, fieldtype.Float:
		return s.Float, true
	case fieldtype.Date, fieldtype.DateTime:
		return float64(s.Millis), true
	default:
		return 0, false
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// Merge combines two Columns for the same column built with the same
// options. The result is a new Column; a and b are left intact and must
// still be released by their owners. Merging Columns with different
// configurations is a programming error and panics.
func Merge(a, b *Column) *Column {
	if a.key != b.key {
		panic(fmt.Sprintf("stats: merging incompatible columns %q (%+v) and %q (%+v)", a.name, a.key, b.name, b.key))
	}

	out := &Column{
		key:       a.key,
		name:      a.name,
		opts:      a.opts,
		origin:    min(a.origin, b.origin),
		rows:      a.rows + b.rows,
		typ:       fieldtype.Merge(a.typ, b.typ),
		nulls:     a.nulls + b.nulls,
		ascii:     a.ascii && b.ascii,
		precision: max(a.precision, b.precision),
	}

	if a.sum != nil {
		s := accum.MergeSum(*a.sum, *b.sum)
		out.sum = &s
	}
	if a.minmax != nil {
		out.minmax = accum.MergeMinMax(a.minmax, b.minmax)
	}
	if a.moments != nil {
		m := accum.MergeMoments(*a.moments, *b.moments)
		l := accum.MergeMoments(*a.lengths, *b.lengths)
		out.moments, out.lengths = &m, &l
	}
	if a.values != nil {
		out.values = accum.MergeValues(a.values, b.values)
	}
	if a.freqs != nil {
		out.freqs = accum.MergeFrequencies(a.freqs, b.freqs)
	}
	return out
}

// Release frees buffered values.
func (c *Column) Release() {
	if c.values != nil {
		c.values.Release()
	}
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Index returns the column's field position.
func (c *Column) Index() int { return c.key.index }

// Type returns the inferred lattice type.
func (c *Column) Type() fieldtype.FieldType { return c.typ }

// Label returns the reported type label, which is Boolean when boolean
// inference is enabled and the column's two distinct values match a
// configured pattern pair.
func (c *Column) Label() string {
	if c.IsBoolean() {
		return fieldtype.BooleanLabel()
	}
	return c.typ.String()
}

// IsBoolean reports whether the column is inferred as a boolean.
func (c *Column) IsBoolean() bool {
	if !c.opts.InferBoolean || c.freqs == nil || c.freqs.Cardinality() != 2 {
		return false
	}
	modes, anti := c.freqs.Modes(), c.freqs.Antimodes()
	vals := modes.Values
	if len(vals) < 2 {
		vals = append(vals, anti.Values...)
	}
	if len(vals) != 2 {
		return false
	}
	return isBoolean(c.opts.BooleanPatterns, vals[0], vals[1])
}

// Rows returns the number of values fed, nulls included.
func (c *Column) Rows() uint64 { return c.rows }

// Nulls returns the number of null values.
func (c *Column) Nulls() uint64 { return c.nulls }

// Cardinality returns the number of distinct values, the empty value
// included. When the column is provably in ascending byte order the count is
// taken from the value transitions.
func (c *Column) Cardinality() (uint64, bool) {
	if c.freqs == nil {
		return 0, false
	}
	if c.minmax != nil && c.rows > c.nulls {
		if transitions, ok := c.minmax.ByteTransitions(); ok {
			n := transitions + 1
			if c.nulls > 0 {
				n++
			}
			return n, true
		}
	}
	return c.freqs.Cardinality(), true
}
