// Package fieldtype implements the type lattice used to infer the most
// specific type consistent with every value observed in a column.
//
// Null is the bottom element and String the top. Integer widens to Float,
// Date widens to DateTime, and every other pair of distinct types joins to
// String.
//
// Merge is the join of two elements. It is commutative and associative, so
// the inferred type of a column does not depend on value order or on how the
// column was split into chunks.
package fieldtype

// FieldType is an inferred column type.
type FieldType uint8

const (
	// Null is the bottom element; every other type absorbs it.
	Null FieldType = iota
	// String is the top element; once reached it is final.
	String
	// Integer is a signed 64-bit integer without a disallowed leading zero.
	Integer
	// Float is a finite 64-bit floating point number.
	Float
	// Date is a calendar value aligned to midnight UTC.
	Date
	// DateTime is a calendar value with a time-of-day component.
	DateTime
)

// Boolean is not a lattice member. It is only reported after a full scan when
// a column with exactly two distinct values matches a boolean pattern pair.
const booleanLabel = "Boolean"

var labels = [...]string{
	Null:     "NULL",
	String:   "String",
	Integer:  "Integer",
	Float:    "Float",
	Date:     "Date",
	DateTime: "DateTime",
}

// String returns the label used in summaries.
func (t FieldType) String() string {
	if int(t) < len(labels) {
		return labels[t]
	}
	return "Unknown"
}

// BooleanLabel returns the label reported for columns inferred as booleans.
func BooleanLabel() string { return booleanLabel }

// IsNumeric reports whether values of t are numbers.
func (t FieldType) IsNumeric() bool { return t == Integer || t == Float }

// IsTemporal reports whether values of t are calendar values.
func (t FieldType) IsTemporal() bool { return t == Date || t == DateTime }

// All returns every lattice element, bottom first.
func All() []FieldType {
	return []FieldType{Null, String, Integer, Float, Date, DateTime}
}

// Merge returns the join of a and b.
func Merge(a, b FieldType) FieldType {
	switch {
	case a == b:
		return a
	case a == Null:
		return b
	case b == Null:
		return a
	case a == String || b == String:
		return String
	}

	// a != b and neither is Null or String
	if a.IsNumeric() && b.IsNumeric() {
		return Float
	}
	if a.IsTemporal() && b.IsTemporal() {
		return DateTime
	}
	return String
}

// ParseLabel returns the FieldType for a summary label.
func ParseLabel(label string) (FieldType, bool) {
	for i, l := range labels {
		if l == label {
			return FieldType(i), true
		}
	}
	return Null, false
}
