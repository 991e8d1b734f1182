// Package testutil provides shared fixtures for tests: leak-checked Arrow
// allocators and generated CSV inputs.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"
)

const (
	// defaultRowCount is the default number of rows in test CSVs.
	defaultRowCount = 8
)

// SetupMemoryTest returns an allocator that fails the test at cleanup if
// any Arrow buffer allocated from it was not released.
func SetupMemoryTest(tb testing.TB) *memory.CheckedAllocator {
	tb.Helper()
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	tb.Cleanup(func() { mem.AssertSize(tb, 0) })
	return mem
}

// WriteFile writes content to name inside a fresh temporary directory and
// returns its path.
func WriteFile(tb testing.TB, name, content string) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), name)
	require.NoError(tb, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestCSVOption configures generated CSV content.
type TestCSVOption func(*testCSVConfig)

type testCSVConfig struct {
	includeNulls bool
	multiline    bool
	rowCount     int
}

// WithNulls leaves some salary and hired_date fields empty.
func WithNulls() TestCSVOption {
	return func(c *testCSVConfig) { c.includeNulls = true }
}

// WithRowCount sets the number of data rows.
func WithRowCount(count int) TestCSVOption {
	return func(c *testCSVConfig) { c.rowCount = count }
}

// WithMultiline adds a quoted notes column whose values span two lines.
func WithMultiline() TestCSVOption {
	return func(c *testCSVConfig) { c.multiline = true }
}

// EmployeesCSV generates an employee table with Integer, Float, String,
// Boolean-like and Date columns. Output is deterministic.
func EmployeesCSV(opts ...TestCSVOption) string {
	cfg := testCSVConfig{rowCount: defaultRowCount}
	for _, opt := range opts {
		opt(&cfg)
	}

	names := []string{"Alice", "Bob", "Charlie", "David", "Eve", "Frank", "Grace", "Henry"}
	ages := []int{25, 30, 35, 28, 32, 45, 29, 38}
	departments := []string{"Engineering", "Sales", "Engineering", "Marketing", "HR", "Finance", "Engineering", "Sales"}
	active := []string{"Y", "Y", "N", "Y", "Y", "N", "Y", "N"}

	var b strings.Builder
	b.WriteString("id,name,age,department,salary,active,hired_date")
	if cfg.multiline {
		b.WriteString(",notes")
	}
	b.WriteString("\n")

	for i := range cfg.rowCount {
		salary := fmt.Sprintf("%.2f", 50000+float64(i*7919%40000)/4)
		hired := fmt.Sprintf("20%02d-%02d-%02d", 10+i%14, i%12+1, i%28+1)
		if cfg.includeNulls && i%5 == 2 {
			salary = ""
		}
		if cfg.includeNulls && i%7 == 3 {
			hired = ""
		}
		k := i % len(names)
		fmt.Fprintf(&b, "%d,%s,%d,%s,%s,%s,%s", i, names[k], ages[k]+i%3, departments[k], salary, active[k], hired)
		if cfg.multiline {
			if i%4 == 0 {
				b.WriteString(",")
			} else {
				fmt.Fprintf(&b, ",\"note %d\nsecond line, with comma\"", i)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// CreateTestCSV writes EmployeesCSV output to a temporary file and returns
// its path.
func CreateTestCSV(tb testing.TB, opts ...TestCSVOption) string {
	tb.Helper()
	return WriteFile(tb, "employees.csv", EmployeesCSV(opts...))
}
