package survey

import (
	"errors"
	"fmt"
	"sort"
)

// Canonical column names.
const (
	ColRA  = "ra"
	ColDec = "dec"
	ColVel = "vel"
	ColMag = "mag"

	ColLumDist   = "lum_dist"
	ColGalacticL = "galactic_l"
	ColGalacticB = "galactic_b"
	ColX         = "x"
	ColY         = "y"
	ColZ         = "z"
)

var (
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing column")
	// ErrColumnLength is returned when a column does not match the catalog length.
	ErrColumnLength = errors.New("column length mismatch")
)

// Catalog is a columnar table of per-galaxy float values. It is read-only
// outside this package.
type Catalog struct {
	columns map[string][]float64
	n       int
}

// NewCatalog copies columns into a new Catalog. All columns must have the
// same length.
func NewCatalog(columns map[string][]float64) (*Catalog, error) {
	c := &Catalog{columns: make(map[string][]float64, len(columns)), n: -1}
	for _, name := range sortedKeys(columns) {
		if err := c.setColumn(name, columns[name]); err != nil {
			return nil, err
		}
	}
	if c.n < 0 {
		c.n = 0
	}
	return c, nil
}

// Len returns the number of rows.
func (c *Catalog) Len() int {
	return c.n
}

// Column returns the named column. The slice is shared; callers must not modify it.
func (c *Catalog) Column(name string) ([]float64, bool) {
	col, ok := c.columns[name]
	return col, ok
}

// HasColumn reports whether the named column exists.
func (c *Catalog) HasColumn(name string) bool {
	_, ok := c.columns[name]
	return ok
}

// setColumn adds or overwrites a column with a copy of values. Writes after
// construction go through Survey.SetColumn so derived indexes stay current.
func (c *Catalog) setColumn(name string, values []float64) error {
	if c.n >= 0 && len(values) != c.n {
		return fmt.Errorf("%w: column %q has %d rows, catalog has %d", ErrColumnLength, name, len(values), c.n)
	}
	col := make([]float64, len(values))
	copy(col, values)
	c.columns[name] = col
	c.n = len(values)
	return nil
}

// Columns returns the column names in sorted order.
func (c *Catalog) Columns() []string {
	return sortedKeys(c.columns)
}

func (c *Catalog) require(names ...string) error {
	for _, name := range names {
		if !c.HasColumn(name) {
			return fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}
	return nil
}

func sortedKeys(m map[string][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
