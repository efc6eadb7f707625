// Package dataset holds the synthetic reference tables the interpreter
// reports on. A Store is generated once and never mutated afterwards, so
// it can be shared by concurrent requests without locking.
package dataset

import (
	"errors"
	"fmt"
	"maps"
	"math/rand/v2"
	"time"
)

// ErrUnknownTable is returned when a table name is not part of the store
var ErrUnknownTable = errors.New("unknown table")

// Table names in canonical order
const (
	TableSales     = "sales"
	TableCustomers = "customers"
	TableProducts  = "products"
	TableOrders    = "orders"
	TableEmployees = "employees"
)

// Row maps a field name to a scalar value
type Row map[string]any

// Store is the read-only set of generated tables
type Store struct {
	seed   int64
	order  []string
	tables map[string][]Row
}

type options struct {
	seed  int64
	sizes map[string]int
}

// Option configures store generation
type Option func(*options)

// WithSeed makes generation deterministic. A zero seed means time-seeded.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithTableSize overrides the row count of one table, mostly for tests.
// Unknown tables are ignored and negative counts generate an empty table.
func WithTableSize(table string, rows int) Option {
	return func(o *options) {
		if _, known := o.sizes[table]; !known {
			return
		}
		o.sizes[table] = max(rows, 0)
	}
}

// DefaultSizes returns the row count generated for each table
func DefaultSizes() map[string]int {
	return map[string]int{
		TableSales:     1000,
		TableCustomers: 500,
		TableProducts:  100,
		TableOrders:    2000,
		TableEmployees: 50,
	}
}

// New generates every table once and returns the store
func New(opts ...Option) *Store {
	o := &options{sizes: DefaultSizes()}
	for _, opt := range opts {
		opt(o)
	}
	if o.seed == 0 {
		o.seed = time.Now().UnixNano()
	}

	g := &generator{rng: rand.New(rand.NewPCG(uint64(o.seed), uint64(o.seed)>>1|1))}

	s := &Store{
		seed:   o.seed,
		order:  []string{TableSales, TableCustomers, TableProducts, TableOrders, TableEmployees},
		tables: make(map[string][]Row, 5),
	}
	s.tables[TableSales] = g.sales(o.sizes[TableSales])
	s.tables[TableCustomers] = g.customers(o.sizes[TableCustomers])
	s.tables[TableProducts] = g.products(o.sizes[TableProducts])
	s.tables[TableOrders] = g.orders(o.sizes[TableOrders])
	s.tables[TableEmployees] = g.employees(o.sizes[TableEmployees])

	return s
}

// Seed returns the seed the store was generated from
func (s *Store) Seed() int64 {
	return s.seed
}

// Tables returns the table names in canonical order
func (s *Store) Tables() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Has reports whether name is a table of the store
func (s *Store) Has(name string) bool {
	_, ok := s.tables[name]
	return ok
}

// Len returns the row count of a table, 0 for unknown tables
func (s *Store) Len(name string) int {
	return len(s.tables[name])
}

// Rows returns copies of the first limit rows of a table.
// A limit <= 0 returns every row.
func (s *Store) Rows(name string, limit int) ([]Row, error) {
	rows, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("table %q: %w", name, ErrUnknownTable)
	}

	if limit <= 0 || limit > len(rows) {
		limit = len(rows)
	}

	out := make([]Row, limit)
	for i := 0; i < limit; i++ {
		out[i] = maps.Clone(rows[i])
	}
	return out, nil
}

// Summary describes one table for listings
type Summary struct {
	Name string `json:"name" yaml:"name"`
	Rows int    `json:"rows" yaml:"rows"`
}

// Summaries lists every table with its row count in canonical order
func (s *Store) Summaries() []Summary {
	out := make([]Summary, len(s.order))
	for i, name := range s.order {
		out[i] = Summary{Name: name, Rows: len(s.tables[name])}
	}
	return out
}
