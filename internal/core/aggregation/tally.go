package aggregation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Entry is one key of a Tally. Rank is the order in which the key was
// first observed, starting at 0.
type Entry struct {
	Key   string
	Value decimal.Decimal
	Rank  int
}

// Tally folds values per key with one operator and remembers the
// first-observed order of keys. Not safe for concurrent use.
type Tally struct {
	agg    Aggregator
	total  decimal.Decimal
	index  map[string]int
	values []Entry
}

// NewTally returns an empty tally for a registered operator.
func NewTally(op string) (*Tally, error) {
	agg, ok := Operators[op]
	if !ok {
		return nil, fmt.Errorf("unsupported operator %q", op)
	}
	return &Tally{agg: agg, index: make(map[string]int)}, nil
}

// MustTally is NewTally for operators known at compile time.
func MustTally(op string) *Tally {
	t, err := NewTally(op)
	if err != nil {
		panic(err)
	}
	return t
}

// Add observes v for key.
func (t *Tally) Add(key string, v decimal.Decimal) {
	t.total = t.total.Add(v)
	if i, ok := t.index[key]; ok {
		t.values[i].Value = t.agg.Apply(t.values[i].Value, v)
		return
	}
	t.index[key] = len(t.values)
	t.values = append(t.values, Entry{Key: key, Value: t.agg.Initial(v), Rank: len(t.values)})
}

// AddInt is Add for integer quantities.
func (t *Tally) AddInt(key string, v int64) {
	t.Add(key, decimal.NewFromInt(v))
}

// Value returns the folded value for key.
func (t *Tally) Value(key string) (decimal.Decimal, bool) {
	i, ok := t.index[key]
	if !ok {
		return decimal.Zero, false
	}
	return t.values[i].Value, true
}

// Len returns the number of distinct keys.
func (t *Tally) Len() int { return len(t.values) }

// Total returns the plain sum of every observed value.
func (t *Tally) Total() decimal.Decimal { return t.total }

// Entries returns a copy of the folded values in first-observed order.
func (t *Tally) Entries() []Entry {
	out := make([]Entry, len(t.values))
	copy(out, t.values)
	return out
}
