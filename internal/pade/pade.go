// Package pade holds the Pade approximant coefficients used by the
// log-spectrum approximation filters to realise exp(F(z)) as a rational
// function of F(z).
//
// Row l of a table holds a[0..l] such that
//
//	exp(w) ≈ (1 + Σ a[k] w^k) / (1 + Σ a[k] (-w)^k)
//
// Tables are read-only after package initialisation and safe to share
// between any number of concurrently running filters.
package pade

import (
	"errors"
	"fmt"
)

// MaxOrder is the highest approximation order held in the tables.
const MaxOrder = 7

// ErrUnsupportedOrder indicates an approximation order outside the table.
var ErrUnsupportedOrder = errors.New("pade: unsupported approximation order")

// Table selects which coefficient set a filter uses.
type Table int

const (
	// TableTuned uses coefficients fitted for the wide log-spectral range of
	// speech envelopes. Only orders 4 and 5 exist in this form.
	TableTuned Table = iota
	// TableClassic uses the exact Pade approximant of exp.
	TableClassic
)

// String returns the flag spelling of the table.
func (t Table) String() string {
	switch t {
	case TableTuned:
		return "tuned"
	case TableClassic:
		return "classic"
	default:
		return fmt.Sprintf("Table(%d)", int(t))
	}
}

// classic[l] holds the exact approximant of order l:
// a[k] = (2l-k)! l! / ((2l)! k! (l-k)!).
var classic = [MaxOrder + 1][]float64{
	{1.0},
	{1.0, 1.0 / 2},
	{1.0, 1.0 / 2, 1.0 / 12},
	{1.0, 1.0 / 2, 1.0 / 10, 1.0 / 120},
	{1.0, 1.0 / 2, 3.0 / 28, 1.0 / 84, 1.0 / 1680},
	{1.0, 1.0 / 2, 1.0 / 9, 1.0 / 72, 1.0 / 1008, 1.0 / 30240},
	{1.0, 1.0 / 2, 5.0 / 44, 1.0 / 66, 1.0 / 792, 1.0 / 15840, 1.0 / 665280},
	{1.0, 1.0 / 2, 3.0 / 26, 5.0 / 312, 5.0 / 3432, 1.0 / 11440, 1.0 / 308880, 1.0 / 17297280},
}

var tuned = [MaxOrder + 1][]float64{
	4: {1.0, 0.4999273, 0.1067005, 0.01170221, 0.0005656279},
	5: {1.0, 0.4999391, 0.1107098, 0.01369984, 0.0009564853, 0.00003041721},
}

// Row returns the pd+1 coefficients of the classic approximant of order pd.
// The returned slice aliases the table and must not be modified.
func Row(pd int) ([]float64, error) {
	if pd < 1 || pd > MaxOrder {
		return nil, fmt.Errorf("%w: %d (must be 1-%d)", ErrUnsupportedOrder, pd, MaxOrder)
	}
	return classic[pd], nil
}

// Tuned returns the tuned coefficients for pd 4 or 5.
func Tuned(pd int) ([]float64, error) {
	if pd < 0 || pd > MaxOrder || tuned[pd] == nil {
		return nil, fmt.Errorf("%w: %d has no tuned form (must be 4 or 5)", ErrUnsupportedOrder, pd)
	}
	return tuned[pd], nil
}

// Lookup returns the row of order pd from the given table.
func Lookup(t Table, pd int) ([]float64, error) {
	switch t {
	case TableTuned:
		return Tuned(pd)
	case TableClassic:
		return Row(pd)
	default:
		return nil, fmt.Errorf("pade: unknown table %d", int(t))
	}
}
