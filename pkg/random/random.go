// Package random abstracts randomness so code issuance is deterministic in
// tests. The production source draws from crypto/rand.
package random

import (
	"crypto/rand"
	"math/big"
)

// Source yields random integers.
type Source interface {
	// Intn returns a uniform random int in [0, n).
	Intn(n int) int
}

// Crypto draws from crypto/rand.
type Crypto struct{}

// New returns a crypto/rand-backed source.
func New() Crypto { return Crypto{} }

// Intn returns a uniform random int in [0, n); 0 when n <= 0.
func (Crypto) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// Fake replays a queued sequence of values, then returns 0.
type Fake struct {
	values []int
	next   int
}

// NewFake returns a fake source that will yield the given values in order.
func NewFake(values ...int) *Fake { return &Fake{values: values} }

// Intn returns the next queued value modulo n, or 0 when the queue is drained.
func (f *Fake) Intn(n int) int {
	if f.next >= len(f.values) || n <= 0 {
		return 0
	}
	v := f.values[f.next] % n
	f.next++
	return v
}

// Queue appends values to the replay sequence.
func (f *Fake) Queue(values ...int) { f.values = append(f.values, values...) }
