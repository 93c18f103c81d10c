// Package id generates record identifiers for components and scenarios.
//
// Identifiers are ULIDs: 26 characters of Crockford base32 whose first ten
// encode the creation millisecond, so the journal's TEXT primary keys sort
// by age.
package id

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator hands out increasing ULIDs. It is safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	now     func() time.Time
	entropy io.Reader
}

// NewGenerator returns a generator reading time from now and randomness from
// entropy. Nil arguments select the wall clock and crypto/rand.
func NewGenerator(now func() time.Time, entropy io.Reader) *Generator {
	if now == nil {
		now = time.Now
	}
	if entropy == nil {
		entropy = rand.Reader
	}
	return &Generator{now: now, entropy: ulid.Monotonic(entropy, 0)}
}

// Next returns a new ULID string. IDs made within one millisecond increment
// the random part instead of redrawing it.
func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	v, err := ulid.New(ulid.Timestamp(g.now().UTC()), g.entropy)
	if err != nil {
		// entropy exhausted or the monotonic counter overflowed
		panic(err)
	}
	return v.String()
}

var std = NewGenerator(nil, nil)

// New returns a ULID from the package generator.
func New() string { return std.Next() }

// Valid reports whether s parses as a ULID.
func Valid(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}

// Time returns the creation time encoded in a ULID.
func Time(s string) (time.Time, bool) {
	v, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(v.Time()), true
}
