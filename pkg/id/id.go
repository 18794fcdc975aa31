// Package id generates ULIDs for journal runs and trades.
//
// ULIDs sort lexicographically by creation time, so ordering rows by id in
// SQLite is ordering them by when they were recorded.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator issues monotonic ULIDs. IDs generated within the same
// millisecond still increase.
type Generator struct {
	mu      sync.Mutex
	now     func() time.Time
	entropy io.Reader
}

// NewGenerator returns a generator using clock now and a PRNG seeded with
// seed. A zero seed is replaced by one from crypto/rand.
func NewGenerator(now func() time.Time, seed int64) *Generator {
	if now == nil {
		now = time.Now
	}
	if seed == 0 {
		_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
	}
	return &Generator{
		now:     now,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0),
	}
}

func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(g.now().UTC()), g.entropy)
	if err != nil {
		// only on entropy exhaustion within one millisecond
		panic(err)
	}
	return id.String()
}

// Time extracts the creation time encoded in a ULID string.
func Time(s string) (time.Time, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()).UTC(), nil
}

var std = NewGenerator(nil, 0)

// New returns a ULID from the package generator.
func New() string {
	return std.New()
}
