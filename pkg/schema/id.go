// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/oklog/ulid/v2"
	"github.com/rs/xid"
)

// NewULIDStrategy returns the default id strategy. It generates 26 character
// ULIDs (Crockford base32) whose lexical order follows the generation time at
// millisecond resolution. Ids generated within the same millisecond by the
// same strategy are strictly increasing. Clock times outside of the ULID
// range (before 1970 or after year 10889) are clamped to it.
func NewULIDStrategy(clock clockwork.Clock) IDStrategy {
	g := &ulidGenerator{
		clock:   clock,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
	return g.next
}

type ulidGenerator struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	entropy *ulid.MonotonicEntropy
}

func (g *ulidGenerator) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := ulidTime(g.clock.Now())
	id, err := ulid.New(ms, g.entropy)
	if err != nil {
		// monotonic entropy exhausted within the millisecond
		id = ulid.MustNew(ms, rand.Reader)
	}
	return id.String()
}

// ulidTime clamps the time to the range a ULID timestamp can hold.
func ulidTime(t time.Time) uint64 {
	ms := t.UnixMilli()
	switch {
	case ms < 0:
		return 0
	case uint64(ms) > ulid.MaxTime():
		return ulid.MaxTime()
	default:
		return uint64(ms)
	}
}

// UUIDStrategy generates random (v4) UUIDs.
func UUIDStrategy() string {
	return uuid.NewString()
}

// XIDStrategy generates 20 character, time sortable xids.
func XIDStrategy() string {
	return xid.New().String()
}
