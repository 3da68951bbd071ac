// Package id mints ULIDs for every stored entity. Within one process the ids
// are strictly increasing, so sort keys built from them keep insert order even
// when several audit rows land in the same millisecond.
package id

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns an id stamped with the current time.
func New() string {
	return At(time.Now())
}

// At returns an id whose timestamp part is t. Callers that already hold the
// row's CreatedAt pass it here so the id and the attribute agree.
func At(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// Time extracts the creation time encoded in an id.
func Time(s string) (time.Time, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}
