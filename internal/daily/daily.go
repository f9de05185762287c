// Package daily picks the shared "event of the day" so every player on a
// given UTC date chases the same target.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// TargetID returns a deterministic event id in [0, corpusSize) for the
// date: HMAC(salt, YYYY-MM-DD) % corpusSize.
func TargetID(date time.Time, salt string, corpusSize int) int {
	if corpusSize <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// first 8 bytes as uint64 for the modulus
	n := binary.BigEndian.Uint64(sum[:8])
	return int(n % uint64(corpusSize))
}

// Picker returns successive candidate ids for the day. The first is
// TargetID; later calls step through the corpus so a missing id can be
// skipped while staying deterministic for everyone.
func Picker(date time.Time, salt string, corpusSize int) func() int {
	next := TargetID(date, salt, corpusSize)
	return func() int {
		id := next
		if corpusSize > 0 {
			next = (next + 1) % corpusSize
		}
		return id
	}
}
