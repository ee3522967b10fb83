// Package entropy provides seeds for runs that do not pin one.
// Seeds come from crypto/rand so unpinned maps differ run to run.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"log/slog"
	"time"
)

// Seed returns a nonzero random seed. Falls back to the wall clock if
// crypto/rand is unavailable.
func Seed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		slog.Debug("crypto seed unavailable, using clock", "error", err)
		return time.Now().UnixNano() | 1
	}
	s := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if s == 0 {
		s = 1
	}
	return s
}
