package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// CacheKey derives the opaque lookup token for one normalized request:
// hex(sha256(src ‖ width? ‖ quality ‖ format?)) with width and quality as
// decimal strings. Absent segments are omitted entirely, never zero-padded or
// delimited; quality is always present because the default is applied before
// derivation. The layout is shared with any other implementation writing to
// the same store, so it must not change.
func CacheKey(src string, width *int, quality int, format string) string {
	h := sha256.New()
	h.Write([]byte(src))
	if width != nil {
		h.Write([]byte(strconv.Itoa(*width)))
	}
	h.Write([]byte(strconv.Itoa(quality)))
	if format != "" {
		h.Write([]byte(format))
	}
	return hex.EncodeToString(h.Sum(nil))
}
