package utils

import (
	"crypto/sha1"
	"fmt"
	"time"
)

// GenerateETag builds a strong ETag from a document id and its last
// change timestamp.
func GenerateETag(id string, t time.Time) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s-%d", id, t.UnixNano())))
	return fmt.Sprintf("\"%x\"", sum[:8])
}
