package util

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/minio/highwayhash"
)

var hashKey = []byte("sysmlfuse-highwayhash-key-000001")

// HashID returns a stable 16 character hex digest of the joined parts.
// It is used wherever a synthesized identifier must be reproducible across
// runs over the same input.
func HashID(parts ...string) string {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		// Only fails for a key that is not 32 bytes long.
		panic(err)
	}
	_, _ = h.Write([]byte(strings.Join(parts, "\x1f")))
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], h.Sum64())
	return hex.EncodeToString(buf[:])
}

// NewRunID returns a random identifier for one pipeline invocation.
func NewRunID() string {
	id, err := gonanoid.New()
	if err != nil {
		return "run-" + HashID(err.Error())
	}
	return id
}
