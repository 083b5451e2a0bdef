package fingerprint

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Size is the digest size in bytes.
const Size = 32

// Fingerprint is a BLAKE2b-256 digest of an evaluated value.
type Fingerprint [Size]byte

// Zero is the fingerprint of nothing; it never matches a hashed value.
var Zero Fingerprint

// String returns the hex form of the fingerprint.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// IsZero reports whether the fingerprint is unset.
func (f Fingerprint) IsZero() bool {
	return f == Zero
}

// Hash digests a value. Values are encoded as JSON, which sorts map keys,
// so equal values produce equal fingerprints. Values that cannot be
// JSON-encoded (channels, funcs) fall back to their Go-syntax
// representation; that keeps hashing total at the cost of weaker equality
// for such values.
func Hash(value any) Fingerprint {
	data, err := json.Marshal(value)
	if err != nil {
		data = []byte(fmt.Sprintf("%#v", value))
	}
	return blake2b.Sum256(data)
}

// HashBytes digests raw bytes.
func HashBytes(data []byte) Fingerprint {
	return blake2b.Sum256(data)
}

// Combine folds several fingerprints into one, order-sensitively. The
// engine uses it to summarize a node's dependency values in dependency
// order.
func Combine(fps ...Fingerprint) Fingerprint {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only fails with a key; none is passed.
		panic(err)
	}
	for _, fp := range fps {
		h.Write(fp[:])
	}
	var out Fingerprint
	copy(out[:], h.Sum(nil))
	return out
}
