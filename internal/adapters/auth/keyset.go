package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"
)

// KeySet authorizes bearer tokens against a fixed list of API keys. An
// empty set accepts any token.
type KeySet struct {
	digests [][sha256.Size]byte
}

// NewKeySet builds a set from keys, ignoring blanks and surrounding space.
func NewKeySet(keys []string) *KeySet {
	ks := &KeySet{}
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		ks.digests = append(ks.digests, sha256.Sum256([]byte(k)))
	}
	return ks
}

// ParseKeys splits a comma-separated list, dropping blank entries. It also
// reads the CORS origin list.
func ParseKeys(raw string) []string {
	var out []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// Open reports whether no keys are configured.
func (ks *KeySet) Open() bool { return len(ks.digests) == 0 }

// Len returns the number of configured keys.
func (ks *KeySet) Len() int { return len(ks.digests) }

func (ks *KeySet) Authorize(credential string) bool {
	if ks.Open() {
		return true
	}
	d := sha256.Sum256([]byte(credential))
	ok := 0
	for i := range ks.digests {
		ok |= subtle.ConstantTimeCompare(d[:], ks.digests[i][:])
	}
	return ok == 1
}
