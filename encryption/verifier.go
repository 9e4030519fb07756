package encryption

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
)

// Verifier checks hex-encoded signatures over raw messages.
type Verifier interface {
	VerifyHex(publicKeyHex string, message []byte, signatureHex string) bool
}

type plainVerifier struct{}

func (plainVerifier) VerifyHex(publicKeyHex string, message []byte, signatureHex string) bool {
	return VerifyHex(publicKeyHex, message, signatureHex)
}

// PlainVerifier verifies every call from scratch.
func PlainVerifier() Verifier {
	return plainVerifier{}
}

// CachedVerifier remembers signatures that verified successfully so that
// re-validating a long chain does not redo the curve arithmetic. Failed
// verifications are never cached.
type CachedVerifier struct {
	cache  *lru.Cache
	hits   uint64
	misses uint64
}

func NewCachedVerifier(size int) (*CachedVerifier, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create signature cache: %w", err)
	}
	return &CachedVerifier{cache: cache}, nil
}

func (v *CachedVerifier) VerifyHex(publicKeyHex string, message []byte, signatureHex string) bool {
	key := string(Keccak256(
		Keccak256([]byte(publicKeyHex)),
		Keccak256(message),
		Keccak256([]byte(signatureHex)),
	))

	if _, ok := v.cache.Get(key); ok {
		atomic.AddUint64(&v.hits, 1)
		return true
	}
	atomic.AddUint64(&v.misses, 1)

	if !VerifyHex(publicKeyHex, message, signatureHex) {
		return false
	}
	v.cache.Add(key, struct{}{})
	return true
}

// Stats returns the number of cache hits and misses so far.
func (v *CachedVerifier) Stats() (hits, misses uint64) {
	return atomic.LoadUint64(&v.hits), atomic.LoadUint64(&v.misses)
}

func (v *CachedVerifier) Len() int {
	return v.cache.Len()
}
