package encryption

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

// SignatureLength is the size of a recoverable secp256k1 signature [R || S || V].
const SignatureLength = crypto.SignatureLength

// PublicKeyLength is the size of an uncompressed secp256k1 public key.
const PublicKeyLength = 65

var ErrInvalidPublicKey = errors.New("invalid public key")

// GenerateKeyPair generates a new secp256k1 key pair
func GenerateKeyPair() (*ecdsa.PrivateKey, error) {
	return crypto.GenerateKey()
}

// Sign creates a deterministic (RFC 6979) signature of SHA-256(message).
func Sign(privateKey *ecdsa.PrivateKey, message []byte) ([]byte, error) {
	if privateKey == nil {
		return nil, errors.New("nil private key")
	}
	digest := sha256.Sum256(message)
	return crypto.Sign(digest[:], privateKey)
}

// Verify reports whether signature is a valid signature of SHA-256(message)
// by publicKey. Malformed keys and signatures yield false.
func Verify(publicKey, message, signature []byte) bool {
	if len(signature) != SignatureLength || signature[SignatureLength-1] > 1 {
		return false
	}
	if _, err := crypto.UnmarshalPubkey(publicKey); err != nil {
		return false
	}

	digest := sha256.Sum256(message)
	if !crypto.VerifySignature(publicKey, digest[:], signature[:SignatureLength-1]) {
		return false
	}

	// The recovery id is not covered by VerifySignature.
	recovered, err := crypto.Ecrecover(digest[:], signature)
	if err != nil {
		return false
	}
	return bytes.Equal(recovered, publicKey)
}

// VerifyHex is Verify over hex-encoded key and signature.
func VerifyHex(publicKeyHex string, message []byte, signatureHex string) bool {
	publicKey, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return false
	}
	signature, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false
	}
	return Verify(publicKey, message, signature)
}

// EncodePublicKey serializes a public key to lowercase hex of its uncompressed form
func EncodePublicKey(pub *ecdsa.PublicKey) string {
	if pub == nil || pub.X == nil || pub.Y == nil {
		return ""
	}
	return hex.EncodeToString(crypto.FromECDSAPub(pub))
}

// DecodePublicKey parses a hex-encoded uncompressed secp256k1 public key.
func DecodePublicKey(publicKeyHex string) (*ecdsa.PublicKey, error) {
	raw, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	pub, err := crypto.UnmarshalPubkey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return pub, nil
}

// NormalizePublicKey returns the canonical lowercase hex form of a public key.
// Two encodings of the same key normalize to the same string.
func NormalizePublicKey(publicKeyHex string) (string, error) {
	pub, err := DecodePublicKey(publicKeyHex)
	if err != nil {
		return "", err
	}
	return EncodePublicKey(pub), nil
}

// Keccak256 computes Keccak-256 hash
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}
