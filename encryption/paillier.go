package encryption

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/roasbeef/go-go-gadget-paillier"
)

// PaillierScheme is an additively homomorphic scheme used to aggregate vote
// counts without decrypting individual contributions.
type PaillierScheme struct {
	keySize    int
	privateKey *paillier.PrivateKey
	publicKey  *paillier.PublicKey
}

// NewPaillierScheme generates a fresh key of keySize bits.
func NewPaillierScheme(keySize int) (*PaillierScheme, error) {
	privateKey, err := paillier.GenerateKey(rand.Reader, keySize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Paillier key: %v", err)
	}
	return &PaillierScheme{
		keySize:    keySize,
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
	}, nil
}

// Name returns the name of the encryption scheme
func (p *PaillierScheme) Name() string {
	return fmt.Sprintf("Paillier-%d", p.keySize)
}

// KeySize returns the key size in bits
func (p *PaillierScheme) KeySize() int {
	return p.keySize
}

// Encrypt encrypts a non-negative integer
func (p *PaillierScheme) Encrypt(value int64) ([]byte, error) {
	if value < 0 {
		return nil, fmt.Errorf("cannot encrypt negative value %d", value)
	}
	return paillier.Encrypt(p.publicKey, big.NewInt(value).Bytes())
}

// Decrypt decrypts a ciphertext back to its integer value
func (p *PaillierScheme) Decrypt(ciphertext []byte) (int64, error) {
	if len(ciphertext) == 0 {
		return 0, fmt.Errorf("ciphertext is empty")
	}

	plaintext, err := paillier.Decrypt(p.privateKey, ciphertext)
	if err != nil {
		return 0, fmt.Errorf("decryption failed: %w", err)
	}

	result := new(big.Int).SetBytes(plaintext)
	if !result.IsInt64() {
		return 0, fmt.Errorf("decrypted value overflows int64")
	}
	return result.Int64(), nil
}

// Add performs homomorphic addition of two ciphertexts
func (p *PaillierScheme) Add(ciphertext1, ciphertext2 []byte) []byte {
	return paillier.AddCipher(p.publicKey, ciphertext1, ciphertext2)
}
