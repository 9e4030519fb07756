package encryption

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	key, err := GenerateKeyPair()
	require.NoError(t, err)
	pub := crypto.FromECDSAPub(&key.PublicKey)
	msg := []byte(EncodePublicKey(&key.PublicKey) + "alice")

	sig, err := Sign(key, msg)
	require.NoError(t, err)
	require.Len(t, sig, SignatureLength)
	assert.True(t, Verify(pub, msg, sig))

	again, err := Sign(key, msg)
	require.NoError(t, err)
	assert.Equal(t, sig, again, "signatures are deterministic")
}

func TestVerifyRejectsSignatureBitFlips(t *testing.T) {
	key, err := GenerateKeyPair()
	require.NoError(t, err)
	pub := crypto.FromECDSAPub(&key.PublicKey)
	msg := []byte("vote for bob")

	sig, err := Sign(key, msg)
	require.NoError(t, err)

	for i := 0; i < len(sig)*8; i++ {
		flipped := append([]byte(nil), sig...)
		flipped[i/8] ^= 1 << (i % 8)
		assert.False(t, Verify(pub, msg, flipped), fmt.Sprintf("bit: %d", i))
	}
}

func TestVerifyRejectsMessageBitFlips(t *testing.T) {
	key, err := GenerateKeyPair()
	require.NoError(t, err)
	pub := crypto.FromECDSAPub(&key.PublicKey)
	msg := []byte("carol")

	sig, err := Sign(key, msg)
	require.NoError(t, err)

	for i := 0; i < len(msg)*8; i++ {
		flipped := append([]byte(nil), msg...)
		flipped[i/8] ^= 1 << (i % 8)
		assert.False(t, Verify(pub, flipped, sig), fmt.Sprintf("bit: %d", i))
	}
}

func TestVerifyWrongKey(t *testing.T) {
	key, err := GenerateKeyPair()
	require.NoError(t, err)
	other, err := GenerateKeyPair()
	require.NoError(t, err)
	msg := []byte("dave")

	sig, err := Sign(key, msg)
	require.NoError(t, err)
	assert.False(t, Verify(crypto.FromECDSAPub(&other.PublicKey), msg, sig))
}

func TestVerifyIsTotal(t *testing.T) {
	key, err := GenerateKeyPair()
	require.NoError(t, err)
	pub := crypto.FromECDSAPub(&key.PublicKey)
	msg := []byte("erin")
	sig, err := Sign(key, msg)
	require.NoError(t, err)

	random := make([]byte, SignatureLength)
	_, err = rand.Read(random)
	require.NoError(t, err)

	data := []struct {
		pub []byte
		sig []byte
	}{
		{nil, nil},
		{pub, nil},
		{nil, sig},
		{pub, []byte{}},
		{pub, sig[:SignatureLength-1]},
		{pub, append(append([]byte(nil), sig...), 0)},
		{pub, random},
		{pub, make([]byte, SignatureLength)},
		{crypto.CompressPubkey(&key.PublicKey), sig},
		{pub[:PublicKeyLength-1], sig},
		{make([]byte, PublicKeyLength), sig},
		{[]byte("not a key"), []byte("not a signature")},
	}

	for i, d := range data {
		assert.NotPanics(t, func() {
			assert.False(t, Verify(d.pub, msg, d.sig), fmt.Sprintf("row: %d", i))
		})
	}
}

func TestVerifyHex(t *testing.T) {
	key, err := GenerateKeyPair()
	require.NoError(t, err)
	pubHex := EncodePublicKey(&key.PublicKey)
	msg := []byte(pubHex + "frank")
	sig, err := Sign(key, msg)
	require.NoError(t, err)
	sigHex := hex.EncodeToString(sig)

	assert.True(t, VerifyHex(pubHex, msg, sigHex))
	assert.False(t, VerifyHex("zz"+pubHex[2:], msg, sigHex))
	assert.False(t, VerifyHex(pubHex, msg, "0x"+sigHex))
	assert.False(t, VerifyHex(pubHex, msg, sigHex[1:]))
	assert.False(t, VerifyHex("", msg, ""))
}

func TestNormalizePublicKey(t *testing.T) {
	key, err := GenerateKeyPair()
	require.NoError(t, err)
	pubHex := EncodePublicKey(&key.PublicKey)

	normalized, err := NormalizePublicKey(strings.ToUpper(pubHex))
	require.NoError(t, err)
	assert.Equal(t, pubHex, normalized)

	_, err = NormalizePublicKey(hex.EncodeToString(crypto.CompressPubkey(&key.PublicKey)))
	assert.ErrorIs(t, err, ErrInvalidPublicKey)

	_, err = NormalizePublicKey("SYSTEM")
	assert.ErrorIs(t, err, ErrInvalidPublicKey)
}

func TestSignNilKey(t *testing.T) {
	_, err := Sign(nil, []byte("x"))
	assert.Error(t, err)
}

func TestEncodePublicKeyNil(t *testing.T) {
	assert.Equal(t, "", EncodePublicKey(nil))
}
