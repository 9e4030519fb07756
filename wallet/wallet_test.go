package wallet

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletVote(t *testing.T) {
	w, err := New()
	require.NoError(t, err)

	tx, err := w.Vote("alice")
	require.NoError(t, err)
	assert.Equal(t, w.PublicKeyHex(), tx.Sender)
	assert.Equal(t, "alice", tx.Candidate)
	assert.True(t, tx.IsValid())
}

func TestWalletExportImport(t *testing.T) {
	w, err := New()
	require.NoError(t, err)

	exported := w.ExportPrivateKey()
	assert.Equal(t, "0x", exported[:2])

	restored, err := FromHex(exported)
	require.NoError(t, err)
	assert.Equal(t, w.PublicKeyHex(), restored.PublicKeyHex())
	assert.Equal(t, w.Address(), restored.Address())

	restored, err = FromHex(exported[2:])
	require.NoError(t, err)
	assert.Equal(t, w.PublicKeyHex(), restored.PublicKeyHex())

	_, err = FromHex("not-hex")
	assert.Error(t, err)
}

func TestWalletAddressMatchesEthereum(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(w.privateKey.PublicKey).Hex(), w.Address())
}

func TestWalletSignaturesAreDeterministic(t *testing.T) {
	w, err := New()
	require.NoError(t, err)

	a, err := w.Sign([]byte("x"))
	require.NoError(t, err)
	b, err := w.Sign([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
