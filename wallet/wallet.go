// Package wallet holds a voter's secp256k1 key pair. Only the public key ever
// leaves the wallet; the private key signs vote transactions.
package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"votechain/encryption"
	"votechain/models"
)

type Wallet struct {
	privateKey   *ecdsa.PrivateKey
	publicKeyHex string
}

// New generates a wallet with a fresh key pair.
func New() (*Wallet, error) {
	privateKey, err := encryption.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}
	return fromKey(privateKey), nil
}

// FromHex restores a wallet from a hex private key, with or without 0x prefix.
func FromHex(privateKeyHex string) (*Wallet, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to restore private key: %v", err)
	}
	return fromKey(privateKey), nil
}

func fromKey(privateKey *ecdsa.PrivateKey) *Wallet {
	return &Wallet{
		privateKey:   privateKey,
		publicKeyHex: encryption.EncodePublicKey(&privateKey.PublicKey),
	}
}

// PublicKeyHex is the voter identity placed in transactions.
func (w *Wallet) PublicKeyHex() string {
	return w.publicKeyHex
}

// ExportPrivateKey returns the 0x-prefixed private key.
func (w *Wallet) ExportPrivateKey() string {
	return hexutil.Encode(crypto.FromECDSA(w.privateKey))
}

// Address is the checksummed 20-byte account address of the public key.
func (w *Wallet) Address() string {
	return crypto.PubkeyToAddress(w.privateKey.PublicKey).Hex()
}

func (w *Wallet) Sign(message []byte) ([]byte, error) {
	return encryption.Sign(w.privateKey, message)
}

// Vote builds and signs a vote for candidate.
func (w *Wallet) Vote(candidate string) (*models.VoteTransaction, error) {
	tx := models.NewVoteTransaction(w.publicKeyHex, candidate)
	if err := tx.Sign(w); err != nil {
		return nil, err
	}
	return tx, nil
}
