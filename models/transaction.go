package models

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"votechain/encryption"
)

// Sentinel senders of system transactions.
const (
	GenesisSender = "0"
	RewardSender  = "SYSTEM"
)

var (
	ErrAlreadySigned  = errors.New("transaction is already signed")
	ErrSignerMismatch = errors.New("signer does not own the sender key")
)

// TxRecord is the field set of a transaction as it is hashed into a block.
// An empty Signature encodes as null.
type TxRecord struct {
	Sender    string `json:"sender"`
	Candidate string `json:"candidate"`
	Signature string `json:"signature"`
}

// Transaction is either a *VoteTransaction or a *SystemTransaction.
type Transaction interface {
	Record() TxRecord
	// IsValid checks the transaction on its own, without chain context.
	IsValid() bool
	ValidWith(v encryption.Verifier) bool
	IsSystem() bool
}

// Signer is anything holding a private key for a hex public key, usually a wallet.
type Signer interface {
	PublicKeyHex() string
	Sign(message []byte) ([]byte, error)
}

// VoteTransaction states that the holder of Sender votes for Candidate.
type VoteTransaction struct {
	Sender    string `json:"sender"`
	Candidate string `json:"candidate"`
	Signature string `json:"signature,omitempty"`
}

func NewVoteTransaction(sender, candidate string) *VoteTransaction {
	return &VoteTransaction{Sender: sender, Candidate: candidate}
}

// SigningPayload is sender ++ candidate, the bytes covered by the signature.
func (tx *VoteTransaction) SigningPayload() []byte {
	payload := make([]byte, 0, len(tx.Sender)+len(tx.Candidate))
	payload = append(payload, tx.Sender...)
	return append(payload, tx.Candidate...)
}

// Sign signs the transaction once. Re-signing returns ErrAlreadySigned.
func (tx *VoteTransaction) Sign(signer Signer) error {
	if tx.Signature != "" {
		return ErrAlreadySigned
	}

	sender, err := encryption.NormalizePublicKey(tx.Sender)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if owner, err := encryption.NormalizePublicKey(signer.PublicKeyHex()); err != nil || owner != sender {
		return ErrSignerMismatch
	}

	signature, err := signer.Sign(tx.SigningPayload())
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	tx.Signature = hex.EncodeToString(signature)
	return nil
}

func (tx *VoteTransaction) IsSigned() bool {
	return tx.Signature != ""
}

func (tx *VoteTransaction) IsValid() bool {
	return tx.ValidWith(encryption.PlainVerifier())
}

func (tx *VoteTransaction) ValidWith(v encryption.Verifier) bool {
	if !tx.IsSigned() {
		return false
	}
	return v.VerifyHex(tx.Sender, tx.SigningPayload(), tx.Signature)
}

func (tx *VoteTransaction) IsSystem() bool { return false }

func (tx *VoteTransaction) Record() TxRecord {
	return TxRecord{Sender: tx.Sender, Candidate: tx.Candidate, Signature: tx.Signature}
}

// SystemTransaction is an unsigned placeholder: the genesis seed or a mining
// reward. It is never checked cryptographically.
type SystemTransaction struct {
	Sender    string `json:"sender"`
	Candidate string `json:"candidate"`
	Signature string `json:"signature"`
}

func NewGenesisTransaction() *SystemTransaction {
	return &SystemTransaction{Sender: GenesisSender, Candidate: "genesis", Signature: GenesisSender}
}

// NewRewardTransaction credits minerID with mining a block.
func NewRewardTransaction(minerID string) *SystemTransaction {
	return &SystemTransaction{Sender: RewardSender, Candidate: minerID, Signature: RewardSender}
}

func (tx *SystemTransaction) IsReward() bool {
	return tx.Sender == RewardSender
}

func (tx *SystemTransaction) IsGenesis() bool {
	return tx.Sender == GenesisSender
}

// IsValid only checks that the sentinel fields are well formed.
func (tx *SystemTransaction) IsValid() bool {
	return (tx.IsReward() || tx.IsGenesis()) && tx.Signature == tx.Sender
}

func (tx *SystemTransaction) ValidWith(encryption.Verifier) bool {
	return tx.IsValid()
}

func (tx *SystemTransaction) IsSystem() bool { return true }

func (tx *SystemTransaction) Record() TxRecord {
	return TxRecord{Sender: tx.Sender, Candidate: tx.Candidate, Signature: tx.Signature}
}

// TransactionID is the Keccak-256 of the RLP-encoded record, used to refer to
// transactions in receipts and listings. It is not part of the block hash.
func TransactionID(tx Transaction) string {
	encoded, err := rlp.EncodeToBytes(tx.Record())
	if err != nil {
		// a struct of strings always encodes
		panic(err)
	}
	return hex.EncodeToString(encryption.Keccak256(encoded))
}

func cloneTransaction(tx Transaction) Transaction {
	switch t := tx.(type) {
	case *VoteTransaction:
		c := *t
		return &c
	case *SystemTransaction:
		c := *t
		return &c
	default:
		return tx
	}
}
